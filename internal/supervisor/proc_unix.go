// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// setProcAttrs puts the child in its own process group so termination
// signals reach shell-spawned grandchildren as well.
func setProcAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
