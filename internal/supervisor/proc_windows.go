// SPDX-License-Identifier: MPL-2.0

//go:build windows

package supervisor

import "os/exec"

func setProcAttrs(*exec.Cmd) {}
