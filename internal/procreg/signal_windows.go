// SPDX-License-Identifier: MPL-2.0

//go:build windows

package procreg

import "os"

// Windows has no SIGTERM or process groups in the unix sense; Kill is the
// only termination primitive for both paths.
func terminateProcess(p *os.Process) error {
	return p.Kill()
}

func killProcess(p *os.Process) error {
	return p.Kill()
}
