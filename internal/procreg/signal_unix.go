// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package procreg

import (
	"os"
	"syscall"
)

// terminateProcess sends SIGTERM to the process group when one exists, so
// children spawned by a wrapping shell are signaled too, falling back to the
// single process otherwise.
func terminateProcess(p *os.Process) error {
	if err := syscall.Kill(-p.Pid, syscall.SIGTERM); err == nil {
		return nil
	}
	return p.Signal(syscall.SIGTERM)
}

// killProcess force-kills the process group, falling back to the single
// process.
func killProcess(p *os.Process) error {
	if err := syscall.Kill(-p.Pid, syscall.SIGKILL); err == nil {
		return nil
	}
	return p.Kill()
}
