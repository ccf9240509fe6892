// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// internalExecVirtualCmd executes a command with the built-in shell
// interpreter. The virtual sandbox runs mvdan/sh entirely in-process, so it
// re-executes the agentterm binary through this command to get a real child
// process the supervisor can pipe from and signal.
var internalExecVirtualCmd = &cobra.Command{
	Use:    "exec-virtual",
	Short:  "Execute a command using the virtual shell (internal use only)",
	Hidden: true,
	RunE:   runInternalExecVirtual,
}

func init() {
	internalExecVirtualCmd.Flags().String("command", "", "command text to execute")
	internalExecVirtualCmd.Flags().String("workdir", "", "working directory for execution")

	_ = internalExecVirtualCmd.MarkFlagRequired("command")

	internalCmd.AddCommand(internalExecVirtualCmd)
}

// runInternalExecVirtual interprets the command with mvdan/sh, with stdio
// connected to this process's stdio so the parent captures it through the
// usual pipes.
func runInternalExecVirtual(cmd *cobra.Command, _ []string) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	commandText, _ := cmd.Flags().GetString("command")
	workdir, _ := cmd.Flags().GetString("workdir")

	prog, err := syntax.NewParser().Parse(strings.NewReader(commandText), "command")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing command: %v\n", err)
		return &ExitError{Code: 1}
	}

	opts := []interp.RunnerOption{
		interp.StdIO(os.Stdin, os.Stdout, os.Stderr),
		interp.Env(expand.ListEnviron(os.Environ()...)),
	}
	if workdir != "" {
		opts = append(opts, interp.Dir(workdir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating interpreter: %v\n", err)
		return &ExitError{Code: 1}
	}

	if err := runner.Run(cmd.Context(), prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &ExitError{Code: int(exitStatus)}
		}
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		return &ExitError{Code: 1}
	}
	return nil
}
