// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"strings"

	"github.com/MaLoskins/agentterm/internal/command"
)

// runInstall deduplicates a package install against the session ledger.
// Already-installed packages are filtered out; if nothing new remains the
// command is skipped entirely. The novel subset is committed to the ledger
// only after the install actually succeeded.
func (e *Engine) runInstall(ctx context.Context, cmd command.Command, ec execConfig) Result {
	if len(cmd.Packages) == 0 {
		// Bare installs (`pip install`, `npm install` reading a manifest)
		// run unmodified; there is nothing to deduplicate.
		return e.run(ctx, cmd.Raw, ec)
	}

	novel := e.packages.FilterNew(cmd.Packages, cmd.Manager)
	if len(novel) == 0 {
		e.logger.Debug("install skipped, nothing new",
			"manager", string(cmd.Manager), "packages", cmd.Packages)
		return Result{
			Success: true,
			Output:  "All packages already installed: " + strings.Join(cmd.Packages, ", "),
		}
	}

	res := e.run(ctx, rewriteInstall(cmd, novel), ec)
	// Background installs report success before the outcome is known, so
	// they never commit; a repeated install is cheaper than a wrong skip.
	if res.Success && !ec.background {
		e.packages.Commit(novel, cmd.Manager)
	}
	return res
}

// rewriteInstall rebuilds the install command covering only the given
// packages, preserving the tool and the dev-dependency flag.
func rewriteInstall(cmd command.Command, packages []string) string {
	verb := "install"
	if cmd.Tool == "yarn" {
		verb = "add"
	}
	parts := []string{cmd.Tool, verb}
	if cmd.Dev {
		if cmd.Tool == "yarn" {
			parts = append(parts, "--dev")
		} else {
			parts = append(parts, "--save-dev")
		}
	}
	parts = append(parts, packages...)
	return strings.Join(parts, " ")
}
