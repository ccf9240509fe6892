// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/MaLoskins/agentterm/cmd/agentterm"

func main() {
	cmd.Execute()
}
