// SPDX-License-Identifier: MPL-2.0

// Package command normalizes raw command strings and classifies them into
// the variants the engine special-cases: directory changes, package installs,
// and everything else. Classification happens exactly once per command; the
// rest of the pipeline consumes the resulting Command value.
package command

import (
	"regexp"
	"strings"

	"github.com/MaLoskins/agentterm/internal/pkgset"

	"mvdan.cc/sh/v3/syntax"
)

// Kind discriminates the command variants.
type Kind int

const (
	// KindPlain is a command with no special handling.
	KindPlain Kind = iota
	// KindChangeDir is a `cd <target>` command.
	KindChangeDir
	// KindPackageInstall is a pip/pip3/npm/yarn install command.
	KindPackageInstall
)

// Command is the classified form of one normalized command string.
type Command struct {
	// Raw is the normalized command text.
	Raw string
	// Kind selects which of the variant fields below are meaningful.
	Kind Kind

	// Dir is the cd target (KindChangeDir only). May be relative, absolute,
	// "..", or empty.
	Dir string

	// Manager is the package manager set for KindPackageInstall.
	Manager pkgset.Manager
	// Tool is the literal tool token ("pip", "pip3", "npm", "yarn").
	Tool string
	// Packages are the requested package names, options stripped.
	Packages []string
	// Dev marks a dev-dependency install (--save-dev / -D / --dev).
	Dev bool
	// Passthrough marks installs that must run unmodified: requirements
	// files (-r) and global installs (-g/--global) bypass deduplication.
	Passthrough bool
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// Normalize trims the command, joins line continuations, and collapses runs
// of whitespace into single spaces.
func Normalize(raw string) string {
	cmd := strings.TrimSpace(raw)
	cmd = strings.ReplaceAll(cmd, "\\\n", " ")
	return whitespaceRE.ReplaceAllString(cmd, " ")
}

// Classify normalizes a raw command string and sorts it into a Command
// variant. Compound commands (pipes, &&, subshells, multiple statements) are
// never special-cased; they classify as plain so the shell sees them intact.
func Classify(raw string) Command {
	normalized := Normalize(raw)
	cmd := Command{Raw: normalized, Kind: KindPlain}

	fields, simple := shellFields(normalized)
	if !simple || len(fields) == 0 {
		return cmd
	}

	switch fields[0] {
	case "cd":
		cmd.Kind = KindChangeDir
		if len(fields) > 1 {
			cmd.Dir = fields[1]
		}
	case "pip", "pip3":
		if len(fields) > 1 && fields[1] == "install" {
			classifyPipInstall(&cmd, fields)
		}
	case "npm":
		if len(fields) > 1 && fields[1] == "install" {
			classifyNodeInstall(&cmd, fields, "npm")
		}
	case "yarn":
		if len(fields) > 1 && fields[1] == "add" {
			classifyNodeInstall(&cmd, fields, "yarn")
		}
	}
	return cmd
}

func classifyPipInstall(cmd *Command, fields []string) {
	cmd.Kind = KindPackageInstall
	cmd.Manager = pkgset.Pip
	cmd.Tool = fields[0]

	for _, f := range fields[2:] {
		if f == "-r" || f == "--requirement" {
			cmd.Passthrough = true
		}
	}
	cmd.Packages = extractPackages(fields[2:])
}

func classifyNodeInstall(cmd *Command, fields []string, tool string) {
	cmd.Kind = KindPackageInstall
	cmd.Manager = pkgset.NPM
	cmd.Tool = tool

	for _, f := range fields[2:] {
		switch f {
		case "-g", "--global":
			cmd.Passthrough = true
		case "-D", "--save-dev", "--dev":
			cmd.Dev = true
		}
	}
	cmd.Packages = extractPackages(fields[2:])
}

// extractPackages collects the non-option tokens. Mirroring the usual CLI
// convention, an option token consumes the following token when that token
// does not itself start with a dash.
func extractPackages(args []string) []string {
	var packages []string
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") {
			if isBoolFlag(args[i]) {
				continue
			}
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
			}
			continue
		}
		packages = append(packages, args[i])
	}
	return packages
}

// isBoolFlag lists install options known to take no value, so the package
// name following them is not swallowed.
func isBoolFlag(flag string) bool {
	switch flag {
	case "-g", "--global", "-D", "--save-dev", "--dev",
		"-U", "--upgrade", "--user", "-q", "--quiet", "-v", "--verbose",
		"--no-cache-dir", "--save", "-S", "--save-exact", "-E":
		return true
	}
	return false
}

// shellFields splits a command into shell words using the sh parser. It only
// reports simple=true for a single plain call whose words are all literals;
// anything else (pipelines, redirections, expansions, parse errors) is left
// for the real shell.
func shellFields(cmd string) (fields []string, simple bool) {
	file, err := syntax.NewParser().Parse(strings.NewReader(cmd), "command")
	if err != nil || len(file.Stmts) != 1 {
		return nil, false
	}

	stmt := file.Stmts[0]
	if stmt.Background || stmt.Negated || len(stmt.Redirs) > 0 {
		return nil, false
	}

	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok || len(call.Assigns) > 0 {
		return nil, false
	}

	for _, word := range call.Args {
		lit := word.Lit()
		if lit == "" {
			if quoted, ok := quotedLit(word); ok {
				lit = quoted
			} else {
				return nil, false
			}
		}
		fields = append(fields, lit)
	}
	return fields, true
}

// quotedLit unwraps a single- or double-quoted literal word part.
func quotedLit(word *syntax.Word) (string, bool) {
	if len(word.Parts) != 1 {
		return "", false
	}
	switch part := word.Parts[0].(type) {
	case *syntax.SglQuoted:
		return part.Value, true
	case *syntax.DblQuoted:
		if len(part.Parts) == 1 {
			if lit, ok := part.Parts[0].(*syntax.Lit); ok {
				return lit.Value, true
			}
		}
	}
	return "", false
}
