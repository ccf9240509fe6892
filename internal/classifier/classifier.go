// SPDX-License-Identifier: MPL-2.0

// Package classifier labels captured command output as erroneous based on
// substring heuristics. Many toolchains write diagnostics to stdout and the
// outer shell wrapper can mask genuine exit codes, so the verdict here is
// independent of the process exit status.
package classifier

import "strings"

// errorKeywords is the ordered list of substrings that flag an output as a
// failure. A single match anywhere in the output is authoritative; no attempt
// is made to distinguish warnings from fatal errors.
var errorKeywords = []string{
	"error:", "Error:", "ERROR:",
	"exception:", "Exception:", "EXCEPTION:",
	"failed:", "Failed:", "FAILED:",
	"command not found",
	"No such file or directory",
	"Permission denied",
	"fatal:",
	"Traceback (most recent call last)",
}

// IsError reports whether the output contains any known error indicator.
func IsError(output string) bool {
	return Match(output) != ""
}

// Match returns the first error keyword found in the output, or the empty
// string when none match. Useful for diagnostics and logging.
func Match(output string) string {
	for _, keyword := range errorKeywords {
		if strings.Contains(output, keyword) {
			return keyword
		}
	}
	return ""
}

// Keywords returns a copy of the keyword list in match order.
func Keywords() []string {
	out := make([]string, len(errorKeywords))
	copy(out, errorKeywords)
	return out
}
