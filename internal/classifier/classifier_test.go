// SPDX-License-Identifier: MPL-2.0

package classifier

import "testing"

func TestIsError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		output string
		want   bool
	}{
		{"clean output", "hello world\n", false},
		{"empty output", "", false},
		{"python traceback", "Traceback (most recent call last):\n  File \"x.py\"", true},
		{"command not found", "bash: frobnicate: command not found\n", true},
		{"permission denied", "/etc/shadow: Permission denied\n", true},
		{"lowercase error prefix", "error: something broke", true},
		{"uppercase error prefix", "ERROR: something broke", true},
		{"git fatal", "fatal: not a git repository", true},
		{"missing file", "cat: nope.txt: No such file or directory", true},
		{"exception prefix", "Exception: boom", true},
		{"failed prefix", "Failed: unit tests", true},
		{"word error without colon", "0 errors found", false},
		{"keyword mid-output", "building...\nerror: undefined symbol\ndone", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsError(tt.output); got != tt.want {
				t.Errorf("IsError(%q) = %v, want %v", tt.output, got, tt.want)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	if got := Match("ok\n"); got != "" {
		t.Errorf("Match on clean output = %q, want empty", got)
	}
	if got := Match("error: boom"); got != "error:" {
		t.Errorf("Match = %q, want %q", got, "error:")
	}
}

func TestKeywordsIsACopy(t *testing.T) {
	t.Parallel()

	ks := Keywords()
	if len(ks) == 0 {
		t.Fatal("expected non-empty keyword list")
	}
	ks[0] = "mutated"
	if Keywords()[0] == "mutated" {
		t.Error("Keywords() must return a copy")
	}
}
