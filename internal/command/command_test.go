// SPDX-License-Identifier: MPL-2.0

package command

import (
	"slices"
	"testing"

	"github.com/MaLoskins/agentterm/internal/pkgset"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims whitespace", "  echo hi  ", "echo hi"},
		{"joins continuations", "echo \\\nhello", "echo hello"},
		{"collapses spaces", "echo    a\t b", "echo a b"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClassifyPlain(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"echo hello",
		"ls -la",
		"cd /tmp && ls",            // compound, not a bare cd
		"pip install foo | tee log", // pipeline, shell handles it
		"PATH=/x pip install foo",   // leading assignment
		"python -c 'print(1)'",
	} {
		if got := Classify(raw); got.Kind != KindPlain {
			t.Errorf("Classify(%q).Kind = %v, want KindPlain", raw, got.Kind)
		}
	}
}

func TestClassifyChangeDir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw string
		dir string
	}{
		{"cd /workspace", "/workspace"},
		{"cd ..", ".."},
		{"cd src", "src"},
		{"cd", ""},
		{"cd 'my dir'", "my dir"},
	}
	for _, tt := range tests {
		got := Classify(tt.raw)
		if got.Kind != KindChangeDir {
			t.Errorf("Classify(%q).Kind = %v, want KindChangeDir", tt.raw, got.Kind)
			continue
		}
		if got.Dir != tt.dir {
			t.Errorf("Classify(%q).Dir = %q, want %q", tt.raw, got.Dir, tt.dir)
		}
	}
}

func TestClassifyPipInstall(t *testing.T) {
	t.Parallel()

	got := Classify("pip install requests flask")
	if got.Kind != KindPackageInstall {
		t.Fatalf("Kind = %v, want KindPackageInstall", got.Kind)
	}
	if got.Manager != pkgset.Pip {
		t.Errorf("Manager = %q, want pip", got.Manager)
	}
	if got.Tool != "pip" {
		t.Errorf("Tool = %q, want pip", got.Tool)
	}
	if !slices.Equal(got.Packages, []string{"requests", "flask"}) {
		t.Errorf("Packages = %v", got.Packages)
	}
	if got.Passthrough {
		t.Error("Passthrough should be false")
	}
}

func TestClassifyPip3Install(t *testing.T) {
	t.Parallel()

	got := Classify("pip3 install numpy")
	if got.Kind != KindPackageInstall || got.Tool != "pip3" {
		t.Errorf("got %+v, want pip3 install", got)
	}
}

func TestClassifyPipRequirementsPassthrough(t *testing.T) {
	t.Parallel()

	got := Classify("pip install -r requirements.txt")
	if got.Kind != KindPackageInstall {
		t.Fatalf("Kind = %v", got.Kind)
	}
	if !got.Passthrough {
		t.Error("requirements install must be passthrough")
	}
}

func TestClassifyPipOptionsSkipped(t *testing.T) {
	t.Parallel()

	got := Classify("pip install --index-url https://mirror.example requests")
	if !slices.Equal(got.Packages, []string{"requests"}) {
		t.Errorf("Packages = %v, want [requests]", got.Packages)
	}

	got = Classify("pip install -U requests")
	if !slices.Equal(got.Packages, []string{"requests"}) {
		t.Errorf("Packages after bool flag = %v, want [requests]", got.Packages)
	}
}

func TestClassifyNpmInstall(t *testing.T) {
	t.Parallel()

	got := Classify("npm install express lodash")
	if got.Kind != KindPackageInstall || got.Manager != pkgset.NPM || got.Tool != "npm" {
		t.Fatalf("got %+v", got)
	}
	if !slices.Equal(got.Packages, []string{"express", "lodash"}) {
		t.Errorf("Packages = %v", got.Packages)
	}
}

func TestClassifyNpmGlobalPassthrough(t *testing.T) {
	t.Parallel()

	got := Classify("npm install -g typescript")
	if !got.Passthrough {
		t.Error("global install must be passthrough")
	}
}

func TestClassifyYarnAddDev(t *testing.T) {
	t.Parallel()

	got := Classify("yarn add --dev jest")
	if got.Kind != KindPackageInstall || got.Tool != "yarn" || got.Manager != pkgset.NPM {
		t.Fatalf("got %+v", got)
	}
	if !got.Dev {
		t.Error("Dev should be true")
	}
	if !slices.Equal(got.Packages, []string{"jest"}) {
		t.Errorf("Packages = %v", got.Packages)
	}
}

func TestClassifyNpmWithoutVerbIsPlain(t *testing.T) {
	t.Parallel()

	if got := Classify("npm run build"); got.Kind != KindPlain {
		t.Errorf("npm run classified as %v, want KindPlain", got.Kind)
	}
	if got := Classify("yarn build"); got.Kind != KindPlain {
		t.Errorf("yarn build classified as %v, want KindPlain", got.Kind)
	}
}

func TestClassifyNormalizesFirst(t *testing.T) {
	t.Parallel()

	got := Classify("  pip   install \\\n requests ")
	if got.Kind != KindPackageInstall {
		t.Fatalf("Kind = %v", got.Kind)
	}
	if got.Raw != "pip install requests" {
		t.Errorf("Raw = %q", got.Raw)
	}
}
