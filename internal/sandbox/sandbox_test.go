// SPDX-License-Identifier: MPL-2.0

package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/MaLoskins/agentterm/internal/config"
)

func TestNewSelectsByConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sandbox string
		want    string
		wantErr bool
	}{
		{"docker", "docker", false},
		{"host", "host", false},
		{"virtual", "virtual", false},
		{"chroot", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.sandbox, func(t *testing.T) {
			t.Parallel()
			cfg := config.Default()
			cfg.Sandbox = tt.sandbox
			sb, err := New(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && sb.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", sb.Name(), tt.want)
			}
		})
	}
}

func TestDockerPrepare(t *testing.T) {
	t.Parallel()

	d := NewDocker("sandbox_box")
	spec, err := d.Prepare("ls -la", "/workspace/src")
	if err != nil {
		t.Fatal(err)
	}
	if spec.Path != "docker" {
		t.Errorf("Path = %q, want docker", spec.Path)
	}
	want := []string{"exec", "-w", "/workspace/src", "sandbox_box", "bash", "-c", "ls -la"}
	if len(spec.Args) != len(want) {
		t.Fatalf("Args = %v, want %v", spec.Args, want)
	}
	for i := range want {
		if spec.Args[i] != want[i] {
			t.Errorf("Args[%d] = %q, want %q", i, spec.Args[i], want[i])
		}
	}
	if spec.Dir != "" {
		t.Errorf("Dir = %q, want empty (workdir travels inside exec args)", spec.Dir)
	}
}

func TestDockerPrepareRequiresContainer(t *testing.T) {
	t.Parallel()

	if _, err := NewDocker("").Prepare("true", "/"); err == nil {
		t.Error("expected error for unset container")
	}
}

func TestHostPrepare(t *testing.T) {
	t.Parallel()

	h := NewHost("/bin/bash")
	spec, err := h.Prepare("echo hi", "/tmp")
	if err != nil {
		t.Fatal(err)
	}
	if spec.Path != "/bin/bash" {
		t.Errorf("Path = %q", spec.Path)
	}
	if len(spec.Args) != 2 || spec.Args[0] != "-c" || spec.Args[1] != "echo hi" {
		t.Errorf("Args = %v", spec.Args)
	}
	if spec.Dir != "/tmp" {
		t.Errorf("Dir = %q, want /tmp", spec.Dir)
	}
}

func TestHostRunCapture(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("relies on a POSIX shell")
	}

	h := NewHost("")
	out, err := h.RunCapture(context.Background(), "echo captured", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "captured") {
		t.Errorf("output = %q, want it to contain %q", out, "captured")
	}
}

func TestHostRunCaptureUsesWorkdir(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("relies on a POSIX shell")
	}

	dir := t.TempDir()
	h := NewHost("")
	out, err := h.RunCapture(context.Background(), "pwd", dir)
	if err != nil {
		t.Fatal(err)
	}
	got, want := strings.TrimSpace(out), dir
	// macOS tempdirs resolve through /private symlinks.
	if resolved, err := filepath.EvalSymlinks(got); err == nil {
		got = resolved
	}
	if resolved, err := filepath.EvalSymlinks(want); err == nil {
		want = resolved
	}
	if got != want {
		t.Errorf("pwd = %q, want %q", got, want)
	}
}

func TestHostProbes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "probe.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	h := NewHost("")
	ctx := context.Background()
	if !h.DirExists(ctx, dir) {
		t.Error("DirExists(dir) = false")
	}
	if h.DirExists(ctx, file) {
		t.Error("DirExists(file) = true")
	}
	if !h.FileExists(ctx, file) {
		t.Error("FileExists(file) = false")
	}
	if h.FileExists(ctx, filepath.Join(dir, "missing")) {
		t.Error("FileExists(missing) = true")
	}
}

func TestHostFileTransfer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	h := NewHost("")
	if err := h.CopyIn(context.Background(), src, dst); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Errorf("copied content = %q", data)
	}
}

func TestVirtualRunCapture(t *testing.T) {
	t.Parallel()

	v := NewVirtual()
	out, err := v.RunCapture(context.Background(), "echo virtual world", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "virtual world") {
		t.Errorf("output = %q", out)
	}
}

func TestVirtualRunCaptureNonzeroExit(t *testing.T) {
	t.Parallel()

	v := NewVirtual()
	if _, err := v.RunCapture(context.Background(), "exit 3", t.TempDir()); err == nil {
		t.Error("expected error for nonzero exit")
	}
}

func TestVirtualPrepareRejectsBadSyntax(t *testing.T) {
	t.Parallel()

	v := NewVirtual()
	if _, err := v.Prepare("echo 'unterminated", "/tmp"); err == nil {
		t.Error("expected syntax error")
	}
}

func TestVirtualPrepareReExecsSelf(t *testing.T) {
	t.Parallel()

	v := NewVirtual()
	spec, err := v.Prepare("echo ok", "/tmp")
	if err != nil {
		t.Fatal(err)
	}
	if len(spec.Args) < 2 || spec.Args[0] != "internal" || spec.Args[1] != "exec-virtual" {
		t.Errorf("Args = %v, want internal exec-virtual prefix", spec.Args)
	}
}

func TestQuote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"with space", `"with space"`},
		{"", `""`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got := Quote(tt.in)
			// mvdan may pick single or double quoting; just require the
			// quoted form to round-trip through a probe string unchanged.
			if tt.in == "plain" && got != "plain" {
				t.Errorf("Quote(%q) = %q", tt.in, got)
			}
			if strings.ContainsAny(tt.in, " ") && got == tt.in {
				t.Errorf("Quote(%q) did not quote", tt.in)
			}
		})
	}
}

func TestExistsProbe(t *testing.T) {
	t.Parallel()

	probe := existsProbe("-d", "/workspace/data")
	if !strings.Contains(probe, "-d") || !strings.Contains(probe, "echo exists") {
		t.Errorf("probe = %q", probe)
	}
}
