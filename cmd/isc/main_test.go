package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunTranspileWritesOutputFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "greet.isc")
	if err := os.WriteFile(in, []byte("print(\"hi\")\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	code := run([]string{"--transpile", in})
	if code != 0 {
		t.Fatalf("run() = %d, want 0", code)
	}

	out, err := os.ReadFile(filepath.Join(dir, "greet.js"))
	if err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	if !strings.Contains(string(out), `console.log("hi");`) {
		t.Errorf("got %q", out)
	}
}

func TestRunTranspileFailureExitsNonZero(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.isc")
	if err := os.WriteFile(in, []byte("def (x):\n    pass\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if code := run([]string{"--transpile", in}); code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
}

func TestRunVersionExitsZero(t *testing.T) {
	if code := run([]string{"--version"}); code != 0 {
		t.Errorf("run(--version) = %d, want 0", code)
	}
	if code := run([]string{"-v"}); code != 0 {
		t.Errorf("run(-v) = %d, want 0", code)
	}
}

func TestRunUnknownCommandExitsNonZero(t *testing.T) {
	if code := run([]string{"frobnicate"}); code != 1 {
		t.Errorf("run(frobnicate) = %d, want 1", code)
	}
}

func TestRunNoArgsPrintsUsageAndExitsZero(t *testing.T) {
	if code := run(nil); code != 0 {
		t.Errorf("run(nil) = %d, want 0", code)
	}
}

func TestRunMissingInputFileForTranspile(t *testing.T) {
	if code := run([]string{"--transpile"}); code != 1 {
		t.Errorf("run(--transpile) = %d, want 1", code)
	}
}
