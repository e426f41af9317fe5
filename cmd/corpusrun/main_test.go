package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunHelpExitsZero(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"--help"}, &stdout, &stderr); code != 0 {
		t.Fatalf("run(--help) = %d, want 0", code)
	}
}

func TestRunWithoutListsExitsOne(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), nil, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "Usage: corpusrun") {
		t.Errorf("stderr = %q, want usage", stderr.String())
	}
	if strings.Contains(stderr.String(), "Error:") {
		t.Errorf("missing input should print usage only, got %q", stderr.String())
	}
}

func TestRunBadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"--no-such-flag"}, &stdout, &stderr); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
	if !strings.HasPrefix(stderr.String(), "Error: ") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunMissingListFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	args := []string{
		"--scan-cmd", "cat {path}",
		"--parse-cmd", "cat",
		"--generate-cmd", "cat",
		filepath.Join(t.TempDir(), "absent.txt"),
	}
	if code := run(context.Background(), args, &stdout, &stderr); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "list file not found") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunEndToEnd(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "one.src")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	list := filepath.Join(dir, "list.txt")
	if err := os.WriteFile(list, []byte(src+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	args := []string{
		"-w", "2",
		"--frame", "5ms",
		"--scan-cmd", "cat {path}",
		"--parse-cmd", "cat",
		"--generate-cmd", "cat",
		"--log-file", filepath.Join(dir, "run.log"),
		list,
	}
	if code := run(context.Background(), args, &stdout, &stderr); code != 0 {
		t.Fatalf("run() = %d, stderr = %q", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Finished 1 items in ") {
		t.Errorf("stdout = %q", stdout.String())
	}
}
