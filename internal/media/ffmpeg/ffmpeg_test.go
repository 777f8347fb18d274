package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func writeStub(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestConcatRejectsEmptyInput(t *testing.T) {
	err := Concatenator{}.Concat(context.Background(), nil, filepath.Join(t.TempDir(), "full.mp3"))
	if !errors.Is(err, ErrNoInputs) {
		t.Fatalf("expected ErrNoInputs, got %v", err)
	}
}

func TestConcatWritesListInOrder(t *testing.T) {
	// The stub copies the concat list (argument 8) into the output (argument 12).
	stub := writeStub(t, `cat "$8" > "${12}"`)
	dir := t.TempDir()
	out := filepath.Join(dir, "full.mp3")
	inputs := []string{filepath.Join(dir, "seg0001.mp3"), filepath.Join(dir, "seg0002.mp3")}

	if err := (Concatenator{Binary: stub}).Concat(context.Background(), inputs, out); err != nil {
		t.Fatalf("Concat failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "file '" + inputs[0] + "'\nfile '" + inputs[1] + "'\n"
	if string(data) != want {
		t.Fatalf("unexpected list:\n%s", data)
	}
	if _, err := os.Stat(filepath.Join(dir, ConcatListName)); !os.IsNotExist(err) {
		t.Fatalf("expected concat list removed, stat err=%v", err)
	}
}

func TestConcatReportsToolFailure(t *testing.T) {
	stub := writeStub(t, `echo "Invalid data found" >&2; exit 1`)
	dir := t.TempDir()
	err := Concatenator{Binary: stub}.Concat(context.Background(), []string{filepath.Join(dir, "a.mp3")}, filepath.Join(dir, "full.mp3"))
	if err == nil || !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected tool output in error, got %v", err)
	}
}

func TestConcatListEscapesQuotes(t *testing.T) {
	got := ConcatList([]string{"/tmp/it's.mp3"})
	if got != `file '/tmp/it'\''s.mp3'`+"\n" {
		t.Fatalf("unexpected list %q", got)
	}
}
