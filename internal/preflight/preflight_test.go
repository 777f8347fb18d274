package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voicereel/internal/config"
	"voicereel/internal/credentials"
	"voicereel/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_CreatableMissingDir(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope", "deeper"))
	if !result.Passed {
		t.Fatalf("expected pass for creatable dir, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "will be created") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
	if result := CheckDirectoryAccess("test", filepath.Join(f, "child")); result.Passed {
		t.Fatal("expected failure for dir beneath a file")
	}
}

func TestCheckDirectoryAccess_Empty(t *testing.T) {
	if result := CheckDirectoryAccess("test", ""); result.Passed {
		t.Fatal("expected failure for empty path")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_StubbedBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	results := RunAll(context.Background(), cfg)
	// work dir + log dir + ffmpeg + ffprobe
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d: %+v", len(results), results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures %+v", failed)
	}
}

func TestRunAll_MissingBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Tools.FFmpeg = "clearly-not-present-ffmpeg"
	cfg.Tools.FFprobe = "clearly-not-present-ffprobe"

	failed := Failed(RunAll(context.Background(), cfg))
	if len(failed) != 2 {
		t.Fatalf("expected both binaries to fail, got %+v", failed)
	}
	if failed[0].Name != "FFmpeg" || !strings.Contains(failed[0].Detail, "concatenate") {
		t.Fatalf("unexpected failure %+v", failed[0])
	}
}

func TestRunAll_IncludesExportDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.LogDir = ""
	cfg.Output.ExportDir = t.TempDir()
	cfg.Tools.FFmpeg = "clearly-not-present-ffmpeg"

	found := false
	for _, r := range RunAll(context.Background(), &cfg) {
		if r.Name == "Export directory" {
			found = r.Passed
		}
	}
	if !found {
		t.Fatal("expected passing export directory check")
	}
}

type quotaStub map[string]int

func (q quotaStub) Remaining(_ context.Context, key string) (int, error) {
	n, ok := q[key]
	if !ok {
		return 0, errors.New("invalid api key")
	}
	return n, nil
}

func TestCheckCredentials(t *testing.T) {
	results := CheckCredentials(context.Background(), quotaStub{"sk_good_key": 15000}, []string{"sk_good_key", "sk_bad_key"})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].Passed || results[0].Detail != "15,000 characters remaining" {
		t.Fatalf("unexpected first result %+v", results[0])
	}
	if results[0].Name != "Credential "+credentials.Label(0, "sk_good_key") {
		t.Fatalf("unexpected name %q", results[0].Name)
	}
	if results[1].Passed || results[1].Detail != "invalid api key" {
		t.Fatalf("unexpected second result %+v", results[1])
	}
}

func TestCheckCredentialsNoKeys(t *testing.T) {
	results := CheckCredentials(context.Background(), quotaStub{}, nil)
	if len(results) != 1 || results[0].Passed {
		t.Fatalf("expected a single failing result, got %+v", results)
	}
}
