package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"voicereel/internal/config"
	"voicereel/internal/credentials"
	"voicereel/internal/deps"
)

// CheckDirectoryAccess verifies that the directory is readable and writable.
// A directory that does not exist yet passes when its nearest existing
// ancestor is writable, since runs create it on demand.
func CheckDirectoryAccess(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
		}
		parent, perr := existingAncestor(path)
		if perr != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, perr)}
		}
		if err := unix.Access(parent, unix.W_OK|unix.X_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, parent, err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func existingAncestor(path string) (string, error) {
	dir := filepath.Clean(path)
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no existing parent directory")
		}
		dir = parent
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return "", fmt.Errorf("%s is not a directory", dir)
			}
			return dir, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
}

// CheckSystemDeps evaluates the media binaries named in the config. Both the
// run command and doctor use this to avoid duplicating the requirements list.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required to concatenate clips",
			VersionArgs: []string{"-version"},
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required to measure clip durations",
			VersionArgs: []string{"-version"},
		},
	}
	return deps.CheckBinaries(ctx, requirements)
}

// CheckCredentials asks the provider for each key's remaining quota. A key
// passes when its quota is known; the detail shows the remaining characters.
func CheckCredentials(ctx context.Context, checker credentials.QuotaChecker, keys []string) []Result {
	if len(keys) == 0 {
		return []Result{{Name: "Credentials", Detail: "no API keys configured"}}
	}
	pool := credentials.NewPool(keys)
	results := make([]Result, 0, pool.Len())
	for _, res := range pool.Refresh(ctx, checker) {
		name := "Credential " + res.Credential.Label
		if res.Err != nil {
			results = append(results, Result{Name: name, Detail: res.Err.Error()})
			continue
		}
		results = append(results, Result{
			Name:   name,
			Passed: true,
			Detail: fmt.Sprintf("%s characters remaining", humanize.Comma(int64(res.Credential.Remaining))),
		})
	}
	return results
}
