package preflight

import (
	"context"
	"fmt"

	"voicereel/internal/config"
	"voicereel/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the offline checks for the given config: working and log
// directories plus the media binaries.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Working directory", cfg.Paths.WorkDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if cfg.Output.ExportDir != "" {
		results = append(results, CheckDirectoryAccess("Export directory", cfg.Output.ExportDir))
	}

	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, fromStatus(status))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func fromStatus(s deps.Status) Result {
	if !s.Available {
		detail := s.Detail
		if s.Description != "" {
			detail = fmt.Sprintf("%s (%s)", detail, s.Description)
		}
		return Result{Name: s.Name, Passed: s.Optional, Detail: detail}
	}
	detail := s.Path
	if s.Version != "" {
		detail = fmt.Sprintf("%s (%s)", s.Path, s.Version)
	}
	return Result{Name: s.Name, Passed: true, Detail: detail}
}
