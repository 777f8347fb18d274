// Package ffmpeg runs the ffmpeg operations used to assemble narration.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ConcatListName is the demuxer list written beside the combined output.
const ConcatListName = "concat_list.txt"

// ErrNoInputs is returned when Concat receives no clips.
var ErrNoInputs = errors.New("no input files provided")

// Concatenator joins audio clips with the concat demuxer.
type Concatenator struct {
	Binary string
}

// Concat joins inputs in order into outputPath without re-encoding.
func (c Concatenator) Concat(ctx context.Context, inputs []string, outputPath string) error {
	if len(inputs) == 0 {
		return ErrNoInputs
	}
	outputPath = strings.TrimSpace(outputPath)
	if outputPath == "" {
		return errors.New("ffmpeg concat: empty output path")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	listPath := filepath.Join(filepath.Dir(outputPath), ConcatListName)
	if err := os.WriteFile(listPath, []byte(ConcatList(inputs)), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer func() { _ = os.Remove(listPath) }()

	args := []string{
		"-v", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		outputPath,
	}
	cmd := exec.CommandContext(ctx, c.binary(), args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("ffmpeg concat failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	info, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("ffmpeg concat: output missing: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("ffmpeg concat: output is empty")
	}
	return nil
}

func (c Concatenator) binary() string {
	if b := strings.TrimSpace(c.Binary); b != "" {
		return b
	}
	return "ffmpeg"
}

// ConcatList renders the demuxer list for inputs. Paths are made absolute so
// the list resolves independently of its own location.
func ConcatList(inputs []string) string {
	var b strings.Builder
	for _, p := range inputs {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(p, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}
