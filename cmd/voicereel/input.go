package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"voicereel/internal/config"
)

// maxInputBytes bounds how much text a single run reads.
const maxInputBytes = 16 << 20

// readInputText resolves the narration text from, in order: the --file flag
// ("-" for stdin), positional arguments joined by spaces, or piped stdin.
func readInputText(cmd *cobra.Command, args []string, file string) (string, error) {
	file = strings.TrimSpace(file)
	switch {
	case file == "-":
		return readLimited(cmd.InOrStdin(), "stdin")
	case file != "":
		path, err := config.ExpandPath(file)
		if err != nil {
			return "", err
		}
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		return readLimited(f, path)
	case len(args) > 0:
		return strings.Join(args, " "), nil
	}
	if in, ok := cmd.InOrStdin().(*os.File); ok && isTerminal(in) {
		return "", errors.New("no input text: pass --file, text arguments, or pipe text on stdin")
	}
	return readLimited(cmd.InOrStdin(), "stdin")
}

func readLimited(r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) > maxInputBytes {
		return "", fmt.Errorf("read %s: input exceeds %d MiB", name, maxInputBytes>>20)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("read %s: input is not valid UTF-8", name)
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}
