// Package bundle packs a run's clips, combined track and subtitle file into a
// single zip archive.
package bundle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Info describes a written archive.
type Info struct {
	Path      string
	Files     int
	SizeBytes int64
}

// Write creates the archive at path from files, stored flat by base name in
// the order given. Audio is stored without recompression; text entries are
// deflated.
func Write(path string, files []string) (Info, error) {
	if len(files) == 0 {
		return Info{}, errors.New("bundle: no files to archive")
	}
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		name := filepath.Base(f)
		if _, dup := seen[name]; dup {
			return Info{}, fmt.Errorf("bundle: duplicate entry %q", name)
		}
		seen[name] = struct{}{}
	}

	tmp := path + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return Info{}, fmt.Errorf("create bundle: %w", err)
	}
	cleanup := func() {
		_ = out.Close()
		_ = os.Remove(tmp)
	}

	zw := zip.NewWriter(out)
	for _, f := range files {
		if err := addFile(zw, f); err != nil {
			cleanup()
			return Info{}, err
		}
	}
	if err := zw.Close(); err != nil {
		cleanup()
		return Info{}, fmt.Errorf("finalize bundle: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return Info{}, fmt.Errorf("close bundle: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return Info{}, fmt.Errorf("rename bundle: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("stat bundle: %w", err)
	}
	return Info{Path: path, Files: len(files), SizeBytes: info.Size()}, nil
}

func addFile(zw *zip.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("bundle: open %s: %w", path, err)
	}
	defer in.Close()

	stat, err := in.Stat()
	if err != nil {
		return fmt.Errorf("bundle: stat %s: %w", path, err)
	}
	header, err := zip.FileInfoHeader(stat)
	if err != nil {
		return fmt.Errorf("bundle: header %s: %w", path, err)
	}
	header.Name = filepath.Base(path)
	header.Method = zip.Deflate
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		header.Method = zip.Store
	}

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("bundle: add %s: %w", header.Name, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("bundle: write %s: %w", header.Name, err)
	}
	return nil
}

// List returns the entry names of an archive, in archive order.
func List(path string) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer zr.Close()
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names, nil
}
