package assembly

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"voicereel/internal/media/ffmpeg"
	"voicereel/internal/services"
)

// LockName is the lock file held inside the working directory for the
// duration of a run.
const LockName = ".voicereel.lock"

// JournalPrefix matches the run journal and its WAL side files.
const JournalPrefix = "run.db"

// ErrWorkspaceBusy reports that another run holds the working directory.
var ErrWorkspaceBusy = errors.New("working directory is in use by another run")

var artifactExtensions = map[string]struct{}{
	".mp3": {},
	".srt": {},
	".zip": {},
}

// Workspace is an exclusively locked working directory.
type Workspace struct {
	dir      string
	prefix   string
	clipName *regexp.Regexp
	lock     *flock.Flock
	purged   []string
}

// OpenWorkspace creates dir when missing, locks it and purges prior artifacts.
// The caller must Close the workspace to release the lock.
func OpenWorkspace(dir, prefix string) (*Workspace, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "workspace", "open", "working directory not set", nil)
	}
	if strings.ContainsAny(prefix, `/\`) {
		return nil, services.Wrap(services.ErrConfiguration, "workspace", "open", fmt.Sprintf("invalid clip prefix %q", prefix), nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workspace", "create directory", dir, err)
	}

	lock := flock.New(filepath.Join(dir, LockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkspaceBusy, dir)
	}

	ws := &Workspace{
		dir:      dir,
		prefix:   prefix,
		clipName: regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `(\d+)\.mp3$`),
		lock:     lock,
	}
	if err := ws.purge(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return ws, nil
}

// Dir returns the working directory.
func (w *Workspace) Dir() string { return w.dir }

// Path joins name onto the working directory.
func (w *Workspace) Path(name string) string { return filepath.Join(w.dir, name) }

// Purged lists the artifacts removed when the workspace was opened.
func (w *Workspace) Purged() []string { return append([]string(nil), w.purged...) }

// Close releases the workspace lock. Artifacts are left in place.
func (w *Workspace) Close() error {
	if w == nil || w.lock == nil {
		return nil
	}
	return w.lock.Unlock()
}

// ClipPath returns the deterministic location for the clip of a zero-based
// chunk index.
func (w *Workspace) ClipPath(index int) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s%04d.mp3", w.prefix, index+1))
}

// Persist writes the clip bytes for a chunk and returns the stored path.
func (w *Workspace) Persist(index int, audio []byte) (string, error) {
	if index < 0 {
		return "", services.Wrap(services.ErrAssembly, "persist", "clip", fmt.Sprintf("invalid chunk index %d", index), nil)
	}
	if len(audio) == 0 {
		return "", services.Wrap(services.ErrAssembly, "persist", "clip", fmt.Sprintf("chunk %d returned no audio", index+1), nil)
	}
	path := w.ClipPath(index)
	tmp := path + ".part"
	if err := os.WriteFile(tmp, audio, 0o644); err != nil {
		return "", services.Wrap(services.ErrAssembly, "persist", "write clip", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", services.Wrap(services.ErrAssembly, "persist", "rename clip", path, err)
	}
	return path, nil
}

// ListClips returns persisted clips ordered by chunk index.
func (w *Workspace) ListClips() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("read working directory: %w", err)
	}
	type clip struct {
		index int
		path  string
	}
	var clips []clip
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := w.clipName.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		clips = append(clips, clip{index: n, path: filepath.Join(w.dir, entry.Name())})
	}
	sort.Slice(clips, func(i, j int) bool { return clips[i].index < clips[j].index })
	paths := make([]string, len(clips))
	for i, c := range clips {
		paths[i] = c.path
	}
	return paths, nil
}

func (w *Workspace) purge() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read working directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !isArtifact(entry.Name()) {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return services.Wrap(services.ErrConfiguration, "workspace", "purge", path, err)
		}
		w.purged = append(w.purged, entry.Name())
	}
	return nil
}

func isArtifact(name string) bool {
	if name == LockName {
		return false
	}
	if name == ffmpeg.ConcatListName || strings.HasPrefix(name, JournalPrefix) {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".part" {
		return true
	}
	_, ok := artifactExtensions[ext]
	return ok
}
