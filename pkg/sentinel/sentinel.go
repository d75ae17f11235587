// Package sentinel watches the persisted board document for external changes.
// The board file is plain JSON and people do edit it by hand (or sync it with
// other tools); when the file's checksum changes on disk the sentinel invokes
// a reload callback so the in-memory state catches up.
package sentinel

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval is the delay after an fsnotify event before checking the
// checksum, letting multiple rapid events settle (atomic write + rename).
const DebounceInterval = 100 * time.Millisecond

// Sentinel watches a single file and calls onChange whenever its SHA256
// checksum changes.
type Sentinel struct {
	path     string
	lastHash [sha256.Size]byte
	onChange func()
}

// New creates a Sentinel for path. The file does not have to exist yet; the
// first write will be picked up as a change.
func New(path string, onChange func()) (*Sentinel, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch path: %w", err)
	}
	s := &Sentinel{
		path:     abs,
		onChange: onChange,
	}
	// Ignore the error: a missing file hashes as the zero value and the first
	// appearance registers as a change.
	s.lastHash, _ = HashFile(abs)
	return s, nil
}

// Run watches the file until ctx is cancelled. It watches the parent
// directory, not the file itself: storage does atomic replace (write temp
// file, rename), which changes the inode and would silently detach a
// file-level watch.
func (s *Sentinel) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	watchDir := filepath.Dir(s.path)
	fileName := filepath.Base(s.path)

	if err := watcher.Add(watchDir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", watchDir, err)
	}
	slog.Info("sentinel watching document", "dir", watchDir, "file", fileName)

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != fileName {
				continue
			}
			// Create covers the rename at the end of an atomic replace.
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(DebounceInterval, s.checkAndNotify)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("sentinel watcher error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Sentinel) checkAndNotify() {
	newHash, err := HashFile(s.path)
	if err != nil {
		slog.Error("sentinel failed to hash document", "path", s.path, "error", err)
		return
	}
	if newHash == s.lastHash {
		return
	}
	s.lastHash = newHash
	slog.Info("document checksum changed, reloading", "path", s.path)
	s.onChange()
}

// HashFile computes the SHA256 hash of the file at the given path.
func HashFile(path string) ([sha256.Size]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return [sha256.Size]byte{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return [sha256.Size]byte{}, fmt.Errorf("hash %s: %w", path, err)
	}

	var result [sha256.Size]byte
	copy(result[:], h.Sum(nil))
	return result, nil
}
