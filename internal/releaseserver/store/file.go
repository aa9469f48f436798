package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/vitrine-io/vitrine/internal/releaseserver/core"
	"github.com/vitrine-io/vitrine/pkg/log"
)

// File serves the version document from disk. The content is cached and refreshed by Start,
// which watches the parent directory so that atomic renames by build tooling are seen too.
type File struct {
	path string

	mu      sync.RWMutex
	content []byte
	loaded  bool
}

var _ core.Store = (*File)(nil)

func NewFile(path string) *File {
	return &File{path: path}
}

// Load returns the cached document, reading it from disk on first use.
func (f *File) Load(ctx context.Context) ([]byte, error) {
	f.mu.RLock()
	content, loaded := f.content, f.loaded
	f.mu.RUnlock()

	if loaded {
		if content == nil {
			return nil, core.ErrNotPublished
		}
		return content, nil
	}
	if err := f.refresh(); err != nil {
		return nil, err
	}
	return f.Load(ctx)
}

// Save replaces the document atomically.
func (f *File) Save(ctx context.Context, doc []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".version-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return err
	}

	f.set(append([]byte(nil), doc...))
	return nil
}

func (f *File) refresh() error {
	content, err := os.ReadFile(f.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		f.set(nil)
		return nil
	case err != nil:
		return fmt.Errorf("read %s: %w", f.path, err)
	}
	f.set(content)
	return nil
}

func (f *File) set(content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content, f.loaded = content, true
}

// Start watches the document until ctx is done.
func (f *File) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Warn("Failed to close watcher", "error", err)
		}
	}()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	if err := f.refresh(); err != nil {
		return err
	}
	log.Info("Watching version document", "path", f.path)

	name := filepath.Clean(f.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher closed unexpectedly")
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if err := f.refresh(); err != nil {
				log.Error(err, "Failed to reload version document")
				continue
			}
			log.Debug("Version document reloaded", "op", event.Op.String())
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher closed unexpectedly")
			}
			log.Error(err, "Version document watcher error")
		}
	}
}
