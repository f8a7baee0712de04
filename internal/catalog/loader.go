package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader loads a catalog file and optionally hot-reloads it.
type Loader struct {
	path    string
	current atomic.Pointer[Catalog]
}

// NewLoader creates a loader for the YAML file at path. fallback is served
// until the first successful load, and for good when path is empty.
func NewLoader(path string, fallback *Catalog) *Loader {
	l := &Loader{path: path}
	l.current.Store(fallback)
	return l
}

// Current returns the latest catalog snapshot.
func (l *Loader) Current() *Catalog {
	return l.current.Load()
}

// Load reads and validates the catalog file. On error the previous snapshot
// stays current.
func (l *Loader) Load() (*Catalog, error) {
	if l.path == "" {
		return l.Current(), nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %q: %w", l.path, err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	c.Default = strings.ToLower(strings.TrimSpace(c.Default))
	for i := range c.Languages {
		c.Languages[i].Code = strings.ToLower(strings.TrimSpace(c.Languages[i].Code))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	l.current.Store(&c)
	return &c, nil
}

// WatchAndReload watches the catalog file and reloads it on change. It
// blocks until ctx is done.
func (l *Loader) WatchAndReload(ctx context.Context) error {
	if l.path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files, so watch the directory.
	dir := filepath.Dir(l.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch dir %q: %w", dir, err)
	}
	name := filepath.Clean(l.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if _, err := l.Load(); err != nil {
					slog.WarnContext(ctx, "language catalog reload failed",
						slog.String("path", l.path),
						slog.String("error", err.Error()),
					)
					continue
				}
				slog.InfoContext(ctx, "language catalog reloaded", slog.String("path", l.path))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
