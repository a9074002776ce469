// Package watch keeps the retrieval index in sync with a directory of study
// materials.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"

	"edurag/internal/materials"
)

// Engine is the part of the retrieval engine the watcher mutates.
type Engine interface {
	Replace(ctx context.Context, docID, docName, text string) (int, error)
	Remove(docID string) int
}

// Watcher re-indexes files as they are created, changed or deleted.
// Events are handled one at a time on the Run goroutine.
type Watcher struct {
	engine Engine
	loader *materials.Loader
	log    logr.Logger

	minTextLength int
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithMinTextLength drops files whose trimmed text has fewer than n runes
// from the index instead of indexing them.
func WithMinTextLength(n int) Option {
	return func(w *Watcher) { w.minTextLength = n }
}

func New(engine Engine, loader *materials.Loader, log logr.Logger, opts ...Option) *Watcher {
	w := &Watcher{engine: engine, loader: loader, log: log}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches dir and its subdirectories until ctx is done.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	fw, err := w.start(dir)
	if err != nil {
		return err
	}
	defer w.close(fw)
	return w.loop(ctx, fw)
}

func (w *Watcher) start(dir string) (*fsnotify.Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cannot watch %s: not a directory", dir)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.addTree(fw, dir); err != nil {
		w.close(fw)
		return nil, err
	}
	w.log.Info("watching directory", "dir", dir)
	return fw, nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if err := w.handle(ctx, fw, event); err != nil {
				w.log.Error(err, "failed to handle event", "path", event.Name, "op", event.Op.String())
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.log.Error(err, "watcher error")
		}
	}
}

func (w *Watcher) handle(ctx context.Context, fw *fsnotify.Watcher, event fsnotify.Event) error {
	path := event.Name
	switch {
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			w.remove(path)
			return nil
		}
		if err != nil {
			return err
		}
		if info.IsDir() {
			if !event.Has(fsnotify.Create) {
				return nil
			}
			if err := w.addTree(fw, path); err != nil {
				return err
			}
			// Files may land in a new directory before its watch is added.
			docs, err := w.loader.Load([]string{path})
			if err != nil {
				return err
			}
			for _, doc := range docs {
				if err := w.reindex(ctx, doc.Path); err != nil {
					return err
				}
			}
			return nil
		}
		if !w.loader.Supported(path) {
			return nil
		}
		return w.reindex(ctx, path)
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		if w.loader.Supported(path) {
			w.remove(path)
		}
	}
	return nil
}

func (w *Watcher) reindex(ctx context.Context, path string) error {
	doc, err := w.loader.LoadFile(path)
	if err != nil {
		return err
	}
	if utf8.RuneCountInString(strings.TrimSpace(doc.Text)) < w.minTextLength {
		// A file shrinking below the minimum leaves the index.
		w.engine.Remove(doc.ID)
		w.log.V(1).Info("skipped short file", "path", path, "minTextLength", w.minTextLength)
		return nil
	}
	n, err := w.engine.Replace(ctx, doc.ID, doc.Name, doc.Text)
	if err != nil {
		return err
	}
	w.log.V(1).Info("reindexed file", "path", path, "chunks", n)
	return nil
}

func (w *Watcher) remove(path string) {
	n := w.engine.Remove(materials.DocumentID(path))
	w.log.V(1).Info("removed file from index", "path", path, "chunks", n)
}

// addTree watches dir and every non-hidden directory below it; fsnotify
// watches are not recursive.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) close(fw *fsnotify.Watcher) {
	if err := fw.Close(); err != nil {
		w.log.Error(err, "failed to close watcher")
	}
}
