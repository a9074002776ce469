// Package materials reads study material files from disk and turns them into
// documents for the retrieval engine.
package materials

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"edurag/internal/domain"
)

// DefaultExtensions lists the file types the loader reads as plain text.
var DefaultExtensions = []string{".txt", ".md"}

// Loader expands paths into documents.
type Loader struct {
	extensions map[string]struct{}
}

// Option configures a Loader.
type Option func(*Loader)

// WithExtensions replaces the accepted file extensions. Matching is
// case-insensitive and a leading dot is optional.
func WithExtensions(exts ...string) Option {
	return func(l *Loader) {
		l.extensions = make(map[string]struct{}, len(exts))
		for _, e := range exts {
			e = strings.ToLower(e)
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			l.extensions[e] = struct{}{}
		}
	}
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{}
	WithExtensions(DefaultExtensions...)(l)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Supported reports whether path has an accepted extension.
func (l *Loader) Supported(path string) bool {
	_, ok := l.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load expands globs and directories (recursively) and reads every supported
// file once. Files with other extensions are ignored; a path that matches
// nothing is an error.
func (l *Loader) Load(paths []string) ([]domain.Document, error) {
	var files []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}
	for _, p := range paths {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", m, err)
			}
			if !info.IsDir() {
				if l.Supported(m) {
					add(m)
				}
				continue
			}
			found, err := l.walk(m)
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				add(f)
			}
		}
	}
	docs := make([]domain.Document, 0, len(files))
	for _, f := range files {
		d, err := l.LoadFile(f)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// LoadFile reads a single file into a document.
func (l *Loader) LoadFile(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return domain.Document{
		ID:   DocumentID(path),
		Name: filepath.Base(path),
		Path: path,
		Text: string(data),
	}, nil
}

func (l *Loader) walk(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if l.Supported(p) {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}

// DocumentID derives a stable document id from a file path.
func DocumentID(path string) string {
	h := sha1.Sum([]byte(filepath.Clean(path)))
	return hex.EncodeToString(h[:])[:16]
}
