// Package watch re-ingests template source files and invalidates their
// cached, encoded bodies when they change on disk, adapted from the
// teacher's engine/watcher.go FileWatcher (there re-compiling and clearing
// a compiled-template cache on .gohtml/.blade.tpl writes). Repurposed here
// from Go template files to wikitext template source files — one file per
// template, named "<bare-canonical-name><ext>" directly under the watched
// root, mirroring the per-template disk-override layout
// internal/namespace/embed.go's hybridOpen already uses for namespace
// data — and from log.Printf to zap. This is what backs the long-running
// "ingest --watch"/"serve --dev" modes of SPEC_FULL.md §2.10: a write
// re-ingests that one page into the PageStore and evicts its entry from
// the BodyCache, instead of only evicting.
package watch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/bodycache"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/store"
)

// Watcher watches a directory tree of template source files, re-ingesting
// a changed file into the page store and evicting its entry from the body
// cache on write, and evicting (without re-ingesting, since there's
// nothing left to read) on remove.
type Watcher struct {
	fsw        *fsnotify.Watcher
	store      *store.PageStore
	cache      *bodycache.Cache
	root       string
	extensions []string
	log        *zap.Logger
}

// New creates a Watcher rooted at root, recursively watching for changes
// to files with one of extensions (defaulting to ".wiki" if none given).
// st is the page store to re-ingest changed templates into; cache may be
// nil if body caching is disabled.
func New(root string, st *store.PageStore, cache *bodycache.Cache, log *zap.Logger, extensions ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = []string{".wiki"}
	}
	if log == nil {
		log = zap.NewNop()
	}

	w := &Watcher{fsw: fsw, store: st, cache: cache, root: root, extensions: extensions, log: log}
	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

// Start runs the watch loop in a background goroutine until Stop is called.
func (w *Watcher) Start() {
	go func() {
		for {
			select {
			case event, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if !w.isTemplateFile(event.Name) {
					continue
				}

				switch {
				case event.Op&fsnotify.Write == fsnotify.Write:
					w.reingest(event.Name)
				case event.Op&fsnotify.Remove == fsnotify.Remove:
					name := w.templateName(event.Name)
					if w.cache != nil {
						w.cache.Remove(name)
					}
					w.log.Info("template source removed, evicting cached body", zap.String("file", event.Name))
				}

			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				w.log.Warn("watcher error", zap.Error(err))
			}
		}
	}()
}

func (w *Watcher) templateName(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	return strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
}

// reingest reads a changed template source file and re-adds it to the page
// store under its canonical Template-namespace title, then evicts any
// stale encoded body from the cache, mirroring the teacher's FileWatcher
// re-compiling a changed template on write rather than only invalidating it.
func (w *Watcher) reingest(path string) {
	name := w.templateName(path)

	text, err := os.ReadFile(path)
	if err != nil {
		w.log.Warn("could not read changed template source", zap.String("file", path), zap.Error(err))
		return
	}

	if w.store != nil {
		if err := w.store.AddTemplateSource(name, string(text)); err != nil {
			w.log.Warn("could not re-ingest template source", zap.String("file", path), zap.Error(err))
			return
		}
	}
	if w.cache != nil {
		w.cache.Remove(name)
	}
	w.log.Info("template source changed, re-ingested and evicted cached body", zap.String("file", path))
}

func (w *Watcher) isTemplateFile(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Stop closes the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}
