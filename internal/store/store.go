// Package store implements the page-store collaborator (spec §6), grounded
// in original_source/wikimunge/cache.py's PageCache: an append-only blob
// file of raw page bytes addressed by (offset, length), plus a sidecar
// index persisted as gzipped JSON in place of cache.py's pickle file.
// Filesystem access goes through github.com/spf13/afero so the store is
// testable against an in-memory afero.MemMapFs without touching disk.
package store

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/afero"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/namespace"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/templatebody"
)

// pageEntry mirrors cache.py's self.pages[title] = (model, offset, length).
type pageEntry struct {
	Model  string `json:"model"`
	Offset int64  `json:"offset"`
	Length int64  `json:"length"`
}

// index is the sidecar persisted as gzipped JSON, playing the role of
// cache.py's cache.pickle.
type index struct {
	Pages     map[string]pageEntry `json:"pages"`
	Redirects map[string]string    `json:"redirects"`
	Templates map[string]string    `json:"templates"`
}

func newIndex() *index {
	return &index{
		Pages:     make(map[string]pageEntry),
		Redirects: make(map[string]string),
		Templates: make(map[string]string),
	}
}

// PageStore is the page-store collaborator (spec §6): exists/read/
// get_template/redirect, plus Add and the post-ingest RedirectTemplates
// pass.
type PageStore struct {
	fs   afero.Fs
	dir  string
	ns   *namespace.Data
	blob afero.File

	mu     sync.RWMutex
	idx    *index
	offset int64
}

// Open opens (creating if absent) a PageStore rooted at dir on fs.
func Open(fs afero.Fs, dir string, ns *namespace.Data) (*PageStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: creating %s: %w", dir, err)
	}

	blob, err := fs.OpenFile(dir+"/cache.blob", os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("store: opening blob: %w", err)
	}

	off, err := blob.Seek(0, 2)
	if err != nil {
		return nil, fmt.Errorf("store: seeking blob: %w", err)
	}

	s := &PageStore{fs: fs, dir: dir, ns: ns, blob: blob, idx: newIndex(), offset: off}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the blob file handle.
func (s *PageStore) Close() error {
	return s.blob.Close()
}

// Load reads the sidecar index from disk, if present; a missing index is
// not an error (fresh store).
func (s *PageStore) Load() error {
	f, err := s.fs.Open(s.dir + "/cache.index.gz")
	if err != nil {
		return nil
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("store: reading index: %w", err)
	}
	defer gz.Close()

	idx := newIndex()
	if err := json.NewDecoder(gz).Decode(idx); err != nil {
		return fmt.Errorf("store: decoding index: %w", err)
	}

	s.mu.Lock()
	s.idx = idx
	s.mu.Unlock()
	return nil
}

// Save persists the sidecar index as gzipped JSON.
func (s *PageStore) Save() error {
	f, err := s.fs.Create(s.dir + "/cache.index.gz")
	if err != nil {
		return fmt.Errorf("store: creating index: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	s.mu.RLock()
	err = json.NewEncoder(gz).Encode(s.idx)
	s.mu.RUnlock()
	if err != nil {
		gz.Close()
		return fmt.Errorf("store: encoding index: %w", err)
	}
	return gz.Close()
}

func (s *PageStore) templateNamespacePrefix() string {
	name := "Template"
	if s.ns != nil {
		name = s.ns.GetName("Template")
	}
	return name + ":"
}

// Exists reports whether title names a stored page, handling the "Main:"
// and local "Module:" prefix rules of cache.py's exists().
func (s *PageStore) Exists(title string) bool {
	title = stripMainPrefix(title)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.idx.Pages[title]; ok {
		return true
	}

	modPrefix := "Module:"
	if s.ns != nil {
		modPrefix = s.ns.GetName("Module") + ":"
	}
	if len(title) > len("Module:") && title[:len("Module:")] == "Module:" {
		_, ok := s.idx.Pages[modPrefix+title[len("Module:"):]]
		return ok
	}
	return false
}

func stripMainPrefix(title string) string {
	const p = "Main:"
	if len(title) > len(p) && title[:len(p)] == p {
		return title[len(p):]
	}
	return title
}

// Read returns a page's raw text.
func (s *PageStore) Read(title string) (string, bool) {
	title = stripMainPrefix(title)

	s.mu.RLock()
	e, ok := s.idx.Pages[title]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}

	buf := make([]byte, e.Length)
	if _, err := s.blob.ReadAt(buf, e.Offset); err != nil {
		return "", false
	}
	return string(buf), true
}

// GetTemplate returns a normalized template body by canonical (bare,
// prefix-stripped) name, matching get_template/canonicalize_template_name.
func (s *PageStore) GetTemplate(canonical string) (string, bool) {
	if s.ns != nil {
		canonical = s.ns.CanonicalizeTemplateName(canonical)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.idx.Templates[canonical]
	return body, ok
}

// Redirect returns the redirect target for title, if any.
func (s *PageStore) Redirect(title string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	target, ok := s.idx.Redirects[title]
	return target, ok
}

// Add stores a page's raw text and, for redirect/template models,
// maintains the redirects/templates maps, mirroring cache.py's add().
func (s *PageStore) Add(model, title, text string) error {
	raw := []byte(text)

	s.mu.Lock()
	offset := s.offset
	s.idx.Pages[title] = pageEntry{Model: model, Offset: offset, Length: int64(len(raw))}
	s.offset += int64(len(raw))
	s.mu.Unlock()

	if _, err := s.blob.WriteAt(raw, offset); err != nil {
		return fmt.Errorf("store: writing page %q: %w", title, err)
	}

	if model == "redirect" {
		s.mu.Lock()
		s.idx.Redirects[title] = text
		s.mu.Unlock()
		return nil
	}

	prefix := s.templateNamespacePrefix()
	if len(title) > len(prefix) && title[:len(prefix)] == prefix {
		s.addTemplate(title, text)
	}
	return nil
}

// AddTemplateSource re-ingests a single template given its bare (canonical,
// prefix-stripped) name and raw body text, prefixing it back to a full
// Template-namespace title before storing — the entry point internal/watch
// uses to re-ingest a changed on-disk template source file.
func (s *PageStore) AddTemplateSource(name, text string) error {
	return s.Add("wikitext", s.templateNamespacePrefix()+name, text)
}

func (s *PageStore) addTemplate(title, text string) {
	canonical := title
	if s.ns != nil {
		canonical = s.ns.CanonicalizeTemplateName(title)
	}
	body := templatebody.Normalize(text)

	s.mu.Lock()
	s.idx.Templates[canonical] = body
	s.mu.Unlock()
}

// RedirectTemplates is the one-shot post-ingest pass that copies a
// redirect's target body to the redirect's own canonical name, when both
// endpoints live in the Template namespace and the source has no body yet
// (spec §6, cache.py's redirect_templates).
func (s *PageStore) RedirectTemplates() {
	prefix := s.templateNamespacePrefix()

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.idx.Redirects {
		if !(hasPrefix(k, prefix) && hasPrefix(v, prefix)) {
			continue
		}
		ck, cv := k, v
		if s.ns != nil {
			ck = s.ns.CanonicalizeTemplateName(k)
			cv = s.ns.CanonicalizeTemplateName(v)
		}
		if _, exists := s.idx.Templates[ck]; exists {
			continue
		}
		if body, ok := s.idx.Templates[cv]; ok {
			s.idx.Templates[ck] = body
		}
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// Stats reports counts used by the debug server's /stats endpoint.
type Stats struct {
	Pages     int
	Redirects int
	Templates int
}

// Stats returns current counts.
func (s *PageStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Pages: len(s.idx.Pages), Redirects: len(s.idx.Redirects), Templates: len(s.idx.Templates)}
}
