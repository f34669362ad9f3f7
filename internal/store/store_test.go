package store_test

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/namespace"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/store"
)

func newTestStore(t *testing.T) *store.PageStore {
	t.Helper()
	ns, err := namespace.LoadLanguage("", "en")
	if err != nil {
		t.Fatalf("loading namespace data: %v", err)
	}
	s, err := store.Open(afero.NewMemMapFs(), "/cache", ns)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	return s
}

func TestAddAndRead(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add("wikitext", "Example", "hello world"); err != nil {
		t.Fatal(err)
	}
	got, ok := s.Read("Example")
	if !ok || got != "hello world" {
		t.Errorf("Read(Example) = %q, %v", got, ok)
	}
	if !s.Exists("Example") {
		t.Error("Exists(Example) = false")
	}
}

func TestAddTemplateAndGet(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add("wikitext", "Template:Foo", "body text"); err != nil {
		t.Fatal(err)
	}
	body, ok := s.GetTemplate("Foo")
	if !ok || body != "body text" {
		t.Errorf("GetTemplate(Foo) = %q, %v", body, ok)
	}
}

func TestRedirectTemplates(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add("wikitext", "Template:Target", "the body"); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("redirect", "Template:Source", "Template:Target"); err != nil {
		t.Fatal(err)
	}
	s.RedirectTemplates()

	body, ok := s.GetTemplate("Source")
	if !ok || body != "the body" {
		t.Errorf("GetTemplate(Source) after redirect resolution = %q, %v", body, ok)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	ns, _ := namespace.LoadLanguage("", "en")

	s, err := store.Open(fs, "/cache", ns)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Add("wikitext", "Example", "hello"); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s2, err := store.Open(fs, "/cache", ns)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := s2.Read("Example")
	if !ok || got != "hello" {
		t.Errorf("Read after reload = %q, %v", got, ok)
	}
}
