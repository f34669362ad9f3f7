package pagectx_test

import (
	"testing"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/expander"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/namespace"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/pagectx"
)

type memStore map[string]string

func (m memStore) GetTemplate(canonical string) (string, bool) {
	body, ok := m[canonical]
	return body, ok
}

var _ expander.Store = memStore(nil)

func TestPageContextExpand(t *testing.T) {
	ns, err := namespace.LoadLanguage("", "en")
	if err != nil {
		t.Fatalf("loading namespace data: %v", err)
	}
	store := memStore{"T": "Hello {{{1}}}!"}

	pc := pagectx.New(ns, store, nil, nil, nil)
	got := pc.Expand("Test", "{{T|world}}")
	if got != "Hello world!" {
		t.Errorf("Expand = %q, want %q", got, "Hello world!")
	}
	if pc.CookieCount() == 0 {
		t.Error("expected at least one cookie interned")
	}
}

func TestPageContextResetsBetweenPages(t *testing.T) {
	ns, _ := namespace.LoadLanguage("", "en")
	pc := pagectx.New(ns, memStore{}, nil, nil, nil)

	pc.Expand("A", "{{#if: x | yes | no}}")
	firstTrace := pc.TraceID

	pc.Expand("B", "{{#if: | yes | no}}")
	if pc.TraceID == firstTrace {
		t.Error("expected a fresh trace id per page")
	}
}

func TestPageContextUndefinedTemplateDiagnostic(t *testing.T) {
	ns, _ := namespace.LoadLanguage("", "en")
	pc := pagectx.New(ns, memStore{}, nil, nil, nil)

	got := pc.Expand("Test", "{{UNDEF}}")
	if got != "<strong class='error'>Template:UNDEF</strong>" {
		t.Errorf("got %q", got)
	}
	if len(pc.Diagnostics) == 0 || pc.Diagnostics[0].Kind != "WARNING" {
		t.Errorf("expected a WARNING diagnostic, got %+v", pc.Diagnostics)
	}
}
