package expander_test

import (
	"strings"
	"testing"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/cookie"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/expander"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/finalize"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/namespace"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/parserfn"
)

// memStore is a minimal expander.Store backed by a map, standing in for
// internal/store in these unit tests.
type memStore map[string]string

func (m memStore) GetTemplate(canonical string) (string, bool) {
	body, ok := m[canonical]
	return body, ok
}

func newTestExpander(t *testing.T, store memStore) (*expander.Expander, *cookie.Table) {
	t.Helper()
	ns, err := namespace.LoadLanguage("", "en")
	if err != nil {
		t.Fatalf("loading namespace data: %v", err)
	}
	cookies := cookie.New()
	disp := parserfn.NewDispatcher()
	exp := expander.New(cookies, ns, disp, store)
	exp.Title = "Test"
	return exp, cookies
}

func run(t *testing.T, store memStore, input string) string {
	t.Helper()
	exp, cookies := newTestExpander(t, store)
	expanded := exp.ExpandPage(input)
	return finalize.Finalize(cookies, expanded, nil)
}

func TestS1PositionalArg(t *testing.T) {
	got := run(t, memStore{"T": "Hello {{{1}}}!"}, "{{T|world}}")
	if got != "Hello world!" {
		t.Errorf("got %q", got)
	}
}

func TestS2DefaultArg(t *testing.T) {
	got := run(t, memStore{"T": "{{{name|anon}}}"}, "{{T}}")
	if got != "anon" {
		t.Errorf("got %q", got)
	}
}

func TestS3HashIfTrue(t *testing.T) {
	got := run(t, nil, "{{#if: x | yes | no}}")
	if got != "yes" {
		t.Errorf("got %q", got)
	}
}

func TestS4HashIfFalse(t *testing.T) {
	got := run(t, nil, "{{#if: | yes | no}}")
	if got != "no" {
		t.Errorf("got %q", got)
	}
}

func TestS5LinkArgument(t *testing.T) {
	got := run(t, memStore{"A": "[[{{{1}}}]]"}, "{{A|Foo}}")
	if got != "[[Foo]]" {
		t.Errorf("got %q", got)
	}
}

func TestS6RecursionGuard(t *testing.T) {
	got := run(t, memStore{"Loop": "{{Loop}}"}, "{{Loop}}")
	if !strings.Contains(got, "too deep recursion") {
		t.Errorf("expected recursion error marker, got %q", got)
	}
	for _, r := range got {
		if r >= cookie.Base && r < cookie.Base+cookie.MaxCookies {
			t.Errorf("output still contains a cookie character: %q", got)
		}
	}
}

func TestS7UndefinedTemplate(t *testing.T) {
	got := run(t, nil, "{{UNDEF}}")
	if got != "<strong class='error'>Template:UNDEF</strong>" {
		t.Errorf("got %q", got)
	}
}

func TestS9NowikiOpacity(t *testing.T) {
	got := run(t, memStore{"X": "should never be fetched"}, "<nowiki>{{X}}</nowiki>")
	if got != "<nowiki>{{X}}</nowiki>" {
		t.Errorf("got %q", got)
	}
}

func TestS10NoincludeIncludeonly(t *testing.T) {
	// templatebody.Normalize runs inside the expander's template-body
	// lookup path, so the store holds the raw (unnormalized) body.
	body := "<noinclude>hide</noinclude>keep<includeonly>show</includeonly>"
	got := run(t, memStore{"N": body}, "{{N}}")
	if got != "keepshow" {
		t.Errorf("got %q", got)
	}
}

func TestArgFrameScoping(t *testing.T) {
	// {{A|x={{B}}}}: {{B}} expands in the caller's frame, and inside A,
	// {{{x}}} returns the pre-expanded value verbatim (property 6).
	store := memStore{
		"A": "{{{x}}}",
		"B": "bee",
	}
	got := run(t, store, "{{A|x={{B}}}}")
	if got != "bee" {
		t.Errorf("got %q", got)
	}
}
