// Package expander implements the Expander (C4, spec §4.4): a two-pass
// outside-in walk over cookie-bearing text that substitutes template
// arguments, then recursively expands templates and parser functions,
// grounded in original_source/wikimunge/expander.py's expand_recur/expand_args.
package expander

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/cookie"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/encoder"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/frame"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/namespace"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/parserfn"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/templatebody"
)

// MaxRecursionDepth bounds expand_stack length (spec §5 "Recursion control").
const MaxRecursionDepth = 100

// Store is the page-store collaborator the expander needs (spec §6): it is
// declared here rather than imported from internal/store so this package
// stays a leaf consumer, not a dependant, of storage concerns.
type Store interface {
	GetTemplate(canonicalTitle string) (string, bool)
}

// Logger receives diagnostics in the (kind, message) shape spec §4.7's
// message() augments with expand_stack context.
type Logger func(kind, msg string)

// Filter reports whether a template name should actually be substituted
// (spec §4.4 step 6, property 5 "Filter honors"). A nil Filter allows
// everything.
type Filter func(canonicalTitle string) bool

// Expander holds the per-page state the two passes thread through: the
// cookie table they decode against, namespace/store/parser-fn collaborators,
// and the expand_stack recursion guard + diagnostic trail.
type Expander struct {
	Cookies    *cookie.Table
	NS         *namespace.Data
	Dispatcher *parserfn.Dispatcher
	Store      Store
	Filter     Filter
	Log        Logger

	// Title is the page currently being expanded; it seeds
	// PAGENAME/FULLPAGENAME-family parser functions.
	Title string
	// Invoke delegates #invoke to the Lua sandbox collaborator (spec §6).
	// Left nil, #invoke resolves to an in-band error marker.
	Invoke parserfn.InvokeFunc

	stack []string
}

// New creates an Expander. Any of NS/Dispatcher/Store/Filter/Log may be nil
// to exercise a reduced configuration (e.g. unit tests of pure cookie
// substitution without a template store).
func New(cookies *cookie.Table, ns *namespace.Data, disp *parserfn.Dispatcher, store Store) *Expander {
	return &Expander{Cookies: cookies, NS: ns, Dispatcher: disp, Store: store}
}

func (e *Expander) push(label string) { e.stack = append(e.stack, label) }
func (e *Expander) pop()              { e.stack = e.stack[:len(e.stack)-1] }

// Stack returns the current expand_stack, for diagnostic messages (spec
// §4.7).
func (e *Expander) Stack() []string {
	out := make([]string, len(e.stack))
	copy(out, e.stack)
	return out
}

func (e *Expander) logf(kind, format string, args ...interface{}) {
	if e.Log != nil {
		e.Log(kind, fmt.Sprintf(format, args...))
	}
}

// ExpandPage runs the full pipeline for one page's already-normalized
// source text: Encode (C3) then ExpandRecur (C4) from the top, with no
// parent frame.
func (e *Expander) ExpandPage(text string) string {
	encoded := encoder.Encode(e.Cookies, text, func(msg string) { e.logf("DEBUG", "%s", msg) })
	return e.ExpandRecur(encoded, nil)
}

var reWhitespace = regexp.MustCompile(`\s+`)

// reNoincludeSelfClose matches a self-closing <noinclude/> tag (with
// arbitrary internal whitespace), stripped from template names per spec
// §4.4 step 2.
var reNoincludeSelfClose = regexp.MustCompile(`(?i)<\s*noinclude\s*/\s*>`)

// reNamedArg matches "key = value" for template-argument binding (spec
// §4.4 step 7): key excludes "[]&<>=\"'".
var reNamedArg = regexp.MustCompile(`(?s)^\s*([^\][&<>="']+?)\s*=\s*(.*?)\s*$`)

// expandArgs is Pass 1 (spec §4.4): substitutes ArgRef cookies against
// argmap, re-interning Template cookies with their args pre-resolved.
// argmap keys are frame.Key so digit-string keys and name keys share the
// same comparison rules as Frame lookups.
func (e *Expander) expandArgs(coded string, argmap map[frame.Key]string) string {
	var out strings.Builder
	runes := []rune(coded)

	for _, ch := range runes {
		idx, ok := cookie.IndexOf(ch)
		if !ok || !e.Cookies.Has(idx) {
			out.WriteRune(ch)
			continue
		}

		c := e.Cookies.Load(idx)
		if c.Nowiki {
			out.WriteRune(ch)
			continue
		}

		switch c.Kind {
		case cookie.Template:
			newArgs := make([]string, len(c.Args))
			for i, a := range c.Args {
				newArgs[i] = e.expandArgs(a, argmap)
			}
			out.WriteString(e.Cookies.Save(cookie.Template, newArgs, c.Nowiki))

		case cookie.ArgRef:
			if len(c.Args) > 2 {
				e.logf("DEBUG", "too many args (%d) in argument reference: %v", len(c.Args), c.Args)
			}

			e.push("ARG-NAME")
			k := strings.TrimSpace(e.ExpandRecur(e.expandArgs(c.Args[0], argmap), nil))
			e.pop()

			var key frame.Key
			if isAllDigits(k) {
				n, _ := strconv.Atoi(k)
				key = frame.IntKey(n)
			} else {
				key = frame.StringKey(strings.TrimSpace(reWhitespace.ReplaceAllString(k, " ")))
			}

			if v, ok := argmap[key]; ok {
				out.WriteString(v)
				continue
			}

			if len(c.Args) >= 2 {
				e.push("ARG-DEFVAL")
				out.WriteString(e.expandArgs(c.Args[1], argmap))
				e.pop()
				continue
			}

			out.WriteString(unexpandedArg([]string{key.String()}, c.Nowiki))

		case cookie.Link:
			newArgs := make([]string, len(c.Args))
			for i, a := range c.Args {
				newArgs[i] = e.expandArgs(a, argmap)
			}
			out.WriteString(unexpandedLink(newArgs, c.Nowiki))

		case cookie.ExtLink:
			newArgs := make([]string, len(c.Args))
			for i, a := range c.Args {
				newArgs[i] = e.expandArgs(a, argmap)
			}
			out.WriteString(unexpandedExtLink(newArgs, c.Nowiki))

		case cookie.Nowiki:
			out.WriteRune(ch)

		default:
			e.logf("ERROR", "expand_args: unsupported cookie kind %v", c.Kind)
			out.WriteRune(ch)
		}
	}

	return out.String()
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ExpandRecur is Pass 2 (spec §4.4): walks cookies, recursively expanding
// templates and dispatching parser functions, under the given parent frame
// (nil at the page's top level).
func (e *Expander) ExpandRecur(coded string, parent *frame.Frame) string {
	var out strings.Builder
	runes := []rune(coded)

	for _, ch := range runes {
		idx, inRange := cookie.IndexOf(ch)
		if !inRange || !e.Cookies.Has(idx) {
			out.WriteRune(ch)
			continue
		}

		c := e.Cookies.Load(idx)

		switch c.Kind {
		case cookie.Template:
			out.WriteString(e.expandTemplate(c, parent))

		case cookie.ArgRef:
			out.WriteString(unexpandedArg(c.Args, c.Nowiki))

		case cookie.Link:
			if c.Nowiki {
				out.WriteString(unexpandedLink(c.Args, c.Nowiki))
				break
			}
			e.push("[[link]]")
			newArgs := make([]string, len(c.Args))
			for i, a := range c.Args {
				newArgs[i] = e.ExpandRecur(a, parent)
			}
			e.pop()
			out.WriteString(unexpandedLink(newArgs, c.Nowiki))

		case cookie.ExtLink:
			if c.Nowiki {
				out.WriteString(unexpandedExtLink(c.Args, c.Nowiki))
				break
			}
			e.push("[extlink]")
			newArgs := make([]string, len(c.Args))
			for i, a := range c.Args {
				newArgs[i] = e.ExpandRecur(a, parent)
			}
			e.pop()
			out.WriteString(unexpandedExtLink(newArgs, c.Nowiki))

		case cookie.Nowiki:
			out.WriteRune(ch)

		default:
			e.logf("ERROR", "expand: unsupported cookie kind %v", c.Kind)
			out.WriteRune(ch)
		}
	}

	return out.String()
}

func (e *Expander) expandTemplate(c cookie.Cookie, parent *frame.Frame) string {
	if c.Nowiki {
		return unexpandedTemplate(c.Args, c.Nowiki)
	}

	if len(e.stack) >= MaxRecursionDepth {
		e.logf("ERROR", "recursion too deep during template expansion")
		return "<strong class='error'>too deep recursion while expanding template " +
			unexpandedTemplate(c.Args, true) + "</strong>"
	}

	e.push("TEMPLATE_NAME")
	tname := e.ExpandRecur(c.Args[0], parent)
	e.pop()

	tname = reNoincludeSelfClose.ReplaceAllString(tname, "")
	tname = strings.TrimSpace(tname)
	switch {
	case hasFoldPrefix(tname, "safesubst:"):
		tname = tname[len("safesubst:"):]
	case hasFoldPrefix(tname, "subst:"):
		tname = tname[len("subst:"):]
	}

	args := c.Args

	if ofs := strings.Index(tname, ":"); ofs > 0 {
		fnName := e.canonicalizeFn(tname[:ofs])
		if e.isParserFn(fnName) {
			newFirst := strings.TrimLeft(tname[ofs+1:], " \t\r\n")
			fnArgs := append([]string{newFirst}, args[1:]...)
			return e.expandParserFn(fnName, fnArgs, parent)
		}
	}

	if fnName := e.canonicalizeFn(tname); e.isParserFn(fnName) {
		return e.expandParserFn(fnName, args[1:], parent)
	}

	canonical := e.canonicalizeTemplateTitle(tname)
	body, ok := e.lookupTemplate(canonical)
	if !ok {
		e.logf("WARNING", "undefined template %q", canonical)
		return "<strong class='error'>Template:" + htmlEscape(canonical) + "</strong>"
	}

	if e.Filter != nil && !e.Filter(canonical) {
		newArgs := make([]string, len(args))
		for i, a := range args {
			newArgs[i] = e.ExpandRecur(a, parent)
		}
		return unexpandedTemplate(newArgs, c.Nowiki)
	}

	e.push(tname)
	defer e.pop()

	ht := make(map[frame.Key]string)
	num := 1
	for i := 1; i < len(args); i++ {
		raw := args[i]
		var key frame.Key

		if m := reNamedArg.FindStringSubmatch(raw); m != nil {
			kraw, vraw := m[1], m[2]
			if isAllDigits(kraw) {
				n, _ := strconv.Atoi(kraw)
				if n < 1 || n > 1000 {
					e.logf("DEBUG", "invalid argument number %d for template %q", n, tname)
					n = 1000
				}
				if num <= n {
					num = n + 1
				}
				key = frame.IntKey(n)
			} else {
				e.push("ARGNAME")
				k := e.ExpandRecur(kraw, parent)
				e.pop()
				key = frame.StringKey(strings.TrimSpace(reWhitespace.ReplaceAllString(k, " ")))
			}
			raw = vraw
		} else {
			key = frame.IntKey(num)
			num++
		}

		e.push(fmt.Sprintf("ARGVAL-%s", key.String()))
		ht[key] = e.ExpandRecur(raw, parent)
		e.pop()
	}

	if startsWithListMarker(body) {
		body = "\n" + body
	}
	encodedBody := encoder.Encode(e.Cookies, body, func(msg string) { e.logf("DEBUG", "%s", msg) })
	encodedBody = e.expandArgs(encodedBody, ht)

	newTitle := strings.TrimSpace(tname)
	if e.NS == nil || e.NS.Get(newTitle) == nil {
		prefix := "Template"
		if e.NS != nil {
			prefix = e.NS.GetName("Template")
		}
		newTitle = prefix + ":" + newTitle
	}

	newParent := frame.New(newTitle, ht, parent)
	return e.ExpandRecur(encodedBody, newParent)
}

func startsWithListMarker(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case '#', '*', ';', ':':
		return true
	default:
		return false
	}
}

func hasFoldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;")
	return r.Replace(s)
}

func (e *Expander) canonicalizeFn(name string) string {
	var known func(string) bool
	if e.Dispatcher != nil {
		known = e.Dispatcher.Known
	}
	if e.NS != nil {
		return e.NS.CanonicalizeParserFnName(name, known)
	}
	return strings.ToLower(strings.TrimSpace(name))
}

func (e *Expander) isParserFn(name string) bool {
	if strings.HasPrefix(name, "#") {
		return true
	}
	return e.Dispatcher != nil && e.Dispatcher.Known(name)
}

func (e *Expander) canonicalizeTemplateTitle(name string) string {
	if e.NS != nil {
		return e.NS.CanonicalizeTemplateName(name)
	}
	return strings.TrimSpace(name)
}

func (e *Expander) lookupTemplate(canonical string) (string, bool) {
	if e.Store == nil {
		return "", false
	}
	body, ok := e.Store.GetTemplate(canonical)
	if !ok {
		return "", false
	}
	return templatebody.Normalize(body), true
}

func (e *Expander) expandParserFn(name string, args []string, parent *frame.Frame) string {
	e.push(name)
	defer e.pop()

	expandFn := frame.ExpandFunc(func(text string) string { return e.ExpandRecur(text, parent) })

	if e.Dispatcher == nil {
		return ""
	}

	ctx := &parserfn.Context{
		Title:        e.Title,
		Log:          e.logf2,
		Invoke:       e.Invoke,
		FullPageName: func() string { return e.Title },
		PageName:     func() string { return e.pageNameOnly() },
		SubPageName:  func() string { return e.subPageName() },
		NamespaceOf:  e.namespaceOf,
	}

	out, ok := e.Dispatcher.Dispatch(ctx, name, args, parent, expandFn)
	if !ok {
		e.logf("DEBUG", "unknown parser function fallback for %q", name)
		return ""
	}
	return out
}

func (e *Expander) logf2(kind, msg string) { e.logf(kind, "%s", msg) }

// pageNameOnly strips a leading "Namespace:" from Title, backing PAGENAME.
func (e *Expander) pageNameOnly() string {
	if ofs := strings.Index(e.Title, ":"); ofs > 0 && e.NS != nil && e.NS.Get(e.Title[:ofs]) != nil {
		return e.Title[ofs+1:]
	}
	return e.Title
}

// subPageName returns the portion after the last "/" in PAGENAME, backing
// SUBPAGENAME.
func (e *Expander) subPageName() string {
	name := e.pageNameOnly()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// namespaceOf returns the localized namespace name for title, backing NS
// and NAMESPACE.
func (e *Expander) namespaceOf(title string) string {
	if e.NS == nil {
		return ""
	}
	ns := e.NS.Get(title)
	if ns == nil {
		return ""
	}
	return ns.Name
}

func unexpandedTemplate(args []string, nowiki bool) string {
	if nowiki {
		return "&lbrace;&lbrace;" + strings.Join(args, "&vert;") + "&rbrace;&rbrace;"
	}
	return "{{" + strings.Join(args, "|") + "}}"
}

func unexpandedArg(args []string, nowiki bool) string {
	if nowiki {
		return "&lbrace;&lbrace;&lbrace;" + strings.Join(args, "&vert;") + "&rbrace;&rbrace;&rbrace;"
	}
	return "{{{" + strings.Join(args, "|") + "}}}"
}

func unexpandedLink(args []string, nowiki bool) string {
	if nowiki {
		return "&lsqb;&lsqb;" + strings.Join(args, "&vert;") + "&rsqb;&rsqb;"
	}
	return "[[" + strings.Join(args, "|") + "]]"
}

func unexpandedExtLink(args []string, nowiki bool) string {
	if nowiki {
		return "&lsqb;" + strings.Join(args, "&vert;") + "&rsqb;"
	}
	return "[" + strings.Join(args, "|") + "]"
}
