// Package pagectx implements the Page Context (C7, spec §4.7): the
// per-page composition root tying the cookie table, encoder, expander,
// finalizer, and the two-stream diagnostic sink together, grounded in
// original_source/wikimunge/context.py's Context class. Structured logging
// goes through go.uber.org/zap, the teacher's own logging dependency.
package pagectx

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/cookie"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/expander"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/finalize"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/frame"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/lua"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/namespace"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/nodekind"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/parserfn"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/wikinode"
)

// Diagnostic is one message recorded during expansion, formatted per spec
// §6 "TITLE: KIND: MSG [at STACK]".
type Diagnostic struct {
	Title string
	Kind  string
	Msg   string
	Stack []string
}

// PageContext is the per-page composition root (spec §4.7). It is
// single-writer: one page is expanded at a time within a given context
// (spec §5); callers wanting page-level parallelism create one PageContext
// per worker.
type PageContext struct {
	NS          *namespace.Data
	Store       expander.Store
	Filter      expander.Filter
	Sandbox     lua.Sandbox
	InvokeTO    time.Duration
	Log         *zap.Logger
	TraceID     string
	Diagnostics []Diagnostic

	title   string
	cookies *cookie.Table
	exp     *expander.Expander
	disp    *parserfn.Dispatcher
}

// New builds a PageContext. sandbox may be nil, in which case #invoke
// resolves through lua.NoopSandbox.
func New(ns *namespace.Data, store expander.Store, filter expander.Filter, sandbox lua.Sandbox, log *zap.Logger) *PageContext {
	if sandbox == nil {
		sandbox = lua.NoopSandbox{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PageContext{
		NS:       ns,
		Store:    store,
		Filter:   filter,
		Sandbox:  sandbox,
		InvokeTO: 10 * time.Second,
		Log:      log,
		disp:     parserfn.NewDispatcher(),
	}
}

// StartPage resets all per-page state (title, cookie table, a fresh
// expander and so a fresh expand stack, and diagnostics), generating a
// fresh trace ID.
func (pc *PageContext) StartPage(title string) {
	pc.title = title
	pc.cookies = cookie.New()
	pc.Diagnostics = nil
	pc.TraceID = uuid.NewString()
	pc.cookies.OnFull(func(msg string) { pc.message("ERROR", msg) })

	exp := expander.New(pc.cookies, pc.NS, pc.disp, pc.Store)
	exp.Filter = pc.Filter
	exp.Title = title
	exp.Log = pc.message
	exp.Invoke = pc.invoke
	pc.exp = exp
}

// message implements Context.message (spec §4.7): DEBUG goes only to the
// log sink; everything else also joins the page's in-memory diagnostic
// list (standing in for the separate "error stream" of spec §6).
func (pc *PageContext) message(kind, msg string) {
	stack := pc.exp.Stack()
	d := Diagnostic{Title: pc.title, Kind: kind, Msg: msg, Stack: append([]string(nil), stack...)}

	fields := []zap.Field{
		zap.String("title", pc.title),
		zap.String("trace_id", pc.TraceID),
		zap.Strings("stack", stack),
	}
	switch kind {
	case "DEBUG":
		pc.Log.Debug(msg, fields...)
	case "WARNING":
		pc.Log.Warn(msg, fields...)
		pc.Diagnostics = append(pc.Diagnostics, d)
	case "ERROR":
		pc.Log.Error(msg, fields...)
		pc.Diagnostics = append(pc.Diagnostics, d)
	default:
		pc.Log.Info(msg, fields...)
		pc.Diagnostics = append(pc.Diagnostics, d)
	}
}

func (pc *PageContext) invoke(invokeArgs []string, parent *frame.Frame, timeout time.Duration) (string, error) {
	if pc.exp == nil {
		return "", nil
	}
	exp := pageExpanderAdapter{pc.exp}
	return pc.Sandbox.Invoke(context.Background(), invokeArgs, exp, parent, timeout)
}

// pageExpanderAdapter satisfies lua.Expander for frame:preprocess() support.
type pageExpanderAdapter struct{ exp *expander.Expander }

func (a pageExpanderAdapter) Expand(text string, parent *frame.Frame) string {
	return a.exp.ExpandRecur(text, parent)
}

// Expand runs the full pipeline for one page: StartPage, then encode +
// expand + finalize, returning the finalized text.
func (pc *PageContext) Expand(title, text string) string {
	pc.StartPage(title)
	expanded := pc.exp.ExpandPage(text)
	return finalize.Finalize(pc.cookies, expanded, pc.message)
}

// Parse expands text then wraps the result in a minimal WikiNode tree: a
// Root node holding the finalized text as its single child. A full
// wikitext parser (headings, lists, tables) is the "downstream parser"
// collaborator spec.md places out of scope; this is the shallow stand-in
// the debug server's /parse endpoint renders as JSON (see DESIGN.md).
func (pc *PageContext) Parse(title, text string) *wikinode.Node {
	finalized := pc.Expand(title, text)
	root := wikinode.New(nodekind.Root, 0)
	root.Children = append(root.Children, finalized)
	return root
}

// CookieCount reports how many distinct cookies the last StartPage's table
// has interned, for /stats-style reporting.
func (pc *PageContext) CookieCount() int {
	if pc.cookies == nil {
		return 0
	}
	return pc.cookies.Len()
}
