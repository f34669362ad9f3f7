// Package parserfn implements the Parser-Function Dispatcher (C5, spec
// §4.5): name canonicalization plus a registry of built-in functions such
// as #if and #switch, with #invoke delegating to an injected Lua
// collaborator. Handlers share the signature "(ctx, args, parent, expand)
// → string" the spec calls out under Polymorphism (§9), grounded in the
// teacher's engine/expr directive-handling style (engine/compiler.go's
// @if/@foreach directive table) generalized from Go-template directives to
// MediaWiki parser functions.
package parserfn

import (
	"time"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/frame"
)

// Context carries the per-call state a handler may need beyond its
// arguments: the page under expansion, namespace metadata accessors, and
// the diagnostic sink.
type Context struct {
	Title string
	Log   func(kind, msg string)

	// PageName accessors back FULLPAGENAME/PAGENAME/SUBPAGENAME/NAMESPACE.
	FullPageName func() string
	PageName     func() string
	SubPageName  func() string
	NamespaceNum func() int
	NamespaceOf  func(name string) string

	// Invoke delegates #invoke to the Lua sandbox collaborator; injected
	// rather than imported to avoid this package depending on internal/lua.
	Invoke InvokeFunc
}

// InvokeFunc matches call_lua_sandbox's signature (spec §6), minus the
// Expander argument which the caller (internal/expander) already closes
// over via expand.
type InvokeFunc func(invokeArgs []string, parent *frame.Frame, timeout time.Duration) (string, error)

// Handler is a parser-function implementation. expand is the lazy closure
// λarg. expand_recur(arg, parent) (spec §4.5): handlers that short-circuit
// (#if, #switch) call it only on the branch they keep.
type Handler func(ctx *Context, args []string, parent *frame.Frame, expand frame.ExpandFunc) string

// Dispatcher is the registry of named parser functions.
type Dispatcher struct {
	handlers map[string]Handler
}

// NewDispatcher builds a Dispatcher preloaded with every built-in handler.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{handlers: make(map[string]Handler)}
	registerBuiltins(d)
	return d
}

// Register adds or overrides a handler under canonical name.
func (d *Dispatcher) Register(name string, h Handler) {
	d.handlers[name] = h
}

// Known reports whether name is a registered parser function; it is
// passed as the `known` predicate to namespace.Data.CanonicalizeParserFnName
// to avoid an import cycle between the two packages.
func (d *Dispatcher) Known(name string) bool {
	_, ok := d.handlers[name]
	return ok
}

// Get looks up a handler by canonical name.
func (d *Dispatcher) Get(name string) (Handler, bool) {
	h, ok := d.handlers[name]
	return h, ok
}

// Dispatch invokes the named handler, or returns ("", false) if unknown.
func (d *Dispatcher) Dispatch(ctx *Context, name string, args []string, parent *frame.Frame, expand frame.ExpandFunc) (string, bool) {
	h, ok := d.handlers[name]
	if !ok {
		return "", false
	}
	return h(ctx, args, parent, expand), true
}
