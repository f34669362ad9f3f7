// Package lua defines the seam for the #invoke Lua-module collaborator
// (spec §6). No Lua runtime appears anywhere in the retrieval pack, so this
// package ships only NoopSandbox; a real implementation would plug a VM
// such as gopher-lua in behind the same Sandbox interface (see DESIGN.md).
package lua

import (
	"context"
	"fmt"
	"time"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/frame"
)

// Expander is the subset of the expander's capability the sandbox needs to
// expand wikitext arguments it receives back from a Lua module (e.g. via
// frame:preprocess()). Declared here, not imported from internal/expander,
// to keep this package a leaf: internal/pagectx depends on internal/lua,
// not the other way around.
type Expander interface {
	Expand(text string, parent *frame.Frame) string
}

// Sandbox is the #invoke collaborator (spec §6): given "Module:Foo#bar"
// split into invokeArgs and the calling frame, it runs the module function
// and returns wikitext.
type Sandbox interface {
	Invoke(ctx context.Context, invokeArgs []string, exp Expander, parent *frame.Frame, timeout time.Duration) (string, error)
}

// NoopSandbox implements Sandbox without a Lua VM: every #invoke resolves
// to an inline error marker rather than aborting the page, consistent with
// the never-throw-across-pages policy (spec §7).
type NoopSandbox struct{}

// Invoke always fails with a descriptive, in-band error.
func (NoopSandbox) Invoke(_ context.Context, invokeArgs []string, _ Expander, _ *frame.Frame, _ time.Duration) (string, error) {
	name := "?"
	if len(invokeArgs) > 0 {
		name = invokeArgs[0]
	}
	return "", fmt.Errorf("Lua module invocation not available (module %q)", name)
}

// NewGopherLuaSandbox documents the adapter seam a real implementation
// would fill: wiring github.com/yuin/gopher-lua (or similar) behind
// Sandbox, registering a "frame" userdata exposing args/parent-frame
// lookups and frame:preprocess() bound to Expander.Expand, and enforcing
// timeout via the VM's instruction-count hook. No such dependency is
// present in the retrieval pack, so this constructor is unimplemented.
func NewGopherLuaSandbox() (Sandbox, error) {
	return nil, fmt.Errorf("lua: no Lua VM dependency available; see DESIGN.md")
}
