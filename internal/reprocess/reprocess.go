// Package reprocess implements the worker-pool, page-level parallelism of
// spec §5: "multiple worker processes/threads each own their own context",
// grounded in original_source/wikimunge/wikimunge.py's reprocess()
// (a multiprocessing.Pool.imap_unordered over page titles). Each worker
// owns an independent *pagectx.PageContext — the cookie table is per
// context and never shared — reads titles off a channel and emits results
// on another, arriving in arbitrary completion order exactly as the
// Python's imap_unordered does.
package reprocess

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/expander"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/lua"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/namespace"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/pagectx"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/store"
)

// Result is one page's outcome: exactly one of Output/Err is meaningful.
type Result struct {
	Title  string
	Output string
	Err    error
}

// Pool runs a bounded set of workers, each with its own PageContext,
// expanding pages read from a titles channel.
type Pool struct {
	Workers int
	NS      *namespace.Data
	Store   *store.PageStore
	Filter  expander.Filter
	Sandbox lua.Sandbox
	Log     *zap.Logger
}

// Run reads titles from in, expands each through a worker-owned
// PageContext, and sends a Result per title to the returned channel. The
// channel closes once in is drained and every worker has finished. Run
// does not block; range over the returned channel (or pass it to Collect)
// to wait for completion.
func (p *Pool) Run(in <-chan string) <-chan Result {
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}

	out := make(chan Result)
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func(workerID int) {
			defer wg.Done()
			pc := pagectx.New(p.NS, p.Store, p.Filter, p.Sandbox, p.Log)
			for title := range in {
				out <- p.processOne(pc, workerID, title)
			}
		}(i)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// processOne expands a single page, recovering from panics per spec §7's
// "never throw across pages" — a panic becomes a failed Result tagged with
// the offending title instead of taking down the whole run.
func (p *Pool) processOne(pc *pagectx.PageContext, workerID int, title string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Title: title, Err: fmt.Errorf("reprocess: worker %d panicked on %q: %v", workerID, title, r)}
		}
	}()

	text, ok := p.Store.Read(title)
	if !ok {
		return Result{Title: title, Err: fmt.Errorf("reprocess: page %q not found", title)}
	}
	return Result{Title: title, Output: pc.Expand(title, text)}
}

// Collect drains results, aggregating every error via go.uber.org/multierr
// so a whole run's failures are reported together without losing any
// individual page's error, while returning the successful outputs by title.
func Collect(results <-chan Result) (outputs map[string]string, err error) {
	outputs = make(map[string]string)
	for r := range results {
		if r.Err != nil {
			err = multierr.Append(err, r.Err)
			continue
		}
		outputs[r.Title] = r.Output
	}
	return outputs, err
}
