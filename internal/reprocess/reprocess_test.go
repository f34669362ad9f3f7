package reprocess

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/namespace"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/store"
)

func newTestPool(t *testing.T) (*Pool, *store.PageStore) {
	t.Helper()
	ns, err := namespace.LoadLanguage("", "en")
	require.NoError(t, err)

	st, err := store.Open(afero.NewMemMapFs(), "/cache", ns)
	require.NoError(t, err)

	require.NoError(t, st.Add("wikitext", "A", "Hello {{{1|world}}}!"))
	require.NoError(t, st.Add("wikitext", "B", "plain text"))

	return &Pool{Workers: 2, NS: ns, Store: st}, st
}

func TestPoolExpandsAllPages(t *testing.T) {
	pool, _ := newTestPool(t)

	titles := make(chan string, 2)
	titles <- "A"
	titles <- "B"
	close(titles)

	outputs, err := Collect(pool.Run(titles))
	assert.NoError(t, err)
	assert.Equal(t, "Hello {{{1|world}}}!", outputs["A"])
	assert.Equal(t, "plain text", outputs["B"])
}

func TestPoolReportsMissingPageAsError(t *testing.T) {
	pool, _ := newTestPool(t)

	titles := make(chan string, 1)
	titles <- "Missing"
	close(titles)

	outputs, err := Collect(pool.Run(titles))
	assert.Error(t, err)
	assert.Empty(t, outputs)
}

func TestProgressTimerDoesNotPanicOnUnknownTotal(t *testing.T) {
	timer := NewProgressTimer(0, nil)
	timer.Inc()
	timer.Inc()
}
