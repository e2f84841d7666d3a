package overlay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/domfind/domfind/internal/dom"
	"github.com/domfind/domfind/internal/layout"
	"github.com/domfind/domfind/internal/match"
	"github.com/domfind/domfind/internal/state"
	"github.com/domfind/domfind/internal/textrange"
	"github.com/domfind/domfind/internal/vtext"
)

func setup(t *testing.T, src, query string) (*dom.Document, *state.Manager, *Renderer, *layout.Layout) {
	t.Helper()
	doc, err := dom.ParseString(src)
	require.NoError(t, err)

	l := layout.Compute(doc.Root, layout.DefaultMetrics(), ContainerID)
	vp := layout.NewViewport(800, 600)
	vp.SetDocumentHeight(l.DocumentHeight())

	st := state.NewManager()
	vt := vtext.Build(doc.Root, ContainerID)
	for _, m := range match.Search(query, vt, false, false) {
		if r := textrange.FromMatch(m, vt); r != nil {
			st.AddRange(r)
		}
	}
	st.SetCurrentIndex(0)

	return doc, st, NewRenderer(doc, vp, DefaultOptions()), l
}

func childCount(n *html.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

func TestUpdate_CreatesContainerAndOverlays(t *testing.T) {
	doc, st, r, l := setup(t, `<p>needle in the haystack with another needle</p>`, "needle")
	require.Equal(t, 2, st.TotalMatches())

	r.Update(st, l)

	container := doc.ElementByID(ContainerID)
	require.NotNil(t, container)
	assert.Equal(t, 2, childCount(container))
	assert.Len(t, st.Overlays(), 2)
}

func TestUpdate_ContainerIsSingleton(t *testing.T) {
	doc, st, r, l := setup(t, `<p>needle</p>`, "needle")

	r.Update(st, l)
	r.Update(st, l)
	r.Update(st, l)

	found := 0
	dom.Walk(doc.Root, func(n *html.Node) bool {
		if dom.IsElement(n, "div") && dom.Attr(n, "id") == ContainerID {
			found++
		}
		return true
	})
	assert.Equal(t, 1, found)

	container := doc.ElementByID(ContainerID)
	assert.Equal(t, 1, childCount(container), "rebuilds never accumulate stale overlays")
}

func TestUpdate_CurrentMatchStyledDistinctly(t *testing.T) {
	doc, st, r, l := setup(t, `<p>needle and needle</p>`, "needle")
	require.Equal(t, 2, st.TotalMatches())
	st.SetCurrentIndex(1)

	r.Update(st, l)

	container := doc.ElementByID(ContainerID)
	first := dom.Attr(container.FirstChild, "style")
	second := dom.Attr(container.LastChild, "style")
	assert.NotEqual(t, first, second)
	assert.Contains(t, second, DefaultOptions().CurrentFillColor)
}

func TestUpdate_OffscreenMatchesProduceNoOverlay(t *testing.T) {
	// Enough blocks to push the needle far below a 600px viewport.
	src := ""
	for i := 0; i < 60; i++ {
		src += "<div>filler</div>"
	}
	src += "<p>needle</p>"

	doc, st, r, l := setup(t, src, "needle")
	require.Equal(t, 1, st.TotalMatches())

	r.Update(st, l)
	container := doc.ElementByID(ContainerID)
	assert.Equal(t, 0, childCount(container))
}

func TestClearAndRemove(t *testing.T) {
	doc, st, r, l := setup(t, `<p>needle</p>`, "needle")
	r.Update(st, l)

	r.Clear(st)
	assert.Equal(t, 0, childCount(doc.ElementByID(ContainerID)))
	assert.Empty(t, st.Overlays())

	r.Remove()
	assert.Nil(t, doc.ElementByID(ContainerID))
}

func TestAttach_IsIdempotent(t *testing.T) {
	doc, err := dom.ParseString(`<p>needle</p>`)
	require.NoError(t, err)
	vp := layout.NewViewport(800, 600)
	r := NewRenderer(doc, vp, DefaultOptions())

	calls := make(chan struct{}, 16)
	rebuild := func() { calls <- struct{}{} }
	r.Attach(rebuild)
	r.Attach(rebuild)
	r.Attach(rebuild)

	vp.SetDocumentHeight(2000)
	vp.ScrollTo(0, 100)

	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("scheduled rebuild never ran")
	}
	// A second receive would mean duplicate subscriptions.
	select {
	case <-calls:
		t.Fatal("rebuild ran more than once for a single scroll burst")
	case <-time.After(50 * time.Millisecond):
	}

	r.Detach()
	r.Detach()
	vp.ScrollTo(0, 200)
	select {
	case <-calls:
		t.Fatal("rebuild ran after detach")
	case <-time.After(50 * time.Millisecond):
	}
}
