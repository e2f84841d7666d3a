package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domfind/domfind/internal/dom"
	"github.com/domfind/domfind/internal/session"
)

func testSession(t *testing.T) *session.Session {
	t.Helper()
	doc, err := dom.ParseString(`<p>alpha beta</p><p>beta gamma</p>`)
	require.NoError(t, err)
	return session.New(doc, session.DefaultOptions())
}

func TestDispatch_Search(t *testing.T) {
	s := testSession(t)
	resp, err := Dispatch(s, Request{Kind: KindSearch, Query: "beta"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Search)
	assert.Equal(t, 2, resp.Search.TotalMatches)
	assert.Equal(t, 0, resp.Search.CurrentIndex)
}

func TestDispatch_SearchInvalidPattern(t *testing.T) {
	s := testSession(t)
	resp, err := Dispatch(s, Request{Kind: KindSearch, Query: "(unclosed", UseRegex: true})
	require.NoError(t, err, "pattern failures are a failed Response, not a transport error")
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
	assert.Equal(t, "high", resp.Severity)
	assert.Nil(t, resp.Search)
}

func TestDispatch_NavigationCycle(t *testing.T) {
	s := testSession(t)
	_, err := Dispatch(s, Request{Kind: KindSearch, Query: "beta"})
	require.NoError(t, err)

	resp, err := Dispatch(s, Request{Kind: KindNavigateNext})
	require.NoError(t, err)
	require.NotNil(t, resp.Navigation)
	assert.Equal(t, 1, resp.Navigation.CurrentIndex)

	resp, err = Dispatch(s, Request{Kind: KindNavigatePrev})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Navigation.CurrentIndex)

	resp, err = Dispatch(s, Request{Kind: KindJumpToMatch, Index: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Navigation.CurrentIndex)
}

func TestDispatch_GetState(t *testing.T) {
	s := testSession(t)
	_, err := Dispatch(s, Request{Kind: KindSearch, Query: "beta", CaseSensitive: true})
	require.NoError(t, err)

	resp, err := Dispatch(s, Request{Kind: KindGetState})
	require.NoError(t, err)
	require.NotNil(t, resp.State)
	assert.Equal(t, "beta", resp.State.Search.Query)
	assert.True(t, resp.State.Search.CaseSensitive)
	assert.Equal(t, 2, resp.State.TotalMatches)
}

func TestDispatch_ResultsList(t *testing.T) {
	s := testSession(t)
	_, err := Dispatch(s, Request{Kind: KindSearch, Query: "beta"})
	require.NoError(t, err)

	resp, err := Dispatch(s, Request{Kind: KindResultsList, ContextLength: 20})
	require.NoError(t, err)
	require.NotNil(t, resp.Results)
	assert.Equal(t, 2, resp.Results.TotalMatches)
	require.Len(t, resp.Results.Items, 2)
	assert.Equal(t, "beta", resp.Results.Items[0].MatchedText)
}

func TestDispatch_ResultsListDefaultsContextLength(t *testing.T) {
	s := testSession(t)
	_, err := Dispatch(s, Request{Kind: KindSearch, Query: "beta"})
	require.NoError(t, err)

	resp, err := Dispatch(s, Request{Kind: KindResultsList})
	require.NoError(t, err)
	require.NotNil(t, resp.Results)
	require.Len(t, resp.Results.Items, 2)
	assert.Equal(t, "alpha ", resp.Results.Items[0].ContextBefore,
		"omitted contextLength falls back to the default")
	assert.Equal(t, " gamma", resp.Results.Items[1].ContextAfter)
}

func TestDispatch_EmptySession(t *testing.T) {
	s := testSession(t)
	for _, kind := range []Kind{KindClear, KindNavigateNext, KindNavigatePrev, KindGetState, KindResultsList, KindJumpToMatch} {
		resp, err := Dispatch(s, Request{Kind: kind})
		require.NoError(t, err, "kind %s", kind)
		assert.True(t, resp.Success, "kind %s", kind)
	}
}

func TestDispatch_UnknownKind(t *testing.T) {
	s := testSession(t)
	_, err := Dispatch(s, Request{Kind: "self-destruct"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "self-destruct")
}

func TestHandleJSON_RoundTrip(t *testing.T) {
	s := testSession(t)
	out, err := HandleJSON(s, []byte(`{"kind":"search","query":"beta"}`))
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, KindSearch, resp.Kind)
	require.NotNil(t, resp.Search)
	assert.Equal(t, 2, resp.Search.TotalMatches)
}

func TestHandleJSON_MalformedInput(t *testing.T) {
	s := testSession(t)
	_, err := HandleJSON(s, []byte(`{"kind":`))
	require.Error(t, err)
}
