package vtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domfind/domfind/internal/dom"
)

func build(t *testing.T, src string, excludeIDs ...string) *VirtualText {
	t.Helper()
	doc, err := dom.ParseString(src)
	require.NoError(t, err)
	return Build(doc.Root, excludeIDs...)
}

func TestBuild_InlineTextIsContiguous(t *testing.T) {
	vt := build(t, `<p>Hello <b>World</b></p>`)
	assert.Equal(t, "Hello World", vt.Text)
}

func TestBuild_BoundaryBetweenBlocks(t *testing.T) {
	vt := build(t, `<div>Hello</div><div>World</div>`)
	assert.Equal(t, "Hello"+BoundaryString+"World", vt.Text)
}

func TestBuild_NoLeadingBoundary(t *testing.T) {
	vt := build(t, `<div>First</div>`)
	assert.Equal(t, "First", vt.Text)
}

func TestBuild_MapCoversEveryByte(t *testing.T) {
	vt := build(t, `<div>Héllo</div><div>Wörld</div>`)
	require.Equal(t, len(vt.Text), len(vt.Map))
	for i, ref := range vt.Map {
		if ref.IsBoundary() {
			assert.Equal(t, -1, ref.Offset, "boundary byte %d", i)
		} else {
			require.NotNil(t, ref.Node)
			assert.Equal(t, vt.Text[i], ref.Node.Data[ref.Offset], "byte %d", i)
		}
	}
}

func TestBuild_SkipsNonRenderingElements(t *testing.T) {
	vt := build(t, `<p>Visible<script>var hidden = 1;</script></p>`)
	assert.Equal(t, "Visible", vt.Text)
}

func TestBuild_SkipsHiddenElements(t *testing.T) {
	vt := build(t, `<p>Shown<span hidden>Secret</span></p>`)
	assert.Equal(t, "Shown", vt.Text)

	vt = build(t, `<p>Shown<span style="display:none">Secret</span></p>`)
	assert.Equal(t, "Shown", vt.Text)
}

func TestBuild_SkipsExcludedIDs(t *testing.T) {
	vt := build(t, `<p>Content</p><div id="overlay-box">Highlight</div>`, "overlay-box")
	assert.Equal(t, "Content", vt.Text)
}

func TestBuild_StripsStraySentinels(t *testing.T) {
	vt := build(t, `<p>a`+BoundaryString+`b</p>`)
	assert.Equal(t, "ab", vt.Text)
	assert.Equal(t, len(vt.Text), len(vt.Map))
}

func TestBuild_KeepsWhitespaceVerbatim(t *testing.T) {
	vt := build(t, "<pre>one  two\nthree</pre>")
	assert.Equal(t, "one  two\nthree", vt.Text)
}

func TestContainsBoundary(t *testing.T) {
	vt := build(t, `<div>ab</div><div>cd</div>`)
	assert.False(t, vt.ContainsBoundary(0, 2))
	assert.True(t, vt.ContainsBoundary(0, vt.Len()))
	assert.False(t, vt.ContainsBoundary(2+len(BoundaryString), vt.Len()))
}

func TestSlice_OutOfRange(t *testing.T) {
	vt := build(t, `<p>abc</p>`)
	assert.Equal(t, "", vt.Slice(-1, 2))
	assert.Equal(t, "", vt.Slice(2, 1))
	assert.Equal(t, "", vt.Slice(0, vt.Len()+1))
	assert.Equal(t, "abc", vt.Slice(0, 3))
}
