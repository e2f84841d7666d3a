package pathutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToRelative(t *testing.T) {
	tests := []struct {
		name string
		path string
		root string
		want string
	}{
		{"inside root", "/home/user/project/docs/page.html", "/home/user/project", filepath.Join("docs", "page.html")},
		{"at root", "/home/user/project/index.html", "/home/user/project", "index.html"},
		{"outside root stays absolute", "/other/place/file.html", "/home/user/project", "/other/place/file.html"},
		{"already relative", "docs/page.html", "/home/user/project", "docs/page.html"},
		{"empty path", "", "/home/user/project", ""},
		{"empty root", "/home/user/project/a.html", "", "/home/user/project/a.html"},
		{"uncleaned input", "/home/user/project//docs/../docs/page.html", "/home/user/project", filepath.Join("docs", "page.html")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToRelative(tt.path, tt.root))
		})
	}
}

func TestToRelativeAll(t *testing.T) {
	in := []string{
		"/root/site/a.html",
		"/elsewhere/b.html",
		"c.html",
	}
	out := ToRelativeAll(in, "/root/site")
	assert.Equal(t, []string{"a.html", "/elsewhere/b.html", "c.html"}, out)
	assert.Equal(t, "/root/site/a.html", in[0], "input slice is untouched")

	var empty []string
	assert.Nil(t, ToRelativeAll(empty, "/root/site"))
}
