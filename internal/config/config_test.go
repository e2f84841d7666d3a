package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
	return dir
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MalformedFileIsAnError(t *testing.T) {
	dir := writeConfig(t, `viewport { content_width "not closed`)
	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), FileName)
}

func TestParse_Document(t *testing.T) {
	dir := writeConfig(t, `
document {
    include "pages/**/*.html" "docs/*.htm"
    exclude "**/vendor/**"
}
`)
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"pages/**/*.html", "docs/*.htm"}, cfg.Document.Include)
	assert.Equal(t, []string{"**/vendor/**"}, cfg.Document.Exclude)
}

func TestParse_SearchAndFuzzy(t *testing.T) {
	dir := writeConfig(t, `
search {
    case_sensitive true
    fuzzy {
        window_multiplier 8
        min_window 30
        max_window 300
        similarity_threshold 0.92
        stemming true
        min_stem_length 5
    }
}
`)
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, cfg.Search.CaseSensitive)
	assert.Equal(t, 8, cfg.Search.Fuzzy.WindowMultiplier)
	assert.Equal(t, 30, cfg.Search.Fuzzy.MinWindow)
	assert.Equal(t, 300, cfg.Search.Fuzzy.MaxWindow)
	assert.InDelta(t, 0.92, cfg.Search.Fuzzy.SimilarityThreshold, 1e-9)
	assert.True(t, cfg.Search.Fuzzy.Stemming)
	assert.Equal(t, 5, cfg.Search.Fuzzy.MinStemLength)
}

func TestParse_ViewportOverlayMinimap(t *testing.T) {
	dir := writeConfig(t, `
viewport {
    content_width 1024
    char_width 9.5
    line_height 20
    height 768
}
overlay {
    padding 3
    fill "rgba(255,255,0,0.4)"
    current_fill "rgba(255,165,0,0.6)"
    merge_tolerance 2.5
}
minimap {
    strip_width 12
    marker_color "#ff0"
}
`)
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 1024.0, cfg.Viewport.ContentWidth)
	assert.Equal(t, 9.5, cfg.Viewport.CharWidth)
	assert.Equal(t, 20.0, cfg.Viewport.LineHeight)
	assert.Equal(t, 768.0, cfg.Viewport.Height)
	assert.Equal(t, 3.0, cfg.Overlay.Padding)
	assert.Equal(t, "rgba(255,255,0,0.4)", cfg.Overlay.FillColor)
	assert.Equal(t, "rgba(255,165,0,0.6)", cfg.Overlay.CurrentFillColor)
	assert.Equal(t, 2.5, cfg.Overlay.MergeTolerance)
	assert.Equal(t, 12.0, cfg.Minimap.StripWidth)
	assert.Equal(t, "#ff0", cfg.Minimap.MarkerColor)

	// Untouched keys keep their defaults.
	assert.Equal(t, Default().Overlay.BorderColor, cfg.Overlay.BorderColor)
	assert.Equal(t, Default().Minimap.CurrentColor, cfg.Minimap.CurrentColor)
}

func TestParse_ObserveAndStatePath(t *testing.T) {
	dir := writeConfig(t, `
observe {
    debounce_ms 300
    refresh_per_second 2
    refresh_burst 3
}
state_path "/tmp/domfind-state.toml"
`)
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Observe.DebounceMs)
	assert.Equal(t, 2.0, cfg.Observe.RefreshPerSecond)
	assert.Equal(t, 3, cfg.Observe.RefreshBurst)
	assert.Equal(t, "/tmp/domfind-state.toml", cfg.StatePath)

	opts := cfg.ObserverOptions()
	assert.Equal(t, 300*time.Millisecond, opts.Debounce)
	assert.Equal(t, rate.Limit(2), opts.RefreshLimit)
	assert.Equal(t, 3, opts.RefreshBurst)
}

func TestSessionOptionsMapping(t *testing.T) {
	cfg := Default()
	cfg.Viewport.ContentWidth = 500
	cfg.Viewport.Height = 400
	cfg.Overlay.FillColor = "red"
	cfg.Search.Fuzzy.SimilarityThreshold = 0.5
	cfg.StatePath = "/tmp/s.toml"

	opts := cfg.SessionOptions()
	assert.Equal(t, 500.0, opts.Metrics.ContentWidth)
	assert.Equal(t, 400.0, opts.ViewportHeight)
	assert.Equal(t, "red", opts.Overlay.FillColor)
	assert.Equal(t, 0.5, opts.Fuzzy.SimilarityThreshold)
	assert.Equal(t, "/tmp/s.toml", opts.StatePath)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"defaults pass", func(c *Config) {}, ""},
		{"zero content width", func(c *Config) { c.Viewport.ContentWidth = 0 }, "content_width"},
		{"negative char width", func(c *Config) { c.Viewport.CharWidth = -1 }, "char_width"},
		{"zero line height", func(c *Config) { c.Viewport.LineHeight = 0 }, "line_height"},
		{"zero viewport height", func(c *Config) { c.Viewport.Height = 0 }, "height"},
		{"zero window multiplier", func(c *Config) { c.Search.Fuzzy.WindowMultiplier = 0 }, "window_multiplier"},
		{"inverted window bounds", func(c *Config) { c.Search.Fuzzy.MaxWindow = c.Search.Fuzzy.MinWindow - 1 }, "window bounds"},
		{"threshold above one", func(c *Config) { c.Search.Fuzzy.SimilarityThreshold = 1.5 }, "similarity_threshold"},
		{"negative padding", func(c *Config) { c.Overlay.Padding = -1 }, "padding"},
		{"negative merge tolerance", func(c *Config) { c.Overlay.MergeTolerance = -0.1 }, "merge_tolerance"},
		{"negative debounce", func(c *Config) { c.Observe.DebounceMs = -1 }, "debounce_ms"},
		{"zero refresh rate", func(c *Config) { c.Observe.RefreshPerSecond = 0 }, "refresh_per_second"},
		{"zero burst", func(c *Config) { c.Observe.RefreshBurst = 0 }, "refresh_burst"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestLoad_InvalidValueFailsValidation(t *testing.T) {
	dir := writeConfig(t, `
viewport {
    content_width -10
}
`)
	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content_width")
}
