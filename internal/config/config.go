// Package config loads and validates .domfind.kdl configuration.
package config

import (
	"github.com/domfind/domfind/internal/layout"
	"github.com/domfind/domfind/internal/match"
	"github.com/domfind/domfind/internal/minimap"
	"github.com/domfind/domfind/internal/observer"
	"github.com/domfind/domfind/internal/overlay"
	"github.com/domfind/domfind/internal/session"
	"golang.org/x/time/rate"

	"time"
)

// Config is the full configuration tree.
type Config struct {
	Version int

	Document DocumentConfig
	Search   SearchConfig
	Viewport ViewportConfig
	Overlay  OverlayConfig
	Minimap  MinimapConfig
	Observe  ObserveConfig

	// StatePath enables cross-run search-state persistence when non-empty.
	StatePath string
}

// DocumentConfig selects which files the CLI's glob-driven commands touch.
type DocumentConfig struct {
	Include []string
	Exclude []string
}

// SearchConfig sets search defaults and the fuzzy-matching policy.
type SearchConfig struct {
	CaseSensitive bool
	Fuzzy         FuzzyConfig
}

// FuzzyConfig mirrors match.FuzzyOptions.
type FuzzyConfig struct {
	WindowMultiplier    int
	MinWindow           int
	MaxWindow           int
	SimilarityThreshold float64
	Stemming            bool
	MinStemLength       int
}

// ViewportConfig sets the layout metrics and initial viewport height.
type ViewportConfig struct {
	ContentWidth float64
	CharWidth    float64
	LineHeight   float64
	Height       float64
}

// OverlayConfig styles the highlight boxes.
type OverlayConfig struct {
	Padding            float64
	FillColor          string
	BorderColor        string
	CurrentFillColor   string
	CurrentBorderColor string
	MergeTolerance     float64
}

// MinimapConfig styles the minimap strip.
type MinimapConfig struct {
	StripWidth   float64
	MarkerHeight float64
	MarkerColor  string
	CurrentColor string
}

// ObserveConfig tunes watch-mode batching.
type ObserveConfig struct {
	DebounceMs       int
	RefreshPerSecond float64
	RefreshBurst     int
}

// Default returns the configuration used when no .domfind.kdl exists.
func Default() *Config {
	fz := match.DefaultFuzzyOptions()
	lm := layout.DefaultMetrics()
	ov := overlay.DefaultOptions()
	mm := minimap.DefaultOptions()
	ob := observer.DefaultOptions()
	return &Config{
		Version: 1,
		Document: DocumentConfig{
			Include: []string{"**/*.html", "**/*.htm"},
			Exclude: []string{"**/node_modules/**", "**/.*/**"},
		},
		Search: SearchConfig{
			Fuzzy: FuzzyConfig{
				WindowMultiplier:    fz.WindowMultiplier,
				MinWindow:           fz.MinWindow,
				MaxWindow:           fz.MaxWindow,
				SimilarityThreshold: fz.SimilarityThreshold,
				Stemming:            fz.Stemming,
				MinStemLength:       fz.MinStemLength,
			},
		},
		Viewport: ViewportConfig{
			ContentWidth: lm.ContentWidth,
			CharWidth:    lm.CharWidth,
			LineHeight:   lm.LineHeight,
			Height:       600,
		},
		Overlay: OverlayConfig{
			Padding:            ov.Padding,
			FillColor:          ov.FillColor,
			BorderColor:        ov.BorderColor,
			CurrentFillColor:   ov.CurrentFillColor,
			CurrentBorderColor: ov.CurrentBorderColor,
			MergeTolerance:     ov.MergeTolerance,
		},
		Minimap: MinimapConfig{
			StripWidth:   mm.StripWidth,
			MarkerHeight: mm.MarkerHeight,
			MarkerColor:  mm.MarkerColor,
			CurrentColor: mm.CurrentColor,
		},
		Observe: ObserveConfig{
			DebounceMs:       int(ob.Debounce / time.Millisecond),
			RefreshPerSecond: float64(ob.RefreshLimit),
			RefreshBurst:     ob.RefreshBurst,
		},
	}
}

// SessionOptions maps the configuration onto session tuning knobs.
func (c *Config) SessionOptions() session.Options {
	return session.Options{
		Metrics: layout.Metrics{
			ContentWidth: c.Viewport.ContentWidth,
			CharWidth:    c.Viewport.CharWidth,
			LineHeight:   c.Viewport.LineHeight,
		},
		ViewportHeight: c.Viewport.Height,
		Overlay: overlay.Options{
			Padding:            c.Overlay.Padding,
			FillColor:          c.Overlay.FillColor,
			BorderColor:        c.Overlay.BorderColor,
			CurrentFillColor:   c.Overlay.CurrentFillColor,
			CurrentBorderColor: c.Overlay.CurrentBorderColor,
			MergeTolerance:     c.Overlay.MergeTolerance,
		},
		Minimap: minimap.Options{
			StripWidth:   c.Minimap.StripWidth,
			MarkerHeight: c.Minimap.MarkerHeight,
			MarkerColor:  c.Minimap.MarkerColor,
			CurrentColor: c.Minimap.CurrentColor,
		},
		Fuzzy: match.FuzzyOptions{
			WindowMultiplier:    c.Search.Fuzzy.WindowMultiplier,
			MinWindow:           c.Search.Fuzzy.MinWindow,
			MaxWindow:           c.Search.Fuzzy.MaxWindow,
			SimilarityThreshold: c.Search.Fuzzy.SimilarityThreshold,
			Stemming:            c.Search.Fuzzy.Stemming,
			MinStemLength:       c.Search.Fuzzy.MinStemLength,
		},
		StatePath: c.StatePath,
	}
}

// ObserverOptions maps the configuration onto observer tuning knobs.
func (c *Config) ObserverOptions() observer.Options {
	return observer.Options{
		Debounce:     time.Duration(c.Observe.DebounceMs) * time.Millisecond,
		RefreshLimit: rate.Limit(c.Observe.RefreshPerSecond),
		RefreshBurst: c.Observe.RefreshBurst,
	}
}
