package config

import "fmt"

// Validate rejects configurations that would make the engine misbehave
// rather than clamping them silently.
func (c *Config) Validate() error {
	if c.Viewport.ContentWidth <= 0 {
		return fmt.Errorf("viewport content_width must be positive, got %v", c.Viewport.ContentWidth)
	}
	if c.Viewport.CharWidth <= 0 {
		return fmt.Errorf("viewport char_width must be positive, got %v", c.Viewport.CharWidth)
	}
	if c.Viewport.LineHeight <= 0 {
		return fmt.Errorf("viewport line_height must be positive, got %v", c.Viewport.LineHeight)
	}
	if c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport height must be positive, got %v", c.Viewport.Height)
	}

	fz := c.Search.Fuzzy
	if fz.WindowMultiplier < 1 {
		return fmt.Errorf("fuzzy window_multiplier must be at least 1, got %d", fz.WindowMultiplier)
	}
	if fz.MinWindow < 1 || fz.MaxWindow < fz.MinWindow {
		return fmt.Errorf("fuzzy window bounds invalid: min %d max %d", fz.MinWindow, fz.MaxWindow)
	}
	if fz.SimilarityThreshold < 0 || fz.SimilarityThreshold > 1 {
		return fmt.Errorf("fuzzy similarity_threshold must be in [0,1], got %v", fz.SimilarityThreshold)
	}

	if c.Overlay.Padding < 0 {
		return fmt.Errorf("overlay padding must not be negative, got %v", c.Overlay.Padding)
	}
	if c.Overlay.MergeTolerance < 0 {
		return fmt.Errorf("overlay merge_tolerance must not be negative, got %v", c.Overlay.MergeTolerance)
	}

	if c.Observe.DebounceMs < 0 {
		return fmt.Errorf("observe debounce_ms must not be negative, got %d", c.Observe.DebounceMs)
	}
	if c.Observe.RefreshPerSecond <= 0 {
		return fmt.Errorf("observe refresh_per_second must be positive, got %v", c.Observe.RefreshPerSecond)
	}
	if c.Observe.RefreshBurst < 1 {
		return fmt.Errorf("observe refresh_burst must be at least 1, got %d", c.Observe.RefreshBurst)
	}
	return nil
}
