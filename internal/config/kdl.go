package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// FileName is the configuration file looked up in the working directory.
const FileName = ".domfind.kdl"

// Load reads .domfind.kdl from dir. A missing file yields defaults; a
// malformed one is an error rather than a silent fallback.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseKDL(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "document":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "include":
					cfg.Document.Include = collectStringArgs(cn)
				case "exclude":
					cfg.Document.Exclude = collectStringArgs(cn)
				}
			}
		case "search":
			parseSearch(cfg, n)
		case "viewport":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "content_width":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Viewport.ContentWidth = v
					}
				case "char_width":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Viewport.CharWidth = v
					}
				case "line_height":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Viewport.LineHeight = v
					}
				case "height":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Viewport.Height = v
					}
				}
			}
		case "overlay":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "padding":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Overlay.Padding = v
					}
				case "fill":
					if s, ok := firstStringArg(cn); ok {
						cfg.Overlay.FillColor = s
					}
				case "border":
					if s, ok := firstStringArg(cn); ok {
						cfg.Overlay.BorderColor = s
					}
				case "current_fill":
					if s, ok := firstStringArg(cn); ok {
						cfg.Overlay.CurrentFillColor = s
					}
				case "current_border":
					if s, ok := firstStringArg(cn); ok {
						cfg.Overlay.CurrentBorderColor = s
					}
				case "merge_tolerance":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Overlay.MergeTolerance = v
					}
				}
			}
		case "minimap":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "strip_width":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Minimap.StripWidth = v
					}
				case "marker_height":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Minimap.MarkerHeight = v
					}
				case "marker_color":
					if s, ok := firstStringArg(cn); ok {
						cfg.Minimap.MarkerColor = s
					}
				case "current_color":
					if s, ok := firstStringArg(cn); ok {
						cfg.Minimap.CurrentColor = s
					}
				}
			}
		case "observe":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Observe.DebounceMs = v
					}
				case "refresh_per_second":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Observe.RefreshPerSecond = v
					}
				case "refresh_burst":
					if v, ok := firstIntArg(cn); ok {
						cfg.Observe.RefreshBurst = v
					}
				}
			}
		case "state_path":
			if s, ok := firstStringArg(n); ok {
				cfg.StatePath = s
			}
		}
	}

	return cfg, nil
}

func parseSearch(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "case_sensitive":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Search.CaseSensitive = b
			}
		case "fuzzy":
			for _, fn := range cn.Children {
				switch nodeName(fn) {
				case "window_multiplier":
					if v, ok := firstIntArg(fn); ok {
						cfg.Search.Fuzzy.WindowMultiplier = v
					}
				case "min_window":
					if v, ok := firstIntArg(fn); ok {
						cfg.Search.Fuzzy.MinWindow = v
					}
				case "max_window":
					if v, ok := firstIntArg(fn); ok {
						cfg.Search.Fuzzy.MaxWindow = v
					}
				case "similarity_threshold":
					if v, ok := firstFloatArg(fn); ok {
						cfg.Search.Fuzzy.SimilarityThreshold = v
					}
				case "stemming":
					if b, ok := firstBoolArg(fn); ok {
						cfg.Search.Fuzzy.Stemming = b
					}
				case "min_stem_length":
					if v, ok := firstIntArg(fn); ok {
						cfg.Search.Fuzzy.MinStemLength = v
					}
				}
			}
		}
	}
}

// Helpers over the kdl-go document model.
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

// collectStringArgs reads strings from inline arguments or, for block form
// like include { "a" "b" }, from child node names.
func collectStringArgs(n *document.Node) []string {
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
