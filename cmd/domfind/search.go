package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/domfind/domfind/internal/config"
	"github.com/domfind/domfind/internal/dom"
	"github.com/domfind/domfind/internal/protocol"
	"github.com/domfind/domfind/internal/session"
	"github.com/domfind/domfind/pkg/pathutil"
)

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Search documents and print the matches",
		ArgsUsage: "<query> [files...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "regex",
				Aliases: []string{"E"},
				Usage:   "Interpret query as a regular expression",
			},
			&cli.BoolFlag{
				Name:    "case-sensitive",
				Aliases: []string{"S"},
				Usage:   "Match case exactly",
			},
			&cli.BoolFlag{
				Name:    "fuzzy",
				Aliases: []string{"f"},
				Usage:   "Keyword proximity matching tolerant of typos and diacritics",
			},
			&cli.BoolFlag{
				Name:  "css",
				Usage: "Match elements by CSS selector instead of text",
			},
			&cli.BoolFlag{
				Name:  "xpath",
				Usage: "Match elements by XPath expression instead of text",
			},
			&cli.IntFlag{
				Name:    "context",
				Aliases: []string{"C"},
				Usage:   "Bytes of rendered text shown around each match",
				Value:   protocol.DefaultContextLength,
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output as JSON",
			},
			&cli.BoolFlag{
				Name:    "files-with-matches",
				Aliases: []string{"l"},
				Usage:   "Print only document paths with at least one match",
			},
		},
		Action: runSearch,
	}
}

// fileReport is one document's search outcome.
type fileReport struct {
	Path    string               `json:"path"`
	Total   int                  `json:"totalMatches"`
	Results []session.ResultItem `json:"results,omitempty"`
	Err     error                `json:"-"`
}

func runSearch(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("query is required")
	}
	query := c.Args().First()

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	paths, err := resolveDocuments(cfg, c.Args().Tail())
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no documents matched the include patterns")
	}

	params := searchParams(c, cfg, query)
	ctxLen := c.Int("context")

	reports := make([]fileReport, len(paths))
	var g errgroup.Group
	g.SetLimit(4)
	for i, path := range paths {
		g.Go(func() error {
			reports[i] = searchOne(path, cfg, params, ctxLen)
			return nil
		})
	}
	_ = g.Wait()

	return printReports(c, reports)
}

func searchParams(c *cli.Context, cfg *config.Config, query string) session.Params {
	p := session.Params{
		Query:         query,
		UseRegex:      c.Bool("regex"),
		CaseSensitive: c.Bool("case-sensitive") || cfg.Search.CaseSensitive,
		UseFuzzy:      c.Bool("fuzzy"),
	}
	switch {
	case c.Bool("xpath"):
		p.UseElementSearch = true
		p.ElementSearchMode = "xpath"
	case c.Bool("css"):
		p.UseElementSearch = true
		p.ElementSearchMode = "css"
	}
	return p
}

func searchOne(path string, cfg *config.Config, params session.Params, ctxLen int) fileReport {
	doc, err := dom.ParseFile(path)
	if err != nil {
		return fileReport{Path: path, Err: err}
	}
	sess := session.New(doc, cfg.SessionOptions())
	res, err := sess.Search(params)
	if err != nil {
		return fileReport{Path: path, Err: err}
	}
	return fileReport{
		Path:    path,
		Total:   res.TotalMatches,
		Results: sess.ResultsList(ctxLen),
	}
}

func printReports(c *cli.Context, reports []fileReport) error {
	var firstErr error
	for _, r := range reports {
		if r.Err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", r.Path, r.Err)
		}
	}

	if wd, err := os.Getwd(); err == nil {
		for i := range reports {
			reports[i].Path = pathutil.ToRelative(reports[i].Path, wd)
		}
	}

	if c.Bool("json") {
		ok := make([]fileReport, 0, len(reports))
		for _, r := range reports {
			if r.Err == nil {
				ok = append(ok, r)
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ok); err != nil {
			return err
		}
		return firstErr
	}

	for _, r := range reports {
		switch {
		case r.Err != nil:
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.Path, r.Err)
		case c.Bool("files-with-matches"):
			if r.Total > 0 {
				fmt.Println(r.Path)
			}
		case r.Total == 0:
			// quiet on no matches, like grep
		default:
			fmt.Printf("%s: %d matches\n", r.Path, r.Total)
			for _, item := range r.Results {
				printItem(item)
			}
		}
	}
	return firstErr
}

func printItem(item session.ResultItem) {
	line := fmt.Sprintf("  [%d] %s«%s»%s",
		item.Index,
		condense(item.ContextBefore),
		condense(item.MatchedText),
		condense(item.ContextAfter))
	if item.TagInfo != "" {
		line += "  <" + item.TagInfo + ">"
	}
	fmt.Println(line)
}

// condense collapses whitespace runs so multi-line matches print on one line.
func condense(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// resolveDocuments expands explicit arguments or, absent any, the configured
// include globs, then applies exclude globs. Paths come back sorted and
// deduplicated.
func resolveDocuments(cfg *config.Config, args []string) ([]string, error) {
	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.Document.Include
	}

	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		// A literal path that exists needs no glob expansion.
		if info, err := os.Stat(pattern); err == nil && !info.IsDir() {
			if p := filepath.Clean(pattern); !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			p := filepath.Clean(m)
			if seen[p] || excluded(cfg, p) {
				continue
			}
			seen[p] = true
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func excluded(cfg *config.Config, path string) bool {
	slashed := filepath.ToSlash(path)
	for _, pattern := range cfg.Document.Exclude {
		if matched, _ := doublestar.Match(pattern, slashed); matched {
			return true
		}
	}
	return false
}
