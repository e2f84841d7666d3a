package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/domfind/domfind/internal/config"
	"github.com/domfind/domfind/internal/debug"
	"github.com/domfind/domfind/internal/version"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	dir := c.String("config-dir")
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s from %s: %w", config.FileName, dir, err)
	}

	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Document.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Document.Exclude = append(cfg.Document.Exclude, excludeFlags...)
	}
	if statePath := c.String("state"); statePath != "" {
		cfg.StatePath = statePath
	}
	return cfg, nil
}

func main() {
	app := &cli.App{
		Name:                   "domfind",
		Usage:                  "Search the rendered text and elements of HTML documents",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Aliases: []string{"c"},
				Usage:   "Directory containing " + config.FileName,
				Value:   ".",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include documents matching glob patterns (e.g., --include '**/*.html')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude documents matching glob patterns (e.g., --exclude '**/fixtures/**')",
			},
			&cli.StringFlag{
				Name:  "state",
				Usage: "Persist search state to this TOML file",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Show debug information",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				debug.EnableDebug = "true"
				debug.SetDebugOutput(os.Stderr)
			}
			return nil
		},
		Commands: []*cli.Command{
			searchCommand(),
			watchCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
