package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/domfind/domfind/internal/dom"
	"github.com/domfind/domfind/internal/observer"
	"github.com/domfind/domfind/internal/server"
	"github.com/domfind/domfind/internal/session"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "Serve search over MCP (stdio) for one document",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Re-run the active search when the file changes",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("file is required")
	}
	path := c.Args().First()

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	doc, err := dom.ParseFile(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	sess := session.New(doc, cfg.SessionOptions())

	if c.Bool("watch") {
		obs, err := observer.New(path, sess, cfg.ObserverOptions())
		if err != nil {
			return err
		}
		if err := obs.Start(); err != nil {
			return err
		}
		defer obs.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(sess).Run(ctx)
}
