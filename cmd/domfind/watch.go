package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/domfind/domfind/internal/dom"
	"github.com/domfind/domfind/internal/observer"
	"github.com/domfind/domfind/internal/session"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Aliases:   []string{"w"},
		Usage:     "Search a document and re-run the search whenever the file changes",
		ArgsUsage: "<query> <file>",
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
		},
		Action: runWatch,
	}
}

func runWatch(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("query and file are required")
	}
	query := c.Args().Get(0)
	path := c.Args().Get(1)

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	doc, err := dom.ParseFile(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	sess := session.New(doc, cfg.SessionOptions())
	res, err := sess.Search(searchParams(c, cfg, query))
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d matches\n", path, res.TotalMatches)

	obs, err := observer.New(path, sess, cfg.ObserverOptions())
	if err != nil {
		return err
	}
	obs.OnRefresh = func(res session.Result, err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			return
		}
		fmt.Printf("%s: %d matches\n", path, res.TotalMatches)
	}
	if err := obs.Start(); err != nil {
		return err
	}
	defer obs.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return nil
}
