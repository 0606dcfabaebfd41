package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/fwojciec/linkmap"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	Links   linkmap.LinksService
	Metrics http.Handler
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `short:"c" type:"path" help:"Config file (default $LINKMAP_CONFIG or XDG config dir)"`
	Verbose bool   `short:"v" help:"Log debug output to stderr"`

	Map   MapCmd   `cmd:"" help:"Map the links around a URL"`
	Serve ServeCmd `cmd:"" help:"Serve link maps over HTTP"`
}

// MapCmd is the "map" subcommand.
type MapCmd struct {
	URL string `arg:"" help:"Target URL"`

	Tree            bool     `default:"true" negatable:"" help:"Return a site tree instead of a flat list"`
	Metadata        bool     `default:"true" negatable:"" help:"Include page metadata"`
	CleanedHTML     bool     `name:"cleaned-html" help:"Include main-content HTML"`
	Robots          bool     `help:"Include robots.txt of the root"`
	SitemapXML      bool     `name:"sitemap-xml" help:"Include sitemap.xml of the root"`
	SubdomainAsRoot bool     `name:"subdomain-as-root" default:"true" negatable:"" help:"Treat a subdomain as its own site"`
	FolderFirst     bool     `default:"true" negatable:"" help:"Order nodes with children before leaves"`
	Order           string   `enum:"page,alphabetical" default:"page" help:"Sibling order (page, alphabetical)"`
	ExtractedLinks  bool     `default:"true" negatable:"" help:"Include per-page extracted links"`
	External        bool     `help:"Keep external links"`
	Media           bool     `help:"Keep media links"`
	KeepQuery       bool     `help:"Keep query parameters on links"`
	Include         []string `short:"i" help:"Keep only URLs matching regex (repeatable)"`
	Exclude         []string `short:"x" help:"Exclude URLs matching regex (repeatable)"`

	Output      string `short:"o" help:"Write JSON to a file, or under a directory when it ends in /"`
	Browser     bool   `help:"Render pages with headless Chrome"`
	NoCache     bool   `help:"Neither read nor write the site tree cache"`
	Concurrency int    `help:"Concurrent fetch limit (default from config)"`
	MaxKin      int    `name:"max-kin" help:"Ancestors or descendants fetched per batch (default from config)"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr    string `default:":8080" help:"Listen address"`
	Browser bool   `help:"Render pages with headless Chrome"`
}

// Request converts the flags into a LinksRequest.
func (c *MapCmd) Request() *linkmap.LinksRequest {
	order := linkmap.LinksOrder(c.Order)
	return &linkmap.LinksRequest{
		URL:                c.URL,
		Tree:               linkmap.Bool(c.Tree),
		Metadata:           linkmap.Bool(c.Metadata),
		CleanedHTML:        linkmap.Bool(c.CleanedHTML),
		Robots:             linkmap.Bool(c.Robots),
		SitemapXML:         linkmap.Bool(c.SitemapXML),
		SubdomainAsRootURL: linkmap.Bool(c.SubdomainAsRoot),
		FolderFirst:        linkmap.Bool(c.FolderFirst),
		LinksOrder:         &order,
		ExtractedLinks:     linkmap.Bool(c.ExtractedLinks),
		LinkExtraction: &linkmap.LinkExtractionOptions{
			IncludeExternal:   linkmap.Bool(c.External),
			IncludeMedia:      linkmap.Bool(c.Media),
			RemoveQueryParams: linkmap.Bool(!c.KeepQuery),
			IncludePatterns:   c.Include,
			ExcludePatterns:   c.Exclude,
		},
	}
}
