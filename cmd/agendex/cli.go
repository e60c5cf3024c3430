package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/agendex"
	"github.com/fwojciec/agendex/crawl"
	"github.com/fwojciec/agendex/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	DB       *sqlite.DB
	Configs  agendex.ConfigService
	Requests agendex.RequestService
	Ingestor *crawl.Ingestor
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool `short:"v" help:"Log every fetch and AI call"`

	Serve     ServeCmd     `cmd:"" help:"Run the scrape API server"`
	Scrape    ScrapeCmd    `cmd:"" help:"Run the ingestion pipeline for an owner"`
	Configs   ConfigsCmd   `cmd:"" help:"List agenda configs"`
	AddConfig AddConfigCmd `cmd:"" name:"add-config" help:"Create an agenda config"`
	Export    ExportCmd    `cmd:"" help:"Export ingested events as Markdown files"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr   string `default:":8080" help:"Bind address"`
	Render bool   `help:"Fetch pages with a headless browser for client-rendered agendas"`
}

// ScrapeCmd is the "scrape" subcommand.
type ScrapeCmd struct {
	OrganizerID string `name:"organizer" help:"Organizer ID to scrape for"`
	LocationID  string `name:"location" help:"Location ID to scrape for"`
	MaxEvents   int    `default:"50" help:"Max event URLs processed per config"`
	Concurrency int    `short:"c" default:"1" help:"Concurrent URL workers"`
	Render      bool   `help:"Fetch pages with a headless browser for client-rendered agendas"`
}

// ConfigsCmd is the "configs" subcommand.
type ConfigsCmd struct {
	OrganizerID string `name:"organizer" help:"Filter by organizer ID"`
	LocationID  string `name:"location" help:"Filter by location ID"`
}

// AddConfigCmd is the "add-config" subcommand.
type AddConfigCmd struct {
	AgendaURL         string `arg:"" help:"Agenda listing page URL"`
	EventLinkSelector string `arg:"" help:"CSS selector matching event links"`

	OrganizerID        string `name:"organizer" help:"Owning organizer ID"`
	LocationID         string `name:"location" help:"Owning location ID"`
	EventLinkAttribute string `help:"Attribute holding the event link (default href)"`
	NextPageSelector   string `help:"CSS selector for the next-page link"`
	NextPageAttribute  string `help:"Attribute holding the next-page link (default href)"`
	MaxPages           int    `default:"1" help:"Pagination page limit (clamped to 1..200)"`
	URLPattern         string `help:"Regex restricting sitemap fallback URLs"`
	Disabled           bool   `help:"Create the config disabled"`
}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	Dir    string `arg:"" help:"Output directory"`
	Status string `help:"Only export requests with this status"`
}
