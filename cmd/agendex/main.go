package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/agendex"
	"github.com/fwojciec/agendex/crawl"
	"github.com/fwojciec/agendex/gemini"
	"github.com/fwojciec/agendex/goquery"
	"github.com/fwojciec/agendex/htmltomarkdown"
	aghttp "github.com/fwojciec/agendex/http"
	"github.com/fwojciec/agendex/rod"
	agslog "github.com/fwojciec/agendex/slog"
	"github.com/fwojciec/agendex/sqlite"
	"github.com/fwojciec/agendex/trafilatura"
	"google.golang.org/genai"
)

// defaultDomainRPS limits page fetches to one request per second per
// domain.
const defaultDomainRPS = 1.0

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	ConfigService  agendex.ConfigService
	RequestService agendex.RequestService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Logger: slog.New(slog.NewTextHandler(stderr, nil)),
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("agendex"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'agendex --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Default to warnings only; --verbose surfaces the per-fetch and
	// per-AI-call decorator logs.
	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set AGENDEX_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	m.ConfigService = sqlite.NewConfigService(m.DB)
	m.RequestService = sqlite.NewRequestService(m.DB)
	deps.DB = m.DB
	deps.Configs = m.ConfigService
	deps.Requests = m.RequestService

	if cmd == "scrape" || cmd == "serve" {
		ai, err := newAIExtractor(ctx, deps.Logger, stderr)
		if err != nil {
			return err
		}
		ingestor, err := m.newIngestor(deps, ai, cli)
		if err != nil {
			return err
		}
		defer ingestor.Fetcher.Close()
		deps.Ingestor = ingestor
	}

	return kongCtx.Run(deps)
}

// newIngestor wires the full pipeline around the shared services.
func (m *Main) newIngestor(deps *Dependencies, ai agendex.AIExtractor, cli *CLI) (*crawl.Ingestor, error) {
	fetcher, err := newFetcher(deps, cli)
	if err != nil {
		return nil, err
	}
	rateLimiter := crawl.NewDomainLimiter(defaultDomainRPS)
	links := goquery.NewLinks()

	return &crawl.Ingestor{
		Configs:  m.ConfigService,
		Requests: m.RequestService,
		Discoverer: &crawl.Discoverer{
			Fetcher:     fetcher,
			Links:       links,
			RateLimiter: rateLimiter,
			Sitemaps:    aghttp.NewSitemapService(nil),
		},
		Pipeline: &crawl.Pipeline{
			Selector:  goquery.NewExtractor(),
			Analyzer:  goquery.NewAnalyzer(),
			AI:        ai,
			Content:   trafilatura.NewExtractor(),
			Converter: htmltomarkdown.NewConverter(),
		},
		Fetcher:     fetcher,
		RateLimiter: rateLimiter,
		MaxEvents:   cli.Scrape.MaxEvents,
		Concurrency: cli.Scrape.Concurrency,
	}, nil
}

// newFetcher returns the HTTP fetcher, or a headless-browser fetcher when
// --render is set.
func newFetcher(deps *Dependencies, cli *CLI) (agendex.Fetcher, error) {
	if cli.Scrape.Render || cli.Serve.Render {
		browser, err := rod.NewFetcher()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		return agslog.NewLoggingFetcher(browser, deps.Logger), nil
	}
	return agslog.NewLoggingFetcher(aghttp.NewFetcher(), deps.Logger), nil
}

// newAIExtractor builds the Gemini layer when a key is configured. Without
// one the pipeline runs degraded: selector rules plus page metadata only.
func newAIExtractor(ctx context.Context, logger *slog.Logger, stderr io.Writer) (agendex.AIExtractor, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(stderr, "GEMINI_API_KEY not set; AI extraction disabled. Get a key at https://aistudio.google.com/apikey")
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
		return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
	}

	return agslog.NewLoggingAIExtractor(gemini.NewExtractor(client, ""), logger), nil
}

func defaultDBPath() string {
	if path := os.Getenv("AGENDEX_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "agendex.db"
	}
	dir := filepath.Join(home, ".agendex")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "agendex.db")
}
