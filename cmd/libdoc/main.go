package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/libdoc"
	"github.com/fwojciec/libdoc/crawl"
	"github.com/fwojciec/libdoc/fs"
	"github.com/fwojciec/libdoc/gemini"
	"github.com/fwojciec/libdoc/github"
	"github.com/fwojciec/libdoc/goquery"
	"github.com/fwojciec/libdoc/htmltomarkdown"
	libdochttp "github.com/fwojciec/libdoc/http"
	libmcp "github.com/fwojciec/libdoc/mcp"
	"github.com/fwojciec/libdoc/pipeline"
	"github.com/fwojciec/libdoc/rank"
	"github.com/fwojciec/libdoc/readability"
	"github.com/fwojciec/libdoc/rod"
	libslog "github.com/fwojciec/libdoc/slog"
	"github.com/fwojciec/libdoc/snowball"
	"github.com/fwojciec/libdoc/sqlite"
	"github.com/fwojciec/libdoc/trafilatura"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	_ = m.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// errNoGeminiKey is returned when a command needs Gemini without a key.
var errNoGeminiKey = errors.New("GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")

// Main represents the program.
type Main struct {
	// SQLite database, when the sqlite cache backend is selected.
	DB *sqlite.DB

	// Resources released by Close.
	Ranker  *rank.Ranker
	Fetcher libdoc.Fetcher

	genai *genai.Client
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	var errs []error
	if m.Ranker != nil {
		errs = append(errs, m.Ranker.Close())
	}
	if m.Fetcher != nil {
		errs = append(errs, m.Fetcher.Close())
	}
	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name(libdoc.Name),
		kong.Description("Fetch, cache and rank library documentation for coding agents."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Configuration(LoadConfig, DefaultConfigPath),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'libdoc --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	if err := m.wire(ctx, cli, strings.Fields(kongCtx.Command())[0], deps); err != nil {
		return err
	}

	return kongCtx.Run(deps)
}

// wire builds the services the selected command needs.
func (m *Main) wire(ctx context.Context, cli *CLI, cmd string, deps *Dependencies) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cli.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", cli.LogLevel)
	}
	logger := slog.New(slog.NewTextHandler(deps.Stderr, &slog.HandlerOptions{Level: level}))
	deps.Logger = logger

	deps.QueryDefaults = libdoc.QueryOptions{TopK: cli.TopK}
	deps.CrawlOptions = libdoc.CrawlOptions{MaxPages: cli.MaxPages, MaxDepth: cli.MaxDepth}
	deps.NewPageStore = func(baseDir, name string) libdoc.PageStore {
		return fs.NewFileStore(baseDir, name)
	}

	switch cmd {
	case "crawl":
		scraper, err := m.newScraper(cli, logger)
		if err != nil {
			return err
		}
		deps.Scraper = scraper
		return nil
	case "cache":
		cache, err := m.openCache(cli, logger)
		if err != nil {
			return err
		}
		deps.Cache = cache
		return nil
	}

	repos, err := github.NewRepositoryService(
		github.WithToken(cli.GitHubToken),
		github.WithTimeout(cli.Timeout),
		github.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	svc := &pipeline.Service{
		Repos:          libslog.NewLoggingRepositoryService(repos, logger),
		CrawlOptions:   deps.CrawlOptions,
		MinCorpusChars: cli.MinCorpusChars,
		DisableWebsite: cli.NoWebsite,
		Logger:         logger,
	}
	if len(cli.SkipHosts) > 0 {
		svc.Denylist = libdoc.NewHostDenylist(cli.SkipHosts)
	}
	deps.Docs = libslog.NewLoggingDocsService(svc, logger)

	if cmd == "resolve" {
		return nil
	}

	if svc.Cache, err = m.openCache(cli, logger); err != nil {
		return err
	}
	deps.Cache = svc.Cache
	if svc.Ranker, err = m.newRanker(cli, logger); err != nil {
		return err
	}
	if !cli.NoWebsite {
		if svc.Scraper, err = m.newScraper(cli, logger); err != nil {
			return err
		}
	}
	if tc, err := gemini.NewTokenCounter(gemini.DefaultTokenizerModel); err != nil {
		logger.Warn("token budget disabled", "err", err)
	} else {
		svc.Tokens = tc
	}

	switch cmd {
	case "serve":
		srv := libmcp.NewServer(deps.Docs,
			libmcp.WithQueryDefaults(deps.QueryDefaults),
			libmcp.WithLogger(logger),
		)
		deps.Serve = srv.Run
	case "ask":
		client, err := m.genaiClient(ctx, cli.GeminiAPIKey)
		if err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return err
		}
		deps.Asker = gemini.NewAsker(client, gemini.DefaultAskModel)
	}
	return nil
}

func (m *Main) openCache(cli *CLI, logger *slog.Logger) (libdoc.ContentCache, error) {
	if err := os.MkdirAll(cli.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %q: %w", cli.CacheDir, err)
	}

	if cli.CacheBackend == "sqlite" {
		path := filepath.Join(cli.CacheDir, "cache.db")
		m.DB = sqlite.NewDB(path)
		if err := m.DB.Open(); err != nil {
			return nil, fmt.Errorf("failed to open database at %q: %w", path, err)
		}
		return sqlite.NewCache(m.DB, sqlite.WithTTL(cli.CacheTTL), sqlite.WithLogger(logger)), nil
	}
	return fs.NewCache(cli.CacheDir, fs.WithTTL(cli.CacheTTL), fs.WithLogger(logger)), nil
}

func (m *Main) newRanker(cli *CLI, logger *slog.Logger) (*rank.Ranker, error) {
	if cli.Embedder == "gemini" {
		if cli.GeminiAPIKey == "" {
			return nil, errNoGeminiKey
		}
		model := cli.EmbedModel
		if model == "" {
			model = gemini.DefaultEmbedModel
		}
		// The client is created on first use so that cached queries never
		// touch the network.
		m.Ranker = rank.NewRanker(func(ctx context.Context) (libdoc.Embedder, error) {
			client, err := m.genaiClient(ctx, cli.GeminiAPIKey)
			if err != nil {
				return nil, err
			}
			return libslog.NewLoggingEmbedder(gemini.NewEmbedder(client, model), logger), nil
		}, rank.WithLogger(logger))
		return m.Ranker, nil
	}

	e := snowball.NewEmbedder(snowball.DefaultDimensions)
	m.Ranker = rank.NewStaticRanker(libslog.NewLoggingEmbedder(e, logger), rank.WithLogger(logger))
	return m.Ranker, nil
}

func (m *Main) genaiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if m.genai != nil {
		return m.genai, nil
	}
	if apiKey == "" {
		return nil, errNoGeminiKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
	}
	m.genai = client
	return client, nil
}

func (m *Main) newScraper(cli *CLI, logger *slog.Logger) (*crawl.Scraper, error) {
	var fetcher libdoc.Fetcher = libdochttp.NewFetcher(libdochttp.WithTimeout(cli.PageTimeout))
	if cli.RenderJS {
		f, err := rod.NewFetcher(rod.WithFetchTimeout(cli.PageTimeout))
		if err != nil {
			return nil, fmt.Errorf("failed to start browser (Chrome or Chromium must be installed): %w", err)
		}
		fetcher = f
	}
	m.Fetcher = fetcher

	return &crawl.Scraper{
		Fetcher:     libslog.NewLoggingFetcher(fetcher, logger),
		Extractor:   newExtractor(cli.Extractor),
		Converter:   htmltomarkdown.NewConverter(),
		Links:       goquery.NewLinkExtractor(),
		Sitemaps:    libslog.NewLoggingSitemapService(libdochttp.NewSitemapService(nil), logger),
		RateLimiter: crawl.NewDomainLimiter(crawl.DefaultRequestsPerSecond),
		Logger:      logger,
		Concurrency: cli.Concurrency,
	}, nil
}

// newExtractor returns the named extractor backed by the goquery
// selector-based extractor.
func newExtractor(name string) libdoc.Extractor {
	fallback := goquery.NewExtractor()
	switch name {
	case "goquery":
		return fallback
	case "readability":
		return libdoc.ExtractorChain{readability.NewExtractor(), fallback}
	}
	return libdoc.ExtractorChain{trafilatura.NewExtractor(), fallback}
}
