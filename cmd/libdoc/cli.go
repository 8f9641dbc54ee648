package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/libdoc"
)

// DefaultConfigPath is read when present, before --config.
const DefaultConfigPath = "~/.config/libdoc/config.yaml"

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	QueryDefaults libdoc.QueryOptions
	CrawlOptions  libdoc.CrawlOptions

	Docs    libdoc.DocsService
	Cache   libdoc.ContentCache
	Scraper libdoc.Scraper
	Asker   libdoc.Asker

	// Serve runs the MCP server until the context is done.
	Serve func(ctx context.Context) error

	// NewPageStore returns the store the crawl command writes to.
	NewPageStore func(baseDir, name string) libdoc.PageStore
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config kong.ConfigFlag `help:"YAML configuration file; keys are flag names." placeholder:"PATH"`

	CacheDir     string        `name:"cache-dir" type:"path" default:"~/.cache/libdoc" env:"LIBDOC_CACHE_DIR" help:"Cache root directory."`
	CacheBackend string        `name:"cache-backend" enum:"fs,sqlite" default:"fs" env:"LIBDOC_CACHE_BACKEND" help:"Cache storage: fs or sqlite."`
	CacheTTL     time.Duration `name:"cache-ttl" default:"168h" env:"LIBDOC_CACHE_TTL" help:"How long cached documents stay fresh."`

	Timeout     time.Duration `default:"30s" env:"LIBDOC_TIMEOUT" help:"Timeout of repository API requests."`
	PageTimeout time.Duration `name:"page-timeout" default:"15s" env:"LIBDOC_PAGE_TIMEOUT" help:"Timeout of each website page fetch."`
	GitHubToken string        `name:"github-token" env:"GITHUB_TOKEN,LIBDOC_GITHUB_TOKEN" help:"GitHub token for higher rate limits."`

	Embedder     string `enum:"local,gemini" default:"local" env:"LIBDOC_EMBEDDER" help:"Embedding backend: local or gemini."`
	EmbedModel   string `name:"embed-model" env:"LIBDOC_EMBED_MODEL" help:"Embedding model name."`
	GeminiAPIKey string `name:"gemini-api-key" env:"GEMINI_API_KEY" help:"Gemini API key for the gemini embedder and ask."`

	TopK           int      `name:"top-k" default:"5" env:"LIBDOC_TOP_K" help:"Number of snippets returned per query."`
	MaxPages       int      `name:"max-pages" default:"30" env:"LIBDOC_MAX_PAGES" help:"Pages fetched per website crawl."`
	MaxDepth       int      `name:"max-depth" default:"2" env:"LIBDOC_MAX_DEPTH" help:"Link depth of website crawls."`
	Concurrency    int      `default:"4" env:"LIBDOC_CONCURRENCY" help:"Concurrent page fetches."`
	MinCorpusChars int      `name:"min-corpus-chars" default:"2000" env:"LIBDOC_MIN_CORPUS_CHARS" help:"Repository docs size below which the website is crawled."`
	NoWebsite      bool     `name:"no-website" env:"LIBDOC_NO_WEBSITE" help:"Never crawl documentation websites."`
	RenderJS       bool     `name:"render-js" env:"LIBDOC_RENDER_JS" help:"Render pages in a headless browser."`
	Extractor      string   `enum:"goquery,trafilatura,readability" default:"trafilatura" env:"LIBDOC_EXTRACTOR" help:"Main content extractor."`
	SkipHosts      []string `name:"skip-hosts" env:"LIBDOC_SKIP_HOSTS" help:"Homepage hosts that are never crawled. Replaces the built-in registry list."`

	LogLevel string `name:"log-level" enum:"debug,info,warn,error" default:"info" env:"LIBDOC_LOG_LEVEL" help:"Log level."`

	Serve   ServeCmd   `cmd:"" help:"Serve resolve-library-id and query-docs over MCP stdio."`
	Resolve ResolveCmd `cmd:"" help:"Search for a library and print its identifiers."`
	Query   QueryCmd   `cmd:"" help:"Print the documentation snippets most relevant to a query."`
	Ask     AskCmd     `cmd:"" help:"Answer a question from a library's documentation using Gemini."`
	Crawl   CrawlCmd   `cmd:"" help:"Crawl a documentation site into markdown files."`
	Cache   CacheCmd   `cmd:"" help:"Inspect and purge the content cache."`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct{}

// ResolveCmd is the "resolve" subcommand.
type ResolveCmd struct {
	Name string `arg:"" help:"Library or package name"`
}

// QueryCmd is the "query" subcommand.
type QueryCmd struct {
	Library string `arg:"" help:"Library identifier (/owner/repo)"`
	Query   string `arg:"" help:"Question or topic"`
	Deep    bool   `help:"Also crawl the documentation website"`
	Tokens  int    `help:"Maximum tokens of output (0 for no limit)"`
}

// AskCmd is the "ask" subcommand.
type AskCmd struct {
	Library  string `arg:"" help:"Library identifier (/owner/repo)"`
	Question string `arg:"" help:"Question to answer"`
	Deep     bool   `help:"Also crawl the documentation website"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	URL  string `arg:"" help:"Documentation URL to crawl"`
	Name string `arg:"" help:"Name of the output directory"`
	Path string `arg:"" optional:"" default:"." help:"Base path for output"`
}

// CacheCmd groups the cache subcommands.
type CacheCmd struct {
	List  CacheListCmd  `cmd:"" help:"List cached libraries."`
	Purge CachePurgeCmd `cmd:"" help:"Remove everything cached for a library."`
}

// CacheListCmd is the "cache list" subcommand.
type CacheListCmd struct{}

// CachePurgeCmd is the "cache purge" subcommand.
type CachePurgeCmd struct {
	Library string `arg:"" help:"Library identifier (/owner/repo)"`
}
