// Package mcp exposes the documentation service as Model Context Protocol
// tools.
package mcp

import (
	"context"
	"log/slog"

	"github.com/fwojciec/libdoc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names.
const (
	ToolResolveLibraryID = "resolve-library-id"
	ToolQueryDocs        = "query-docs"
)

// Server serves the documentation tools over MCP.
type Server struct {
	docs     libdoc.DocsService
	defaults libdoc.QueryOptions
	logger   *slog.Logger
	server   *mcp.Server
}

// Option configures a Server.
type Option func(*Server)

// WithQueryDefaults sets the options used when a query-docs call leaves
// them unset.
func WithQueryDefaults(opts libdoc.QueryOptions) Option {
	return func(s *Server) {
		s.defaults = opts
	}
}

// WithLogger sets the logger used to report failed tool calls.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer returns a server with both tools registered.
func NewServer(docs libdoc.DocsService, opts ...Option) *Server {
	s := &Server{
		docs:   docs,
		logger: slog.New(slog.DiscardHandler),
		server: mcp.NewServer(&mcp.Implementation{
			Name:    libdoc.Name,
			Version: libdoc.Version,
		}, nil),
	}
	for _, opt := range opts {
		opt(s)
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name: ToolResolveLibraryID,
		Description: "Search GitHub for a library and return matching library IDs " +
			"with description, stars and primary language. Call this first to " +
			"obtain the /{owner}/{repo} identifier used by query-docs.",
	}, s.ResolveLibraryID)
	mcp.AddTool(s.server, &mcp.Tool{
		Name: ToolQueryDocs,
		Description: "Fetch documentation for a library (README, docs directory and " +
			"official website) and return the snippets most relevant to a query.",
	}, s.QueryDocs)

	return s
}

// Run serves over stdin and stdout until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over transport.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, transport, nil)
}

func textResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: isError,
	}
}
