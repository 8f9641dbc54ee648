package mcp

import (
	"context"
	"fmt"

	"github.com/fwojciec/libdoc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResolveLibraryIDInput is the input of the resolve-library-id tool.
type ResolveLibraryIDInput struct {
	LibraryName string `json:"library_name" jsonschema:"the library or package name to search for"`
}

// QueryDocsInput is the input of the query-docs tool.
type QueryDocsInput struct {
	LibraryID string `json:"library_id" jsonschema:"library identifier in /{owner}/{repo} format, as returned by resolve-library-id"`
	Query     string `json:"query" jsonschema:"the question or topic to search for in the documentation"`
	Deep      bool   `json:"deep,omitempty" jsonschema:"also crawl the official documentation website"`
	Tokens    int    `json:"tokens,omitempty" jsonschema:"maximum number of tokens to return"`
	TopK      int    `json:"top_k,omitempty" jsonschema:"number of snippets to return"`
}

// ResolveLibraryID handles the resolve-library-id tool. Failures are
// reported as tool output, never as protocol errors.
func (s *Server) ResolveLibraryID(ctx context.Context, _ *mcp.CallToolRequest, in ResolveLibraryIDInput) (*mcp.CallToolResult, any, error) {
	repos, err := s.docs.ResolveLibrary(ctx, in.LibraryName)
	switch {
	case libdoc.ErrorCode(err) == libdoc.EINVALID:
		return textResult(libdoc.ErrorMessage(err), true), nil, nil
	case err != nil:
		s.logger.Error("resolve-library-id failed", "library_name", in.LibraryName, "err", err)
		return textResult(fmt.Sprintf(
			"Failed to search GitHub for '%s': %s Check network or set GITHUB_TOKEN.",
			in.LibraryName, libdoc.ErrorMessage(err)), true), nil, nil
	}
	return textResult(libdoc.FormatCandidates(in.LibraryName, repos), false), nil, nil
}

// QueryDocs handles the query-docs tool. Failures are reported as tool
// output, never as protocol errors.
func (s *Server) QueryDocs(ctx context.Context, _ *mcp.CallToolRequest, in QueryDocsInput) (*mcp.CallToolResult, any, error) {
	id, err := libdoc.ParseLibraryID(in.LibraryID)
	if err != nil {
		return textResult(libdoc.ErrorMessage(err), true), nil, nil
	}

	opts := s.defaults
	opts.Deep = opts.Deep || in.Deep
	if in.Tokens > 0 {
		opts.MaxTokens = in.Tokens
	}
	if in.TopK > 0 {
		opts.TopK = in.TopK
	}

	res, err := s.docs.QueryDocs(ctx, id, in.Query, opts)
	switch libdoc.ErrorCode(err) {
	case "":
		return textResult(libdoc.FormatResults(res.Results), false), nil, nil
	case libdoc.ENOTFOUND:
		return textResult(libdoc.FormatNoDocumentation(id), false), nil, nil
	case libdoc.EINVALID:
		return textResult(libdoc.ErrorMessage(err), true), nil, nil
	}
	s.logger.Error("query-docs failed", "library_id", id.String(), "err", err)
	return textResult(fmt.Sprintf("Failed to fetch documentation for %s: %s", id, libdoc.ErrorMessage(err)), true), nil, nil
}
