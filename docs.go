package libdoc

import "context"

// DefaultTopK is the number of chunks returned by a query.
const DefaultTopK = 5

// QueryOptions configures QueryDocs.
type QueryOptions struct {
	// Deep forces the website stage even when repository docs suffice.
	Deep bool

	// TopK is the number of chunks returned. Zero means DefaultTopK.
	TopK int

	// MaxTokens caps the formatted output size. Zero means no cap.
	MaxTokens int
}

// StageReport describes what one pipeline stage contributed to a query.
type StageReport struct {
	Namespace Namespace
	Documents int
	Chunks    int
	Cached    bool
	Skipped   bool
	Err       error
}

// QueryResult is the ranked answer to a documentation query.
type QueryResult struct {
	Library LibraryID
	Results []SearchResult
	Stages  []StageReport
}

// DocsService resolves libraries and queries their documentation.
type DocsService interface {
	// ResolveLibrary searches for repositories matching name.
	ResolveLibrary(ctx context.Context, name string) ([]*Repository, error)

	// QueryDocs ranks the library's documentation against query.
	// Returns ENOTFOUND if no stage produced any rankable chunk.
	QueryDocs(ctx context.Context, id LibraryID, query string, opts QueryOptions) (*QueryResult, error)
}
