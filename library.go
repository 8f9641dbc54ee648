package libdoc

import (
	"context"
	"strings"
)

// LibraryID identifies a source repository. It is the partition key of the
// content cache.
type LibraryID struct {
	Owner string
	Repo  string
}

// ParseLibraryID parses "owner/repo" or "/owner/repo".
func ParseLibraryID(s string) (LibraryID, error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(s), "/"), "/")
	if len(parts) != 2 || !validSegment(parts[0]) || !validSegment(parts[1]) {
		return LibraryID{}, Errorf(EINVALID, "Invalid library_id format: '%s'. Expected /{owner}/{repo}", s)
	}
	return LibraryID{Owner: parts[0], Repo: parts[1]}, nil
}

func validSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

// String returns the canonical "/owner/repo" form.
func (id LibraryID) String() string {
	return "/" + id.Owner + "/" + id.Repo
}

// Path returns "owner/repo".
func (id LibraryID) Path() string {
	return id.Owner + "/" + id.Repo
}

// IsZero reports whether the identifier is unset.
func (id LibraryID) IsZero() bool {
	return id.Owner == "" && id.Repo == ""
}

// Repository is a candidate returned by a repository search.
type Repository struct {
	ID          LibraryID
	Description string
	Stars       int
	Language    string
	Homepage    string
}

// DocFile is a markdown file fetched from a repository.
type DocFile struct {
	Path    string
	URL     string
	Content string
}

// RepositoryService provides access to repository metadata and content.
// Transient failures are retried by implementations; permanent failures are
// reported with ENOTFOUND or EINVALID.
type RepositoryService interface {
	// SearchRepositories returns at most limit candidates ranked by popularity.
	SearchRepositories(ctx context.Context, query string, limit int) ([]*Repository, error)

	// GetReadme returns the repository README.
	// Returns ENOTFOUND if the repository has none.
	GetReadme(ctx context.Context, id LibraryID) (*DocFile, error)

	// ListDocsTree returns the markdown files under the repository's docs directory.
	ListDocsTree(ctx context.Context, id LibraryID) ([]*DocFile, error)

	// GetHomepageURL returns the homepage configured for the repository.
	// Returns ENOTFOUND if none is set.
	GetHomepageURL(ctx context.Context, id LibraryID) (string, error)
}
