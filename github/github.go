// Package github implements libdoc.RepositoryService on top of the GitHub
// REST API.
package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/fwojciec/libdoc"
	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

// Defaults.
const (
	DefaultTimeout = 30 * time.Second

	// DefaultDocsDepth is how many path segments below the docs root a file
	// may have: "docs/intro.md" has one, "docs/guide/setup.md" two.
	DefaultDocsDepth = 2

	// DefaultMaxDocsFiles caps the number of files fetched from a docs tree.
	DefaultMaxDocsFiles = 100

	maxBlobSize = 1 << 20
)

// DocsRoots are the directories searched for documentation, in order of
// preference. The first root holding any markdown file wins.
var DocsRoots = []string{"docs", "doc", "documentation"}

// DefaultRetryDelays returns the backoff schedule for transient failures.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

var _ libdoc.RepositoryService = (*RepositoryService)(nil)

// RepositoryService implements libdoc.RepositoryService using go-github.
type RepositoryService struct {
	client  *gh.Client
	limiter *RateLimiter
	logger  *slog.Logger

	token        string
	baseURL      string
	timeout      time.Duration
	retryDelays  []time.Duration
	rps          float64
	docsDepth    int
	maxDocsFiles int
}

// Option configures a RepositoryService.
type Option func(*RepositoryService)

// WithToken authenticates requests with a personal access token.
func WithToken(token string) Option {
	return func(s *RepositoryService) {
		s.token = token
	}
}

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(u string) Option {
	return func(s *RepositoryService) {
		s.baseURL = u
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *RepositoryService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRetryDelays sets the backoff schedule. An empty slice disables retries.
func WithRetryDelays(delays []time.Duration) Option {
	return func(s *RepositoryService) {
		s.retryDelays = delays
	}
}

// WithRequestsPerSecond sets the proactive request rate. A non-positive
// value disables throttling.
func WithRequestsPerSecond(rps float64) Option {
	return func(s *RepositoryService) {
		s.rps = rps
	}
}

// WithMaxDocsFiles caps the number of docs files fetched per repository.
func WithMaxDocsFiles(n int) Option {
	return func(s *RepositoryService) {
		if n > 0 {
			s.maxDocsFiles = n
		}
	}
}

// WithLogger sets the logger used for retries and skipped files.
func WithLogger(logger *slog.Logger) Option {
	return func(s *RepositoryService) {
		s.logger = logger
	}
}

// NewRepositoryService creates a new RepositoryService.
func NewRepositoryService(opts ...Option) (*RepositoryService, error) {
	s := &RepositoryService{
		logger:       slog.New(slog.DiscardHandler),
		timeout:      DefaultTimeout,
		retryDelays:  DefaultRetryDelays(),
		rps:          DefaultRequestsPerSecond,
		docsDepth:    DefaultDocsDepth,
		maxDocsFiles: DefaultMaxDocsFiles,
	}
	for _, opt := range opts {
		opt(s)
	}

	httpClient := &http.Client{Timeout: s.timeout}
	if s.token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.token})
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = s.timeout
	}
	s.client = gh.NewClient(httpClient)
	if s.baseURL != "" {
		base := s.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, libdoc.Errorf(libdoc.EINVALID, "invalid GitHub API URL %q", s.baseURL)
		}
		s.client.BaseURL = u
	}
	s.limiter = NewRateLimiter(s.rps)
	return s, nil
}

// SearchRepositories returns at most limit repositories matching query,
// most starred first.
func (s *RepositoryService) SearchRepositories(ctx context.Context, query string, limit int) ([]*libdoc.Repository, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, libdoc.Errorf(libdoc.EINVALID, "search query required")
	}
	if limit <= 0 {
		limit = 5
	}

	res, err := call(ctx, s, "search repositories", func() (*gh.RepositoriesSearchResult, *gh.Response, error) {
		return s.client.Search.Repositories(ctx, query, &gh.SearchOptions{
			Sort:        "stars",
			Order:       "desc",
			ListOptions: gh.ListOptions{PerPage: limit},
		})
	})
	if err != nil {
		return nil, err
	}

	repos := make([]*libdoc.Repository, 0, min(limit, len(res.Repositories)))
	for _, r := range res.Repositories {
		if len(repos) == limit {
			break
		}
		if repo := toRepository(r); repo != nil {
			repos = append(repos, repo)
		}
	}
	return repos, nil
}

// toRepository validates an API repository; entries without an owner or
// name are dropped.
func toRepository(r *gh.Repository) *libdoc.Repository {
	owner, name := r.GetOwner().GetLogin(), r.GetName()
	if owner == "" || name == "" {
		return nil
	}
	return &libdoc.Repository{
		ID:          libdoc.LibraryID{Owner: owner, Repo: name},
		Description: strings.TrimSpace(r.GetDescription()),
		Stars:       r.GetStargazersCount(),
		Language:    r.GetLanguage(),
		Homepage:    strings.TrimSpace(r.GetHomepage()),
	}
}

// GetReadme returns the decoded repository README.
func (s *RepositoryService) GetReadme(ctx context.Context, id libdoc.LibraryID) (*libdoc.DocFile, error) {
	content, err := call(ctx, s, "get readme", func() (*gh.RepositoryContent, *gh.Response, error) {
		return s.client.Repositories.GetReadme(ctx, id.Owner, id.Repo, nil)
	})
	if err != nil {
		return nil, err
	}

	text, err := content.GetContent()
	if err != nil {
		return nil, libdoc.Errorf(libdoc.EINVALID, "README of %s cannot be decoded: %v", id, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, libdoc.Errorf(libdoc.ENOTFOUND, "README of %s is empty", id)
	}
	return &libdoc.DocFile{
		Path:    content.GetPath(),
		URL:     content.GetHTMLURL(),
		Content: text,
	}, nil
}

// GetHomepageURL returns the homepage configured for the repository.
func (s *RepositoryService) GetHomepageURL(ctx context.Context, id libdoc.LibraryID) (string, error) {
	repo, err := s.repository(ctx, id)
	if err != nil {
		return "", err
	}
	homepage := strings.TrimSpace(repo.GetHomepage())
	if homepage == "" {
		return "", libdoc.Errorf(libdoc.ENOTFOUND, "%s has no homepage", id)
	}
	return homepage, nil
}

// ListDocsTree returns the markdown files of the first docs root found in
// the default branch. Files that cannot be fetched are skipped.
func (s *RepositoryService) ListDocsTree(ctx context.Context, id libdoc.LibraryID) ([]*libdoc.DocFile, error) {
	repo, err := s.repository(ctx, id)
	if err != nil {
		return nil, err
	}
	branch := repo.GetDefaultBranch()
	if branch == "" {
		branch = "HEAD"
	}

	tree, err := call(ctx, s, "get tree", func() (*gh.Tree, *gh.Response, error) {
		return s.client.Git.GetTree(ctx, id.Owner, id.Repo, branch, true)
	})
	if err != nil {
		return nil, err
	}
	if tree.GetTruncated() {
		s.logger.Warn("docs tree truncated", "library", id.String())
	}

	entries := s.docsEntries(tree.Entries)
	htmlURL := repo.GetHTMLURL()
	if htmlURL == "" {
		htmlURL = fmt.Sprintf("https://github.com/%s", id.Path())
	}

	files := make([]*libdoc.DocFile, 0, len(entries))
	for _, e := range entries {
		text, err := s.blob(ctx, id, e.GetSHA())
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("skipped docs file", "library", id.String(), "path", e.GetPath(), "err", err)
			continue
		}
		files = append(files, &libdoc.DocFile{
			Path:    e.GetPath(),
			URL:     htmlURL + "/blob/" + branch + "/" + e.GetPath(),
			Content: text,
		})
	}
	return files, nil
}

// docsEntries selects markdown blobs under the first docs root that has
// any, sorted by path and capped.
func (s *RepositoryService) docsEntries(entries []*gh.TreeEntry) []*gh.TreeEntry {
	for _, root := range DocsRoots {
		var selected []*gh.TreeEntry
		for _, e := range entries {
			if e.GetType() != "blob" || e.GetSize() > maxBlobSize {
				continue
			}
			p := e.GetPath()
			if !isMarkdown(p) || !strings.HasPrefix(strings.ToLower(p), root+"/") {
				continue
			}
			if strings.Count(p[len(root)+1:], "/")+1 > s.docsDepth {
				continue
			}
			selected = append(selected, e)
		}
		if len(selected) == 0 {
			continue
		}
		sort.Slice(selected, func(i, j int) bool { return selected[i].GetPath() < selected[j].GetPath() })
		if len(selected) > s.maxDocsFiles {
			selected = selected[:s.maxDocsFiles]
		}
		return selected
	}
	return nil
}

func isMarkdown(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".md", ".mdx", ".markdown":
		return true
	}
	return false
}

func (s *RepositoryService) repository(ctx context.Context, id libdoc.LibraryID) (*gh.Repository, error) {
	return call(ctx, s, "get repository", func() (*gh.Repository, *gh.Response, error) {
		return s.client.Repositories.Get(ctx, id.Owner, id.Repo)
	})
}

func (s *RepositoryService) blob(ctx context.Context, id libdoc.LibraryID, sha string) (string, error) {
	b, err := call(ctx, s, "get blob", func() (*gh.Blob, *gh.Response, error) {
		return s.client.Git.GetBlob(ctx, id.Owner, id.Repo, sha)
	})
	if err != nil {
		return "", err
	}
	if b.GetEncoding() != "base64" {
		return b.GetContent(), nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(b.GetContent(), "\n", ""))
	if err != nil {
		return "", libdoc.Errorf(libdoc.EINVALID, "blob %s cannot be decoded: %v", sha, err)
	}
	return string(data), nil
}

// call runs fn under the rate limiter, retrying transient failures with the
// configured backoff.
func call[T any](ctx context.Context, s *RepositoryService, op string, fn func() (T, *gh.Response, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return zero, err
		}
		v, resp, err := fn()
		if resp != nil {
			s.limiter.Update(resp.Response)
		}
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		err = mapError(op, err)
		if !libdoc.Retryable(err) || attempt >= len(s.retryDelays) {
			return zero, err
		}
		s.logger.Debug("retrying GitHub request", "op", op, "attempt", attempt+2, "err", err)

		timer := time.NewTimer(s.retryDelays[attempt])
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// mapError converts go-github errors to domain errors.
func mapError(op string, err error) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return libdoc.Errorf(libdoc.EUNAVAILABLE, "GitHub rate limit exceeded during %s", op)
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return libdoc.Errorf(libdoc.EUNAVAILABLE, "GitHub secondary rate limit hit during %s", op)
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		code := respErr.Response.StatusCode
		switch {
		case code == http.StatusNotFound:
			return libdoc.Errorf(libdoc.ENOTFOUND, "GitHub %s: not found", op)
		case code == http.StatusTooManyRequests || code >= 500:
			return libdoc.Errorf(libdoc.EUNAVAILABLE, "GitHub %s: status %d", op, code)
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return libdoc.Errorf(libdoc.EINVALID, "GitHub %s: access denied (status %d)", op, code)
		default:
			return libdoc.Errorf(libdoc.EINVALID, "GitHub %s: status %d: %s", op, code, respErr.Message)
		}
	}

	return libdoc.Errorf(libdoc.EUNAVAILABLE, "GitHub %s: %v", op, err)
}
