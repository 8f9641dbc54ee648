package main_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/fwojciec/libdoc"
	main "github.com/fwojciec/libdoc/cmd/libdoc"
	"github.com/fwojciec/libdoc/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var widget = libdoc.LibraryID{Owner: "acme", Repo: "widget"}

var installResult = libdoc.SearchResult{
	Chunk: &libdoc.Chunk{Heading: "Installation", Namespace: libdoc.NamespaceReadme, Source: "README.md", Content: "go get it"},
	Score: 0.9,
}

func newDeps(stdout, stderr *bytes.Buffer) *main.Dependencies {
	return &main.Dependencies{
		Ctx:    context.Background(),
		Stdout: stdout,
		Stderr: stderr,
	}
}

func TestResolveCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("prints candidates", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Docs = &mock.DocsService{
			ResolveLibraryFn: func(_ context.Context, name string) ([]*libdoc.Repository, error) {
				assert.Equal(t, "widget", name)
				return []*libdoc.Repository{{ID: widget, Description: "Widgets.", Stars: 42, Language: "Go"}}, nil
			},
		}

		err := (&main.ResolveCmd{Name: "widget"}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "- **/acme/widget** - Widgets.\n  Stars: 42 | Language: Go\n", stdout.String())
		assert.Empty(t, stderr.String())
	})

	t.Run("reports failures", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Docs = &mock.DocsService{
			ResolveLibraryFn: func(context.Context, string) ([]*libdoc.Repository, error) {
				return nil, libdoc.Errorf(libdoc.EUNAVAILABLE, "GitHub rate limit exceeded.")
			},
		}

		err := (&main.ResolveCmd{Name: "widget"}).Run(deps)

		require.Error(t, err)
		assert.Equal(t, "error: GitHub rate limit exceeded.\n", stderr.String())
		assert.Empty(t, stdout.String())
	})
}

func TestQueryCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("prints ranked sections and stage summary", func(t *testing.T) {
		t.Parallel()

		var got libdoc.QueryOptions
		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.QueryDefaults = libdoc.QueryOptions{TopK: 3}
		deps.Docs = &mock.DocsService{
			QueryDocsFn: func(_ context.Context, id libdoc.LibraryID, query string, opts libdoc.QueryOptions) (*libdoc.QueryResult, error) {
				assert.Equal(t, widget, id)
				assert.Equal(t, "install", query)
				got = opts
				return &libdoc.QueryResult{
					Library: id,
					Results: []libdoc.SearchResult{installResult},
					Stages: []libdoc.StageReport{
						{Namespace: libdoc.NamespaceReadme, Documents: 1, Chunks: 4, Cached: true},
						{Namespace: libdoc.NamespaceDocs, Err: libdoc.Errorf(libdoc.EUNAVAILABLE, "GitHub unavailable.")},
						{Namespace: libdoc.NamespaceWeb, Skipped: true},
					},
				}, nil
			},
		}

		err := (&main.QueryCmd{Library: "/acme/widget", Query: "install", Deep: true, Tokens: 100}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, libdoc.QueryOptions{Deep: true, TopK: 3, MaxTokens: 100}, got)
		assert.Equal(t, "### Installation\nSource: README.md (readme)\n\ngo get it\n", stdout.String())
		assert.Equal(t, "  readme: 1 documents, 4 chunks (cached)\n"+
			"  docs: failed (GitHub unavailable.)\n"+
			"  web: skipped\n", stderr.String())
	})

	t.Run("prints a notice when nothing is found", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Docs = &mock.DocsService{
			QueryDocsFn: func(context.Context, libdoc.LibraryID, string, libdoc.QueryOptions) (*libdoc.QueryResult, error) {
				return nil, libdoc.Errorf(libdoc.ENOTFOUND, "nothing")
			},
		}

		err := (&main.QueryCmd{Library: "acme/widget", Query: "q"}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "No documentation found for /acme/widget.\n", stdout.String())
	})

	t.Run("rejects malformed identifiers", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Docs = &mock.DocsService{}

		err := (&main.QueryCmd{Library: "widget", Query: "q"}).Run(deps)

		require.Error(t, err)
		assert.Equal(t, libdoc.EINVALID, libdoc.ErrorCode(err))
		assert.Contains(t, stderr.String(), "error: Invalid library_id format")
	})
}

func TestAskCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("answers from ranked sections", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Docs = &mock.DocsService{
			QueryDocsFn: func(_ context.Context, id libdoc.LibraryID, query string, _ libdoc.QueryOptions) (*libdoc.QueryResult, error) {
				return &libdoc.QueryResult{Library: id, Results: []libdoc.SearchResult{installResult}}, nil
			},
		}
		deps.Asker = &mock.Asker{
			AskFn: func(_ context.Context, question string, results []libdoc.SearchResult) (string, error) {
				assert.Equal(t, "How do I install it?", question)
				require.Len(t, results, 1)
				return "Run go get.", nil
			},
		}

		err := (&main.AskCmd{Library: "/acme/widget", Question: "How do I install it?"}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "Run go get.\n", stdout.String())
	})

	t.Run("reports asker failures", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Docs = &mock.DocsService{
			QueryDocsFn: func(_ context.Context, id libdoc.LibraryID, _ string, _ libdoc.QueryOptions) (*libdoc.QueryResult, error) {
				return &libdoc.QueryResult{Library: id, Results: []libdoc.SearchResult{installResult}}, nil
			},
		}
		deps.Asker = &mock.Asker{
			AskFn: func(context.Context, string, []libdoc.SearchResult) (string, error) {
				return "", assert.AnError
			},
		}

		err := (&main.AskCmd{Library: "/acme/widget", Question: "q"}).Run(deps)

		require.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, "error: Internal error.\n", stderr.String())
		assert.Empty(t, stdout.String())
	})
}

func TestCrawlCmd_Run(t *testing.T) {
	t.Parallel()

	pages := []*libdoc.Page{
		{URL: "https://docs.example.com/", Title: "Home", Content: "# Home"},
		{URL: "https://docs.example.com/guide", Title: "Guide", Content: "# Guide"},
	}

	t.Run("saves and commits pages", func(t *testing.T) {
		t.Parallel()

		var saved []string
		committed := false
		store := &mock.PageStore{
			SaveFn: func(_ context.Context, p *libdoc.Page) error {
				saved = append(saved, p.URL)
				return nil
			},
			CommitFn: func() error {
				committed = true
				return nil
			},
		}

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.CrawlOptions = libdoc.CrawlOptions{MaxPages: 10, MaxDepth: 1}
		deps.Scraper = &mock.Scraper{
			CrawlFn: func(_ context.Context, seed string, opts libdoc.CrawlOptions) (*libdoc.CrawlResult, error) {
				assert.Equal(t, "https://docs.example.com/", seed)
				assert.Equal(t, libdoc.CrawlOptions{MaxPages: 10, MaxDepth: 1}, opts)
				return &libdoc.CrawlResult{
					Pages:   pages,
					Skipped: []libdoc.SkippedPage{{URL: "https://docs.example.com/gone", Err: libdoc.Errorf(libdoc.ENOTFOUND, "Page not found.")}},
				}, nil
			},
		}
		deps.NewPageStore = func(baseDir, name string) libdoc.PageStore {
			assert.Equal(t, "/tmp/out", baseDir)
			assert.Equal(t, "example", name)
			return store
		}

		err := (&main.CrawlCmd{URL: "https://docs.example.com/", Name: "example", Path: "/tmp/out"}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://docs.example.com/", "https://docs.example.com/guide"}, saved)
		assert.True(t, committed)
		assert.Equal(t, "Saved 2 pages (13 B), skipped 1\n", stdout.String())
		assert.Equal(t, "skip https://docs.example.com/gone: Page not found.\n", stderr.String())
	})

	t.Run("aborts when a save fails", func(t *testing.T) {
		t.Parallel()

		aborted := false
		store := &mock.PageStore{
			SaveFn: func(context.Context, *libdoc.Page) error { return assert.AnError },
			AbortFn: func() error {
				aborted = true
				return nil
			},
		}

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Scraper = &mock.Scraper{
			CrawlFn: func(context.Context, string, libdoc.CrawlOptions) (*libdoc.CrawlResult, error) {
				return &libdoc.CrawlResult{Pages: pages}, nil
			},
		}
		deps.NewPageStore = func(string, string) libdoc.PageStore { return store }

		err := (&main.CrawlCmd{URL: "https://docs.example.com/", Name: "example", Path: "."}).Run(deps)

		require.ErrorIs(t, err, assert.AnError)
		assert.True(t, aborted)
		assert.Contains(t, stderr.String(), "error saving https://docs.example.com/")
	})

	t.Run("aborts when nothing was fetched", func(t *testing.T) {
		t.Parallel()

		aborted := false
		store := &mock.PageStore{
			AbortFn: func() error {
				aborted = true
				return nil
			},
		}

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Scraper = &mock.Scraper{
			CrawlFn: func(context.Context, string, libdoc.CrawlOptions) (*libdoc.CrawlResult, error) {
				return &libdoc.CrawlResult{}, nil
			},
		}
		deps.NewPageStore = func(string, string) libdoc.PageStore { return store }

		err := (&main.CrawlCmd{URL: "https://docs.example.com/", Name: "example", Path: "."}).Run(deps)

		require.NoError(t, err)
		assert.True(t, aborted)
		assert.Equal(t, "No pages saved\n", stdout.String())
	})
}

func TestCacheCmds_Run(t *testing.T) {
	t.Parallel()

	t.Run("lists cached libraries", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Cache = &mock.ContentCache{
			LibrariesFn: func(context.Context) ([]libdoc.LibraryID, error) {
				return []libdoc.LibraryID{widget, {Owner: "acme", Repo: "gadget"}}, nil
			},
		}

		err := (&main.CacheListCmd{}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "/acme/widget\n/acme/gadget\n", stdout.String())
	})

	t.Run("purges a library", func(t *testing.T) {
		t.Parallel()

		var purged libdoc.LibraryID
		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Cache = &mock.ContentCache{
			PurgeFn: func(_ context.Context, lib libdoc.LibraryID) error {
				purged = lib
				return nil
			},
		}

		err := (&main.CachePurgeCmd{Library: "/acme/widget"}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, widget, purged)
		assert.Equal(t, "Purged /acme/widget\n", stdout.String())
	})
}
