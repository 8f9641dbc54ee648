// Package pipeline assembles a library's documentation from its README, its
// repository docs tree and its documentation website, caches it, and ranks
// it against queries.
package pipeline

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/libdoc"
	"golang.org/x/sync/singleflight"
)

var _ libdoc.DocsService = (*Service)(nil)

const (
	// DefaultMinCorpusChars is the repository corpus size below which the
	// website stage runs without being asked for.
	DefaultMinCorpusChars = 2000

	// DefaultResolveLimit is the number of candidates ResolveLibrary returns.
	DefaultResolveLimit = 5

	// ManifestItem lists the items a stage stored in its namespace. It is
	// written after the items, so a fresh manifest implies complete content.
	ManifestItem = "_manifest"

	readmeItem = "README.md"
)

// Service implements libdoc.DocsService. Stages run in namespace order:
// README, docs tree, then website. A failing stage contributes no documents
// and never aborts the query.
type Service struct {
	Repos  libdoc.RepositoryService
	Cache  libdoc.ContentCache
	Ranker libdoc.Ranker

	// Scraper crawls documentation websites. Nil disables the website stage.
	Scraper libdoc.Scraper

	// Tokens enforces QueryOptions.MaxTokens. Nil disables the budget.
	Tokens libdoc.TokenCounter

	// Denylist rejects homepages that are not documentation sites.
	// Nil means libdoc.DefaultSkipHosts.
	Denylist *libdoc.HostDenylist

	CrawlOptions   libdoc.CrawlOptions
	MinCorpusChars int
	DisableWebsite bool

	Logger *slog.Logger

	flight singleflight.Group
}

// ResolveLibrary implements libdoc.DocsService.
func (s *Service) ResolveLibrary(ctx context.Context, name string) ([]*libdoc.Repository, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, libdoc.Errorf(libdoc.EINVALID, "Library name required.")
	}
	return s.Repos.SearchRepositories(ctx, name, DefaultResolveLimit)
}

// QueryDocs implements libdoc.DocsService.
func (s *Service) QueryDocs(ctx context.Context, id libdoc.LibraryID, query string, opts libdoc.QueryOptions) (*libdoc.QueryResult, error) {
	if id.IsZero() {
		return nil, libdoc.Errorf(libdoc.EINVALID, "Library id required.")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, libdoc.Errorf(libdoc.EINVALID, "Query required.")
	}

	out := &libdoc.QueryResult{Library: id}
	var (
		corpus int
		byNS   = make(map[libdoc.Namespace][]*libdoc.Chunk)
		total  int
	)
	for _, ns := range libdoc.Namespaces {
		fetch := true
		if ns == libdoc.NamespaceWeb {
			fetch = s.websiteEnabled() && (opts.Deep || corpus < s.minCorpusChars())
		}

		docs, report, err := s.stage(ctx, id, ns, fetch)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			if ns != libdoc.NamespaceWeb {
				corpus += utf8.RuneCountInString(doc.Content)
			}
			byNS[ns] = append(byNS[ns], libdoc.ChunkMarkdown(doc)...)
		}
		report.Chunks = len(byNS[ns])
		total += report.Chunks
		out.Stages = append(out.Stages, report)
	}

	if total == 0 {
		return nil, libdoc.Errorf(libdoc.ENOTFOUND, "%s", libdoc.FormatNoDocumentation(id))
	}

	model, err := s.Ranker.Model(ctx)
	if err != nil {
		return nil, err
	}

	all := make([]*libdoc.Chunk, 0, total)
	for _, ns := range libdoc.Namespaces {
		if err := s.embed(ctx, id, ns, model, byNS[ns]); err != nil {
			return nil, err
		}
		all = append(all, byNS[ns]...)
	}

	vectors, err := s.Ranker.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, libdoc.Errorf(libdoc.EINTERNAL, "embedder returned %d vectors for the query", len(vectors))
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = libdoc.DefaultTopK
	}
	out.Results = s.budget(ctx, s.Ranker.Rank(vectors[0], all, topK), opts.MaxTokens)
	return out, nil
}

// stage returns the documents of one namespace, from the cache when its
// manifest is fresh, otherwise from the source when fetch is set.
func (s *Service) stage(ctx context.Context, id libdoc.LibraryID, ns libdoc.Namespace, fetch bool) ([]*libdoc.CachedDocument, libdoc.StageReport, error) {
	report := libdoc.StageReport{Namespace: ns}

	if docs, ok := s.cached(ctx, id, ns); ok {
		report.Cached = true
		report.Documents = len(docs)
		return docs, report, nil
	}
	if !fetch {
		report.Skipped = true
		return nil, report, nil
	}

	// The shared fetch outlives any one caller: callers that joined the
	// flight must not inherit the first caller's cancellation.
	ch := s.flight.DoChan(id.Path()+"#"+string(ns), func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx), id, ns)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, report, ctx.Err()
	case res = <-ch:
	}

	v, err := res.Val, res.Err
	if err != nil {
		if libdoc.ErrorCode(err) == libdoc.ESTORAGE {
			return nil, report, err
		}
		s.logger().Warn("stage failed", "library", id.String(), "namespace", string(ns), "err", err)
		report.Err = err
		return nil, report, nil
	}

	docs := v.([]*libdoc.CachedDocument)
	report.Documents = len(docs)
	s.logger().Info("stage fetched", "library", id.String(), "namespace", string(ns), "documents", len(docs))
	return docs, report, nil
}

// cached returns the documents listed in a fresh manifest. A missing or
// expired item invalidates the whole namespace.
func (s *Service) cached(ctx context.Context, id libdoc.LibraryID, ns libdoc.Namespace) ([]*libdoc.CachedDocument, bool) {
	manifest, err := s.Cache.Get(ctx, id, ns, ManifestItem)
	if err != nil {
		return nil, false
	}

	var docs []*libdoc.CachedDocument
	for _, item := range strings.Split(manifest.Content, "\n") {
		if item == "" {
			continue
		}
		doc, err := s.Cache.Get(ctx, id, ns, item)
		if err != nil {
			s.logger().Info("cached namespace incomplete", "library", id.String(), "namespace", string(ns), "item", item, "err", err)
			return nil, false
		}
		docs = append(docs, doc)
	}
	return docs, true
}

// fetch retrieves a namespace from its source and stores it.
func (s *Service) fetch(ctx context.Context, id libdoc.LibraryID, ns libdoc.Namespace) ([]*libdoc.CachedDocument, error) {
	var files []*libdoc.DocFile
	switch ns {
	case libdoc.NamespaceReadme:
		f, err := s.Repos.GetReadme(ctx, id)
		if err != nil && libdoc.ErrorCode(err) != libdoc.ENOTFOUND {
			return nil, err
		}
		if f != nil {
			files = append(files, &libdoc.DocFile{Path: readmeItem, URL: f.URL, Content: f.Content})
		}
	case libdoc.NamespaceDocs:
		var err error
		if files, err = s.Repos.ListDocsTree(ctx, id); err != nil {
			return nil, err
		}
	case libdoc.NamespaceWeb:
		var err error
		if files, err = s.crawl(ctx, id); err != nil {
			return nil, err
		}
	}

	docs := make([]*libdoc.CachedDocument, 0, len(files))
	items := make([]string, 0, len(files))
	seen := make(map[string]bool)
	for _, f := range files {
		if seen[f.Path] || strings.TrimSpace(f.Content) == "" {
			continue
		}
		doc := &libdoc.CachedDocument{
			Library:   id,
			Namespace: ns,
			Item:      f.Path,
			Content:   f.Content,
			SourceURL: f.URL,
		}
		if err := s.Cache.Put(ctx, doc); err != nil {
			if libdoc.ErrorCode(err) == libdoc.EINVALID {
				s.logger().Warn("skipped document", "library", id.String(), "namespace", string(ns), "item", f.Path, "err", err)
				continue
			}
			return nil, err
		}
		seen[f.Path] = true
		docs = append(docs, doc)
		items = append(items, f.Path)
	}

	manifest := &libdoc.CachedDocument{
		Library:   id,
		Namespace: ns,
		Item:      ManifestItem,
		Content:   strings.Join(items, "\n"),
	}
	if err := s.Cache.Put(ctx, manifest); err != nil {
		return nil, err
	}
	return docs, nil
}

// crawl scrapes the repository homepage. A missing or denied homepage
// yields no files.
func (s *Service) crawl(ctx context.Context, id libdoc.LibraryID) ([]*libdoc.DocFile, error) {
	homepage, err := s.Repos.GetHomepageURL(ctx, id)
	if libdoc.ErrorCode(err) == libdoc.ENOTFOUND {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	if !s.denylist().Allows(homepage) {
		s.logger().Info("homepage is not a documentation site", "library", id.String(), "url", homepage)
		return nil, nil
	}

	res, err := s.Scraper.Crawl(ctx, homepage, s.CrawlOptions)
	if err != nil {
		return nil, err
	}
	if len(res.Pages) == 0 {
		return nil, libdoc.Errorf(libdoc.EUNAVAILABLE, "no pages crawled from %s", homepage)
	}

	files := make([]*libdoc.DocFile, 0, len(res.Pages))
	for _, p := range res.Pages {
		item, ok := WebItem(p.URL)
		if !ok {
			continue
		}
		content := p.Content
		if !strings.HasPrefix(content, "# ") && p.Title != "" {
			content = "# " + p.Title + "\n\n" + content
		}
		files = append(files, &libdoc.DocFile{Path: item, URL: p.URL, Content: content})
	}
	return files, nil
}

// embed attaches a vector to every chunk of a namespace. Rows of the stored
// matrix are reused by chunk ID when it was built by the same model; only
// new chunks are embedded. The matrix is saved whenever it changed.
func (s *Service) embed(ctx context.Context, id libdoc.LibraryID, ns libdoc.Namespace, model string, chunks []*libdoc.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	rows := make(map[string][]float32)
	stored, err := s.Cache.LoadEmbeddings(ctx, id, ns)
	switch {
	case err == nil && stored.Model == model:
		for i, chunkID := range stored.IDs {
			rows[chunkID] = stored.Row(i)
		}
	case err == nil:
		s.logger().Info("embedding model changed", "library", id.String(), "namespace", string(ns), "stored", stored.Model, "model", model)
	case libdoc.ErrorCode(err) != libdoc.ENOTFOUND:
		s.logger().Warn("embedding cache unavailable", "library", id.String(), "namespace", string(ns), "err", err)
	}

	var (
		missing []int
		texts   []string
	)
	for i, c := range chunks {
		if v, ok := rows[c.ID]; ok {
			c.Embedding = v
			continue
		}
		missing = append(missing, i)
		texts = append(texts, c.EmbeddingText())
	}

	if len(missing) > 0 {
		vectors, err := s.Ranker.Embed(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(missing) {
			return libdoc.Errorf(libdoc.EINTERNAL, "embedder returned %d vectors for %d chunks", len(vectors), len(missing))
		}
		for j, i := range missing {
			chunks[i].Embedding = vectors[j]
		}
		s.logger().Info("embedded chunks", "library", id.String(), "namespace", string(ns), "computed", len(missing), "reused", len(chunks)-len(missing))
	}

	if len(missing) == 0 && stored != nil && stored.Model == model && sameIDs(stored.IDs, chunks) {
		return nil
	}

	ids := make([]string, len(chunks))
	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
		vectors[i] = c.Embedding
	}
	m, err := libdoc.NewEmbeddingMatrix(model, ids, vectors)
	if err != nil {
		return err
	}
	return s.Cache.SaveEmbeddings(ctx, id, ns, m)
}

// budget keeps results in rank order while their formatted size fits in
// maxTokens. The first result is always kept.
func (s *Service) budget(ctx context.Context, results []libdoc.SearchResult, maxTokens int) []libdoc.SearchResult {
	if maxTokens <= 0 || s.Tokens == nil {
		return results
	}
	used := 0
	for i, r := range results {
		n, err := s.Tokens.CountTokens(ctx, libdoc.FormatResult(r))
		if err != nil {
			s.logger().Warn("token counting failed", "err", err)
			return results
		}
		if i > 0 && used+n > maxTokens {
			return results[:i]
		}
		used += n
	}
	return results
}

func (s *Service) websiteEnabled() bool {
	return !s.DisableWebsite && s.Scraper != nil
}

func (s *Service) minCorpusChars() int {
	if s.MinCorpusChars > 0 {
		return s.MinCorpusChars
	}
	return DefaultMinCorpusChars
}

func (s *Service) denylist() *libdoc.HostDenylist {
	if s.Denylist != nil {
		return s.Denylist
	}
	return libdoc.NewHostDenylist(libdoc.DefaultSkipHosts)
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func sameIDs(ids []string, chunks []*libdoc.Chunk) bool {
	if len(ids) != len(chunks) {
		return false
	}
	for i, c := range chunks {
		if ids[i] != c.ID {
			return false
		}
	}
	return true
}

// WebItem maps a page URL to a cache item name: the URL path with a ".md"
// extension, "index.md" for directory paths. It reports false for paths
// that would escape the namespace.
func WebItem(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	p := strings.TrimPrefix(u.Path, "/")
	if p == "" || strings.HasSuffix(p, "/") {
		p += "index"
	}
	p = path.Clean(p)
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", false
	}
	switch ext := path.Ext(p); ext {
	case ".md":
		return p, true
	case ".html", ".htm":
		p = strings.TrimSuffix(p, ext)
	}
	return p + ".md", true
}
