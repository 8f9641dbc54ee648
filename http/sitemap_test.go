package http_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/libdoc"
	libdochttp "github.com/fwojciec/libdoc/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func urlset(locs ...string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, l := range locs {
		sb.WriteString("  <url><loc>" + l + "</loc></url>\n")
	}
	sb.WriteString("</urlset>")
	return sb.String()
}

func sitemapIndex(locs ...string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, l := range locs {
		sb.WriteString("  <sitemap><loc>" + l + "</loc></sitemap>\n")
	}
	sb.WriteString("</sitemapindex>")
	return sb.String()
}

// sitemapSite serves files by path. "{{BASE}}" in a body is replaced with
// the server URL. Requests are counted.
type sitemapSite struct {
	*httptest.Server
	requests atomic.Int32
}

func newSitemapSite(t *testing.T, files map[string]string) *sitemapSite {
	t.Helper()

	site := &sitemapSite{}
	site.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		site.requests.Add(1)
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		body = strings.ReplaceAll(body, "{{BASE}}", site.URL)
		if strings.HasSuffix(r.URL.Path, ".gz") {
			var buf bytes.Buffer
			zw := gzip.NewWriter(&buf)
			_, _ = zw.Write([]byte(body))
			_ = zw.Close()
			w.Header().Set("Content-Type", "application/gzip")
			_, _ = w.Write(buf.Bytes())
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(site.Close)
	return site
}

func TestSitemapService_DiscoverURLs(t *testing.T) {
	t.Parallel()

	t.Run("reads sitemaps named in robots.txt", func(t *testing.T) {
		t.Parallel()

		site := newSitemapSite(t, map[string]string{
			"/robots.txt": "User-agent: *\nDisallow: /private/\nSitemap: {{BASE}}/one.xml\nsitemap:{{BASE}}/two.xml\n",
			"/one.xml":    urlset("{{BASE}}/docs/intro"),
			"/two.xml":    urlset("{{BASE}}/docs/guide"),
		})

		urls, err := libdochttp.NewSitemapService(site.Client()).DiscoverURLs(context.Background(), site.URL, 0)

		require.NoError(t, err)
		assert.Equal(t, []string{site.URL + "/docs/intro", site.URL + "/docs/guide"}, urls)
	})

	t.Run("falls back to sitemap.xml", func(t *testing.T) {
		t.Parallel()

		site := newSitemapSite(t, map[string]string{
			"/robots.txt":  "User-agent: *\n",
			"/sitemap.xml": urlset("{{BASE}}/page"),
		})

		urls, err := libdochttp.NewSitemapService(site.Client()).DiscoverURLs(context.Background(), site.URL, 0)

		require.NoError(t, err)
		assert.Equal(t, []string{site.URL + "/page"}, urls)
	})

	t.Run("follows sitemap indexes", func(t *testing.T) {
		t.Parallel()

		site := newSitemapSite(t, map[string]string{
			"/sitemap.xml":   sitemapIndex("{{BASE}}/docs.xml", "{{BASE}}/nested.xml"),
			"/docs.xml":      urlset("{{BASE}}/docs/intro"),
			"/nested.xml":    sitemapIndex("{{BASE}}/api.xml.gz"),
			"/api.xml.gz":    urlset("{{BASE}}/api/reference"),
			"/unrelated.xml": urlset("{{BASE}}/never"),
		})

		urls, err := libdochttp.NewSitemapService(site.Client()).DiscoverURLs(context.Background(), site.URL, 0)

		require.NoError(t, err)
		assert.Equal(t, []string{site.URL + "/docs/intro", site.URL + "/api/reference"}, urls)
	})

	t.Run("skips broken child sitemaps", func(t *testing.T) {
		t.Parallel()

		site := newSitemapSite(t, map[string]string{
			"/sitemap.xml": sitemapIndex("{{BASE}}/missing.xml", "{{BASE}}/broken.xml", "{{BASE}}/ok.xml"),
			"/broken.xml":  "<urlset><url><loc>",
			"/ok.xml":      urlset("{{BASE}}/page"),
		})

		urls, err := libdochttp.NewSitemapService(site.Client()).DiscoverURLs(context.Background(), site.URL, 0)

		require.NoError(t, err)
		assert.Equal(t, []string{site.URL + "/page"}, urls)
	})

	t.Run("does not loop on self-referencing indexes", func(t *testing.T) {
		t.Parallel()

		site := newSitemapSite(t, map[string]string{
			"/sitemap.xml": sitemapIndex("{{BASE}}/sitemap.xml", "{{BASE}}/pages.xml"),
			"/pages.xml":   urlset("{{BASE}}/page"),
		})

		urls, err := libdochttp.NewSitemapService(site.Client()).DiscoverURLs(context.Background(), site.URL, 0)

		require.NoError(t, err)
		assert.Equal(t, []string{site.URL + "/page"}, urls)
	})

	t.Run("keeps urls under the base path", func(t *testing.T) {
		t.Parallel()

		site := newSitemapSite(t, map[string]string{
			"/sitemap.xml": urlset(
				"{{BASE}}/docs",
				"{{BASE}}/docs/intro",
				"{{BASE}}/blog/post",
				"{{BASE}}/documentation/other",
				"{{BASE}}/docs/intro",
				"https://cdn.example.com/docs/asset",
			),
		})

		urls, err := libdochttp.NewSitemapService(site.Client()).DiscoverURLs(context.Background(), site.URL+"/docs/", 0)

		require.NoError(t, err)
		assert.Equal(t, []string{site.URL + "/docs", site.URL + "/docs/intro"}, urls)
	})

	t.Run("stops reading at the limit", func(t *testing.T) {
		t.Parallel()

		site := newSitemapSite(t, map[string]string{
			"/robots.txt": "Sitemap: {{BASE}}/a.xml\nSitemap: {{BASE}}/b.xml\n",
			"/a.xml":      urlset("{{BASE}}/1", "{{BASE}}/2", "{{BASE}}/3"),
			"/b.xml":      urlset("{{BASE}}/4"),
		})

		urls, err := libdochttp.NewSitemapService(site.Client()).DiscoverURLs(context.Background(), site.URL, 2)

		require.NoError(t, err)
		assert.Equal(t, []string{site.URL + "/1", site.URL + "/2"}, urls)
		assert.Equal(t, int32(2), site.requests.Load(), "b.xml should not be fetched")
	})

	t.Run("returns an empty slice without sitemaps", func(t *testing.T) {
		t.Parallel()

		site := newSitemapSite(t, map[string]string{})

		urls, err := libdochttp.NewSitemapService(site.Client()).DiscoverURLs(context.Background(), site.URL, 0)

		require.NoError(t, err)
		assert.NotNil(t, urls)
		assert.Empty(t, urls)
	})

	t.Run("rejects relative base urls", func(t *testing.T) {
		t.Parallel()

		_, err := libdochttp.NewSitemapService(nil).DiscoverURLs(context.Background(), "/docs", 0)

		assert.Equal(t, libdoc.EINVALID, libdoc.ErrorCode(err))
	})

	t.Run("returns context errors", func(t *testing.T) {
		t.Parallel()

		site := newSitemapSite(t, map[string]string{
			"/sitemap.xml": urlset("{{BASE}}/page"),
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := libdochttp.NewSitemapService(site.Client()).DiscoverURLs(ctx, site.URL, 0)

		require.ErrorIs(t, err, context.Canceled)
	})
}
