// Package goquery implements HTML processing on top of the goquery library:
// same-host link extraction and boilerplate-stripping content extraction.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/libdoc"
)

var _ libdoc.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor returns the same-host links of a page in document order.
type LinkExtractor struct{}

// NewLinkExtractor creates a new LinkExtractor.
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// ExtractLinks implements libdoc.LinkExtractor. Links are resolved against
// baseURL, stripped of fragments and deduplicated. Links to other hosts,
// non-HTTP schemes and the page itself are dropped.
func (e *LinkExtractor) ExtractLinks(html string, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, libdoc.Errorf(libdoc.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, libdoc.Errorf(libdoc.EINVALID, "failed to parse HTML: %v", err)
	}

	// <base href> changes how relative links resolve.
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(href); err == nil {
			base = base.ResolveReference(ref)
		}
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" || isNonHTTPLink(href) {
			return
		}
		if rel, _ := sel.Attr("rel"); strings.Contains(rel, "nofollow") {
			return
		}

		resolved := resolveURL(base, href)
		if resolved == "" || !isSameHost(base, resolved) || seen[resolved] {
			return
		}
		seen[resolved] = true
		links = append(links, resolved)
	})

	return links, nil
}

// resolveURL resolves a relative URL against a base URL with the fragment
// stripped. Returns empty string if the href cannot be parsed, is not HTTP
// after resolution or points back at the base page.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	result := resolved.String()
	baseNoFragment := *base
	baseNoFragment.Fragment = ""
	if result == baseNoFragment.String() {
		return ""
	}
	return result
}

// isSameHost checks if the resolved URL has the same host as the base URL.
// Subdomains are considered different hosts.
func isSameHost(base *url.URL, resolved string) bool {
	u, err := url.Parse(resolved)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, base.Host)
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
