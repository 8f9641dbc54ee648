// Package readability extracts main page content with go-readability, the
// Go port of Mozilla's reader view.
package readability

import (
	"strings"

	"github.com/fwojciec/libdoc"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements libdoc.Extractor at compile time.
var _ libdoc.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability. Reader view drops class attributes, so
// pages lose code language hints; pair it with goquery.Extractor in a
// libdoc.ExtractorChain when that matters.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract implements libdoc.Extractor. A page readability cannot make sense
// of yields an empty result rather than an error.
func (e *Extractor) Extract(rawHTML string) (*libdoc.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, libdoc.Errorf(libdoc.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, libdoc.Errorf(libdoc.EINVALID, "readability: %v", err)
	}

	res := &libdoc.ExtractResult{Title: strings.TrimSpace(article.Title)}
	if strings.TrimSpace(article.TextContent) != "" {
		res.ContentHTML = article.Content
	}
	return res, nil
}
