// Package trafilatura extracts main page content with go-trafilatura.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/libdoc"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements libdoc.Extractor at compile time.
var _ libdoc.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura with its readability and dom-distiller
// fallbacks enabled.
type Extractor struct {
	opts trafilatura.Options
}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{
		opts: trafilatura.Options{EnableFallback: true},
	}
}

// Extract implements libdoc.Extractor. A page without recognizable main
// content yields an empty result rather than an error.
func (e *Extractor) Extract(rawHTML string) (*libdoc.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, libdoc.Errorf(libdoc.EINVALID, "empty HTML input")
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), e.opts)
	if err != nil {
		return nil, libdoc.Errorf(libdoc.EINVALID, "trafilatura: %v", err)
	}

	res := &libdoc.ExtractResult{Title: strings.TrimSpace(result.Metadata.Title)}
	if result.ContentNode == nil || strings.TrimSpace(result.ContentText) == "" {
		return res, nil
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, result.ContentNode); err != nil {
		return nil, libdoc.Errorf(libdoc.EINTERNAL, "render content: %v", err)
	}
	res.ContentHTML = buf.String()
	return res, nil
}
