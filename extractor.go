package libdoc

import "strings"

// ExtractResult holds the extracted content from an HTML page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content as clean HTML.
	// Boilerplate (nav, footer, sidebar, ads) has been removed.
	ContentHTML string
}

// Extractor extracts main content from HTML pages, removing boilerplate.
type Extractor interface {
	// Extract processes raw HTML and returns the main content.
	Extract(html string) (*ExtractResult, error)
}

// ExtractorChain tries extractors in order and returns the first result
// with non-empty content. The error of the last extractor is returned when
// none succeeds.
type ExtractorChain []Extractor

// Extract implements Extractor.
func (c ExtractorChain) Extract(html string) (*ExtractResult, error) {
	var (
		title   string
		lastErr error
	)
	for _, e := range c {
		res, err := e.Extract(html)
		if err != nil {
			lastErr = err
			continue
		}
		if title == "" {
			title = res.Title
		}
		if strings.TrimSpace(res.ContentHTML) != "" {
			if res.Title == "" {
				res.Title = title
			}
			return res, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return &ExtractResult{Title: title}, nil
}
