package mock

import "github.com/fwojciec/libdoc"

var (
	_ libdoc.Extractor     = (*Extractor)(nil)
	_ libdoc.Converter     = (*Converter)(nil)
	_ libdoc.LinkExtractor = (*LinkExtractor)(nil)
)

// Extractor is a mock implementation of libdoc.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*libdoc.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*libdoc.ExtractResult, error) {
	return e.ExtractFn(html)
}

// Converter is a mock implementation of libdoc.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}

// LinkExtractor is a mock implementation of libdoc.LinkExtractor.
type LinkExtractor struct {
	ExtractLinksFn func(html string, baseURL string) ([]string, error)
}

func (l *LinkExtractor) ExtractLinks(html string, baseURL string) ([]string, error) {
	return l.ExtractLinksFn(html, baseURL)
}
