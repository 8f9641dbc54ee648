package goquery

import (
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/libdoc"
)

var _ libdoc.Extractor = (*Extractor)(nil)

// boilerplate lists elements removed before the content root is chosen.
const boilerplate = "nav, footer, script, style, noscript, aside, svg, form, iframe, button, template, " +
	"[role=navigation], [role=banner], [role=contentinfo], [aria-hidden=true], .headerlink, .hash-link"

// languagePrefixes are class prefixes that carry a code block's language.
var languagePrefixes = []string{"language-", "lang-", "highlight-source-", "highlight-"}

// Extractor extracts the main content of documentation pages. It recognizes
// the default themes of common documentation generators and falls back to
// generic landmarks, then to the whole body.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract implements libdoc.Extractor.
func (e *Extractor) Extract(html string) (*libdoc.ExtractResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, libdoc.Errorf(libdoc.EINVALID, "failed to parse HTML: %v", err)
	}

	title := pageTitle(doc)
	fw := detectFramework(doc)

	doc.Find(boilerplate).Remove()
	// Site headers go; article headers holding the page heading stay.
	doc.Find("header").Each(func(_ int, h *goquery.Selection) {
		if h.Find("h1").Length() == 0 {
			h.Remove()
		}
	})
	annotateCodeLanguages(doc)

	root := contentRoot(doc, fw)
	content, err := root.Html()
	if err != nil {
		return nil, libdoc.Errorf(libdoc.EINTERNAL, "failed to render content: %v", err)
	}

	return &libdoc.ExtractResult{
		Title:       title,
		ContentHTML: strings.TrimSpace(content),
	}, nil
}

func pageTitle(doc *goquery.Document) string {
	if t, ok := doc.Find("meta[property='og:title']").Attr("content"); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func contentRoot(doc *goquery.Document, fw framework) *goquery.Selection {
	for _, sel := range slices.Concat(contentSelectors[fw], genericSelectors) {
		if s := doc.Find(sel).First(); s.Length() > 0 && strings.TrimSpace(s.Text()) != "" {
			return s
		}
	}
	return doc.Find("body")
}

// annotateCodeLanguages rewrites every <pre> block so that its <code>
// element carries a "language-X" class, whichever convention the page used:
// a class on the code element, on the pre element, or on a wrapping div as
// Sphinx and GitHub render it.
func annotateCodeLanguages(doc *goquery.Document) {
	doc.Find("pre").Each(func(_ int, pre *goquery.Selection) {
		lang := codeLanguage(pre.Find("code").First())
		if lang == "" {
			lang = codeLanguage(pre)
		}
		for i, s := 0, pre.Parent(); lang == "" && i < 2 && s.Length() > 0; i, s = i+1, s.Parent() {
			lang = codeLanguage(s)
		}
		if lang == "" {
			return
		}

		code := pre.Find("code").First()
		if code.Length() == 0 {
			inner, err := pre.Html()
			if err != nil {
				return
			}
			pre.SetHtml("<code>" + inner + "</code>")
			code = pre.Find("code").First()
		}
		code.SetAttr("class", "language-"+lang)
	})
}

func codeLanguage(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	if lang, ok := s.Attr("data-language"); ok && lang != "" {
		return strings.ToLower(lang)
	}
	class, _ := s.Attr("class")
	for _, c := range strings.Fields(class) {
		for _, prefix := range languagePrefixes {
			if lang, ok := strings.CutPrefix(c, prefix); ok && lang != "" && lang != "default" {
				return strings.ToLower(lang)
			}
		}
	}
	return ""
}
