package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// framework identifies the documentation generator that produced a page.
type framework string

const (
	frameworkUnknown    framework = ""
	frameworkDocusaurus framework = "docusaurus"
	frameworkMkDocs     framework = "mkdocs"
	frameworkSphinx     framework = "sphinx"
	frameworkVitePress  framework = "vitepress"
	frameworkVuePress   framework = "vuepress"
	frameworkGitBook    framework = "gitbook"
	frameworkNextra     framework = "nextra"
)

// contentSelectors lists, per framework, the elements that hold the article
// body, most specific first.
var contentSelectors = map[framework][]string{
	frameworkDocusaurus: {".theme-doc-markdown", "article"},
	frameworkMkDocs:     {"article.md-content__inner", ".md-content"},
	frameworkSphinx:     {".rst-content [role=main]", "[role=main]", ".document .body"},
	frameworkVitePress:  {".vp-doc", "#VPContent"},
	frameworkVuePress:   {".theme-default-content"},
	frameworkGitBook:    {"main"},
	frameworkNextra:     {"article", "main"},
}

// genericSelectors are tried when no framework-specific selector matches.
var genericSelectors = []string{"main", "article", "[role=main]", "#content", ".content"}

// generatorMarkers maps substrings of <meta name="generator"> to frameworks.
// VitePress is checked before VuePress since its name contains "press" too.
var generatorMarkers = []struct {
	marker    string
	framework framework
}{
	{"sphinx", frameworkSphinx},
	{"gitbook", frameworkGitBook},
	{"docusaurus", frameworkDocusaurus},
	{"mkdocs", frameworkMkDocs},
	{"vitepress", frameworkVitePress},
	{"vuepress", frameworkVuePress},
	{"nextra", frameworkNextra},
}

// structuralMarkers are selectors unique to one generator's default theme.
var structuralMarkers = []struct {
	selectors []string
	framework framework
}{
	{[]string{"#__docusaurus_skipToContent_fallback", ".theme-doc-sidebar-container"}, frameworkDocusaurus},
	{[]string{"[data-md-color-scheme]", "[data-md-component]", ".md-nav--primary"}, frameworkMkDocs},
	{[]string{".toctree-wrapper", ".wy-nav-side", ".wy-menu-vertical", ".sphinxsidebar"}, frameworkSphinx},
	{[]string{"#VPContent", ".VPDoc"}, frameworkVitePress},
	{[]string{".theme-default-content", ".vuepress-navbar"}, frameworkVuePress},
	{[]string{"[data-testid='space.sidebar']"}, frameworkGitBook},
	{[]string{".nextra-navbar", ".nextra-sidebar", ".nextra-toc"}, frameworkNextra},
}

// detectFramework identifies the documentation generator of doc, preferring
// the generator meta tag over structural markers.
func detectFramework(doc *goquery.Document) framework {
	if generator, ok := doc.Find("meta[name='generator']").Last().Attr("content"); ok {
		generator = strings.ToLower(generator)
		for _, m := range generatorMarkers {
			if strings.Contains(generator, m.marker) {
				return m.framework
			}
		}
	}

	for _, m := range structuralMarkers {
		for _, sel := range m.selectors {
			if doc.Find(sel).Length() > 0 {
				return m.framework
			}
		}
	}

	return frameworkUnknown
}
