package trafilatura_test

import (
	"testing"

	"github.com/fwojciec/libdoc"
	"github.com/fwojciec/libdoc/trafilatura"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Extractor implements libdoc.Extractor at compile time.
var _ libdoc.Extractor = (*trafilatura.Extractor)(nil)

const docsPage = `<!DOCTYPE html>
<html>
<head>
<title>Getting Started - My Docs</title>
<meta property="og:title" content="Getting Started Guide">
</head>
<body>
<nav class="main-nav"><a href="/">Home</a><a href="/docs">Docs</a></nav>
<article>
<h1>Getting Started</h1>
<p>This is important documentation content that should be extracted by the extractor.</p>
<p>It explains how to install the library and configure it for the first time.</p>
<pre><code>func main() { fmt.Println("Hello, World!") }</code></pre>
</article>
<footer>Copyright 2024 Example Corp</footer>
</body>
</html>`

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("extracts title and main content", func(t *testing.T) {
		t.Parallel()

		result, err := trafilatura.NewExtractor().Extract(docsPage)

		require.NoError(t, err)
		assert.NotEmpty(t, result.Title)
		assert.Contains(t, result.ContentHTML, "important documentation content")
		assert.Contains(t, result.ContentHTML, "fmt.Println")
	})

	t.Run("removes boilerplate", func(t *testing.T) {
		t.Parallel()

		result, err := trafilatura.NewExtractor().Extract(docsPage)

		require.NoError(t, err)
		assert.NotContains(t, result.ContentHTML, "main-nav")
		assert.NotContains(t, result.ContentHTML, "Copyright 2024 Example Corp")
	})

	t.Run("handles minimal valid HTML", func(t *testing.T) {
		t.Parallel()

		result, err := trafilatura.NewExtractor().Extract(`<html><body><p>Simple content</p></body></html>`)

		require.NoError(t, err)
		assert.Contains(t, result.ContentHTML, "Simple content")
	})

	t.Run("returns error for empty input", func(t *testing.T) {
		t.Parallel()

		_, err := trafilatura.NewExtractor().Extract("  ")

		assert.Equal(t, libdoc.EINVALID, libdoc.ErrorCode(err))
	})
}
