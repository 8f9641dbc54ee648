package readability_test

import (
	"testing"

	"github.com/fwojciec/libdoc"
	"github.com/fwojciec/libdoc/readability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ libdoc.Extractor = (*readability.Extractor)(nil)

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		_, err := readability.NewExtractor().Extract("")

		assert.Equal(t, libdoc.EINVALID, libdoc.ErrorCode(err))
	})

	t.Run("extracts title", func(t *testing.T) {
		t.Parallel()

		html := `<!DOCTYPE html>
<html>
<head><title>Page Title</title></head>
<body><article><p>Content</p></article></body>
</html>`

		result, err := readability.NewExtractor().Extract(html)

		require.NoError(t, err)
		assert.Equal(t, "Page Title", result.Title)
	})

	t.Run("keeps article and drops navigation", func(t *testing.T) {
		t.Parallel()

		html := `<!DOCTYPE html>
<html>
<head><title>Test</title></head>
<body>
<nav><a href="/">Home</a> | <a href="/about">About Us Link</a></nav>
<article>
<h2>Installation</h2>
<p>This is the main article content that readers care about. It has enough text to be considered the main content.</p>
<ul><li>First step</li><li>Second step</li></ul>
</article>
</body>
</html>`

		result, err := readability.NewExtractor().Extract(html)

		require.NoError(t, err)
		assert.Contains(t, result.ContentHTML, "main article content")
		assert.Contains(t, result.ContentHTML, "Second step")
		assert.NotContains(t, result.ContentHTML, "About Us Link")
	})

	t.Run("preserves code blocks in wrapper divs", func(t *testing.T) {
		t.Parallel()

		html := `<!DOCTYPE html>
<html>
<head><title>Test</title></head>
<body>
<article>
<p>Install the CLI:</p>
<div class="expressive-code">
<figure>
<pre><code>npm install -g @nx/cli</code></pre>
</figure>
</div>
<p>Now you can use nx commands.</p>
</article>
</body>
</html>`

		result, err := readability.NewExtractor().Extract(html)

		require.NoError(t, err)
		assert.Contains(t, result.ContentHTML, "<pre")
		assert.Contains(t, result.ContentHTML, "npm install -g @nx/cli")
	})
}
