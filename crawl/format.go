package crawl

import (
	"fmt"

	"github.com/fwojciec/libdoc"
)

// TruncateURL shortens a URL for display, keeping the end which is more informative.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}

// FormatBytes formats bytes in human-readable form.
func FormatBytes(bytes int) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatSummary renders the one-line outcome of a crawl.
func FormatSummary(result *libdoc.CrawlResult) string {
	var bytes int
	for _, p := range result.Pages {
		bytes += len(p.Content)
	}
	return fmt.Sprintf("Saved %d pages (%s), skipped %d", len(result.Pages), FormatBytes(bytes), len(result.Skipped))
}
