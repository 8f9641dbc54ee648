package libdoc

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatCandidates renders repository candidates for a human or model reader.
func FormatCandidates(name string, repos []*Repository) string {
	if len(repos) == 0 {
		return fmt.Sprintf("No repositories found for '%s'.", name)
	}

	parts := make([]string, 0, len(repos))
	for _, r := range repos {
		desc := r.Description
		if desc == "" {
			desc = "(no description)"
		}
		lang := r.Language
		if lang == "" {
			lang = "unknown"
		}
		parts = append(parts, fmt.Sprintf("- **%s** - %s\n  Stars: %s | Language: %s",
			r.ID, desc, formatThousands(r.Stars), lang))
	}
	return strings.Join(parts, "\n\n")
}

// FormatResults renders ranked chunks with their source attribution.
// Sections are separated by horizontal rules.
func FormatResults(results []SearchResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, FormatResult(r))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// FormatResult renders one ranked chunk.
func FormatResult(r SearchResult) string {
	c := r.Chunk
	source := c.SourceURL
	if source == "" {
		source = c.Source
	}
	return fmt.Sprintf("### %s\nSource: %s (%s)\n\n%s", c.Heading, source, c.Namespace, c.Content)
}

// FormatNoDocumentation is shown when a library has no rankable content.
func FormatNoDocumentation(id LibraryID) string {
	return fmt.Sprintf("No documentation found for %s.", id)
}

func formatThousands(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var sb strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	if neg {
		return "-" + sb.String()
	}
	return sb.String()
}
