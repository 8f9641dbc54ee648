package libdoc

import (
	"strconv"
	"strings"
	"unicode"
)

// Section represents a heading in a markdown document.
type Section struct {
	Level  int    `json:"level"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}

// ExtractSections parses markdown and returns all headings (H1-H6) outside
// fenced code blocks. It generates URL-safe anchors and handles duplicates
// with numeric suffixes.
func ExtractSections(markdown string) []Section {
	var (
		sections []Section
		fence    fenceState
		anchors  = anchorIndex{}
	)
	for _, line := range splitLines(markdown) {
		if fence.scan(line) {
			continue
		}
		level, title, ok := parseHeading(line)
		if !ok {
			continue
		}
		sections = append(sections, Section{
			Level:  level,
			Title:  title,
			Anchor: anchors.next(title),
		})
	}
	return sections
}

// HeadingAnchor returns the URL fragment a documentation site would
// typically generate for the heading title.
func HeadingAnchor(title string) string {
	var sb strings.Builder
	prevHyphen := false

	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			prevHyphen = false
		} else if unicode.IsSpace(r) || r == '-' {
			if !prevHyphen && sb.Len() > 0 {
				sb.WriteRune('-')
				prevHyphen = true
			}
		}
	}

	return strings.TrimSuffix(sb.String(), "-")
}

// anchorIndex hands out unique anchors within one document.
type anchorIndex map[string]int

func (a anchorIndex) next(title string) string {
	base := HeadingAnchor(title)
	count, exists := a[base]
	a[base] = count + 1
	if !exists {
		return base
	}
	return base + "-" + strconv.Itoa(count)
}

// fenceState tracks whether a line scanner is inside a fenced code block.
type fenceState struct {
	open   bool
	marker byte
	width  int
}

// scan advances the state by one line and reports whether the line belongs
// to a fenced block, delimiters included.
func (f *fenceState) scan(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	if !f.open {
		marker, width := fenceRun(trimmed)
		if width < 3 {
			return false
		}
		f.open, f.marker, f.width = true, marker, width
		return true
	}
	marker, width := fenceRun(trimmed)
	if marker == f.marker && width >= f.width && strings.TrimSpace(trimmed[width:]) == "" {
		f.open = false
	}
	return true
}

// closer returns a delimiter that closes the open fence.
func (f *fenceState) closer() string {
	return strings.Repeat(string(f.marker), f.width)
}

func fenceRun(s string) (byte, int) {
	if s == "" || (s[0] != '`' && s[0] != '~') {
		return 0, 0
	}
	n := 0
	for n < len(s) && s[n] == s[0] {
		n++
	}
	return s[0], n
}

// parseHeading recognizes ATX headings such as "## Install".
func parseHeading(line string) (level int, title string, ok bool) {
	trimmed := strings.TrimSpace(line)
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level == len(trimmed) {
		return 0, "", false
	}
	if trimmed[level] != ' ' && trimmed[level] != '\t' {
		return 0, "", false
	}
	title = strings.TrimSpace(trimmed[level:])
	if closed := strings.TrimRight(title, "#"); closed != title && strings.HasSuffix(closed, " ") {
		title = strings.TrimSpace(closed)
	}
	if title == "" {
		return 0, "", false
	}
	return level, title, true
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}
