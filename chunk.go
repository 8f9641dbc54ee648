package libdoc

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// MaxChunkChars bounds the length of a chunk's content in characters.
const MaxChunkChars = 2000

const truncationMarker = "\n…(truncated)"

// chunkIDSpace scopes chunk identifiers generated by ChunkMarkdown.
var chunkIDSpace = uuid.MustParse("6f1c7f0e-4b8e-5d7a-9a57-0f5d2c1e8b43")

// Chunk is a heading-bounded unit of document text used as the atomic
// ranking item. Chunks are never mutated after creation.
type Chunk struct {
	ID        string    `json:"id"`
	Library   LibraryID `json:"library"`
	Namespace Namespace `json:"namespace"`
	Source    string    `json:"source"`
	SourceURL string    `json:"sourceUrl,omitempty"`
	Heading   string    `json:"heading"`
	Content   string    `json:"content"`
	Position  int       `json:"position"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// EmbeddingText is the text fed to the embedder for this chunk.
func (c *Chunk) EmbeddingText() string {
	return c.Heading + "\n" + c.Content
}

// SearchResult is a chunk with its similarity to a query.
type SearchResult struct {
	Chunk *Chunk  `json:"chunk"`
	Score float32 `json:"score"`
}

// ContentHash returns a hex digest of s.
func ContentHash(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}

// ChunkMarkdown splits a cached markdown document on level 1 and 2 headings.
// Heading markers inside fenced code blocks are literal text. Chunk content
// is capped at MaxChunkChars and whitespace-only chunks are dropped.
// Identifiers depend only on the document identity, its content and the
// chunk position, so chunking identical content is idempotent.
func ChunkMarkdown(doc *CachedDocument) []*Chunk {
	var (
		chunks  []*Chunk
		body    []string
		fence   fenceState
		anchors = anchorIndex{}
		heading = doc.Item
		anchor  string
		hash    = ContentHash(doc.Content)
	)
	if heading == "" {
		heading = "(untitled)"
	}

	flush := func() {
		content := truncateChunk(strings.TrimSpace(strings.Join(body, "\n")))
		body = body[:0]
		if content == "" {
			return
		}
		position := len(chunks)
		chunks = append(chunks, &Chunk{
			ID:        chunkID(doc, hash, position),
			Library:   doc.Library,
			Namespace: doc.Namespace,
			Source:    doc.Item,
			SourceURL: withAnchor(doc.SourceURL, anchor),
			Heading:   heading,
			Content:   content,
			Position:  position,
		})
	}

	for _, line := range splitLines(doc.Content) {
		if fence.scan(line) {
			body = append(body, line)
			continue
		}
		if level, title, ok := parseHeading(line); ok {
			a := anchors.next(title)
			if level <= 2 {
				flush()
				heading, anchor = title, a
				continue
			}
		}
		body = append(body, line)
	}
	flush()

	return chunks
}

func chunkID(doc *CachedDocument, hash string, position int) string {
	key := strings.Join([]string{
		doc.Library.Path(),
		string(doc.Namespace),
		doc.Item,
		hash,
		strconv.Itoa(position),
	}, "\x00")
	return uuid.NewSHA1(chunkIDSpace, []byte(key)).String()
}

func withAnchor(sourceURL, anchor string) string {
	if sourceURL == "" || anchor == "" || strings.Contains(sourceURL, "#") {
		return sourceURL
	}
	return sourceURL + "#" + anchor
}

// truncateChunk caps s at MaxChunkChars including the truncation marker.
// It cuts at the last line boundary outside a fenced block. When no such
// boundary exists, or it would keep less than half the limit, it cuts
// inside the block and closes the open fence.
func truncateChunk(s string) string {
	if utf8.RuneCountInString(s) <= MaxChunkChars {
		return s
	}
	limit := MaxChunkChars - utf8.RuneCountInString(truncationMarker)

	var (
		fence     fenceState
		runes     int
		offset    int
		safe      int
		safeRunes int
	)
	for _, line := range strings.SplitAfter(s, "\n") {
		n := utf8.RuneCountInString(line)
		if runes+n > limit {
			break
		}
		runes += n
		offset += len(line)
		fence.scan(strings.TrimSuffix(line, "\n"))
		if !fence.open {
			safe, safeRunes = offset, runes
		}
	}
	if safe > 0 && safeRunes >= limit/2 {
		return strings.TrimRight(s[:safe], "\n") + truncationMarker
	}

	// Cut inside the block, reserving room to close a fence.
	reserve := 0
	for _, line := range strings.Split(s, "\n") {
		if _, w := fenceRun(strings.TrimLeft(line, " \t")); w >= 3 && w+1 > reserve {
			reserve = w + 1
		}
	}
	cut := byteOffset(s, limit-reserve)
	head := s[:cut]
	// Prefer whole lines while that still keeps half the limit.
	if i := strings.LastIndexByte(head, '\n'); i > safe && utf8.RuneCountInString(head[:i]) >= limit/2 {
		head = head[:i]
	}
	fence = fenceState{}
	for _, line := range strings.Split(head, "\n") {
		fence.scan(line)
	}
	if fence.open {
		head += "\n" + fence.closer()
	}
	return head + truncationMarker
}

// byteOffset returns the byte index of the n-th rune of s.
func byteOffset(s string, n int) int {
	if n <= 0 {
		return 0
	}
	i := 0
	for pos := range s {
		if i == n {
			return pos
		}
		i++
	}
	return len(s)
}
