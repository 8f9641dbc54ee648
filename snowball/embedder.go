// Package snowball provides an offline libdoc.Embedder based on stemmed
// feature hashing. It needs no model download or network access, which
// makes it the default embedder.
package snowball

import (
	"context"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/libdoc"
	"github.com/kljensen/snowball"
)

// DefaultDimensions is the length of produced vectors.
const DefaultDimensions = 384

// bigramWeight scales adjacent-stem features relative to single stems.
const bigramWeight = 0.5

var _ libdoc.Embedder = (*Embedder)(nil)

// Embedder hashes stemmed English terms and their bigrams into a fixed
// number of signed buckets. It is stateless and safe for concurrent use.
type Embedder struct {
	dim int
}

// NewEmbedder returns an embedder producing vectors of dim values. A
// non-positive dim selects DefaultDimensions.
func NewEmbedder(dim int) *Embedder {
	if dim <= 0 {
		dim = DefaultDimensions
	}
	return &Embedder{dim: dim}
}

// Name identifies the hashing scheme and dimension.
func (e *Embedder) Name() string {
	return "snowball-" + strconv.Itoa(e.dim)
}

// Embed returns one unit-norm vector per text. Texts without any indexable
// term produce a zero vector.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *Embedder) vector(text string) []float32 {
	terms := Terms(text)
	counts := make(map[string]float64, len(terms)*2)
	for i, t := range terms {
		counts[t]++
		if i > 0 {
			counts[terms[i-1]+" "+t] += bigramWeight
		}
	}

	v := make([]float32, e.dim)
	for term, n := range counts {
		h := xxhash.Sum64String(term)
		bucket := int(h % uint64(e.dim))
		w := float32(1 + math.Log(n))
		if n < 1 {
			w = float32(n)
		}
		if h>>63 == 1 {
			w = -w
		}
		v[bucket] += w
	}
	return libdoc.Normalize(v)
}

// Terms lowercases text, splits it into words, drops stop words and one
// letter tokens, and reduces the rest to their English stems.
func Terms(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) < 2 || stopWords[w] {
			continue
		}
		terms = append(terms, stem(w))
	}
	return terms
}

func stem(word string) string {
	s, err := snowball.Stem(word, "english", true)
	if err != nil || s == "" {
		return word
	}
	return s
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "can": true, "do": true, "does": true,
	"for": true, "from": true, "has": true, "have": true, "how": true, "i": true,
	"if": true, "in": true, "into": true, "is": true, "it": true, "its": true,
	"of": true, "on": true, "or": true, "so": true, "that": true, "the": true,
	"their": true, "then": true, "there": true, "these": true, "this": true,
	"to": true, "was": true, "we": true, "what": true, "when": true, "where": true,
	"which": true, "will": true, "with": true, "you": true, "your": true,
}
