package gemini

import (
	"context"

	"github.com/fwojciec/libdoc"
	"google.golang.org/genai"
)

// DefaultEmbedModel is the Gemini embedding model.
const DefaultEmbedModel = "text-embedding-004"

// maxBatch is the largest number of texts sent in one EmbedContent call.
const maxBatch = 100

var _ libdoc.Embedder = (*Embedder)(nil)

// Embedder implements libdoc.Embedder using the Gemini embedding API.
type Embedder struct {
	client *genai.Client
	model  string
}

// NewEmbedder creates a new Embedder. An empty model selects DefaultEmbedModel.
func NewEmbedder(client *genai.Client, model string) *Embedder {
	if model == "" {
		model = DefaultEmbedModel
	}
	return &Embedder{client: client, model: model}
}

// Name returns the embedding model name.
func (e *Embedder) Name() string {
	return e.model
}

// Embed returns one unit-norm vector per text.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		batch := texts[start:min(start+maxBatch, len(texts))]
		contents := make([]*genai.Content, len(batch))
		for i, t := range batch {
			contents[i] = genai.NewContentFromText(t, "user")
		}

		res, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
			TaskType: "SEMANTIC_SIMILARITY",
		})
		if err != nil {
			return nil, libdoc.Errorf(libdoc.EUNAVAILABLE, "gemini embedding failed: %v", err)
		}
		if res == nil || len(res.Embeddings) != len(batch) {
			return nil, libdoc.Errorf(libdoc.EINTERNAL, "gemini returned %d embeddings for %d texts", embeddingCount(res), len(batch))
		}
		for _, emb := range res.Embeddings {
			out = append(out, libdoc.Normalize(append([]float32(nil), emb.Values...)))
		}
	}
	return out, nil
}

func embeddingCount(res *genai.EmbedContentResponse) int {
	if res == nil {
		return 0
	}
	return len(res.Embeddings)
}
