package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/libdoc"
	"google.golang.org/genai"
)

// DefaultAskModel is the model used to synthesize answers.
const DefaultAskModel = "gemini-2.5-flash"

var _ libdoc.Asker = (*Asker)(nil)

// Asker implements libdoc.Asker using Google Gemini.
type Asker struct {
	client *genai.Client
	model  string
}

// NewAsker creates a new Asker. An empty model selects DefaultAskModel.
func NewAsker(client *genai.Client, model string) *Asker {
	if model == "" {
		model = DefaultAskModel
	}
	return &Asker{client: client, model: model}
}

// Ask answers a question using only the ranked chunks as context.
func (a *Asker) Ask(ctx context.Context, question string, results []libdoc.SearchResult) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", libdoc.Errorf(libdoc.EINVALID, "question required")
	}
	if len(results) == 0 {
		return "", libdoc.Errorf(libdoc.ENOTFOUND, "no documentation to answer from")
	}

	result, err := a.client.Models.GenerateContent(ctx, a.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: BuildUserPrompt(results, question)}},
		}},
		BuildConfig(),
	)
	if err != nil {
		return "", libdoc.Errorf(libdoc.EUNAVAILABLE, "gemini request failed: %v", err)
	}
	if result == nil {
		return "", libdoc.Errorf(libdoc.EINTERNAL, "gemini returned nil result")
	}

	return result.Text(), nil
}

// BuildConfig returns the GenerateContentConfig for answer synthesis.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.3)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You are a helpful assistant answering questions about software library documentation. " +
					"Answer based only on the excerpts provided and cite the source of every fact as [n]. " +
					"If the answer is not in the excerpts, say so.",
			}},
		},
		Temperature: &temp,
	}
}

// BuildUserPrompt builds the user prompt from ranked chunks and the question.
// Excerpts are numbered in rank order so the model can cite them.
func BuildUserPrompt(results []libdoc.SearchResult, question string) string {
	var sb strings.Builder
	sb.WriteString("<excerpts>\n")
	for i, r := range results {
		c := r.Chunk
		source := c.SourceURL
		if source == "" {
			source = c.Source
		}
		sb.WriteString("<excerpt>\n")
		fmt.Fprintf(&sb, "<index>%d</index>\n", i+1)
		fmt.Fprintf(&sb, "<heading>%s</heading>\n", c.Heading)
		fmt.Fprintf(&sb, "<source>%s (%s)</source>\n", source, c.Namespace)
		fmt.Fprintf(&sb, "<content>%s</content>\n", c.Content)
		sb.WriteString("</excerpt>\n")
	}
	sb.WriteString("</excerpts>\n\n")
	fmt.Fprintf(&sb, "Question: %s", question)
	return sb.String()
}
