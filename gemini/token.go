package gemini

import (
	"context"

	"github.com/fwojciec/libdoc"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

// DefaultTokenizerModel names the model whose vocabulary is used to count
// tokens locally.
const DefaultTokenizerModel = "gemini-2.0-flash"

var _ libdoc.TokenCounter = (*TokenCounter)(nil)

// TokenCounter counts tokens offline using the Gemini tokenizer.
type TokenCounter struct {
	tok *tokenizer.LocalTokenizer
}

// NewTokenCounter creates a new TokenCounter for the given model.
func NewTokenCounter(model string) (*TokenCounter, error) {
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, libdoc.Errorf(libdoc.EINVALID, "tokenizer for %q: %v", model, err)
	}
	return &TokenCounter{tok: tok}, nil
}

// CountTokens counts the number of tokens in text.
func (tc *TokenCounter) CountTokens(_ context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}

	result, err := tc.tok.CountTokens([]*genai.Content{genai.NewContentFromText(text, "user")}, nil)
	if err != nil {
		return 0, err
	}
	return int(result.TotalTokens), nil
}
