package ai

import (
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// codecForModel resolves the tokenizer codec for an OpenAI model name,
// falling back to cl100k_base for models the library does not know.
func codecForModel(model string) (tokenizer.Codec, error) {
	if codec, err := tokenizer.ForModel(tokenizer.Model(model)); err == nil {
		return codec, nil
	}
	return tokenizer.Get(tokenizer.Cl100kBase)
}

// countTokens returns the token count of text under codec. Returns -1 when
// the codec is missing or encoding fails, so callers can distinguish
// "unavailable" from a real zero.
func countTokens(codec tokenizer.Codec, text string) int {
	if codec == nil {
		return -1
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return -1
	}
	return len(ids)
}

// contextWindowFor reports the model's total context window in tokens.
func contextWindowFor(model string) int {
	switch {
	case strings.HasPrefix(model, "gpt-4o"),
		strings.HasPrefix(model, "gpt-4.1"),
		strings.HasPrefix(model, "gpt-4-turbo"):
		return 128000
	case strings.HasPrefix(model, "gpt-4-32k"):
		return 32768
	case strings.HasPrefix(model, "gpt-4"):
		return 8192
	case strings.HasPrefix(model, "gpt-3.5-turbo"):
		return 16385
	}
	return 8192
}
