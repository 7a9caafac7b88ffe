// Package context turns scanned repository contents into bounded, prompt-ready
// text and accounts for its token cost.
package context

import (
	"fmt"
	"sync"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// FallbackEncoding is used for model ids tiktoken does not know, which covers
// Claude, Gemini and local models.
const FallbackEncoding = "cl100k_base"

func init() {
	// Ranks ship inside the binary so counting never hits the network.
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Tokenizer counts tokens with the vocabulary of one model. A Tokenizer with
// no encoder falls back to a chars-per-token heuristic.
type Tokenizer struct {
	enc      *tiktoken.Tiktoken
	encoding string
}

// NewTokenizer returns a Tokenizer for model. Unknown models use
// FallbackEncoding.
func NewTokenizer(model string) (*Tokenizer, error) {
	name := EncodingForModel(model)
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: get encoding %s: %w", name, err)
	}
	return &Tokenizer{enc: enc, encoding: name}, nil
}

// EncodingForModel names the BPE vocabulary used for model.
func EncodingForModel(model string) string {
	if model == "" {
		return FallbackEncoding
	}
	if enc, ok := tiktoken.MODEL_TO_ENCODING[model]; ok {
		return enc
	}
	for prefix, enc := range tiktoken.MODEL_PREFIX_TO_ENCODING {
		if len(model) >= len(prefix) && model[:len(prefix)] == prefix {
			return enc
		}
	}
	return FallbackEncoding
}

// Encoding reports the vocabulary name, or "heuristic" without an encoder.
func (t *Tokenizer) Encoding() string {
	if t == nil || t.enc == nil {
		return "heuristic"
	}
	return t.encoding
}

// Count returns the number of tokens in s.
func (t *Tokenizer) Count(s string) int {
	if s == "" {
		return 0
	}
	if t == nil || t.enc == nil {
		return heuristicCount(s)
	}
	return len(t.enc.Encode(s, nil, nil))
}

const charsPerToken = 4

func heuristicCount(s string) int {
	n := utf8.RuneCountInString(s)
	return (n + charsPerToken - 1) / charsPerToken
}

var (
	cacheMu sync.Mutex
	cache   = map[string]*Tokenizer{}
)

// TokenizerFor returns a cached Tokenizer for model. It never fails: if no
// encoder can be built the heuristic Tokenizer is returned.
func TokenizerFor(model string) *Tokenizer {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if tok, ok := cache[model]; ok {
		return tok
	}
	tok, err := NewTokenizer(model)
	if err != nil {
		tok = &Tokenizer{}
	}
	cache[model] = tok
	return tok
}

// EstimateTokens returns the token cost of text under model's vocabulary.
func EstimateTokens(text, model string) int {
	if text == "" {
		return 0
	}
	return TokenizerFor(model).Count(text)
}
