package dispatch

import (
	"log/slog"

	"github.com/pkoukk/tiktoken-go"
)

// historyTokenBudget caps how much prior conversation is sent with each
// completion call.
const historyTokenBudget = 6000

// tokenCounter counts prompt tokens with a BPE encoding, falling back to a
// character estimate when the encoding is unavailable (e.g. offline).
type tokenCounter struct {
	encoding *tiktoken.Tiktoken
}

func newTokenCounter() *tokenCounter {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		slog.Warn("token encoding unavailable, using character estimate", slog.String("error", err.Error()))
		return &tokenCounter{}
	}
	return &tokenCounter{encoding: encoding}
}

func (c *tokenCounter) Count(text string) int {
	if c.encoding == nil {
		return len(text)/4 + 1
	}
	return len(c.encoding.Encode(text, nil, nil))
}
