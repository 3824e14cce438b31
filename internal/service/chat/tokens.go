package chat

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sandevgo/dissonance/internal/core"
)

// TokenCounter estimates how many model tokens text occupies.
type TokenCounter func(text string) int

// perMessageOverhead approximates the role and separator tokens chat
// templates add around every message.
const perMessageOverhead = 4

var (
	tkOnce sync.Once
	tk     *tiktoken.Tiktoken
)

// DefaultCounter uses the cl100k_base encoding. When the encoding cannot be
// loaded (tiktoken fetches it on first use) it falls back to a word-based
// estimate so offline use keeps working.
func DefaultCounter() TokenCounter {
	tkOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			tk = enc
		}
	})
	if tk == nil {
		return approxTokens
	}
	return func(text string) int {
		if text == "" {
			return 0
		}
		return len(tk.Encode(text, nil, nil))
	}
}

// approxTokens assumes roughly four tokens per three words.
func approxTokens(text string) int {
	words := len(strings.Fields(text))
	return (words*4 + 2) / 3
}

func messageTokens(count TokenCounter, m core.Message) int {
	return count(m.Content) + perMessageOverhead
}

// fitHistory keeps the newest history messages that fit in budget after the
// system prompt and the new user message are accounted for. The system
// prompt and user message are always kept.
func fitHistory(count TokenCounter, budget int, system, user core.Message, history []core.Message) []core.Message {
	used := messageTokens(count, system) + messageTokens(count, user)

	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		cost := messageTokens(count, history[i])
		if budget > 0 && used+cost > budget {
			break
		}
		used += cost
		start = i
	}
	kept := history[start:]

	// a reply without its question confuses the model
	for len(kept) > 0 && kept[0].Role == core.RoleAssistant {
		kept = kept[1:]
	}

	out := make([]core.Message, 0, len(kept)+2)
	out = append(out, system)
	out = append(out, kept...)
	return append(out, user)
}
