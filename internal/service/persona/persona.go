// Package persona holds the built-in critic personas and turns a persona
// selection into the system prompt sent with every chat request.
package persona

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sandevgo/dissonance/internal/core"
	"github.com/sandevgo/dissonance/pkg/log"
)

const (
	Default   = "logician"
	customRef = "custom_"
)

type Builtin struct {
	ID     string
	Title  string
	Prompt string
}

var builtins = []Builtin{
	{
		ID:     "logician",
		Title:  "The Logician",
		Prompt: "You are The Logician. Identify logical fallacies, unstated assumptions, and reasoning gaps. Be precise and grounded. Challenge, do not agree.",
	},
	{
		ID:     "market_cynic",
		Title:  "The Market Cynic",
		Prompt: "You are The Market Cynic. Provide ruthless market-based criticism: viability, competition, distribution, margins, and willingness-to-pay. Be terse and unsentimental.",
	},
	{
		ID:     "lateral_thinker",
		Title:  "The Lateral Thinker",
		Prompt: `You are The Lateral Thinker. Derail assumptions with unexpected "What if...?" scenarios, contrarian angles, and adjacent possibilities. Prioritize novelty that forces reconsideration.`,
	},
	{
		ID:     "five_whys",
		Title:  `The "Five Whys" Toddler`,
		Prompt: `You are The "Five Whys" Toddler. Ask iterative whys to push towards first principles. Be relentless yet concise. Prefer numbered sequences of why-questions with brief rationales.`,
	},
}

const devilsAdvocatePrompt = `
Mode: Devil's Advocate. Produce the strongest possible counterargument to the user's text. Be incisive, evidence-seeking, and assume the user is wrong unless justified. Use concise section headers and bulleted lists. Structure strictly as:

## Steelman
- One to two lines summarizing the user's best-case argument.

## Vulnerabilities
- Bullet key flaws, contradictions, and missing premises.
- Prioritize the highest-impact risks first.

## Counterevidence
- Bullet concrete counterexamples, data points, or citations to seek.

## Next Probes
- Two sharp questions that would most change the conclusion if answered.

Do not offer solutions. Do not hedge.`

type Mode string

const (
	ModeStandard       Mode = "standard"
	ModeDevilsAdvocate Mode = "devils_advocate"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeStandard, ModeDevilsAdvocate:
		return m, nil
	case "":
		return ModeStandard, nil
	}
	return "", fmt.Errorf("unknown mode %q (want %s or %s)", s, ModeStandard, ModeDevilsAdvocate)
}

func Builtins() []Builtin {
	out := make([]Builtin, len(builtins))
	copy(out, builtins)
	return out
}

func lookup(id string) (Builtin, bool) {
	for _, b := range builtins {
		if b.ID == id {
			return b, true
		}
	}
	return Builtin{}, false
}

func IsBuiltin(id string) bool {
	_, ok := lookup(id)
	return ok
}

// CustomRef is the persona id under which a stored persona is selected.
func CustomRef(id int64) string {
	return customRef + strconv.FormatInt(id, 10)
}

// ParseCustomRef extracts the stored persona id from "custom_<id>".
func ParseCustomRef(ref string) (int64, bool) {
	rest, ok := strings.CutPrefix(ref, customRef)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func IsCustomRef(ref string) bool {
	_, ok := ParseCustomRef(ref)
	return ok
}

// Title is the display name of a built-in persona, or the id itself.
func Title(id string) string {
	if b, ok := lookup(id); ok {
		return b.Title
	}
	return id
}

type Store interface {
	Get(ctx context.Context, id int64) (core.Persona, error)
}

type Resolver struct {
	store Store
}

// NewResolver returns a Resolver. store may be nil when no database is
// available, in which case custom references fall back to the default.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// SystemPrompt builds the system message for a request. A non-empty
// customPrompt replaces the persona prompt. Unknown or unreadable personas
// fall back to the logician. Devil's advocate mode appends its structure.
func (r *Resolver) SystemPrompt(ctx context.Context, personaID string, mode Mode, customPrompt string) string {
	base := strings.TrimSpace(customPrompt)
	if base == "" {
		base = r.personaPrompt(ctx, personaID)
	}
	if mode == ModeDevilsAdvocate {
		base += devilsAdvocatePrompt
	}
	return base
}

func (r *Resolver) personaPrompt(ctx context.Context, personaID string) string {
	if id, ok := ParseCustomRef(personaID); ok && r.store != nil {
		p, err := r.store.Get(ctx, id)
		if err == nil {
			return p.Prompt
		}
		log.FromCtx(ctx).Warn().Err(err).Str("persona", personaID).Msg("custom persona unavailable, using default")
	}
	if b, ok := lookup(personaID); ok {
		return b.Prompt
	}
	b, _ := lookup(Default)
	return b.Prompt
}
