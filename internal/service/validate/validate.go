// Package validate checks and cleans user-supplied values before they reach
// the model server or the database.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sandevgo/dissonance/internal/core"
	"github.com/sandevgo/dissonance/internal/service/persona"
)

const (
	MaxTextLength       = 10000
	MaxModelLength      = 200
	MaxPersonaName      = 100
	MaxPersonaPrompt    = 10000
	MaxTokensLimit      = 100000
	MaxTemperature      = 2.0
	invalidModelSymbols = `<>"\|?*`
)

var ErrInvalid = errors.New("invalid input")

// Error describes one rejected field. It matches ErrInvalid with errors.Is.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string { return e.Reason }

func (e *Error) Is(target error) bool { return target == ErrInvalid }

func fail(field, reason string) error {
	return &Error{Field: field, Reason: reason}
}

func UserText(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fail("text", "please enter some text to analyze")
	}
	if utf8.RuneCountInString(trimmed) > MaxTextLength {
		return fail("text", fmt.Sprintf("text input is too long (max %d characters)", MaxTextLength))
	}
	return nil
}

// Model accepts Ollama names such as "llama3:8b" or "library/mistral".
func Model(name string) error {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return fail("model", "model name cannot be empty")
	case len(trimmed) > MaxModelLength:
		return fail("model", fmt.Sprintf("model name must be %d characters or less", MaxModelLength))
	case strings.ContainsAny(trimmed, invalidModelSymbols+" \t\n"):
		return fail("model", "model name contains invalid characters")
	}
	return nil
}

func Temperature(t float64) error {
	if t < 0 || t > MaxTemperature {
		return fail("temperature", fmt.Sprintf("temperature must be between 0 and %g", MaxTemperature))
	}
	return nil
}

// MaxTokens treats 0 as "not set".
func MaxTokens(n int) error {
	switch {
	case n == 0:
		return nil
	case n < 0:
		return fail("max_tokens", "max tokens must be a positive number")
	case n > MaxTokensLimit:
		return fail("max_tokens", fmt.Sprintf("max tokens cannot exceed %d", MaxTokensLimit))
	}
	return nil
}

// Persona accepts a built-in id or a stored persona reference.
func Persona(id string) error {
	if id == "" {
		return fail("persona", "persona is required")
	}
	if !persona.IsBuiltin(id) && !persona.IsCustomRef(id) {
		return fail("persona", fmt.Sprintf("invalid persona selection %q", id))
	}
	return nil
}

func PersonaData(name, prompt string) error {
	var errs []error
	switch {
	case strings.TrimSpace(name) == "":
		errs = append(errs, fail("name", "persona name is required"))
	case utf8.RuneCountInString(name) > MaxPersonaName:
		errs = append(errs, fail("name", fmt.Sprintf("persona name is too long (max %d characters)", MaxPersonaName)))
	}
	switch {
	case strings.TrimSpace(prompt) == "":
		errs = append(errs, fail("prompt", "persona prompt is required"))
	case utf8.RuneCountInString(prompt) > MaxPersonaPrompt:
		errs = append(errs, fail("prompt", fmt.Sprintf("persona prompt is too long (max %d characters)", MaxPersonaPrompt)))
	}
	return errors.Join(errs...)
}

func ID(id int64) error {
	if id <= 0 {
		return fail("id", "id must be a positive integer")
	}
	return nil
}

// Tags rejects blank entries.
func Tags(tags []string) error {
	for i, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return fail("tags", fmt.Sprintf("tag %d must be a non-empty string", i))
		}
	}
	return nil
}

// Session checks a conversation before it is saved.
func Session(s core.Session) error {
	var errs []error
	if strings.TrimSpace(s.Persona) == "" {
		errs = append(errs, fail("persona", "persona must be a non-empty string"))
	}
	if err := Model(s.Model); err != nil {
		errs = append(errs, err)
	}
	if len(s.History) == 0 {
		errs = append(errs, fail("history", "history must not be empty"))
	}
	for i, m := range s.History {
		if !core.ValidRole(m.Role) {
			errs = append(errs, fail("history", fmt.Sprintf("history item %d must have a valid role (user/assistant/system)", i)))
		}
		if m.Content == "" {
			errs = append(errs, fail("history", fmt.Sprintf("history item %d must have content", i)))
		}
	}
	if s.Title != "" && strings.TrimSpace(s.Title) == "" {
		errs = append(errs, fail("title", "title must be non-blank when set"))
	}
	if err := Tags(s.Tags); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Sanitize trims s, drops control characters other than tab, newline and
// carriage return, and caps the result at MaxTextLength runes.
func Sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, strings.TrimSpace(s))

	if utf8.RuneCountInString(s) <= MaxTextLength {
		return s
	}
	return string([]rune(s)[:MaxTextLength])
}

// Params is a chat request as typed by the user.
type Params struct {
	Text        string
	Model       string
	Persona     string
	Temperature float64
	MaxTokens   int
}

// Request validates every field, reporting all failures at once, and returns
// a cleaned copy.
func Request(p Params) (Params, error) {
	err := errors.Join(
		UserText(p.Text),
		Model(p.Model),
		Persona(p.Persona),
		Temperature(p.Temperature),
		MaxTokens(p.MaxTokens),
	)
	if err != nil {
		return Params{}, err
	}

	p.Text = Sanitize(p.Text)
	p.Model = strings.TrimSpace(p.Model)
	return p, nil
}
