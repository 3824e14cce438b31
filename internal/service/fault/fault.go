// Package fault keeps a short journal of recent failures and maps errors to
// hints a user can act on.
package fault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/sandevgo/dissonance/internal/providers/llm"
	"github.com/sandevgo/dissonance/internal/service/validate"
	"github.com/sandevgo/dissonance/internal/storage/sqlite"
	"github.com/sandevgo/dissonance/pkg/log"
)

const DefaultJournalSize = 100

type Severity string

const (
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

type Record struct {
	Time      time.Time
	Operation string
	Message   string
	Severity  Severity
}

// Journal is a bounded, concurrency-safe ring of recent failures.
type Journal struct {
	mu      sync.Mutex
	records []Record
	max     int
}

func NewJournal(max int) *Journal {
	if max <= 0 {
		max = DefaultJournalSize
	}
	return &Journal{max: max}
}

// Record logs err and keeps it in the journal, dropping the oldest entry
// when full.
func (j *Journal) Record(ctx context.Context, op string, err error, sev Severity) {
	if err == nil {
		return
	}

	level := zerolog.ErrorLevel
	if sev == SeverityWarn {
		level = zerolog.WarnLevel
	}
	log.FromCtx(ctx).WithLevel(level).Err(err).Str("operation", op).Msg("operation failed")

	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, Record{
		Time:      time.Now(),
		Operation: op,
		Message:   err.Error(),
		Severity:  sev,
	})
	if over := len(j.records) - j.max; over > 0 {
		j.records = append(j.records[:0:0], j.records[over:]...)
	}
}

// Recent returns up to limit records, oldest first.
func (j *Journal) Recent(limit int) []Record {
	j.mu.Lock()
	defer j.mu.Unlock()
	start := max(0, len(j.records)-limit)
	out := make([]Record, len(j.records)-start)
	copy(out, j.records[start:])
	return out
}

func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.records)
}

func (j *Journal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = nil
}

// Guard runs fn, converting a panic into an error. Failures are recorded.
func (j *Journal) Guard(ctx context.Context, op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: unexpected failure: %v", op, r)
		}
		if err != nil {
			j.Record(ctx, op, err, SeverityError)
		}
	}()
	return fn()
}

var ollamaSuggestions = []string{
	"Check if Ollama is running: `ollama serve`",
	"Verify the model is installed: `ollama pull <model>`",
	"Try restarting the Ollama service",
	"Check that port 11434 is available",
}

// Hint returns advice for err, or an empty string when there is none.
func Hint(err error) string {
	var (
		verr  *validate.Error
		dberr sqlite3.Error
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, llm.ErrUnavailable):
		return strings.Join(ollamaSuggestions, "\n")
	case errors.Is(err, llm.ErrModelNotFound):
		return "The model is not installed. Pull it with `dissonance models pull <name>` or `ollama pull <name>`."
	case errors.Is(err, llm.ErrIncompleteStream):
		return "The model stopped mid-reply. Ask again; if it keeps happening, check the Ollama logs."
	case errors.As(err, &verr):
		return validationHint(verr.Field)
	case errors.Is(err, sqlite.ErrNotFound):
		return "Nothing was found with that id. List what exists with `dissonance sessions list` or `dissonance personas list`."
	case errors.As(err, &dberr):
		return "The database operation failed. Chat keeps working without saving; try restarting the application."
	case errors.Is(err, context.DeadlineExceeded):
		return "The model took too long to answer. Raise CODE_OLLAMA_TIMEOUT or try a smaller model."
	}
	return ""
}

func validationHint(field string) string {
	switch field {
	case "temperature":
		return fmt.Sprintf("Temperature must be between 0 and %g", validate.MaxTemperature)
	case "max_tokens":
		return "Max tokens must be a positive number"
	case "model":
		return "Model name cannot be empty"
	case "persona":
		return "Please select a valid persona; see `dissonance personas list`"
	case "text":
		return "Please enter some text to analyze"
	}
	return "Please check your input and try again"
}
