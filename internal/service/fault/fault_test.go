package fault

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/sandevgo/dissonance/internal/providers/llm"
	"github.com/sandevgo/dissonance/internal/service/validate"
	"github.com/sandevgo/dissonance/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_Bounded(t *testing.T) {
	j := NewJournal(3)
	ctx := context.Background()

	for i := range 5 {
		j.Record(ctx, "op", fmt.Errorf("failure %d", i), SeverityWarn)
	}
	j.Record(ctx, "op", nil, SeverityError)

	require.Equal(t, 3, j.Len())
	recent := j.Recent(10)
	assert.Equal(t, "failure 2", recent[0].Message)
	assert.Equal(t, "failure 4", recent[2].Message)

	last := j.Recent(1)
	require.Len(t, last, 1)
	assert.Equal(t, "failure 4", last[0].Message)

	j.Clear()
	assert.Zero(t, j.Len())
}

func TestJournal_Guard(t *testing.T) {
	j := NewJournal(0)
	ctx := context.Background()

	err := j.Guard(ctx, "memory.store", func() error { panic("boom") })
	assert.ErrorContains(t, err, "memory.store: unexpected failure: boom")

	err = j.Guard(ctx, "db.save", func() error { return errors.New("locked") })
	assert.EqualError(t, err, "locked")

	assert.NoError(t, j.Guard(ctx, "noop", func() error { return nil }))

	recent := j.Recent(10)
	require.Len(t, recent, 2)
	assert.Equal(t, "memory.store", recent[0].Operation)
	assert.Equal(t, SeverityError, recent[1].Severity)
}

func TestHint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"unavailable", fmt.Errorf("chat: %w", llm.ErrUnavailable), "ollama serve"},
		{"model missing", fmt.Errorf("%w: llama9", llm.ErrModelNotFound), "models pull"},
		{"cut off", fmt.Errorf("chat: %w", llm.ErrIncompleteStream), "stopped mid-reply"},
		{"validation", validate.Temperature(5), "between 0 and 2"},
		{"not found", fmt.Errorf("session 4: %w", sqlite.ErrNotFound), "sessions list"},
		{"database", fmt.Errorf("save: %w", sqlite3.Error{Code: sqlite3.ErrBusy}), "database operation failed"},
		{"timeout", context.DeadlineExceeded, "CODE_OLLAMA_TIMEOUT"},
		{"other", errors.New("weird"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Hint(tt.err)
			if tt.want == "" {
				assert.Empty(t, got)
				return
			}
			assert.Contains(t, got, tt.want)
		})
	}
}
