package state

import (
	"context"
	"errors"
	"testing"

	"github.com/sandevgo/dissonance/internal/core"
	"github.com/sandevgo/dissonance/internal/service/persona"
	"github.com/sandevgo/dissonance/internal/service/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModels struct {
	installed map[string]bool
	err       error
}

func (f fakeModels) ModelExists(_ context.Context, name string) (bool, error) {
	return f.installed[name], f.err
}

func TestNewConversation_Defaults(t *testing.T) {
	c := NewConversation(nil, "llama3", "", "")

	assert.Equal(t, persona.Default, c.Persona())
	assert.Equal(t, persona.ModeStandard, c.Mode())
	assert.Equal(t, "llama3", c.Model())
	assert.NotEmpty(t, c.ID())
}

func TestConversation_SetPersona(t *testing.T) {
	c := NewConversation(nil, "llama3", "", "")

	require.NoError(t, c.SetPersona("five_whys"))
	require.NoError(t, c.SetPersona("custom_3"))
	assert.Equal(t, "custom_3", c.Persona())

	err := c.SetPersona("pirate")
	assert.ErrorIs(t, err, validate.ErrInvalid)
	assert.Equal(t, "custom_3", c.Persona())
}

func TestConversation_ChangeModel(t *testing.T) {
	models := fakeModels{installed: map[string]bool{"mistral": true}}

	tests := []struct {
		name    string
		models  modelChecker
		model   string
		want    string
		wantErr bool
	}{
		{"installed", models, "mistral", "mistral", false},
		{"missing", models, "phi3", "llama3", true},
		{"invalid name", models, "bad name", "llama3", true},
		{"server down", fakeModels{err: errors.New("refused")}, "mistral", "llama3", true},
		{"no checker", nil, "phi3", "phi3", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConversation(tt.models, "llama3", "", "")
			err := c.ChangeModel(context.Background(), tt.model)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, c.Model())
		})
	}
}

func TestConversation_HistoryAndReset(t *testing.T) {
	c := NewConversation(nil, "llama3", "market_cynic", persona.ModeDevilsAdvocate)
	id := c.ID()

	c.AppendTurn("Our startup needs funding", "Who pays?")
	c.SetMeta("Funding", []string{"startup"})

	h := c.History()
	h[0].Content = "mutated"
	assert.Equal(t, "Our startup needs funding", c.History()[0].Content)
	assert.Equal(t, 1, c.Turns())

	snap := c.Snapshot()
	assert.Equal(t, core.Session{
		Persona: "market_cynic",
		Model:   "llama3",
		Title:   "Funding",
		Tags:    []string{"startup"},
		History: []core.Message{
			{Role: core.RoleUser, Content: "Our startup needs funding"},
			{Role: core.RoleAssistant, Content: "Who pays?"},
		},
	}, snap)

	c.Reset()
	assert.NotEqual(t, id, c.ID())
	assert.Empty(t, c.History())
	assert.Equal(t, "market_cynic", c.Persona())
	assert.Equal(t, persona.ModeDevilsAdvocate, c.Mode())
	assert.Empty(t, c.Snapshot().Title)
}
