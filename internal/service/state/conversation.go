// Package state holds the live conversation a terminal session is driving.
package state

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/sandevgo/dissonance/internal/core"
	"github.com/sandevgo/dissonance/internal/service/persona"
	"github.com/sandevgo/dissonance/internal/service/validate"
)

type modelChecker interface {
	ModelExists(ctx context.Context, name string) (bool, error)
}

// Conversation is safe for concurrent use.
type Conversation struct {
	mu sync.RWMutex

	models modelChecker

	id           string
	persona      string
	mode         persona.Mode
	model        string
	customPrompt string
	title        string
	tags         []string
	history      []core.Message
}

func NewConversation(models modelChecker, model, personaID string, mode persona.Mode) *Conversation {
	if personaID == "" {
		personaID = persona.Default
	}
	if mode == "" {
		mode = persona.ModeStandard
	}
	return &Conversation{
		models:  models,
		id:      uuid.NewString(),
		persona: personaID,
		mode:    mode,
		model:   model,
	}
}

func (c *Conversation) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

func (c *Conversation) Persona() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.persona
}

func (c *Conversation) SetPersona(id string) error {
	if err := validate.Persona(id); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.persona = id
	return nil
}

func (c *Conversation) Mode() persona.Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

func (c *Conversation) SetMode(m persona.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = m
}

func (c *Conversation) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// ChangeModel switches to name after confirming the server has it.
func (c *Conversation) ChangeModel(ctx context.Context, name string) error {
	if err := validate.Model(name); err != nil {
		return err
	}
	if c.models != nil {
		ok, err := c.models.ModelExists(ctx, name)
		if err != nil {
			return fmt.Errorf("check model: %w", err)
		}
		if !ok {
			return fmt.Errorf("model %q is not installed, pull it first", name)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = name
	return nil
}

func (c *Conversation) CustomPrompt() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.customPrompt
}

// SetCustomPrompt overrides the persona prompt. An empty prompt restores it.
func (c *Conversation) SetCustomPrompt(p string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.customPrompt = p
}

func (c *Conversation) SetMeta(title string, tags []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.title = title
	c.tags = slices.Clone(tags)
}

// History returns a copy of the exchanged messages.
func (c *Conversation) History() []core.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.history)
}

// AppendTurn records a completed exchange.
func (c *Conversation) AppendTurn(user, reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history,
		core.Message{Role: core.RoleUser, Content: user},
		core.Message{Role: core.RoleAssistant, Content: reply},
	)
}

func (c *Conversation) Turns() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.history) / 2
}

// Reset starts a fresh conversation, keeping persona, mode and model.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = uuid.NewString()
	c.history = nil
	c.title = ""
	c.tags = nil
}

// Snapshot returns the conversation in its stored form.
func (c *Conversation) Snapshot() core.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return core.Session{
		Persona: c.persona,
		Model:   c.model,
		History: slices.Clone(c.history),
		Title:   c.title,
		Tags:    slices.Clone(c.tags),
	}
}
