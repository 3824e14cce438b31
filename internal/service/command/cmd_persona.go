package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/dissonance/internal/core"
	"github.com/sandevgo/dissonance/internal/service/persona"
	"github.com/sandevgo/dissonance/internal/service/state"
	"github.com/sandevgo/dissonance/internal/service/validate"
)

type personaLister interface {
	List(ctx context.Context) ([]core.Persona, error)
}

type PersonaCommand struct {
	conv      *state.Conversation
	personas  personaLister
	formatter *ResponseFormatter
}

func NewPersonaCommand(conv *state.Conversation, personas personaLister) *PersonaCommand {
	return &PersonaCommand{
		conv:      conv,
		personas:  personas,
		formatter: NewResponseFormatter(),
	}
}

func (c *PersonaCommand) Name() string {
	return "persona"
}

func (c *PersonaCommand) Usage() string {
	return "/persona [id]"
}

func (c *PersonaCommand) Description() string {
	return "Show personas or switch to one"
}

func (c *PersonaCommand) Execute(ctx context.Context, args []string) (string, error) {
	if len(args) > 0 {
		if err := c.conv.SetPersona(args[0]); err != nil {
			return "", err
		}
		return c.formatter.Success("Persona changed to: " + c.title(ctx, args[0])), nil
	}

	current := c.conv.Persona()
	var items []string
	for _, b := range persona.Builtins() {
		items = append(items, c.item(b.ID, b.Title, current))
	}
	if c.personas != nil {
		custom, err := c.personas.List(ctx)
		if err != nil {
			return "", fmt.Errorf("list personas: %w", err)
		}
		for _, p := range custom {
			items = append(items, c.item(persona.CustomRef(p.ID), p.Name, current))
		}
	}

	return c.formatter.Combine(
		c.formatter.Info("Personas"),
		c.formatter.List(items),
		c.formatter.Usage(c.Usage()),
	), nil
}

func (c *PersonaCommand) item(id, title, current string) string {
	mark := " "
	if id == current {
		mark = "*"
	}
	return fmt.Sprintf("%s %-18s %s", mark, id, title)
}

func (c *PersonaCommand) title(ctx context.Context, id string) string {
	ref, ok := persona.ParseCustomRef(id)
	if !ok || c.personas == nil {
		return persona.Title(id)
	}
	custom, err := c.personas.List(ctx)
	if err != nil {
		return id
	}
	for _, p := range custom {
		if p.ID == ref {
			return p.Name
		}
	}
	return id
}

type ModeCommand struct {
	conv      *state.Conversation
	formatter *ResponseFormatter
}

func NewModeCommand(conv *state.Conversation) *ModeCommand {
	return &ModeCommand{conv: conv, formatter: NewResponseFormatter()}
}

func (c *ModeCommand) Name() string {
	return "mode"
}

func (c *ModeCommand) Usage() string {
	return "/mode [standard|devils_advocate]"
}

func (c *ModeCommand) Description() string {
	return "Show or change the critique mode"
}

func (c *ModeCommand) Execute(_ context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return c.formatter.Combine(
			c.formatter.Label("Mode", string(c.conv.Mode())),
			c.formatter.Usage(c.Usage()),
		), nil
	}

	m, err := persona.ParseMode(args[0])
	if err != nil {
		return "", err
	}
	c.conv.SetMode(m)
	return c.formatter.Success("Mode changed to: " + string(m)), nil
}

type PromptCommand struct {
	conv      *state.Conversation
	formatter *ResponseFormatter
}

func NewPromptCommand(conv *state.Conversation) *PromptCommand {
	return &PromptCommand{conv: conv, formatter: NewResponseFormatter()}
}

func (c *PromptCommand) Name() string {
	return "prompt"
}

func (c *PromptCommand) Usage() string {
	return "/prompt [text]"
}

func (c *PromptCommand) Description() string {
	return "Replace the persona prompt for this conversation, or restore it"
}

func (c *PromptCommand) Execute(_ context.Context, args []string) (string, error) {
	text := strings.Join(args, " ")
	if text == "" {
		c.conv.SetCustomPrompt("")
		return c.formatter.Success("Persona prompt restored"), nil
	}
	if err := validate.PersonaData("custom", text); err != nil {
		return "", err
	}
	c.conv.SetCustomPrompt(text)
	return c.formatter.Success("Custom prompt set"), nil
}
