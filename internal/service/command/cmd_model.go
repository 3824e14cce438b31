package command

import (
	"context"
	"fmt"

	"github.com/sandevgo/dissonance/internal/core"
	"github.com/sandevgo/dissonance/internal/service/state"
)

type modelLister interface {
	Models(ctx context.Context) ([]core.Model, error)
}

type ModelCommand struct {
	conv      *state.Conversation
	models    modelLister
	formatter *ResponseFormatter
}

func NewModelCommand(conv *state.Conversation, models modelLister) *ModelCommand {
	return &ModelCommand{
		conv:      conv,
		models:    models,
		formatter: NewResponseFormatter(),
	}
}

func (c *ModelCommand) Name() string {
	return "model"
}

func (c *ModelCommand) Usage() string {
	return "/model [name]"
}

func (c *ModelCommand) Description() string {
	return "Show or change the current model"
}

func (c *ModelCommand) Execute(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		out := c.formatter.Combine(
			c.formatter.Info("Current Model"),
			c.formatter.Label("Model", c.conv.Model()),
		)

		installed, err := c.models.Models(ctx)
		if err != nil {
			return out + c.formatter.Tip("Could not list installed models: "+err.Error()), nil
		}
		names := make([]string, len(installed))
		for i, m := range installed {
			names[i] = m.Name
		}
		return c.formatter.Combine(
			out,
			"\n",
			c.formatter.Info("Installed"),
			c.formatter.List(names),
			c.formatter.Usage(c.Usage()),
		), nil
	}

	if err := c.conv.ChangeModel(ctx, args[0]); err != nil {
		return "", fmt.Errorf("failed to set model: %w", err)
	}

	return c.formatter.Success(fmt.Sprintf("Model changed to: %s", c.conv.Model())), nil
}
