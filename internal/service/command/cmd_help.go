package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/dissonance/internal/core"
	"github.com/sandevgo/dissonance/internal/service/ui"
)

type HelpCommand struct {
	list      func() []core.Command
	formatter *ResponseFormatter
}

func NewHelpCommand(list func() []core.Command) *HelpCommand {
	return &HelpCommand{list: list, formatter: NewResponseFormatter()}
}

func (c *HelpCommand) Name() string {
	return "help"
}

func (c *HelpCommand) Usage() string {
	return "/help"
}

func (c *HelpCommand) Description() string {
	return "List available commands"
}

func (c *HelpCommand) Execute(_ context.Context, _ []string) (string, error) {
	var sb strings.Builder
	sb.WriteString(c.formatter.Info("Commands"))
	for _, cmd := range c.list() {
		sb.WriteString(fmt.Sprintf("  %-40s %s\n", ui.UsageStyle.Render(cmd.Usage()), ui.DescStyle.Render(cmd.Description())))
	}
	sb.WriteString(c.formatter.Tip("anything not starting with / is sent to the adversary. Type exit to quit."))
	return sb.String(), nil
}
