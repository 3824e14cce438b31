package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sandevgo/dissonance/internal/core"
	"github.com/sandevgo/dissonance/internal/service/export"
	"github.com/sandevgo/dissonance/internal/service/state"
	"github.com/sandevgo/dissonance/internal/service/validate"
)

type sessionSaver interface {
	Save(ctx context.Context, s core.Session) (int64, error)
}

type SaveCommand struct {
	conv      *state.Conversation
	sessions  sessionSaver
	formatter *ResponseFormatter
}

func NewSaveCommand(conv *state.Conversation, sessions sessionSaver) *SaveCommand {
	return &SaveCommand{conv: conv, sessions: sessions, formatter: NewResponseFormatter()}
}

func (c *SaveCommand) Name() string {
	return "save"
}

func (c *SaveCommand) Usage() string {
	return "/save [title]"
}

func (c *SaveCommand) Description() string {
	return "Save the conversation to the session archive"
}

func (c *SaveCommand) Execute(ctx context.Context, args []string) (string, error) {
	s := c.conv.Snapshot()
	if title := strings.Join(args, " "); title != "" {
		s.Title = title
		c.conv.SetMeta(title, s.Tags)
	}
	if len(s.History) == 0 {
		return "", fmt.Errorf("nothing to save yet")
	}
	if err := validate.Session(s); err != nil {
		return "", err
	}

	id, err := c.sessions.Save(ctx, s)
	if err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return c.formatter.Success(fmt.Sprintf("Session saved (id %d)", id)), nil
}

type NewCommand struct {
	conv      *state.Conversation
	formatter *ResponseFormatter
}

func NewNewCommand(conv *state.Conversation) *NewCommand {
	return &NewCommand{conv: conv, formatter: NewResponseFormatter()}
}

func (c *NewCommand) Name() string {
	return "new"
}

func (c *NewCommand) Usage() string {
	return "/new"
}

func (c *NewCommand) Description() string {
	return "Start a new conversation"
}

func (c *NewCommand) Execute(_ context.Context, _ []string) (string, error) {
	c.conv.Reset()
	return c.formatter.Success("New conversation started"), nil
}

type ExportCommand struct {
	conv      *state.Conversation
	dir       string
	now       func() time.Time
	formatter *ResponseFormatter
}

func NewExportCommand(conv *state.Conversation, dir string) *ExportCommand {
	return &ExportCommand{conv: conv, dir: dir, now: time.Now, formatter: NewResponseFormatter()}
}

func (c *ExportCommand) Name() string {
	return "export"
}

func (c *ExportCommand) Usage() string {
	return "/export <md|json|html|txt> [path]"
}

func (c *ExportCommand) Description() string {
	return "Write the conversation to a file"
}

func (c *ExportCommand) Execute(_ context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return c.formatter.Combine(
			c.formatter.Usage(c.Usage()),
			c.formatter.Examples([]string{"/export md", "/export html ~/review.html"}),
		), nil
	}

	f, err := export.ParseFormat(args[0])
	if err != nil {
		return "", err
	}

	now := c.now()
	path := filepath.Join(c.dir, export.DefaultFilename(f, now))
	if len(args) > 1 {
		path = expandHome(args[1])
	}

	if err := export.WriteFile(path, c.conv.Snapshot(), f, now); err != nil {
		return "", err
	}
	return c.formatter.Success("Exported to " + path), nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
