package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sandevgo/dissonance/internal/core"
	"github.com/sandevgo/dissonance/internal/service/chat"
	"github.com/sandevgo/dissonance/internal/service/command"
	"github.com/sandevgo/dissonance/internal/service/fault"
	"github.com/sandevgo/dissonance/internal/service/persona"
	"github.com/sandevgo/dissonance/internal/service/state"
	"github.com/sandevgo/dissonance/internal/service/ui"
	"github.com/sandevgo/dissonance/pkg/log"
)

const shownMemories = 3

type sender interface {
	Send(ctx context.Context, req chat.Request, onDelta func(string)) (chat.Reply, error)
}

type Options struct {
	RuntimePath string
	Temperature float64
	// ShowMemory prints related past turns before each reply.
	ShowMemory bool
}

type ReadLine struct {
	opts   Options
	chat   sender
	conv   *state.Conversation
	router core.CmdRouter
	rl     *readline.Instance
	out    io.Writer
}

func NewReadLine(chat sender, conv *state.Conversation, router core.CmdRouter, opts Options) (*ReadLine, error) {
	if err := os.MkdirAll(opts.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt(conv),
		HistoryFile:     filepath.Join(opts.RuntimePath, "input_history"),
		AutoComplete:    completer(router),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		opts:   opts,
		chat:   chat,
		conv:   conv,
		router: router,
		rl:     rl,
		out:    rl.Stdout(),
	}, nil
}

func prompt(conv *state.Conversation) string {
	return fmt.Sprintf("%s › ", ui.UsageStyle.Render(conv.Persona()))
}

func completer(router core.CmdRouter) readline.AutoCompleter {
	var items []readline.PrefixCompleterInterface
	for _, cmd := range router.ListCommands() {
		items = append(items, readline.PcItem("/"+cmd.Name()))
	}
	return readline.NewPrefixCompleter(items...)
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Str("session", r.conv.ID()).Msg("chat started")

	fmt.Fprintf(r.out, "%s\n%s\n\n",
		ui.TitleStyle.Render(core.AppName+" — "+core.AppTitle),
		ui.DescStyle.Render("Type /help for commands, exit to quit."),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" || line == "quit" {
			return nil
		}
		if line == "" {
			continue
		}

		r.handle(ctx, line)
		r.rl.SetPrompt(prompt(r.conv))
	}
}

// handle runs a slash command or sends line to the model.
func (r *ReadLine) handle(ctx context.Context, line string) {
	if out, ok := r.router.Execute(ctx, line); ok {
		fmt.Fprint(r.out, out)
		return
	}

	fmt.Fprintf(r.out, "%s\n", ui.AdversaryStyle.Render(persona.Title(r.conv.Persona())))

	reply, err := r.chat.Send(ctx, chat.Request{
		SessionID:    r.conv.ID(),
		Persona:      r.conv.Persona(),
		Mode:         r.conv.Mode(),
		Model:        r.conv.Model(),
		Text:         line,
		History:      r.conv.History(),
		Temperature:  r.opts.Temperature,
		CustomPrompt: r.conv.CustomPrompt(),
	}, func(delta string) {
		fmt.Fprint(r.out, delta)
	})
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("chat request failed")
		fmt.Fprintf(r.out, "%s\n", ui.ErrorStyle.Render("Error: "+err.Error()))
		if hint := fault.Hint(err); hint != "" {
			fmt.Fprintf(r.out, "%s\n", ui.DescStyle.Render(hint))
		}
		return
	}
	fmt.Fprint(r.out, "\n\n")
	if reply.Cached {
		fmt.Fprintf(r.out, "%s\n\n", ui.DescStyle.Render("(replayed from cache, /clear-cache to ask again)"))
	}

	r.conv.AppendTurn(line, reply.Content)

	if r.opts.ShowMemory && (len(reply.Memory.RelevantMemories) > 0 || len(reply.Memory.Suggestions) > 0) {
		mem := command.FormatMemory(command.NewResponseFormatter(), reply.Memory, shownMemories)
		fmt.Fprintf(r.out, "%s\n\n", ui.MemoryStyle.Render(strings.TrimRight(mem, "\n")))
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
