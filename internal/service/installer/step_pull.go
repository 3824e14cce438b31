package installer

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/dissonance/internal/providers/llm"
)

type modelPuller interface {
	Pull(ctx context.Context, name string) error
}

type pullDoneMsg struct{}

// PullModelStep downloads the chosen model when it is not installed.
type PullModelStep struct {
	spinner spinner.Model
	started bool
	done    bool
	err     error
	connect func(baseURL string) modelPuller
}

func NewPullModelStep() Step {
	return &PullModelStep{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		connect: func(baseURL string) modelPuller {
			return llm.NewOllama(llm.OllamaConfig{BaseURL: baseURL, Timeout: 30 * time.Minute})
		},
	}
}

func (s *PullModelStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *PullModelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if !state.PullModel || s.done {
		return nil, nil
	}

	if !s.started {
		s.started = true
		puller := s.connect(state.Settings.OllamaBaseURL)
		name := state.Settings.Model
		return s, tea.Batch(s.spinner.Tick, func() tea.Msg {
			if err := puller.Pull(context.Background(), name); err != nil {
				return errMsg(err)
			}
			return pullDoneMsg{}
		})
	}

	switch msg := msg.(type) {
	case pullDoneMsg:
		s.done = true
		state.PullModel = false
		return nil, nil
	case errMsg:
		s.err = msg
		return s, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *PullModelStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error pulling %s: %v", state.Settings.Model, s.err)) +
			"\n\n(press ctrl+c to quit)\n"
	}
	return fmt.Sprintf("%s Pulling %s, this can take a while...\n", s.spinner.View(), state.Settings.Model)
}
