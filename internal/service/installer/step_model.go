package installer

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/dissonance/internal/core"
	"github.com/sandevgo/dissonance/internal/providers/llm"
)

type modelLister interface {
	Models(ctx context.Context) ([]core.Model, error)
}

// ModelStep lists the models installed on the Ollama server. When none are
// installed it offers the default model for download.
type ModelStep struct {
	list     list.Model
	loading  bool
	fetching bool
	err      error
	// connect builds the lister once the server URL is known.
	connect func(baseURL string) modelLister
}

func NewModelStep() Step {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Select a model"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return &ModelStep{
		list:    l,
		loading: true,
		connect: func(baseURL string) modelLister {
			return llm.NewOllama(llm.OllamaConfig{BaseURL: baseURL, Timeout: 30 * time.Second})
		},
	}
}

func (s *ModelStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *ModelStep) fetch(state *InstallState) tea.Cmd {
	lister := s.connect(state.Settings.OllamaBaseURL)
	fallback := state.Settings.Model

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		models, err := lister.Models(ctx)
		if err != nil {
			return errMsg(err)
		}
		return modelsMsg(modelItems(models, fallback))
	}
}

func modelItems(models []core.Model, fallback string) []list.Item {
	if len(models) == 0 {
		return []list.Item{item{
			id:    fallback,
			title: fallback,
			desc:  "Not installed yet, it will be pulled now",
			pull:  true,
		}}
	}
	items := make([]list.Item, len(models))
	for i, m := range models {
		items[i] = item{
			id:    m.Name,
			title: m.Name,
			desc:  fmt.Sprintf("%.1f GB", float64(m.Size)/1e9),
		}
	}
	return items
}

func (s *ModelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.loading && !s.fetching {
		s.fetching = true
		return s, s.fetch(state)
	}

	s.list.SetSize(width, height-4)

	var cmd tea.Cmd
	switch msg := msg.(type) {
	case modelsMsg:
		s.list.SetItems(msg)
		s.loading = false
		s.fetching = false
		return s, nil

	case errMsg:
		s.loading = false
		s.fetching = false
		s.err = msg
		return s, nil

	case tea.KeyMsg:
		if s.err != nil {
			if msg.Type == tea.KeyEnter {
				s.err = nil
				s.loading = true
				s.fetching = true
				return s, s.fetch(state)
			}
			return s, nil
		}

		if msg.Type == tea.KeyEnter {
			wasFiltering := s.list.FilterState() == list.Filtering
			s.list, cmd = s.list.Update(msg)

			if wasFiltering || s.list.FilterState() == list.Filtering {
				return s, cmd
			}

			if i, ok := s.list.SelectedItem().(item); ok {
				state.Settings.Model = i.id
				state.PullModel = i.pull
				return nil, nil
			}
			return s, cmd
		}
	}

	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s *ModelStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error fetching models: %v", s.err)) +
			"\n\nIs Ollama running? Start it with `ollama serve`.\n\n(press enter to retry, ctrl+c to quit)\n"
	}
	if s.loading {
		return "Fetching models from " + state.Settings.OllamaBaseURL + "...\n"
	}
	return s.list.View()
}
