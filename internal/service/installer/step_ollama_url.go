package installer

import (
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type OllamaURLStep struct {
	input textinput.Model
	err   string
}

func NewOllamaURLStep() Step {
	ti := textinput.New()
	ti.Focus()
	ti.Placeholder = "http://127.0.0.1:11434"
	return &OllamaURLStep{input: ti}
}

func (s *OllamaURLStep) Init() tea.Cmd { return textinput.Blink }

func (s *OllamaURLStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		val := strings.TrimSpace(s.input.Value())
		if val == "" {
			val = s.input.Placeholder
		}
		u, err := url.Parse(val)
		if err != nil || u.Scheme == "" || u.Host == "" {
			s.err = "enter a full URL such as http://127.0.0.1:11434"
			return s, nil
		}
		state.Settings.OllamaBaseURL = strings.TrimRight(val, "/")
		return nil, nil
	}

	return s, cmd
}

func (s *OllamaURLStep) View(state *InstallState) string {
	v := "Ollama server URL:\n\n" + s.input.View() + "\n\n"
	if s.err != "" {
		v += errorStyle.Render(s.err) + "\n\n"
	}
	return v + "(press enter to confirm)\n"
}
