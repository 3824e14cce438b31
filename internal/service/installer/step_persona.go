package installer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/dissonance/internal/service/persona"
)

// PersonaStep picks the persona new conversations start with.
type PersonaStep struct {
	choices []persona.Builtin
	cursor  int
}

func NewPersonaStep() Step {
	return &PersonaStep{choices: persona.Builtins()}
}

func (s *PersonaStep) Init() tea.Cmd {
	return nil
}

func (s *PersonaStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.choices)-1 {
				s.cursor++
			}
		case "enter":
			state.Settings.DefaultPersona = s.choices[s.cursor].ID
			return nil, nil
		}
	}
	return s, nil
}

func (s *PersonaStep) View(state *InstallState) string {
	var b strings.Builder
	b.WriteString("Who should argue with you by default?\n\n")
	for i, choice := range s.choices {
		line := fmt.Sprintf("%s (%s)", choice.Title, choice.ID)
		if s.cursor == i {
			b.WriteString(selStyle.Render("❯ "+line) + "\n")
		} else {
			b.WriteString(itemStyle.Render("  "+line) + "\n")
		}
	}
	b.WriteString("\n(press ctrl+c to quit)\n")
	return b.String()
}
