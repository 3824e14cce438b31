package installer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/dissonance/pkg/env"
)

const envHeader = "# Written by dissonance setup. Unset keys use their defaults.\n"

// SaveEnvStep writes the collected settings to the .env file.
type SaveEnvStep struct {
	err   error
	saved bool
}

func NewSaveEnvStep() Step {
	return &SaveEnvStep{}
}

func (s *SaveEnvStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *SaveEnvStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.saved {
		return nil, nil
	}
	if s.err != nil {
		return s, nil
	}

	if err := SaveEnv(state); err != nil {
		s.err = err
		return s, nil
	}

	s.saved = true
	return nil, nil
}

// SaveEnv writes state.Settings to state.EnvPath. An existing file is only
// replaced when state.Force is set.
func SaveEnv(state *InstallState) error {
	if err := os.MkdirAll(filepath.Dir(state.EnvPath), 0755); err != nil {
		return fmt.Errorf("failed to create runtime directory: %w", err)
	}

	if !state.Force {
		if _, err := os.Stat(state.EnvPath); err == nil {
			return fmt.Errorf(".env file already exists at %s (rerun with --force to replace it)", state.EnvPath)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	content, err := env.MarshalEnv(&state.Settings)
	if err != nil {
		return err
	}
	return os.WriteFile(state.EnvPath, []byte(envHeader+content), 0600)
}

func (s *SaveEnvStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", s.err)) + "\n\n(press ctrl+c to quit)\n"
	}
	if s.saved {
		return "Configuration saved successfully!\n"
	}
	return "Saving configuration...\n"
}
