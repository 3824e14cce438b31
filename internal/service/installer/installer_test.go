package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/dissonance/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func typeText(s Step, state *InstallState, text string) Step {
	next, _ := s.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}, state, 80, 24)
	return next
}

func TestOllamaURLStep(t *testing.T) {
	t.Run("default on empty input", func(t *testing.T) {
		state := NewInstallState("", false)
		state.Settings.OllamaBaseURL = ""

		next, _ := NewOllamaURLStep().Update(enter, state, 80, 24)
		assert.Nil(t, next)
		assert.Equal(t, "http://127.0.0.1:11434", state.Settings.OllamaBaseURL)
	})

	t.Run("custom url", func(t *testing.T) {
		state := NewInstallState("", false)
		s := typeText(NewOllamaURLStep(), state, "http://gpu-box:11434/")

		next, _ := s.Update(enter, state, 80, 24)
		assert.Nil(t, next)
		assert.Equal(t, "http://gpu-box:11434", state.Settings.OllamaBaseURL)
	})

	t.Run("rejects bare host", func(t *testing.T) {
		state := NewInstallState("", false)
		s := typeText(NewOllamaURLStep(), state, "gpu-box")

		next, _ := s.Update(enter, state, 80, 24)
		require.NotNil(t, next)
		assert.Contains(t, next.View(state), "enter a full URL")
	})
}

type fakeLister struct {
	models []core.Model
	err    error
}

func (f fakeLister) Models(context.Context) ([]core.Model, error) { return f.models, f.err }

func TestModelStep(t *testing.T) {
	t.Run("select installed model", func(t *testing.T) {
		state := NewInstallState("", false)
		step := NewModelStep().(*ModelStep)
		step.connect = func(string) modelLister {
			return fakeLister{models: []core.Model{{Name: "mistral", Size: 4_100_000_000}}}
		}

		next, cmd := step.Update(nextMsg{}, state, 80, 24)
		require.NotNil(t, cmd)
		next, _ = next.Update(cmd(), state, 80, 24)
		assert.Contains(t, next.View(state), "mistral")

		next, _ = next.Update(enter, state, 80, 24)
		assert.Nil(t, next)
		assert.Equal(t, "mistral", state.Settings.Model)
		assert.False(t, state.PullModel)
	})

	t.Run("nothing installed offers the default", func(t *testing.T) {
		state := NewInstallState("", false)
		step := NewModelStep().(*ModelStep)
		step.connect = func(string) modelLister { return fakeLister{} }

		next, cmd := step.Update(nextMsg{}, state, 80, 24)
		next, _ = next.Update(cmd(), state, 80, 24)
		next, _ = next.Update(enter, state, 80, 24)

		assert.Nil(t, next)
		assert.Equal(t, "llama3:8b", state.Settings.Model)
		assert.True(t, state.PullModel)
	})

	t.Run("error then retry", func(t *testing.T) {
		state := NewInstallState("", false)
		step := NewModelStep().(*ModelStep)
		calls := 0
		step.connect = func(string) modelLister {
			calls++
			if calls == 1 {
				return fakeLister{err: errors.New("connection refused")}
			}
			return fakeLister{models: []core.Model{{Name: "phi3"}}}
		}

		next, cmd := step.Update(nextMsg{}, state, 80, 24)
		next, _ = next.Update(cmd(), state, 80, 24)
		assert.Contains(t, next.View(state), "connection refused")

		next, cmd = next.Update(enter, state, 80, 24)
		require.NotNil(t, cmd)
		next, _ = next.Update(cmd(), state, 80, 24)
		next, _ = next.Update(enter, state, 80, 24)

		assert.Nil(t, next)
		assert.Equal(t, "phi3", state.Settings.Model)
	})
}

type fakePuller struct {
	pulled []string
	err    error
}

func (f *fakePuller) Pull(_ context.Context, name string) error {
	f.pulled = append(f.pulled, name)
	return f.err
}

func TestPullModelStep(t *testing.T) {
	t.Run("skipped when installed", func(t *testing.T) {
		state := NewInstallState("", false)
		next, _ := NewPullModelStep().Update(nextMsg{}, state, 80, 24)
		assert.Nil(t, next)
	})

	t.Run("pulls missing model", func(t *testing.T) {
		state := NewInstallState("", false)
		state.PullModel = true
		puller := &fakePuller{}
		step := NewPullModelStep().(*PullModelStep)
		step.connect = func(string) modelPuller { return puller }

		next, cmd := step.Update(nextMsg{}, state, 80, 24)
		require.NotNil(t, next)
		require.NotNil(t, cmd)

		next, _ = next.Update(pullDoneMsg{}, state, 80, 24)
		assert.Nil(t, next)
		assert.False(t, state.PullModel)
	})

	t.Run("pull failure is shown", func(t *testing.T) {
		state := NewInstallState("", false)
		state.PullModel = true
		step := NewPullModelStep().(*PullModelStep)
		step.connect = func(string) modelPuller { return &fakePuller{} }

		next, _ := step.Update(nextMsg{}, state, 80, 24)
		next, _ = next.Update(errMsg(errors.New("disk full")), state, 80, 24)
		require.NotNil(t, next)
		assert.Contains(t, next.View(state), "disk full")
	})
}

func TestPersonaStep(t *testing.T) {
	state := NewInstallState("", false)
	var s Step = NewPersonaStep()

	s, _ = s.Update(tea.KeyMsg{Type: tea.KeyDown}, state, 80, 24)
	s, _ = s.Update(tea.KeyMsg{Type: tea.KeyDown}, state, 80, 24)
	s, _ = s.Update(tea.KeyMsg{Type: tea.KeyUp}, state, 80, 24)
	assert.Contains(t, s.View(state), "The Market Cynic")

	next, _ := s.Update(enter, state, 80, 24)
	assert.Nil(t, next)
	assert.Equal(t, "market_cynic", state.Settings.DefaultPersona)
}

func TestSaveEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime", ".env")

	state := NewInstallState(path, false)
	state.Settings.Model = "mistral"

	require.NoError(t, SaveEnv(state))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "CODE_MODEL=mistral\n")
	// defaults are not written
	assert.NotContains(t, string(data), "CODE_OLLAMA_BASE_URL")
	assert.NotContains(t, string(data), "CODE_DEFAULT_PERSONA")

	err = SaveEnv(state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	state.Force = true
	state.Settings.DefaultPersona = "five_whys"
	require.NoError(t, SaveEnv(state))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "CODE_DEFAULT_PERSONA=five_whys\n")
}
