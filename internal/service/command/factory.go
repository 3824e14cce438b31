package command

import (
	"github.com/sandevgo/dissonance/internal/core"
	"github.com/sandevgo/dissonance/internal/service/state"
)

type Deps struct {
	Conversation *state.Conversation
	Memory       memoryService
	Models       modelLister
	Personas     personaLister
	Sessions     sessionSaver
	ExportDir    string
}

// NewRouter wires every chat command, including /help.
func NewRouter(d Deps) *Router {
	r := New([]core.Command{
		NewPersonaCommand(d.Conversation, d.Personas),
		NewModeCommand(d.Conversation),
		NewPromptCommand(d.Conversation),
		NewModelCommand(d.Conversation, d.Models),
		NewContextCommand(d.Conversation, d.Memory),
		NewStatsCommand(d.Memory),
		NewClearMemoryCommand(d.Memory),
		NewClearCacheCommand(d.Memory),
		NewSaveCommand(d.Conversation, d.Sessions),
		NewNewCommand(d.Conversation),
		NewExportCommand(d.Conversation, d.ExportDir),
	})
	r.Register(NewHelpCommand(r.ListCommands))
	return r
}
