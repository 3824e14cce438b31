package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sandevgo/dissonance/internal/providers/llm"
	"github.com/sandevgo/dissonance/internal/service/chat"
	"github.com/sandevgo/dissonance/internal/service/command"
	"github.com/sandevgo/dissonance/internal/service/memory"
	"github.com/sandevgo/dissonance/internal/service/persona"
	"github.com/sandevgo/dissonance/internal/service/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	reqs  []chat.Request
	reply chat.Reply
	err   error
}

func (f *fakeSender) Send(_ context.Context, req chat.Request, onDelta func(string)) (chat.Reply, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return chat.Reply{}, f.err
	}
	onDelta(f.reply.Content)
	return f.reply, nil
}

func newTestReadLine(s sender) (*ReadLine, *state.Conversation, *bytes.Buffer) {
	conv := state.NewConversation(nil, "llama3:8b", "market_cynic", persona.ModeDevilsAdvocate)
	router := command.New(nil)
	router.Register(command.NewModeCommand(conv))
	out := &bytes.Buffer{}
	return &ReadLine{
		opts:   Options{Temperature: 0.7, ShowMemory: true},
		chat:   s,
		conv:   conv,
		router: router,
		out:    out,
	}, conv, out
}

func TestReadLine_HandleChat(t *testing.T) {
	s := &fakeSender{reply: chat.Reply{
		Content: "Who pays?",
		Memory: memory.Result{
			RelevantMemories: []memory.ScoredEntry{{
				Entry:          memory.Entry{Persona: "market_cynic", UserInput: "Our startup needs funding"},
				RelevanceScore: 0.61,
			}},
			ContextSummary: "Previous discussions focused on business topics including startup.",
		},
	}}
	r, conv, out := newTestReadLine(s)

	r.handle(context.Background(), "Is my pricing too low?")

	require.Len(t, s.reqs, 1)
	req := s.reqs[0]
	assert.Equal(t, conv.ID(), req.SessionID)
	assert.Equal(t, "market_cynic", req.Persona)
	assert.Equal(t, persona.ModeDevilsAdvocate, req.Mode)
	assert.Equal(t, "llama3:8b", req.Model)
	assert.Empty(t, req.History)
	assert.InDelta(t, 0.7, req.Temperature, 1e-9)

	assert.Contains(t, out.String(), "The Market Cynic")
	assert.Contains(t, out.String(), "Who pays?")
	assert.Contains(t, out.String(), "Previous discussions focused on business topics")
	assert.Contains(t, out.String(), "Our startup needs funding")

	assert.Equal(t, 1, conv.Turns())

	r.handle(context.Background(), "And now?")
	require.Len(t, s.reqs, 2)
	assert.Len(t, s.reqs[1].History, 2)
}

func TestReadLine_HandleCommand(t *testing.T) {
	s := &fakeSender{}
	r, conv, out := newTestReadLine(s)

	r.handle(context.Background(), "/mode standard")

	assert.Empty(t, s.reqs)
	assert.Equal(t, persona.ModeStandard, conv.Mode())
	assert.Contains(t, out.String(), "Mode changed to: standard")
}

func TestReadLine_HandleError(t *testing.T) {
	s := &fakeSender{err: errors.Join(llm.ErrUnavailable, errors.New("dial tcp: refused"))}
	r, conv, out := newTestReadLine(s)

	r.handle(context.Background(), "Is this viable?")

	assert.Contains(t, out.String(), "Error:")
	assert.Contains(t, out.String(), "ollama serve")
	assert.Zero(t, conv.Turns())
}
