package core

import "context"

// ChatRequest is one completion call against the local model server.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

type ChatProvider interface {
	Chat(ctx context.Context, req ChatRequest) (Message, error)
	ChatStream(ctx context.Context, req ChatRequest, onDelta func(string)) (Message, error)
}

type ModelProvider interface {
	Models(ctx context.Context) ([]Model, error)
	ModelExists(ctx context.Context, name string) (bool, error)
	Pull(ctx context.Context, name string) error
}
