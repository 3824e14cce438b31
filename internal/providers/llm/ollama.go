package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sandevgo/dissonance/internal/core"
	"github.com/sandevgo/dissonance/pkg/log"
	"github.com/sandevgo/dissonance/pkg/retry"
)

const (
	pingTimeout   = 5 * time.Second
	maxStreamLine = 1 << 20
)

type OllamaConfig struct {
	BaseURL string
	Timeout time.Duration
	// Retry applies to model pulls only.
	Retry *retry.Config
}

// Ollama talks to a local Ollama server over its native /api endpoints.
type Ollama struct {
	baseProvider
	retry *retry.Config
}

var (
	_ core.ChatProvider  = (*Ollama)(nil)
	_ core.ModelProvider = (*Ollama)(nil)
)

func NewOllama(cfg OllamaConfig) *Ollama {
	rc := cfg.Retry
	if rc == nil {
		rc = retry.NewDefaultConfig()
	}
	return &Ollama{
		baseProvider: newBaseProvider(cfg.BaseURL, cfg.Timeout),
		retry:        rc,
	}
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatPayload struct {
	Model    string         `json:"model"`
	Messages []core.Message `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  chatOptions    `json:"options"`
}

type chatChunk struct {
	Message         core.Message `json:"message"`
	Done            bool         `json:"done"`
	Error           string       `json:"error"`
	EvalCount       int          `json:"eval_count"`
	PromptEvalCount int          `json:"prompt_eval_count"`
	TotalDuration   int64        `json:"total_duration"`
}

func newChatPayload(req core.ChatRequest, stream bool) chatPayload {
	return chatPayload{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   stream,
		Options: chatOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}
}

func (o *Ollama) Chat(ctx context.Context, req core.ChatRequest) (core.Message, error) {
	resp, err := o.doRequest(ctx, http.MethodPost, "/api/chat", newChatPayload(req, false), nil)
	if err != nil {
		return core.Message{}, err
	}
	if err := checkStatus(resp); err != nil {
		return core.Message{}, err
	}
	defer resp.Body.Close()

	var chunk chatChunk
	if err := json.NewDecoder(resp.Body).Decode(&chunk); err != nil {
		return core.Message{}, fmt.Errorf("decode: %w", err)
	}
	if chunk.Error != "" {
		return core.Message{}, fmt.Errorf("ollama: %s", chunk.Error)
	}

	return core.Message{
		Role:    core.RoleAssistant,
		Content: strings.TrimSpace(chunk.Message.Content),
	}, nil
}

// ChatStream posts a streaming chat request and calls onDelta for every
// content fragment as it arrives. The returned message holds the full reply.
// Lines that are not valid JSON are skipped.
func (o *Ollama) ChatStream(ctx context.Context, req core.ChatRequest, onDelta func(string)) (core.Message, error) {
	resp, err := o.doRequest(ctx, http.MethodPost, "/api/chat", newChatPayload(req, true), nil)
	if err != nil {
		return core.Message{}, err
	}
	if err := checkStatus(resp); err != nil {
		return core.Message{}, err
	}
	defer resp.Body.Close()

	var (
		sb   strings.Builder
		done bool
	)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			return core.Message{}, fmt.Errorf("ollama: %s", chunk.Error)
		}
		if c := chunk.Message.Content; c != "" {
			sb.WriteString(c)
			if onDelta != nil {
				onDelta(c)
			}
		}
		if chunk.Done {
			done = true
			log.FromCtx(ctx).Debug().
				Int("eval_count", chunk.EvalCount).
				Int("prompt_eval_count", chunk.PromptEvalCount).
				Dur("total", time.Duration(chunk.TotalDuration)).
				Msg("stream finished")
			break
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return core.Message{}, ctx.Err()
		}
		return core.Message{}, fmt.Errorf("read stream: %w", err)
	}
	if !done {
		return core.Message{}, fmt.Errorf("read stream after %d chars: %w", sb.Len(), ErrIncompleteStream)
	}

	return core.Message{Role: core.RoleAssistant, Content: sb.String()}, nil
}

func (o *Ollama) Models(ctx context.Context) ([]core.Model, error) {
	var result struct {
		Models []core.Model `json:"models"`
	}

	resp, err := o.doRequest(ctx, http.MethodGet, "/api/tags", nil, nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return result.Models, nil
}

// ModelExists reports whether name is installed. A name without a tag also
// matches its ":latest" variant.
func (o *Ollama) ModelExists(ctx context.Context, name string) (bool, error) {
	models, err := o.Models(ctx)
	if err != nil {
		return false, err
	}
	for _, m := range models {
		if sameModel(m.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func sameModel(installed, wanted string) bool {
	if installed == wanted {
		return true
	}
	if !strings.Contains(wanted, ":") {
		return installed == wanted+":latest"
	}
	return false
}

// Pull downloads a model, retrying transient failures with backoff. Client
// errors other than 429 are not retried.
func (o *Ollama) Pull(ctx context.Context, name string) error {
	logger := log.FromCtx(ctx)
	r := retry.NewRetrier(o.retry).OnRetry(func(attempt int, delay time.Duration, err error) {
		logger.Warn().Err(err).
			Int("attempt", attempt).
			Dur("delay", delay).
			Str("model", name).
			Msg("model pull failed, retrying")
	})

	return r.Do(ctx, func() error {
		err := o.pullOnce(ctx, name)
		var se *StatusError
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrModelNotFound):
			return retry.Permanent(err)
		case errors.As(err, &se) && se.Code < 500 && se.Code != http.StatusTooManyRequests:
			return retry.Permanent(err)
		case ctx.Err() != nil:
			return retry.Permanent(ctx.Err())
		}
		return err
	})
}

func (o *Ollama) pullOnce(ctx context.Context, name string) error {
	payload := map[string]any{"name": name, "stream": false}
	resp, err := o.doRequest(ctx, http.MethodPost, "/api/pull", payload, nil)
	if err != nil {
		return err
	}
	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}
	defer resp.Body.Close()

	var status struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if status.Error != "" {
		return fmt.Errorf("pull failed: %s", status.Error)
	}
	return nil
}

// Ping checks that the server answers /api/tags within a few seconds.
func (o *Ollama) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	resp, err := o.doRequest(ctx, http.MethodGet, "/api/tags", nil, nil)
	if err != nil {
		return err
	}
	if err := checkStatus(resp); err != nil {
		return err
	}
	return resp.Body.Close()
}
