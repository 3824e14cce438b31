package test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/sandevgo/dissonance/internal/providers/llm"
)

const (
	DefaultOllamaURL = "http://127.0.0.1:11434"
	DefaultModel     = "llama3:8b"
)

// Ollama returns a client for the server named by CODE_OLLAMA_BASE_URL and
// the model to chat with. The test is skipped when the server is down or the
// model is missing.
func Ollama(t *testing.T) (*llm.Ollama, string) {
	t.Helper()

	baseURL := envOr("CODE_OLLAMA_BASE_URL", DefaultOllamaURL)
	model := envOr("CODE_MODEL", DefaultModel)

	client := llm.NewOllama(llm.OllamaConfig{BaseURL: baseURL, Timeout: 5 * time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		t.Skipf("Ollama not reachable at %s: %v", baseURL, err)
	}
	ok, err := client.ModelExists(ctx, model)
	if err != nil || !ok {
		t.Skipf("Model %s not installed on %s", model, baseURL)
	}
	return client, model
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
