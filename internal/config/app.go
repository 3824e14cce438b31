package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/dissonance/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"CODE_RUNTIME_PATH" envDefault:".dissonance"`
	Debug       bool   `env:"CODE_DEBUG" envDefault:"false"`

	// Ollama
	OllamaBaseURL  string        `env:"CODE_OLLAMA_BASE_URL" envDefault:"http://127.0.0.1:11434"`
	Model          string        `env:"CODE_MODEL" envDefault:"llama3:8b"`
	OllamaTimeout  time.Duration `env:"CODE_OLLAMA_TIMEOUT" envDefault:"2m"`
	HealthInterval time.Duration `env:"CODE_HEALTH_INTERVAL" envDefault:"30s"`

	// Conversation
	DefaultPersona string  `env:"CODE_DEFAULT_PERSONA" envDefault:"logician"`
	Temperature    float64 `env:"CODE_TEMPERATURE" envDefault:"0.7"`
	TokenBudget    int     `env:"CODE_TOKEN_BUDGET" envDefault:"4096"`
	MemorySize     int     `env:"CODE_MEMORY_SIZE" envDefault:"50"`
	ShowMemory     bool    `env:"CODE_SHOW_MEMORY" envDefault:"true"`
	ExportDir      string  `env:"CODE_EXPORT_DIR"`
	// Replies replayed for identical requests, 0 disables the cache
	ResponseCache int `env:"CODE_RESPONSE_CACHE" envDefault:"100"`

	// Metrics endpoint, disabled when empty
	MetricsAddr string `env:"CODE_METRICS_ADDR"`

	// Model pulls
	RetryAttempts  int           `env:"CODE_RETRY_ATTEMPTS" envDefault:"3"`
	RetryBaseDelay time.Duration `env:"CODE_RETRY_BASE_DELAY" envDefault:"1s"`
	RetryMaxDelay  time.Duration `env:"CODE_RETRY_MAX_DELAY" envDefault:"10s"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c, err := ParseAppConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

// ParseAppConfig reads the process environment. The runtime path is
// resolved against the home directory when relative.
func ParseAppConfig() (*AppConfig, error) {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	c.RuntimePath = resolveRuntimePath(c.RuntimePath)
	return c, nil
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "dissonance.db")
}

func (c AppConfig) GetLogPath() string {
	return filepath.Join(c.RuntimePath, "logs", "chat.log")
}

// GetExportDir defaults to the exports folder under the runtime path.
func (c AppConfig) GetExportDir() string {
	if c.ExportDir != "" {
		return c.ExportDir
	}
	return filepath.Join(c.RuntimePath, "exports")
}

func (c AppConfig) GetEnvPath() string {
	return filepath.Join(c.RuntimePath, ".env")
}
