package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/dissonance/internal/config"
	"github.com/sandevgo/dissonance/internal/core"
	"github.com/sandevgo/dissonance/internal/observability"
	"github.com/sandevgo/dissonance/internal/providers/llm"
	"github.com/sandevgo/dissonance/internal/service/chat"
	"github.com/sandevgo/dissonance/internal/service/fault"
	"github.com/sandevgo/dissonance/internal/service/memory"
	"github.com/sandevgo/dissonance/internal/service/persona"
	"github.com/sandevgo/dissonance/internal/storage/sqlite"
	"github.com/sandevgo/dissonance/pkg/log"
	"github.com/sandevgo/dissonance/pkg/retry"
	"github.com/sandevgo/dissonance/pkg/srv"
)

const metricsNamespace = "dissonance"

// app is everything a command may need, built from the environment.
type app struct {
	cfg      *config.AppConfig
	db       *sql.DB
	sessions core.SessionsRepository
	personas core.PersonasRepository
	ollama   *llm.Ollama
	faults   *fault.Journal
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.ParseAppConfig()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	db, err := sqlite.NewDB(ctx, cfg.GetDatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.FromCtx(ctx).Debug().Str("path", cfg.GetDatabasePath()).Msg("database ready")

	return &app{
		cfg:      cfg,
		db:       db,
		sessions: sqlite.NewSessions(db),
		personas: sqlite.NewPersonas(db),
		ollama:   newOllama(cfg),
		faults:   fault.NewJournal(fault.DefaultJournalSize),
	}, nil
}

func newOllama(cfg *config.AppConfig) *llm.Ollama {
	rc := retry.NewDefaultConfig()
	rc.MaxRetries = max(cfg.RetryAttempts-1, 0)
	rc.InitialDelay = cfg.RetryBaseDelay
	rc.MaxDelay = cfg.RetryMaxDelay

	return llm.NewOllama(llm.OllamaConfig{
		BaseURL: cfg.OllamaBaseURL,
		Timeout: cfg.OllamaTimeout,
		Retry:   rc,
	})
}

// newChat assembles the chat service around a fresh in-process memory.
func (a *app) newChat(metrics *observability.Metrics) *chat.Service {
	var opts []chat.Option
	if a.cfg.ResponseCache > 0 {
		opts = append(opts, chat.WithReplyCache(chat.NewReplyCache(a.cfg.ResponseCache)))
	}
	return chat.NewService(
		chat.Config{DefaultModel: a.cfg.Model, TokenBudget: a.cfg.TokenBudget},
		a.ollama,
		persona.NewResolver(a.personas),
		memory.NewStore(memory.WithMaxSize(a.cfg.MemorySize)),
		metrics,
		a.faults,
		opts...,
	)
}

// lifecycle lists the database first, so ShutdownServices closes it after
// everything started on top of it.
func (a *app) lifecycle(services ...srv.Service) []srv.Service {
	return append([]srv.Service{srv.NewCleanup(a.Close)}, services...)
}

func (a *app) Close() error {
	return a.db.Close()
}

// describe prints err with a remediation hint when one is known.
func describe(err error) error {
	if hint := fault.Hint(err); hint != "" {
		return fmt.Errorf("%w\n\n%s", err, hint)
	}
	return err
}
