// Package chat runs one adversarial exchange end to end: validation, prompt
// assembly, streaming from the model and recording the turn in memory.
package chat

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/dissonance/internal/core"
	"github.com/sandevgo/dissonance/internal/observability"
	"github.com/sandevgo/dissonance/internal/service/fault"
	"github.com/sandevgo/dissonance/internal/service/memory"
	"github.com/sandevgo/dissonance/internal/service/persona"
	"github.com/sandevgo/dissonance/internal/service/validate"
	"github.com/sandevgo/dissonance/pkg/log"
)

type Provider interface {
	ChatStream(ctx context.Context, req core.ChatRequest, onDelta func(string)) (core.Message, error)
}

type Memory interface {
	Store(id string, c memory.Conversation)
	Query(input, persona string) memory.Result
	Stats() memory.Stats
	Clear()
	Len() int
}

type Config struct {
	DefaultModel string
	TokenBudget  int
}

type Service struct {
	llm     Provider
	prompts *persona.Resolver
	memory  Memory
	metrics *observability.Metrics
	faults  *fault.Journal
	cache   *ReplyCache
	count   TokenCounter
	cfg     Config
}

type Option func(*Service)

// WithReplyCache replays stored replies for repeated requests.
func WithReplyCache(c *ReplyCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithTokenCounter replaces the tiktoken-based counter.
func WithTokenCounter(c TokenCounter) Option {
	return func(s *Service) { s.count = c }
}

func NewService(
	cfg Config,
	llm Provider,
	prompts *persona.Resolver,
	mem Memory,
	metrics *observability.Metrics,
	faults *fault.Journal,
	opts ...Option,
) *Service {
	s := &Service{
		llm:     llm,
		prompts: prompts,
		memory:  mem,
		metrics: metrics,
		faults:  faults,
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.count == nil {
		s.count = DefaultCounter()
	}
	return s
}

type Request struct {
	SessionID    string
	Persona      string
	Mode         persona.Mode
	Model        string
	Text         string
	History      []core.Message
	Temperature  float64
	MaxTokens    int
	CustomPrompt string
}

type Reply struct {
	SessionID string
	TurnID    string
	Content   string
	// Memory is what the store knew before this turn was added.
	Memory  memory.Result
	Elapsed time.Duration
	// Cached replies were replayed without calling the model.
	Cached bool
}

// Send validates req, streams the model's answer through onDelta and returns
// the complete reply. Memory failures never fail the request.
func (s *Service) Send(ctx context.Context, req Request, onDelta func(string)) (Reply, error) {
	if req.Model == "" {
		req.Model = s.cfg.DefaultModel
	}
	if req.Persona == "" {
		req.Persona = persona.Default
	}
	if req.Mode == "" {
		req.Mode = persona.ModeStandard
	}

	params, err := validate.Request(validate.Params{
		Text:        req.Text,
		Model:       req.Model,
		Persona:     req.Persona,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		s.faults.Record(ctx, "chat.validate", err, fault.SeverityWarn)
		return Reply{}, err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	logger := log.FromCtx(ctx).With().Str("session", sessionID).Str("persona", params.Persona).Logger()
	ctx = logger.WithContext(ctx)

	related := s.Context(ctx, params.Text, params.Persona)

	key := cacheKey{
		text:        params.Text,
		persona:     params.Persona,
		model:       params.Model,
		mode:        string(req.Mode),
		prompt:      req.CustomPrompt,
		temperature: params.Temperature,
		maxTokens:   params.MaxTokens,
	}
	if cached, ok := s.cached(key); ok {
		if onDelta != nil {
			onDelta(cached)
		}
		logger.Debug().Msg("reply served from cache")
		return Reply{SessionID: sessionID, Content: cached, Memory: related, Cached: true}, nil
	}

	system := core.Message{
		Role:    core.RoleSystem,
		Content: s.prompts.SystemPrompt(ctx, params.Persona, req.Mode, req.CustomPrompt),
	}
	user := core.Message{Role: core.RoleUser, Content: params.Text}
	messages := fitHistory(s.count, s.cfg.TokenBudget, system, user, req.History)
	if dropped := len(req.History) - (len(messages) - 2); dropped > 0 {
		logger.Debug().Int("dropped", dropped).Int("budget", s.cfg.TokenBudget).Msg("history trimmed to token budget")
	}

	start := time.Now()
	msg, err := s.llm.ChatStream(ctx, core.ChatRequest{
		Model:       params.Model,
		Messages:    messages,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	}, onDelta)
	elapsed := time.Since(start)
	s.metrics.ObserveRequest(elapsed, err)
	if err != nil {
		s.faults.Record(ctx, "chat.send", err, fault.SeverityError)
		return Reply{}, fmt.Errorf("chat: %w", err)
	}

	if s.cache != nil && msg.Content != "" {
		s.cache.Put(key, msg.Content)
	}

	turnID := uuid.NewString()
	s.remember(ctx, turnID, memory.Conversation{
		Persona:    params.Persona,
		Model:      params.Model,
		UserInput:  params.Text,
		AIResponse: msg.Content,
	})

	logger.Info().Dur("elapsed", elapsed).Int("chars", len(msg.Content)).Msg("reply received")

	return Reply{
		SessionID: sessionID,
		TurnID:    turnID,
		Content:   msg.Content,
		Memory:    related,
		Elapsed:   elapsed,
	}, nil
}

func (s *Service) cached(k cacheKey) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	return s.cache.Get(k)
}

// ClearCache drops every stored reply.
func (s *Service) ClearCache() {
	if s.cache != nil {
		s.cache.Invalidate()
	}
}

// remember stores a finished turn. Empty replies are not worth recalling.
func (s *Service) remember(ctx context.Context, id string, c memory.Conversation) {
	if c.AIResponse == "" {
		return
	}
	err := s.faults.Guard(ctx, "memory.store", func() error {
		s.memory.Store(id, c)
		return nil
	})
	if err != nil {
		s.metrics.MemoryFailures.Inc()
		return
	}
	s.metrics.MemoryEntries.Set(float64(s.memory.Len()))
}

// Context returns memories related to input. On failure it returns an empty
// result.
func (s *Service) Context(ctx context.Context, input, personaID string) memory.Result {
	res := memory.Result{RelevantMemories: []memory.ScoredEntry{}}
	err := s.faults.Guard(ctx, "memory.query", func() error {
		res = s.memory.Query(input, personaID)
		return nil
	})
	if err != nil {
		s.metrics.MemoryFailures.Inc()
	}
	return res
}

// MemoryStats returns the store summary, or an empty summary on failure.
func (s *Service) MemoryStats(ctx context.Context) memory.Stats {
	var st memory.Stats
	err := s.faults.Guard(ctx, "memory.stats", func() error {
		st = s.memory.Stats()
		return nil
	})
	if err != nil {
		s.metrics.MemoryFailures.Inc()
		return memory.Stats{AverageQuality: math.NaN()}
	}
	return st
}

func (s *Service) ClearMemory(ctx context.Context) error {
	err := s.faults.Guard(ctx, "memory.clear", func() error {
		s.memory.Clear()
		return nil
	})
	if err == nil {
		s.metrics.MemoryEntries.Set(0)
	}
	return err
}

func (s *Service) Metrics() (observability.Snapshot, error) {
	return s.metrics.Snapshot()
}

func (s *Service) Faults() *fault.Journal {
	return s.faults
}
