package llm

import (
	"context"
	"sync"
	"time"

	"github.com/sandevgo/dissonance/pkg/log"
)

type HealthStatus struct {
	Connected bool
	LastCheck time.Time
	Error     string
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Health polls the server in the background and remembers the last outcome.
type Health struct {
	target   pinger
	interval time.Duration

	mu     sync.RWMutex
	status HealthStatus

	stopOnce sync.Once
	stop     chan struct{}
}

func NewHealth(target pinger, interval time.Duration) *Health {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Health{
		target:   target,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start checks immediately and then on every interval until Shutdown or ctx
// cancellation.
func (h *Health) Start(ctx context.Context) error {
	h.Check(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.stop:
			return nil
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

func (h *Health) Shutdown(context.Context) error {
	h.stopOnce.Do(func() { close(h.stop) })
	return nil
}

// Check pings the server now and records the result.
func (h *Health) Check(ctx context.Context) HealthStatus {
	err := h.target.Ping(ctx)

	st := HealthStatus{Connected: err == nil, LastCheck: time.Now()}
	if err != nil {
		st.Error = err.Error()
		log.FromCtx(ctx).Warn().Err(err).Msg("ollama health check failed")
	}

	h.mu.Lock()
	h.status = st
	h.mu.Unlock()
	return st
}

func (h *Health) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// Ensure returns the current status, probing first when the last check
// failed or never ran.
func (h *Health) Ensure(ctx context.Context) HealthStatus {
	if st := h.Status(); st.Connected {
		return st
	}
	return h.Check(ctx)
}
