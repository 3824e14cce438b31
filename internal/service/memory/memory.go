// Package memory keeps a bounded, process-local record of past conversation
// turns and ranks them against new input by heuristic relevance.
package memory

import (
	"cmp"
	"math"
	"slices"
	"sync"
	"time"
)

const DefaultMaxSize = 50

type Option func(*Store)

// WithMaxSize caps the number of retained entries. Values below 1 are ignored.
func WithMaxSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// WithClock replaces time.Now as the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is the conversation memory. It is safe for concurrent use; a single
// mutex guards the whole entry set because every query scores all entries.
type Store struct {
	mu      sync.Mutex
	entries map[string]Entry
	seq     uint64
	maxSize int
	now     func() time.Time
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]Entry),
		maxSize: DefaultMaxSize,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store records a conversation turn under sessionID, replacing any entry
// already stored with that id, and evicts the oldest entries beyond capacity.
func (s *Store) Store(sessionID string, c Conversation) {
	entry := Entry{
		SessionID:  sessionID,
		Persona:    c.Persona,
		Model:      c.Model,
		UserInput:  c.UserInput,
		AIResponse: c.AIResponse,
		Context:    ExtractContext(c.UserInput),
		Sentiment:  AnalyzeSentiment(c.UserInput),
		Topics:     ExtractTopics(c.UserInput),
		Quality:    AssessResponseQuality(c.AIResponse),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	entry.seq = s.seq
	entry.Timestamp = s.now().UnixMilli()
	s.entries[sessionID] = entry
	s.evict()
}

// evict drops the oldest entries until the store fits its capacity.
// Callers must hold s.mu.
func (s *Store) evict() {
	excess := len(s.entries) - s.maxSize
	if excess <= 0 {
		return
	}
	for _, e := range s.ordered()[:excess] {
		delete(s.entries, e.SessionID)
	}
}

// ordered returns entries oldest first. Callers must hold s.mu.
func (s *Store) ordered() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return cmp.Or(cmp.Compare(a.Timestamp, b.Timestamp), cmp.Compare(a.seq, b.seq))
	})
	return out
}

// Query ranks stored entries against input and persona and returns the most
// relevant ones with a one-line summary and follow-up suggestions.
func (s *Store) Query(input, persona string) Result {
	p := newProbe(input, persona)

	s.mu.Lock()
	var scored []ScoredEntry
	for _, e := range s.ordered() {
		if score := p.score(e); score > relevanceCutoff {
			scored = append(scored, ScoredEntry{Entry: e, RelevanceScore: score})
		}
	}
	s.mu.Unlock()

	rank(scored)

	top := scored
	if len(top) > maxRelevant {
		top = slices.Clone(top[:maxRelevant])
	}
	if top == nil {
		top = []ScoredEntry{}
	}

	return Result{
		RelevantMemories: top,
		ContextSummary:   summarize(scored),
		Suggestions:      suggest(input, scored),
	}
}

// Stats summarizes the current contents. AverageQuality is NaN when empty.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.ordered()
	domains := make([]Domain, len(entries))
	personas := make([]string, len(entries))
	total := 0.0
	for i, e := range entries {
		domains[i] = e.Context.Domain
		personas[i] = e.Persona
		total += e.Quality.score()
	}

	avg := math.NaN()
	if len(entries) > 0 {
		avg = total / float64(len(entries))
	}

	return Stats{
		TotalMemories:    len(entries),
		MostCommonDomain: mode(domains),
		MostUsedPersona:  mode(personas),
		AverageQuality:   avg,
	}
}

func (s *Store) Get(sessionID string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sessionID]
	return e, ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
}
