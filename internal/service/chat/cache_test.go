package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sandevgo/dissonance/internal/providers/llm"
	"github.com/sandevgo/dissonance/internal/service/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(text string) cacheKey {
	return cacheKey{text: text, persona: "logician", model: "llama3:8b", mode: "standard"}
}

func TestReplyCache(t *testing.T) {
	tests := []struct {
		name    string
		max     int
		setup   func(c *ReplyCache)
		lookup  string
		want    string
		wantOk  bool
		wantLen int
	}{
		{
			name:    "empty",
			max:     3,
			setup:   func(c *ReplyCache) {},
			lookup:  "a",
			wantOk:  false,
			wantLen: 0,
		},
		{
			name: "hit",
			max:  3,
			setup: func(c *ReplyCache) {
				c.Put(key("a"), "reply a")
			},
			lookup:  "a",
			want:    "reply a",
			wantOk:  true,
			wantLen: 1,
		},
		{
			name: "overwrite keeps one entry",
			max:  3,
			setup: func(c *ReplyCache) {
				c.Put(key("a"), "first")
				c.Put(key("a"), "second")
			},
			lookup:  "a",
			want:    "second",
			wantOk:  true,
			wantLen: 1,
		},
		{
			name: "oldest dropped when full",
			max:  2,
			setup: func(c *ReplyCache) {
				c.Put(key("a"), "1")
				c.Put(key("b"), "2")
				c.Put(key("c"), "3")
			},
			lookup:  "a",
			wantOk:  false,
			wantLen: 2,
		},
		{
			name: "after invalidate",
			max:  3,
			setup: func(c *ReplyCache) {
				c.Put(key("a"), "1")
				c.Invalidate()
			},
			lookup:  "a",
			wantOk:  false,
			wantLen: 0,
		},
		{
			name: "usable after invalidate",
			max:  3,
			setup: func(c *ReplyCache) {
				c.Put(key("a"), "old")
				c.Invalidate()
				c.Put(key("a"), "new")
			},
			lookup:  "a",
			want:    "new",
			wantOk:  true,
			wantLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewReplyCache(tt.max)
			tt.setup(c)

			got, ok := c.Get(key(tt.lookup))
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantLen, c.Len())
		})
	}
}

func TestReplyCache_KeyFields(t *testing.T) {
	c := NewReplyCache(0)
	base := key("same text")
	c.Put(base, "cached")

	warmer := base
	warmer.temperature = 1.2
	devil := base
	devil.mode = "devils_advocate"

	_, ok := c.Get(warmer)
	assert.False(t, ok)
	_, ok = c.Get(devil)
	assert.False(t, ok)
	_, ok = c.Get(base)
	assert.True(t, ok)
}

func TestReplyCache_Concurrent(t *testing.T) {
	c := NewReplyCache(10)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				k := key(fmt.Sprintf("%d-%d", i, j))
				c.Put(k, "reply")
				c.Get(k)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, c.Len())
}

func TestService_IncompleteReplyIsNotCached(t *testing.T) {
	cut := fmt.Errorf("read stream: %w", llm.ErrIncompleteStream)
	provider := &fakeLLM{chunks: []string{"Half"}, err: cut}
	mem := memory.NewStore()
	svc, _, _ := newTestService(provider, mem, 0)
	cache := NewReplyCache(5)
	WithReplyCache(cache)(svc)

	_, err := svc.Send(context.Background(), Request{Text: "Our startup needs funding"}, nil)
	require.Error(t, err)

	assert.Zero(t, cache.Len())
	assert.Zero(t, mem.Len())
}

func TestService_SendReplaysCachedReply(t *testing.T) {
	llm := &fakeLLM{chunks: []string{"Who ", "pays?"}}
	mem := memory.NewStore()
	svc, metrics, _ := newTestService(llm, mem, 0)
	WithReplyCache(NewReplyCache(5))(svc)
	ctx := context.Background()

	req := Request{Persona: "market_cynic", Text: "Our startup needs funding"}

	first, err := svc.Send(ctx, req, nil)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	var streamed []string
	second, err := svc.Send(ctx, req, func(d string) { streamed = append(streamed, d) })
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, "Who pays?", second.Content)
	assert.Equal(t, []string{"Who pays?"}, streamed)
	assert.Empty(t, second.TurnID)
	assert.Len(t, llm.reqs, 1)
	assert.Equal(t, 1, mem.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues("ok")))

	svc.ClearCache()
	third, err := svc.Send(ctx, req, nil)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Len(t, llm.reqs, 2)
}
