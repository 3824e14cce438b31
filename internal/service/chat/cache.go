package chat

import "sync"

const DefaultCacheSize = 100

// cacheKey identifies a request whose reply can be replayed. History is not
// part of the key.
type cacheKey struct {
	text        string
	persona     string
	model       string
	mode        string
	prompt      string
	temperature float64
	maxTokens   int
}

// ReplyCache holds recent replies, dropping the oldest insert when full.
type ReplyCache struct {
	mu      sync.RWMutex
	replies map[cacheKey]string
	order   []cacheKey
	max     int
}

func NewReplyCache(max int) *ReplyCache {
	if max <= 0 {
		max = DefaultCacheSize
	}
	return &ReplyCache{
		replies: make(map[cacheKey]string),
		max:     max,
	}
}

func (c *ReplyCache) Get(k cacheKey) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reply, ok := c.replies[k]
	return reply, ok
}

func (c *ReplyCache) Put(k cacheKey, reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.replies[k]; !ok {
		c.order = append(c.order, k)
	}
	c.replies[k] = reply

	for len(c.order) > c.max {
		delete(c.replies, c.order[0])
		c.order = c.order[1:]
	}
}

func (c *ReplyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.replies)
}

func (c *ReplyCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = make(map[cacheKey]string)
	c.order = nil
}
