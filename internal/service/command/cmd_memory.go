package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/dissonance/internal/observability"
	"github.com/sandevgo/dissonance/internal/service/memory"
	"github.com/sandevgo/dissonance/internal/service/state"
)

type memoryService interface {
	Context(ctx context.Context, input, persona string) memory.Result
	MemoryStats(ctx context.Context) memory.Stats
	ClearMemory(ctx context.Context) error
	ClearCache()
	Metrics() (observability.Snapshot, error)
}

const previewLength = 100

type ContextCommand struct {
	conv      *state.Conversation
	memory    memoryService
	formatter *ResponseFormatter
}

func NewContextCommand(conv *state.Conversation, mem memoryService) *ContextCommand {
	return &ContextCommand{conv: conv, memory: mem, formatter: NewResponseFormatter()}
}

func (c *ContextCommand) Name() string {
	return "context"
}

func (c *ContextCommand) Usage() string {
	return "/context <text>"
}

func (c *ContextCommand) Description() string {
	return "Show past turns related to text"
}

func (c *ContextCommand) Execute(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return c.formatter.Usage(c.Usage()), nil
	}

	res := c.memory.Context(ctx, strings.Join(args, " "), c.conv.Persona())
	if len(res.RelevantMemories) == 0 && len(res.Suggestions) == 0 {
		return c.formatter.Info("No related conversations yet"), nil
	}
	return FormatMemory(c.formatter, res, 3), nil
}

// FormatMemory renders up to limit related turns with the summary and
// suggestions.
func FormatMemory(f *ResponseFormatter, res memory.Result, limit int) string {
	var sb strings.Builder
	if res.ContextSummary != "" {
		sb.WriteString(f.Info("Memory"))
		sb.WriteString(res.ContextSummary + "\n")
	}

	var items []string
	for _, m := range res.RelevantMemories[:min(limit, len(res.RelevantMemories))] {
		when := time.UnixMilli(m.Timestamp).Format("2006-01-02 15:04")
		items = append(items, fmt.Sprintf("%s • %s (%.2f): %s", m.Persona, when, m.RelevanceScore, Truncate(m.UserInput, previewLength)))
	}
	sb.WriteString(f.List(items))

	if len(res.Suggestions) > 0 {
		sb.WriteString(f.Info("Consider"))
		sb.WriteString(f.List(res.Suggestions))
	}
	return sb.String()
}

// Truncate shortens s to n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

type StatsCommand struct {
	memory    memoryService
	formatter *ResponseFormatter
}

func NewStatsCommand(mem memoryService) *StatsCommand {
	return &StatsCommand{memory: mem, formatter: NewResponseFormatter()}
}

func (c *StatsCommand) Name() string {
	return "stats"
}

func (c *StatsCommand) Usage() string {
	return "/stats"
}

func (c *StatsCommand) Description() string {
	return "Show memory and request statistics"
}

func (c *StatsCommand) Execute(ctx context.Context, _ []string) (string, error) {
	st := c.memory.MemoryStats(ctx)

	quality := "n/a"
	if st.QualityAvailable() {
		quality = fmt.Sprintf("%.2f / 3", st.AverageQuality)
	}
	out := c.formatter.Combine(
		c.formatter.Info("Memory"),
		c.formatter.Label("Entries", fmt.Sprint(st.TotalMemories)),
		c.formatter.Label("Top domain", orNA(string(st.MostCommonDomain))),
		c.formatter.Label("Top persona", orNA(st.MostUsedPersona)),
		c.formatter.Label("Avg quality", quality),
	)

	snap, err := c.memory.Metrics()
	if err != nil {
		return out, nil
	}
	return c.formatter.Combine(
		out,
		"\n",
		c.formatter.Info("Requests"),
		c.formatter.Label("Total", fmt.Sprint(snap.TotalRequests)),
		c.formatter.Label("Errors", fmt.Sprint(snap.Errors)),
		c.formatter.Label("Avg response", snap.AvgResponseTime.Round(time.Millisecond).String()),
	), nil
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

type ClearMemoryCommand struct {
	memory    memoryService
	formatter *ResponseFormatter
}

func NewClearMemoryCommand(mem memoryService) *ClearMemoryCommand {
	return &ClearMemoryCommand{memory: mem, formatter: NewResponseFormatter()}
}

func (c *ClearMemoryCommand) Name() string {
	return "clear-memory"
}

func (c *ClearMemoryCommand) Usage() string {
	return "/clear-memory"
}

func (c *ClearMemoryCommand) Description() string {
	return "Forget all remembered turns"
}

func (c *ClearMemoryCommand) Execute(ctx context.Context, _ []string) (string, error) {
	if err := c.memory.ClearMemory(ctx); err != nil {
		return "", fmt.Errorf("clear memory: %w", err)
	}
	return c.formatter.Success("Memory cleared"), nil
}

type ClearCacheCommand struct {
	memory    memoryService
	formatter *ResponseFormatter
}

func NewClearCacheCommand(mem memoryService) *ClearCacheCommand {
	return &ClearCacheCommand{memory: mem, formatter: NewResponseFormatter()}
}

func (c *ClearCacheCommand) Name() string {
	return "clear-cache"
}

func (c *ClearCacheCommand) Usage() string {
	return "/clear-cache"
}

func (c *ClearCacheCommand) Description() string {
	return "Forget cached replies so repeated questions reach the model again"
}

func (c *ClearCacheCommand) Execute(_ context.Context, _ []string) (string, error) {
	c.memory.ClearCache()
	return c.formatter.Success("Response cache cleared"), nil
}
