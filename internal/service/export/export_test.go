package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sandevgo/dissonance/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportedAt = time.Date(2026, 3, 9, 14, 5, 0, 0, time.UTC)

func sampleSession() core.Session {
	return core.Session{
		Persona: "market_cynic",
		Model:   "llama3:8b",
		History: []core.Message{
			{Role: core.RoleUser, Content: "Our startup needs funding"},
			{Role: core.RoleAssistant, Content: "## Risks\n- **Churn** is high\n<script>alert(1)</script>"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"md", FormatMarkdown, false},
		{"Markdown", FormatMarkdown, false},
		{".json", FormatJSON, false},
		{" HTML ", FormatHTML, false},
		{"text", FormatText, false},
		{"pdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultFilename(t *testing.T) {
	assert.Equal(t, "CODE-session-20260309-1405.md", DefaultFilename(FormatMarkdown, exportedAt))
	assert.Equal(t, "CODE-session-20260309-1405.json", DefaultFilename(FormatJSON, exportedAt))
}

func TestRender_NothingToExport(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*core.Session)
	}{
		{"no persona", func(s *core.Session) { s.Persona = "" }},
		{"no model", func(s *core.Session) { s.Model = "" }},
		{"no history", func(s *core.Session) { s.History = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sampleSession()
			tt.mod(&s)
			_, err := Render(s, FormatMarkdown, exportedAt)
			assert.ErrorIs(t, err, ErrNothingToExport)
		})
	}
}

func TestMarkdown(t *testing.T) {
	s := sampleSession()
	s.History = append(s.History,
		core.Message{Role: core.RoleSystem, Content: "note"},
		core.Message{Role: "tool", Content: "x"},
	)

	want := strings.Join([]string{
		"# CODE Session — The Market Cynic",
		"",
		"- Model: llama3:8b",
		"- Persona: The Market Cynic",
		"",
		"---",
		"",
		"## User",
		"",
		"Our startup needs funding",
		"",
		"## Adversary",
		"",
		"## Risks\n- **Churn** is high\n<script>alert(1)</script>",
		"",
		"## System",
		"",
		"note",
		"",
		"## tool",
		"",
		"x",
		"",
	}, "\n")

	assert.Equal(t, want, Markdown(s))
}

func TestMarkdown_TitleAndTags(t *testing.T) {
	s := sampleSession()
	s.Title = "Funding review"
	s.Tags = []string{"startup", "q3"}

	md := Markdown(s)
	assert.Contains(t, md, "- Title: Funding review\n- Tags: startup, q3\n")
}

func TestRender_JSON(t *testing.T) {
	s := sampleSession()
	s.Tags = []string{"startup"}

	out, err := Render(s, FormatJSON, exportedAt)
	require.NoError(t, err)

	var doc document
	require.NoError(t, json.Unmarshal(out, &doc))

	assert.Equal(t, "CODE Session - 20260309-1405", doc.Metadata.Title)
	assert.Equal(t, "market_cynic", doc.Metadata.Persona)
	assert.Equal(t, []string{"startup"}, doc.Metadata.Tags)
	assert.Equal(t, "2026-03-09T14:05:00Z", doc.Metadata.ExportedAt)
	assert.Equal(t, "1.0", doc.Metadata.Version)
	assert.Equal(t, s.History, doc.Conversation)
	assert.Equal(t, statistics{
		TotalTurns:      2,
		UserTurns:       1,
		AssistantTurns:  1,
		TotalCharacters: len("Our startup needs funding") + len(s.History[1].Content),
	}, doc.Statistics)

	assert.True(t, strings.HasPrefix(string(out), "{\n  \"metadata\""))
}

func TestRender_JSONEmptyTags(t *testing.T) {
	out, err := Render(sampleSession(), FormatJSON, exportedAt)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"tags": []`)
}

func TestRender_HTML(t *testing.T) {
	s := sampleSession()
	s.Title = "<b>Review</b>"
	s.Tags = []string{"startup"}

	out, err := Render(s, FormatHTML, exportedAt)
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, "<title>&lt;b&gt;Review&lt;/b&gt;</title>")
	assert.Contains(t, page, "<strong>Persona:</strong> The Market Cynic")
	assert.Contains(t, page, `<span class="tag">startup</span>`)
	assert.Contains(t, page, `<div class="turn user">`)
	assert.Contains(t, page, `<div class="role">Adversary</div>`)
	assert.Contains(t, page, "<h2>Risks</h2>")
	assert.Contains(t, page, "<strong>Churn</strong>")
	assert.NotContains(t, page, "<script>")
}

func TestRender_Text(t *testing.T) {
	out, err := Render(sampleSession(), FormatText, exportedAt)
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, strings.ToLower(text), "code session")
	assert.Contains(t, text, "Our startup needs funding")
	assert.Contains(t, text, "Churn")
	assert.NotContains(t, text, "<script>")
	assert.NotContains(t, text, "alert(1)")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.md")

	require.NoError(t, WriteFile(path, sampleSession(), FormatMarkdown, exportedAt))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Markdown(sampleSession()), string(data))

	f, err := FormatFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)
}
