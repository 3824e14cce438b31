// Package export renders a conversation into shareable documents.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sandevgo/dissonance/internal/core"
	"github.com/sandevgo/dissonance/internal/service/persona"
	"github.com/sandevgo/dissonance/pkg/conv"
)

var ErrNothingToExport = errors.New("nothing to export")

type Format string

const (
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
	FormatText     Format = "txt"
)

const formatVersion = "1.0"

var formats = []Format{FormatMarkdown, FormatJSON, FormatHTML, FormatText}

// ParseFormat accepts a format name or a file extension with its dot.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")); f {
	case FormatMarkdown, FormatJSON, FormatHTML, FormatText:
		return f, nil
	case "markdown":
		return FormatMarkdown, nil
	case "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown export format %q (want one of %v)", s, formats)
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// DefaultFilename is CODE-session-YYYYMMDD-HHMM.<ext> in local time.
func DefaultFilename(f Format, now time.Time) string {
	return fmt.Sprintf("CODE-session-%s.%s", now.Format("20060102-1504"), f)
}

// Render produces the document bytes for s in format f.
func Render(s core.Session, f Format, now time.Time) ([]byte, error) {
	if s.Persona == "" || s.Model == "" || len(s.History) == 0 {
		return nil, ErrNothingToExport
	}

	switch f {
	case FormatMarkdown:
		return []byte(Markdown(s)), nil
	case FormatJSON:
		return renderJSON(s, now)
	case FormatHTML:
		return renderHTML(s, now)
	case FormatText:
		text, err := conv.MarkdownToText([]byte(Markdown(s)))
		if err != nil {
			return nil, fmt.Errorf("render text: %w", err)
		}
		return []byte(text), nil
	}
	return nil, fmt.Errorf("unknown export format %q", f)
}

// WriteFile renders s into path, creating parent directories.
func WriteFile(path string, s core.Session, f Format, now time.Time) error {
	data, err := Render(s, f, now)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Markdown lays the session out as a heading, a metadata list and one
// section per turn.
func Markdown(s core.Session) string {
	title := persona.Title(s.Persona)
	lines := []string{
		"# CODE Session — " + title,
		"",
		"- Model: " + s.Model,
		"- Persona: " + title,
	}
	if s.Title != "" {
		lines = append(lines, "- Title: "+s.Title)
	}
	if len(s.Tags) > 0 {
		lines = append(lines, "- Tags: "+strings.Join(s.Tags, ", "))
	}
	lines = append(lines, "", "---", "")

	for _, m := range s.History {
		lines = append(lines, "## "+markdownRole(m.Role), "", m.Content, "")
	}
	return strings.Join(lines, "\n")
}

func markdownRole(role string) string {
	switch role {
	case core.RoleUser:
		return "User"
	case core.RoleAssistant:
		return "Adversary"
	case core.RoleSystem:
		return "System"
	}
	return role
}

type document struct {
	Metadata     metadata       `json:"metadata"`
	Conversation []core.Message `json:"conversation"`
	Statistics   statistics     `json:"statistics"`
}

type metadata struct {
	Title      string   `json:"title"`
	Persona    string   `json:"persona"`
	Model      string   `json:"model"`
	Tags       []string `json:"tags"`
	ExportedAt string   `json:"exportedAt"`
	Version    string   `json:"version"`
}

type statistics struct {
	TotalTurns      int `json:"totalTurns"`
	UserTurns       int `json:"userTurns"`
	AssistantTurns  int `json:"assistantTurns"`
	TotalCharacters int `json:"totalCharacters"`
}

func documentTitle(s core.Session, now time.Time) string {
	if s.Title != "" {
		return s.Title
	}
	return "CODE Session - " + now.Format("20060102-1504")
}

func renderJSON(s core.Session, now time.Time) ([]byte, error) {
	doc := document{
		Metadata: metadata{
			Title:      documentTitle(s, now),
			Persona:    s.Persona,
			Model:      s.Model,
			Tags:       s.Tags,
			ExportedAt: now.UTC().Format(time.RFC3339),
			Version:    formatVersion,
		},
		Conversation: s.History,
	}
	if doc.Metadata.Tags == nil {
		doc.Metadata.Tags = []string{}
	}

	for _, m := range s.History {
		doc.Statistics.TotalTurns++
		switch m.Role {
		case core.RoleUser:
			doc.Statistics.UserTurns++
		case core.RoleAssistant:
			doc.Statistics.AssistantTurns++
		}
		doc.Statistics.TotalCharacters += utf8.RuneCountInString(m.Content)
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render json: %w", err)
	}
	return out, nil
}

var page = template.Must(template.New("session").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; max-width: 800px; margin: 0 auto; padding: 20px; background: #f5f6f8; }
.header { background: #151922; color: #e6edf3; padding: 20px; border-radius: 8px; margin-bottom: 20px; }
.conversation { background: white; border-radius: 8px; padding: 20px; box-shadow: 0 2px 8px rgba(0,0,0,0.1); }
.turn { margin-bottom: 20px; padding: 15px; border-radius: 8px; }
.user { background: #e3f2fd; border-left: 4px solid #2196f3; }
.assistant { background: #f3e5f5; border-left: 4px solid #9c27b0; }
.role { font-weight: bold; margin-bottom: 8px; color: #333; }
.metadata { font-size: 14px; color: #666; margin-top: 10px; }
.tag { display: inline-block; background: #7aa2f7; color: white; padding: 4px 8px; border-radius: 4px; font-size: 12px; margin-right: 5px; }
</style>
</head>
<body>
<div class="header">
<h1>{{.Title}}</h1>
<div class="metadata">
<strong>Persona:</strong> {{.Persona}}<br>
<strong>Model:</strong> {{.Model}}<br>
<strong>Exported:</strong> {{.Exported}}
{{- if .Tags}}
<div class="tags">{{range .Tags}}<span class="tag">{{.}}</span>{{end}}</div>
{{- end}}
</div>
</div>
<div class="conversation">
{{- range .Turns}}
<div class="turn {{.Role}}">
<div class="role">{{.Label}}</div>
<div class="content">{{.Content}}</div>
</div>
{{- end}}
</div>
</body>
</html>
`))

type htmlTurn struct {
	Role    string
	Label   string
	Content template.HTML
}

func renderHTML(s core.Session, now time.Time) ([]byte, error) {
	turns := make([]htmlTurn, len(s.History))
	for i, m := range s.History {
		label := "Adversary"
		if m.Role == core.RoleUser {
			label = "User"
		}
		turns[i] = htmlTurn{
			Role:  m.Role,
			Label: label,
			// sanitized by the export policy
			Content: template.HTML(conv.MarkdownToHTML([]byte(m.Content))),
		}
	}

	var buf bytes.Buffer
	err := page.Execute(&buf, map[string]any{
		"Title":    documentTitle(s, now),
		"Persona":  persona.Title(s.Persona),
		"Model":    s.Model,
		"Exported": now.Format("2006-01-02 15:04"),
		"Tags":     s.Tags,
		"Turns":    turns,
	})
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}
