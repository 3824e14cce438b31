package core

import "time"

const (
	AppName      = "CODE"
	AppTitle     = "Cognitive Dissonance Engine"
	AppUserAgent = "dissonance/0.1"
	AppVersion   = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ValidRole reports whether role may appear in a stored conversation history.
func ValidRole(role string) bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Model struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Session is a saved conversation.
type Session struct {
	ID        int64     `json:"id"`
	Persona   string    `json:"persona"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	History   []Message `json:"history"`
	Title     string    `json:"title,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
}

// SessionSummary is the list view of a Session. Preview holds the first
// characters of the serialized history.
type SessionSummary struct {
	ID        int64     `json:"id"`
	Persona   string    `json:"persona"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	Preview   string    `json:"preview"`
	Title     string    `json:"title,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
}

// Persona is a user-defined system prompt. Built-in personas are not stored.
type Persona struct {
	ID        int64     `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string    `json:"name" yaml:"name"`
	Prompt    string    `json:"prompt" yaml:"prompt"`
	CreatedAt time.Time `json:"created_at,omitzero" yaml:"created_at,omitempty"`
}
