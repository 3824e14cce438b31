package memory

import (
	"encoding/json"
	"math"
)

type Domain string

const (
	DomainBusiness   Domain = "business"
	DomainTechnology Domain = "technology"
	DomainAcademic   Domain = "academic"
	DomainPersonal   Domain = "personal"
	DomainCreative   Domain = "creative"
	DomainGeneral    Domain = "general"
)

type Intent string

const (
	IntentQuestion  Intent = "question"
	IntentRequest   Intent = "request"
	IntentStatement Intent = "statement"
	IntentChallenge Intent = "challenge"
)

type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

type QuestionType string

const (
	QuestionYesNo     QuestionType = "yes_no"
	QuestionWhat      QuestionType = "what"
	QuestionHow       QuestionType = "how"
	QuestionWhy       QuestionType = "why"
	QuestionWhen      QuestionType = "when"
	QuestionWhere     QuestionType = "where"
	QuestionWho       QuestionType = "who"
	QuestionOpen      QuestionType = "open"
	QuestionStatement QuestionType = "statement"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// score maps a quality grade onto the 1..3 scale used by Stats.
func (q Quality) score() float64 {
	switch q {
	case QualityHigh:
		return 3
	case QualityMedium:
		return 2
	default:
		return 1
	}
}

// Context holds the features derived from a piece of user text.
type Context struct {
	Domain       Domain       `json:"domain"`
	Intent       Intent       `json:"intent"`
	Complexity   Complexity   `json:"complexity"`
	QuestionType QuestionType `json:"questionType"`
}

// Conversation is one completed user/model exchange handed to Store.
type Conversation struct {
	Persona    string `json:"persona"`
	Model      string `json:"model"`
	UserInput  string `json:"userInput"`
	AIResponse string `json:"aiResponse"`
}

// Entry is an immutable stored turn together with its derived features.
type Entry struct {
	SessionID  string    `json:"sessionId"`
	Timestamp  int64     `json:"timestamp"`
	Persona    string    `json:"persona"`
	Model      string    `json:"model"`
	UserInput  string    `json:"userInput"`
	AIResponse string    `json:"aiResponse"`
	Context    Context   `json:"context"`
	Sentiment  Sentiment `json:"sentiment"`
	Topics     []string  `json:"topics"`
	Quality    Quality   `json:"quality"`

	seq uint64
}

type ScoredEntry struct {
	Entry
	RelevanceScore float64 `json:"relevanceScore"`
}

// Result is what Query hands back to the caller for display.
type Result struct {
	RelevantMemories []ScoredEntry `json:"relevantMemories"`
	ContextSummary   string        `json:"contextSummary"`
	Suggestions      []string      `json:"suggestions"`
}

type Stats struct {
	TotalMemories    int     `json:"totalMemories"`
	MostCommonDomain Domain  `json:"mostCommonDomain"`
	MostUsedPersona  string  `json:"mostUsedPersona"`
	AverageQuality   float64 `json:"averageQuality"`
}

// QualityAvailable reports whether AverageQuality holds a number. It is NaN
// while the store is empty.
func (s Stats) QualityAvailable() bool {
	return !math.IsNaN(s.AverageQuality)
}

// MarshalJSON renders an unavailable AverageQuality as null, since
// encoding/json rejects NaN.
func (s Stats) MarshalJSON() ([]byte, error) {
	type alias Stats
	out := struct {
		alias
		AverageQuality *float64 `json:"averageQuality"`
	}{alias: alias(s)}
	if s.QualityAvailable() {
		avg := s.AverageQuality
		out.AverageQuality = &avg
	}
	return json.Marshal(out)
}
