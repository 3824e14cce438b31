package memory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifyDomain(t *testing.T) {
	tests := []struct {
		input string
		want  Domain
	}{
		{"Our startup needs more funding", DomainBusiness},
		{"I love this cat", DomainGeneral},
		{"The software keeps crashing", DomainTechnology},
		{"My thesis draft is late", DomainAcademic},
		{"Thinking about my career", DomainPersonal},
		{"A story about dragons", DomainCreative},
		// business is declared before technology
		{"A software company", DomainBusiness},
		{"", DomainGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IdentifyDomain(tt.input))
		})
	}
}

func TestIdentifyIntent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Intent
	}{
		{"question mark", "Is this viable?", IntentQuestion},
		{"question word", "explain how pricing works", IntentQuestion},
		{"request", "Please analyze my plan", IntentRequest},
		{"statement", "I believe in this plan", IntentStatement},
		{"challenge", "Your argument is flawed", IntentChallenge},
		{"default", "plan", IntentStatement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IdentifyIntent(tt.input))
		})
	}
}

func TestAssessComplexity(t *testing.T) {
	words := func(n int) string {
		w := make([]string, n)
		for i := range w {
			w[i] = "word"
		}
		return strings.Join(w, " ")
	}

	tests := []struct {
		name  string
		input string
		want  Complexity
	}{
		{"empty", "", ComplexitySimple},
		{"short", "Is this a good idea?", ComplexitySimple},
		{"single sentence of 25 words", words(25), ComplexityModerate},
		{"many short sentences", strings.Repeat("one two three four five. ", 6), ComplexitySimple},
		{"single sentence of 120 words", words(120), ComplexityComplex},
		{"long text with medium sentences", strings.Repeat(words(10)+". ", 12), ComplexityModerate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssessComplexity(tt.input))
		})
	}
}

func TestIdentifyQuestionType(t *testing.T) {
	tests := []struct {
		input string
		want  QuestionType
	}{
		{"Is it raining", QuestionStatement},
		{"How do I get funding?", QuestionYesNo},
		{"What now?", QuestionWhat},
		{"How much?", QuestionHow},
		{"Why bother?", QuestionWhy},
		{"When then?", QuestionWhen},
		{"Where to?", QuestionWhere},
		{"Who else?", QuestionWho},
		{"Hmm?", QuestionOpen},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IdentifyQuestionType(tt.input))
		})
	}
}

func TestExtractTopics(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"frequency ranked", "Market funding, funding! Startup market funding.", []string{"funding", "market", "startup"}},
		{"drops short and stop words", "should have been with them on a cat", []string{"them"}},
		{"capped at five", "alpha bravo charlie delta echoes foxtrot golf", []string{"alpha", "bravo", "charlie", "delta", "echoes"}},
		{"punctuation stripped", "don't; re-think", []string{"dont", "rethink"}},
		{"no-break space splits", "funding\u00a0market", []string{"funding", "market"}},
		{"vertical tab splits", "funding\vmarket", []string{"funding", "market"}},
		{"ideographic space splits", "funding\u3000market\ufeffpitch", []string{"funding", "market", "pitch"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTopics(tt.input)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), 5)
		})
	}
}

func TestAnalyzeSentiment(t *testing.T) {
	tests := []struct {
		input string
		want  Sentiment
	}{
		{"I love this, it's great and amazing", SentimentPositive},
		{"I hate this, it's terrible", SentimentNegative},
		{"The sky is blue", SentimentNeutral},
		{"Good but sad", SentimentNeutral},
		{"", SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, AnalyzeSentiment(tt.input))
		})
	}
}

func TestAssessResponseQuality(t *testing.T) {
	long := strings.Repeat("x", 101)

	tests := []struct {
		name     string
		response string
		want     Quality
	}{
		{"empty", "", QualityLow},
		{"short plain", "No.", QualityLow},
		{"structure and question", "## Risks\nWho pays?", QualityMedium},
		{"long with example", long + " for example", QualityMedium},
		{"long structured question", long + "\n- why?", QualityHigh},
		{"everything", long + "\n## Next\n- such as churn?", QualityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssessResponseQuality(tt.response))
		})
	}
}

func TestTopicOverlap(t *testing.T) {
	assert.Zero(t, TopicOverlap(nil, []string{"a"}))
	assert.Zero(t, TopicOverlap([]string{"a"}, nil))
	assert.InDelta(t, 0.4, TopicOverlap([]string{"startup", "funding"}, []string{"startup", "needs", "funding", "market", "validation"}), 1e-9)
	assert.InDelta(t, 1.0, TopicOverlap([]string{"a", "b"}, []string{"b", "a"}), 1e-9)
}

func TestContextSimilarity(t *testing.T) {
	a := Context{
		Domain:       DomainBusiness,
		Intent:       IntentQuestion,
		Complexity:   ComplexitySimple,
		QuestionType: QuestionYesNo,
	}

	assert.InDelta(t, 1.0, ContextSimilarity(a, a), 1e-9)

	b := a
	b.Domain = DomainGeneral
	b.QuestionType = QuestionStatement
	assert.InDelta(t, 0.5, ContextSimilarity(a, b), 1e-9)
}
