package memory

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
)

const (
	topicWeight      = 0.4
	contextWeight    = 0.3
	personaBonus     = 0.2
	sentimentBonus   = 0.1
	contextFactor    = 0.25
	relevanceCutoff  = 0.3
	recencyWindow    = 0.1
	maxRelevant      = 5
	summaryEntries   = 3
	summaryTopics    = 3
	maxSuggestions   = 3
	summaryFormatStr = "Previous discussions focused on %s topics including %s."
)

// probe holds the features of the text being matched against the store.
type probe struct {
	persona   string
	context   Context
	topics    []string
	sentiment Sentiment
}

func newProbe(input, persona string) probe {
	return probe{
		persona:   persona,
		context:   ExtractContext(input),
		topics:    ExtractTopics(input),
		sentiment: AnalyzeSentiment(input),
	}
}

// score is the weighted relevance of e to p, in [0, 1].
func (p probe) score(e Entry) float64 {
	s := 0.0
	s += TopicOverlap(p.topics, e.Topics) * topicWeight
	s += ContextSimilarity(p.context, e.Context) * contextWeight
	if e.Persona == p.persona {
		s += personaBonus
	}
	if e.Sentiment == p.sentiment {
		s += sentimentBonus
	}
	return s
}

// TopicOverlap is the number of shared topics divided by the size of the
// larger topic set. It is 0 when either side is empty.
func TopicOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := toSet(a)
	setB := toSet(b)

	shared := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(max(len(setA), len(setB)))
}

// ContextSimilarity awards 0.25 per matching Context field.
func ContextSimilarity(a, b Context) float64 {
	s := 0.0
	if a.Domain == b.Domain {
		s += contextFactor
	}
	if a.Intent == b.Intent {
		s += contextFactor
	}
	if a.Complexity == b.Complexity {
		s += contextFactor
	}
	if a.QuestionType == b.QuestionType {
		s += contextFactor
	}
	return s
}

// rank orders scored entries by descending score. Scores closer than the
// recency window are ordered newest first instead.
func rank(scored []ScoredEntry) {
	slices.SortStableFunc(scored, func(a, b ScoredEntry) int {
		diff := b.RelevanceScore - a.RelevanceScore
		if math.Abs(diff) < recencyWindow {
			return cmp.Compare(b.Timestamp, a.Timestamp)
		}
		if diff > 0 {
			return 1
		}
		return -1
	})
}

func summarize(ranked []ScoredEntry) string {
	if len(ranked) == 0 {
		return ""
	}

	domains := make([]Domain, len(ranked))
	for i, m := range ranked {
		domains[i] = m.Context.Domain
	}

	var topics []string
	seen := make(map[string]struct{})
	for _, m := range ranked[:min(summaryEntries, len(ranked))] {
		for _, t := range m.Topics {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			topics = append(topics, t)
		}
	}
	if len(topics) > summaryTopics {
		topics = topics[:summaryTopics]
	}

	return fmt.Sprintf(summaryFormatStr, mode(domains), strings.Join(topics, ", "))
}

func suggest(input string, ranked []ScoredEntry) []string {
	suggestions := make([]string, 0, maxSuggestions)
	if len(ranked) > 0 {
		suggestions = append(suggestions, domainSuggestions[ranked[0].Context.Domain]...)
	}
	if containsAny(strings.ToLower(input), onboardingTriggers) {
		suggestions = append(suggestions, onboardingSuggestions...)
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

// mode returns the most frequent value. Ties go to the value seen first.
func mode[T comparable](values []T) T {
	counts := make(map[T]int, len(values))
	top := 0
	for _, v := range values {
		counts[v]++
		top = max(top, counts[v])
	}
	for _, v := range values {
		if counts[v] == top {
			return v
		}
	}
	var zero T
	return zero
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
