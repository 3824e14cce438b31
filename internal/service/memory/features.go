package memory

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxTopics = 5

var (
	sentenceBreak = regexp.MustCompile(`[.!?]+`)
	nonWord       = regexp.MustCompile(`[^\w\s]`)
)

// ExtractContext derives all Context fields from input.
func ExtractContext(input string) Context {
	return Context{
		Domain:       IdentifyDomain(input),
		Intent:       IdentifyIntent(input),
		Complexity:   AssessComplexity(input),
		QuestionType: IdentifyQuestionType(input),
	}
}

func IdentifyDomain(input string) Domain {
	return classify(strings.ToLower(input), domainRules, DomainGeneral)
}

func IdentifyIntent(input string) Intent {
	return classify(strings.ToLower(input), intentRules, IntentStatement)
}

// AssessComplexity grades input by word count and average words per
// sentence. Either clause of a tier is enough to land in it.
func AssessComplexity(input string) Complexity {
	words := len(strings.Split(input, " "))
	sentences := len(sentenceBreak.Split(input, -1))
	avg := float64(words) / float64(sentences)

	switch {
	case words < 20 || avg < 8:
		return ComplexitySimple
	case words < 100 || avg < 15:
		return ComplexityModerate
	default:
		return ComplexityComplex
	}
}

func IdentifyQuestionType(input string) QuestionType {
	if !strings.Contains(input, "?") {
		return QuestionStatement
	}
	return classify(strings.ToLower(input), questionRules, QuestionOpen)
}

// ExtractTopics returns up to five of the most frequent non-stop-words longer
// than three characters. Words with equal counts keep first-appearance order.
func ExtractTopics(input string) []string {
	cleaned := nonWord.ReplaceAllString(strings.Map(plainSpace, strings.ToLower(input)), "")

	counts := make(map[string]int)
	var order []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) <= 3 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxTopics {
		order = order[:maxTopics]
	}
	return order
}

// AnalyzeSentiment counts positive and negative keywords present in input.
// Each keyword counts once regardless of repetitions.
func AnalyzeSentiment(input string) Sentiment {
	lower := strings.ToLower(input)
	pos := countContained(lower, positiveWords)
	neg := countContained(lower, negativeWords)

	switch {
	case pos > neg:
		return SentimentPositive
	case neg > pos:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// AssessResponseQuality awards a point each for length, structure, a
// question and an example, then grades the 0..4 total.
func AssessResponseQuality(response string) Quality {
	score := 0
	if utf8.RuneCountInString(response) > 100 {
		score++
	}
	if containsAny(response, structureMarkers) {
		score++
	}
	if strings.Contains(response, "?") {
		score++
	}
	if containsAny(response, examplePhrases) {
		score++
	}

	switch {
	case score >= 3:
		return QualityHigh
	case score >= 2:
		return QualityMedium
	default:
		return QualityLow
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func countContained(s string, subs []string) int {
	n := 0
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			n++
		}
	}
	return n
}

// plainSpace folds Unicode spaces (NBSP, \v, BOM and friends) to ' ' so the
// punctuation strip cannot glue the words around them together.
func plainSpace(r rune) rune {
	if unicode.IsSpace(r) || r == '\ufeff' {
		return ' '
	}
	return r
}
