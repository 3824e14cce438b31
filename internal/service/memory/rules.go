package memory

// rule pairs a label with the keywords that select it. Rule tables are
// evaluated in declaration order and the first rule with a matching keyword
// wins. Keywords are lowercase and matched as substrings of the lowercased
// input.
type rule[T ~string] struct {
	label    T
	keywords []string
}

var domainRules = []rule[Domain]{
	{DomainBusiness, []string{"business", "company", "startup", "market", "revenue", "profit", "investment", "funding"}},
	{DomainTechnology, []string{"tech", "software", "app", "code", "programming", "development", "machine learning"}},
	{DomainAcademic, []string{"research", "study", "thesis", "paper", "hypothesis", "theory", "analysis"}},
	{DomainPersonal, []string{"personal", "life", "career", "relationship", "health", "family"}},
	{DomainCreative, []string{"creative", "design", "art", "writing", "story", "idea", "concept"}},
}

var intentRules = []rule[Intent]{
	{IntentQuestion, []string{"?", "what", "how", "why", "when", "where", "who"}},
	{IntentRequest, []string{"please", "can you", "could you", "help me", "analyze"}},
	{IntentStatement, []string{".", "!", "i think", "i believe", "my opinion"}},
	{IntentChallenge, []string{"challenge", "critique", "disagree", "wrong", "flawed"}},
}

var questionRules = []rule[QuestionType]{
	{QuestionYesNo, []string{"is", "are", "was", "were", "do", "does", "did", "can", "could", "will", "would"}},
	{QuestionWhat, []string{"what"}},
	{QuestionHow, []string{"how"}},
	{QuestionWhy, []string{"why"}},
	{QuestionWhen, []string{"when"}},
	{QuestionWhere, []string{"where"}},
	{QuestionWho, []string{"who"}},
}

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {}, "to": {},
	"for": {}, "of": {}, "with": {}, "by": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {},
	"been": {}, "have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {}, "will": {},
	"would": {}, "could": {}, "should": {},
}

var positiveWords = []string{
	"good", "great", "excellent", "amazing", "wonderful", "fantastic",
	"love", "like", "enjoy", "happy", "excited", "optimistic",
}

var negativeWords = []string{
	"bad", "terrible", "awful", "hate", "dislike", "angry", "sad",
	"disappointed", "worried", "concerned", "pessimistic",
}

// structureMarkers and examplePhrases feed AssessResponseQuality.
var (
	structureMarkers = []string{"##", "•", "-"}
	examplePhrases   = []string{"for example", "such as"}
)

var domainSuggestions = map[Domain][]string{
	DomainBusiness: {
		"Consider market competition and customer acquisition costs",
		"Think about scalability and operational challenges",
	},
	DomainTechnology: {
		"Consider technical debt and maintenance costs",
		"Think about security and performance implications",
	},
}

var (
	onboardingTriggers    = []string{"startup", "business"}
	onboardingSuggestions = []string{
		"What problem does this solve for customers?",
		"How will you acquire your first 100 customers?",
	}
)

func classify[T ~string](lower string, rules []rule[T], fallback T) T {
	for _, r := range rules {
		if containsAny(lower, r.keywords) {
			return r.label
		}
	}
	return fallback
}
