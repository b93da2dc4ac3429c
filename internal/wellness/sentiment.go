package wellness

import (
	"strings"

	"studenthub-backend/internal/models"
)

type SentimentTagger struct {
	positive map[string]struct{}
	negative map[string]struct{}
}

func NewSentimentTagger(lex *Lexicon) *SentimentTagger {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &SentimentTagger{
		positive: toSet(lex.Sentiment.Positive),
		negative: toSet(lex.Sentiment.Negative),
	}
}

// Tag 按空白切词计数，正负词数严格大者胜出，否则为 neutral
func (t *SentimentTagger) Tag(text string) models.Sentiment {
	pos, neg := 0, 0
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if _, ok := t.positive[word]; ok {
			pos++
		}
		if _, ok := t.negative[word]; ok {
			neg++
		}
	}
	switch {
	case pos > neg:
		return models.SentimentPositive
	case neg > pos:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range normalizeList(words) {
		set[w] = struct{}{}
	}
	return set
}
