package summarizer

import (
	"strings"

	"github.com/mikey/llm-mail-digest/internal/core"
)

const sentimentPrompt = "Analyze the sentiment of this text and respond with only one word: 'positive', 'negative', or 'neutral':\n\n"

var positiveWords = []string{
	"good", "great", "excellent", "amazing", "wonderful",
	"fantastic", "perfect", "love", "like", "happy",
	"pleased", "satisfied", "successful", "approve",
}

var negativeWords = []string{
	"bad", "terrible", "awful", "horrible", "hate",
	"dislike", "angry", "upset", "disappointed", "failed",
	"error", "problem", "issue", "concern", "worried",
}

// KeywordSentiment scores text by substring hits against the positive and negative word lists
func KeywordSentiment(text string) core.Sentiment {
	lower := strings.ToLower(text)

	positive := 0
	for _, word := range positiveWords {
		if strings.Contains(lower, word) {
			positive++
		}
	}

	negative := 0
	for _, word := range negativeWords {
		if strings.Contains(lower, word) {
			negative++
		}
	}

	switch {
	case positive > negative:
		return core.SentimentPositive
	case negative > positive:
		return core.SentimentNegative
	default:
		return core.SentimentNeutral
	}
}

// parseSentiment maps a one-word model answer onto a Sentiment
func parseSentiment(answer string) (core.Sentiment, bool) {
	word := strings.ToLower(strings.Trim(strings.TrimSpace(answer), ".!'\"`"))
	switch core.Sentiment(word) {
	case core.SentimentPositive, core.SentimentNegative, core.SentimentNeutral:
		return core.Sentiment(word), true
	}
	return "", false
}
