package summarizer

import (
	"strings"
	"unicode/utf8"

	"github.com/mikey/llm-mail-digest/internal/core"
)

const (
	// FallbackProvider is reported as the provider of extractive summaries
	FallbackProvider = "fallback"

	// FallbackNote explains why a summary is extractive
	FallbackNote = "AI service unavailable, using fallback summary"

	fallbackSentences   = 3
	minSentenceChars    = 10
	fallbackPreviewRune = 200
)

// Fallback builds an extractive summary from the first meaningful sentences of content.
// cause, when non-nil, is reported in the summary's Error field.
func Fallback(content, subject string, cause error) *core.Summary {
	summary := &core.Summary{
		Text:      "Email: " + subject + "\n\n" + extract(content),
		Sentiment: core.SentimentNeutral,
		Provider:  FallbackProvider,
		Success:   false,
		Note:      FallbackNote,
	}
	if cause != nil {
		summary.Error = cause.Error()
	}
	return summary
}

func extract(content string) string {
	pieces := strings.Split(content, ".")
	if len(pieces) > fallbackSentences {
		pieces = pieces[:fallbackSentences]
	}

	var sentences []string
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if utf8.RuneCountInString(piece) > minSentenceChars {
			sentences = append(sentences, piece)
		}
	}

	if len(sentences) > 0 {
		return strings.Join(sentences, ". ") + "."
	}

	if utf8.RuneCountInString(content) > fallbackPreviewRune {
		return string([]rune(content)[:fallbackPreviewRune]) + "..."
	}
	return content
}
