package summarizer

import (
	"strings"

	"github.com/mikey/llm-mail-digest/internal/utils"
)

const (
	// DefaultPromptTemplate opens every summary prompt unless configured otherwise
	DefaultPromptTemplate = "Summarize this email in 2-3 sentences, highlighting the key action items and important information:"

	// SystemPrompt is sent as the system message to every provider
	SystemPrompt = "You are an AI assistant that summarizes emails concisely and accurately. Focus on key information, action items, and important details."

	// DefaultMaxContentChars bounds the email body included in the prompt
	DefaultMaxContentChars = 3000

	truncatedMarker = "... [truncated]"
)

// PromptBuilder assembles the user prompt for one message
type PromptBuilder struct {
	template        string
	maxContentChars int
	text            *utils.TextProcessor
}

// NewPromptBuilder creates a prompt builder; empty or non-positive arguments select the defaults
func NewPromptBuilder(template string, maxContentChars int, text *utils.TextProcessor) *PromptBuilder {
	if strings.TrimSpace(template) == "" {
		template = DefaultPromptTemplate
	}
	if maxContentChars <= 0 {
		maxContentChars = DefaultMaxContentChars
	}
	if text == nil {
		text = utils.NewTextProcessor(nil)
	}
	return &PromptBuilder{
		template:        template,
		maxContentChars: maxContentChars,
		text:            text,
	}
}

// Build renders the prompt; the sender line is omitted when sender is empty
func (b *PromptBuilder) Build(content, subject, sender, customPrompt string) string {
	template := b.template
	if customPrompt != "" {
		template += "\n\nAdditional instructions: " + customPrompt
	}

	content = b.text.Truncate(content, b.maxContentChars, truncatedMarker)

	parts := []string{template}
	if sender != "" {
		parts = append(parts, "\nSender: "+sender)
	}
	parts = append(parts, "\nSubject: "+subject)
	parts = append(parts, "\nContent: "+content)

	return strings.Join(parts, "\n")
}
