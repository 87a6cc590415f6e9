package summarizer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/core"
)

const (
	connectionTestPrompt = "Test connection. Please respond with 'OK'."
	shortAnswerTokens    = 10
)

// Recorder receives per-call summary outcomes
type Recorder interface {
	SummaryOutcome(provider, status string)
}

// Service summarizes messages with one LLM client; a nil client means fallback only
type Service struct {
	client   core.LLMClient
	cfg      core.AIConfig
	prompts  *PromptBuilder
	timeout  time.Duration
	recorder Recorder
	logger   *zap.Logger
}

// Summarize produces a summary and never fails; any provider error yields the extractive fallback
func (s *Service) Summarize(ctx context.Context, content, subject, sender string) *core.Summary {
	if s.client == nil {
		s.record(FallbackProvider, "fallback")
		return Fallback(content, subject, nil)
	}

	completion, err := s.generate(ctx, &core.CompletionRequest{
		System:      SystemPrompt,
		Prompt:      s.prompts.Build(content, subject, sender, s.cfg.CustomPrompt),
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: float32(s.cfg.Temperature),
	})
	if err == nil && completion.Text == "" {
		err = errors.New("empty summary returned")
	}
	if err != nil {
		s.logger.Warn("AI summarization failed, using fallback",
			zap.String("provider", s.client.Provider()),
			zap.String("error_class", classify(err)),
			zap.Error(err))
		s.record(s.client.Provider(), "failed")
		return Fallback(content, subject, err)
	}

	s.record(s.client.Provider(), "success")

	return &core.Summary{
		Text:      completion.Text,
		Sentiment: s.sentiment(ctx, completion.Text),
		Provider:  s.client.Provider(),
		Model:     completion.Model,
		Success:   true,
	}
}

// sentiment asks the provider for a one-word label and falls back to keyword scoring
func (s *Service) sentiment(ctx context.Context, text string) core.Sentiment {
	if !s.cfg.EnableSentimentAnalysis {
		return core.SentimentNeutral
	}

	completion, err := s.generate(ctx, &core.CompletionRequest{
		Prompt:      sentimentPrompt + text,
		MaxTokens:   shortAnswerTokens,
		Temperature: 0,
	})
	if err != nil {
		s.logger.Debug("Sentiment call failed, using keyword heuristic", zap.Error(err))
		return KeywordSentiment(text)
	}

	if sentiment, ok := parseSentiment(completion.Text); ok {
		return sentiment
	}
	return KeywordSentiment(text)
}

// Validate performs a live round trip against the provider
func (s *Service) Validate(ctx context.Context) *core.ValidationReport {
	report := &core.ValidationReport{Errors: []string{}, Warnings: []string{}}

	if s.client == nil {
		report.Errors = append(report.Errors, "AI configuration not found")
		report.ConnectionTest = &core.ConnectionTest{Success: false, Error: "Client not initialized"}
		return report
	}

	if s.cfg.Model == "" {
		report.Warnings = append(report.Warnings, "No model specified, using default")
	}

	completion, err := s.generate(ctx, &core.CompletionRequest{
		Prompt:      connectionTestPrompt,
		MaxTokens:   shortAnswerTokens,
		Temperature: 0,
	})
	if err != nil {
		report.ConnectionTest = &core.ConnectionTest{Success: false, Error: err.Error()}
	} else {
		report.ConnectionTest = &core.ConnectionTest{Success: true, Response: completion.Text}
	}

	report.Valid = len(report.Errors) == 0
	return report
}

// Provider returns the provider behind this service
func (s *Service) Provider() string {
	if s.client == nil {
		return FallbackProvider
	}
	return s.client.Provider()
}

func (s *Service) generate(ctx context.Context, req *core.CompletionRequest) (*core.Completion, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.client.Generate(ctx, req)
}

func (s *Service) record(provider, status string) {
	if s.recorder != nil {
		s.recorder.SummaryOutcome(provider, status)
	}
}
