package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mikey/llm-mail-digest/internal/core"
)

// ProviderName identifies this adapter in summaries and configuration
const ProviderName = "google"

// GeminiClient is an implementation of the LLMClient interface using Google Gemini
type GeminiClient struct {
	apiKey    string
	modelName string
	opts      []option.ClientOption
	logger    *zap.Logger
}

// NewGeminiClient creates a new Gemini client; extra options are passed to genai.NewClient
func NewGeminiClient(apiKey, modelName string, logger *zap.Logger, opts ...option.ClientOption) *GeminiClient {
	return &GeminiClient{
		apiKey:    apiKey,
		modelName: modelName,
		opts:      opts,
		logger:    logger,
	}
}

// Provider returns the provider name
func (c *GeminiClient) Provider() string { return ProviderName }

// Model returns the configured model
func (c *GeminiClient) Model() string { return c.modelName }

// Generate opens a client for the call, generates once and closes it
func (c *GeminiClient) Generate(ctx context.Context, req *core.CompletionRequest) (*core.Completion, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(c.apiKey)}, c.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(c.modelName)
	model.SetTemperature(req.Temperature)
	model.SetMaxOutputTokens(int32(req.MaxTokens))
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	c.logger.Debug("Gemini completion received", zap.String("model", c.modelName))

	return &core.Completion{
		Text:  strings.TrimSpace(text.String()),
		Model: c.modelName,
	}, nil
}
