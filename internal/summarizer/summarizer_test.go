package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
)

type scriptedClient struct {
	replies  []string
	errs     []error
	requests []*core.CompletionRequest
}

func (c *scriptedClient) Generate(_ context.Context, req *core.CompletionRequest) (*core.Completion, error) {
	i := len(c.requests)
	c.requests = append(c.requests, req)
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	reply := ""
	if i < len(c.replies) {
		reply = c.replies[i]
	}
	return &core.Completion{Text: reply, Model: "test-model"}, nil
}

func (c *scriptedClient) Provider() string { return "openai" }
func (c *scriptedClient) Model() string    { return "test-model" }

type fakeClients struct {
	client *scriptedClient
	err    error
}

func (f *fakeClients) Providers() []string { return []string{"anthropic", "bedrock", "google", "openai"} }

func (f *fakeClients) Supports(p string) bool {
	for _, name := range f.Providers() {
		if name == p {
			return true
		}
	}
	return false
}

func (f *fakeClients) Defaults(p string) (config.ProviderDefaults, bool) {
	models := map[string]string{
		"openai":    "gpt-3.5-turbo",
		"anthropic": "claude-3-haiku-20240307",
		"google":    "gemini-pro",
		"bedrock":   "anthropic.claude-3-haiku-20240307-v1:0",
	}
	m, ok := models[p]
	return config.ProviderDefaults{ModelName: m, MaxTokens: 150, Temperature: 0.3}, ok
}

func (f *fakeClients) CreateLLMClient(*core.AIConfig) (core.LLMClient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

func newTestFactory(clients *fakeClients) *Factory {
	return NewFactory(clients, config.SummarizerConfig{}, nil, nil, zap.NewNop())
}

func TestPromptBuilder(t *testing.T) {
	b := NewPromptBuilder("", 0, nil)

	prompt := b.Build("Body text", "Hello", "a@b.com", "")
	assert.Equal(t, DefaultPromptTemplate+"\n\nSender: a@b.com\n\nSubject: Hello\n\nContent: Body text", prompt)

	prompt = b.Build("Body", "Hi", "", "Use bullet points")
	assert.True(t, strings.HasPrefix(prompt, DefaultPromptTemplate+"\n\nAdditional instructions: Use bullet points"))
	assert.NotContains(t, prompt, "Sender:")

	long := strings.Repeat("x", 3500)
	prompt = b.Build(long, "s", "", "")
	assert.Contains(t, prompt, strings.Repeat("x", 3000)+"... [truncated]")
	assert.NotContains(t, prompt, strings.Repeat("x", 3001))
}

func TestFallback(t *testing.T) {
	t.Run("sentences", func(t *testing.T) {
		s := Fallback("Hi. The quarterly report is attached. Please review it by Friday. Thanks a lot for everything.", "Report", nil)
		assert.Equal(t, "Email: Report\n\nThe quarterly report is attached. Please review it by Friday.", s.Text)
		assert.Equal(t, FallbackProvider, s.Provider)
		assert.Equal(t, core.SentimentNeutral, s.Sentiment)
		assert.False(t, s.Success)
		assert.Equal(t, FallbackNote, s.Note)
		assert.Empty(t, s.Error)
	})

	t.Run("short content", func(t *testing.T) {
		s := Fallback("ok", "Ping", errors.New("boom"))
		assert.Equal(t, "Email: Ping\n\nok", s.Text)
		assert.Equal(t, "boom", s.Error)
	})

	t.Run("long unpunctuated content", func(t *testing.T) {
		content := strings.Repeat("a ", 150)
		s := Fallback(content, "x", nil)
		// a single piece longer than ten characters counts as a sentence
		assert.Equal(t, "Email: x\n\n"+strings.TrimSpace(content)+".", s.Text)
	})

	t.Run("preview branch", func(t *testing.T) {
		content := strings.Repeat("ab.", 100)
		s := Fallback(content, "x", nil)
		assert.Equal(t, "Email: x\n\n"+content[:200]+"...", s.Text)
	})
}

func TestKeywordSentiment(t *testing.T) {
	assert.Equal(t, core.SentimentPositive, KeywordSentiment("Great news, we are pleased"))
	assert.Equal(t, core.SentimentNegative, KeywordSentiment("There is a problem with the failed deploy"))
	assert.Equal(t, core.SentimentNeutral, KeywordSentiment("Meeting moved to 3pm"))
	assert.Equal(t, core.SentimentNeutral, KeywordSentiment("good but bad"))
}

func TestSummarizeSuccessWithSentiment(t *testing.T) {
	client := &scriptedClient{replies: []string{"Invoice due Friday.", "Negative."}}
	f := newTestFactory(&fakeClients{client: client})

	svc, err := f.ForConfig(&core.AIConfig{Provider: "openai", APIKey: "k", EnableSentimentAnalysis: true})
	require.NoError(t, err)

	s := svc.Summarize(context.Background(), "Please pay the invoice.", "Invoice", "billing@example.com")
	assert.True(t, s.Success)
	assert.Equal(t, "Invoice due Friday.", s.Text)
	assert.Equal(t, core.SentimentNegative, s.Sentiment)
	assert.Equal(t, "openai", s.Provider)

	require.Len(t, client.requests, 2)
	assert.Equal(t, SystemPrompt, client.requests[0].System)
	assert.Equal(t, 150, client.requests[0].MaxTokens)
	assert.Equal(t, 10, client.requests[1].MaxTokens)
	assert.Zero(t, client.requests[1].Temperature)
}

func TestSummarizeSentimentFallsBackToKeywords(t *testing.T) {
	client := &scriptedClient{
		replies: []string{"Great excellent results."},
		errs:    []error{nil, errors.New("dial tcp: connection refused")},
	}
	f := newTestFactory(&fakeClients{client: client})

	svc, err := f.ForConfig(&core.AIConfig{Provider: "openai", APIKey: "k", EnableSentimentAnalysis: true})
	require.NoError(t, err)

	s := svc.Summarize(context.Background(), "content", "subject", "")
	assert.Equal(t, core.SentimentPositive, s.Sentiment)
}

func TestSummarizeProviderFailureFallsBack(t *testing.T) {
	client := &scriptedClient{errs: []error{errors.New("429 Too Many Requests")}}
	f := newTestFactory(&fakeClients{client: client})

	svc, err := f.ForConfig(&core.AIConfig{Provider: "openai", APIKey: "k"})
	require.NoError(t, err)

	s := svc.Summarize(context.Background(), "This message is long enough to extract.", "Hello", "")
	assert.False(t, s.Success)
	assert.Equal(t, FallbackProvider, s.Provider)
	assert.Equal(t, "429 Too Many Requests", s.Error)
	assert.Equal(t, "Email: Hello\n\nThis message is long enough to extract.", s.Text)
}

func TestForConfigNilIsFallbackOnly(t *testing.T) {
	f := newTestFactory(&fakeClients{})
	svc, err := f.ForConfig(nil)
	require.NoError(t, err)

	s := svc.Summarize(context.Background(), "Short", "Subj", "")
	assert.Equal(t, FallbackProvider, s.Provider)

	report := svc.Validate(context.Background())
	assert.False(t, report.Valid)
	require.NotNil(t, report.ConnectionTest)
	assert.False(t, report.ConnectionTest.Success)
}

func TestForConfigClientError(t *testing.T) {
	f := newTestFactory(&fakeClients{err: errors.New("openai API key is required")})
	svc, err := f.ForConfig(&core.AIConfig{Provider: "openai"})
	assert.Error(t, err)
	assert.Nil(t, svc)
}

func TestFactoryValidate(t *testing.T) {
	t.Run("static errors", func(t *testing.T) {
		f := newTestFactory(&fakeClients{})
		report := f.Validate(context.Background(), &core.AIConfig{Provider: "cohere"})
		assert.False(t, report.Valid)
		assert.Contains(t, report.Errors, "Unsupported provider: cohere")
		assert.Contains(t, report.Errors, "API key is missing or could not be decrypted")
	})

	t.Run("bedrock needs no key", func(t *testing.T) {
		client := &scriptedClient{replies: []string{"OK"}}
		f := newTestFactory(&fakeClients{client: client})
		report := f.Validate(context.Background(), &core.AIConfig{Provider: "bedrock", Model: "m"})
		assert.True(t, report.Valid)
		require.NotNil(t, report.ConnectionTest)
		assert.True(t, report.ConnectionTest.Success)
		assert.Equal(t, "OK", report.ConnectionTest.Response)
		assert.Equal(t, connectionTestPrompt, client.requests[0].Prompt)
	})

	t.Run("missing model warns", func(t *testing.T) {
		client := &scriptedClient{errs: []error{errors.New("timeout")}}
		f := newTestFactory(&fakeClients{client: client})
		report := f.Validate(context.Background(), &core.AIConfig{Provider: "openai", APIKey: "k"})
		assert.True(t, report.Valid)
		assert.Contains(t, report.Warnings, "No model specified, using default")
		assert.False(t, report.ConnectionTest.Success)
		assert.Equal(t, "timeout", report.ConnectionTest.Error)
	})
}

func TestValidateAIConfig(t *testing.T) {
	c := &fakeClients{}

	cfg, err := ValidateAIConfig(&core.AIConfigInput{Provider: "Anthropic", APIKey: "sk"}, c)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "claude-3-haiku-20240307", cfg.Model)
	assert.Equal(t, 150, cfg.MaxTokens)
	assert.InDelta(t, 0.3, cfg.Temperature, 0.0001)
	assert.True(t, cfg.IsActive)

	zero := 0.0
	cfg, err = ValidateAIConfig(&core.AIConfigInput{Provider: "bedrock", Temperature: &zero, MaxTokens: 300}, c)
	require.NoError(t, err)
	assert.Zero(t, cfg.Temperature)
	assert.Equal(t, 300, cfg.MaxTokens)

	_, err = ValidateAIConfig(&core.AIConfigInput{}, c)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Errors, "Provider is required")
	assert.Contains(t, verr.Errors, "API key is required")

	_, err = ValidateAIConfig(&core.AIConfigInput{Provider: "cohere", APIKey: "k"}, c)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Unsupported provider: cohere"}, verr.Errors)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, "quota", classify(errors.New("RESOURCE_EXHAUSTED: quota")))
	assert.Equal(t, "connection", classify(context.DeadlineExceeded))
	assert.Equal(t, "connection", classify(errors.New("dial tcp 1.2.3.4:443: connection refused")))
	assert.Equal(t, "provider", classify(errors.New("invalid model")))
}

func TestProvidersCatalogue(t *testing.T) {
	infos := Providers(&fakeClients{})
	require.Len(t, infos, 4)
	assert.Equal(t, "anthropic", infos[0].Name)
	assert.False(t, infos[1].RequiresAPIKey)
	assert.Equal(t, "gemini-pro", infos[2].DefaultModel)
}
