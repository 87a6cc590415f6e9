package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/core"
)

func TestGenerate(t *testing.T) {
	var got messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","model":"claude-3-haiku-20240307","content":[{"type":"text","text":" The summary. "}]}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(srv.Client(), srv.URL+"/", "sk-test", "2023-06-01", "claude-3-haiku-20240307", zap.NewNop())
	out, err := c.Generate(context.Background(), &core.CompletionRequest{
		System: "sys", Prompt: "hello", MaxTokens: 150, Temperature: 0.3,
	})
	require.NoError(t, err)

	assert.Equal(t, "The summary.", out.Text)
	assert.Equal(t, "msg_1", out.ID)
	assert.Equal(t, "sys", got.System)
	assert.Equal(t, 150, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "hello", got.Messages[0].Content)
}

func TestGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(srv.Client(), srv.URL, "bad", "2023-06-01", "m", zap.NewNop())
	_, err := c.Generate(context.Background(), &core.CompletionRequest{Prompt: "x", MaxTokens: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid x-api-key")
	assert.Contains(t, err.Error(), "401")
}
