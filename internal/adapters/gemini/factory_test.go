package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
)

func TestFactory(t *testing.T) {
	f := NewFactory(config.NewFromViper(config.NewEmptyViper()), zap.NewNop())

	assert.Equal(t, "gemini-pro", f.Defaults().ModelName)

	_, err := f.CreateLLMClient(&core.AIConfig{Provider: ProviderName})
	assert.Error(t, err)

	client, err := f.CreateLLMClient(&core.AIConfig{Provider: ProviderName, APIKey: "key"})
	require.NoError(t, err)
	assert.Equal(t, "google", client.Provider())
	assert.Equal(t, "gemini-pro", client.Model())

	client, err = f.CreateLLMClient(&core.AIConfig{Provider: ProviderName, Model: "gemini-1.5-flash", APIKey: "key"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-flash", client.Model())
}
