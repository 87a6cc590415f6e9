package bedrock

import (
	"context"
	"fmt"
	"sync"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
)

// Factory creates Bedrock clients; credentials come from the AWS default chain
type Factory struct {
	cfg    config.BedrockConfig
	logger *zap.Logger

	once    sync.Once
	runtime *bedrockruntime.Client
	initErr error
}

// NewFactory creates a new Bedrock factory
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg.GetBedrock(),
		logger: logger,
	}
}

// Defaults returns the model defaults for this provider
func (f *Factory) Defaults() config.ProviderDefaults {
	return f.cfg.ProviderDefaults
}

// CreateLLMClient creates a client for the stored AI configuration.
// The stored API key is unused; Bedrock authenticates with AWS credentials.
func (f *Factory) CreateLLMClient(ai *core.AIConfig) (core.LLMClient, error) {
	f.once.Do(func() {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(f.cfg.Region))
		if err != nil {
			f.initErr = fmt.Errorf("failed to load AWS configuration: %w", err)
			return
		}
		f.runtime = bedrockruntime.NewFromConfig(awsCfg)
	})
	if f.initErr != nil {
		return nil, f.initErr
	}

	modelID := ai.Model
	if modelID == "" {
		modelID = f.cfg.ModelName
	}

	return NewBedrockClient(f.runtime, modelID, f.logger), nil
}
