package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-copilot-api/internal/config"
	"novel-copilot-api/internal/domain/service"
)

func newTestFactory() *EinoFactory {
	return NewEinoFactory(&config.Config{
		LLM: config.LLMConfig{
			DefaultProvider: "openai",
			Providers: map[string]config.ProviderConfig{
				"openai": {
					Driver:  config.DriverEino,
					APIKey:  "sk-test",
					BaseURL: "http://127.0.0.1:1/v1",
					Model:   "gpt-4o-mini",
					Timeout: time.Second,
				},
				"direct": {
					Driver:  config.DriverOpenAIGo,
					APIKey:  "sk-test",
					BaseURL: "http://127.0.0.1:1/v1",
					Model:   "gpt-4o",
				},
				"placeholder": {
					APIKey: "your-openai-api-key-here",
					Model:  "gpt-4o-mini",
				},
				"weird": {
					Driver: "grpc",
					APIKey: "sk-test",
					Model:  "gpt-4o-mini",
				},
			},
		},
	})
}

func TestEinoFactory_NotConfigured(t *testing.T) {
	f := newTestFactory()
	s := service.Sampling{MaxTokens: 32, Temperature: 0.45}

	_, err := f.Get(context.Background(), "placeholder", s)
	assert.ErrorIs(t, err, service.ErrLLMNotConfigured)

	_, err = f.Get(context.Background(), "missing", s)
	assert.ErrorIs(t, err, service.ErrLLMNotConfigured)

	assert.False(t, f.Configured("placeholder"))
	assert.False(t, f.Configured("missing"))
	assert.True(t, f.Configured(""))
}

func TestEinoFactory_CachesPerSampling(t *testing.T) {
	f := newTestFactory()
	inline := service.Sampling{MaxTokens: 32, Temperature: 0.45, TopP: 0.9}
	retry := service.Sampling{MaxTokens: 32, Temperature: 0.65, TopP: 0.95}

	a, err := f.Get(context.Background(), "", inline)
	require.NoError(t, err)
	b, err := f.Get(context.Background(), "openai", inline)
	require.NoError(t, err)
	c, err := f.Get(context.Background(), "openai", retry)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestEinoFactory_Drivers(t *testing.T) {
	f := newTestFactory()
	s := service.Sampling{MaxTokens: 120, Temperature: 0.5}

	m, err := f.Get(context.Background(), "direct", s)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIChatModel{}, m)
	assert.Equal(t, "gpt-4o", f.ModelName("direct"))
	assert.Equal(t, "gpt-4o-mini", f.ModelName(""))

	_, err = f.Get(context.Background(), "weird", s)
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrLLMNotConfigured)
}
