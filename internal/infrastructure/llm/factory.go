package llm

import (
	"context"
	"fmt"

	"github.com/ChuheLin/cs2-wang/internal/config"
	"github.com/ChuheLin/cs2-wang/internal/ports"
)

// New returns the chat client for the configured provider, or nil when no API key is set.
func New(ctx context.Context, cfg config.LLMConfig) (ports.ChatClient, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}

	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		return NewChatGPTClient(cfg), nil
	case config.ProviderAnthropic:
		return NewClaudeClient(cfg), nil
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
