package provider

import (
	"fmt"
	"strings"

	"github.com/pandausagies/postbot/internal/config"
)

const defaultMaxTokens = 120

func resolveMaxTokens(requestMaxTokens, configuredMaxTokens int) int {
	if requestMaxTokens > 0 {
		return requestMaxTokens
	}
	if configuredMaxTokens > 0 {
		return configuredMaxTokens
	}
	return defaultMaxTokens
}

// NewProviderFromConfig builds a text provider from the llm config section.
func NewProviderFromConfig(cfg config.LLMConfig) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case config.ProviderAnthropic:
		return newAnthropicProvider(cfg)
	case config.ProviderOpenAI:
		return newOpenAIProvider(cfg, defaultOpenAIChatURL)
	case config.ProviderOpenRouter:
		return newOpenAIProvider(cfg, defaultOpenRouterChatURL)
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

// NewImageGeneratorFromConfig builds the image generator from the images
// config section.
func NewImageGeneratorFromConfig(cfg config.ImagesConfig) (ImageGenerator, error) {
	return newOpenAIImageGenerator(cfg)
}
