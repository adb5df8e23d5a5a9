package provider

import (
	"testing"

	"github.com/pandausagies/postbot/internal/config"
)

func TestNewProviderFromConfig(t *testing.T) {
	for _, name := range []string{config.ProviderOpenAI, config.ProviderOpenRouter, config.ProviderAnthropic} {
		p, err := NewProviderFromConfig(config.LLMConfig{Provider: name, APIKey: "k", Model: "m"})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if p == nil {
			t.Fatalf("%s: expected provider", name)
		}
	}

	if _, err := NewProviderFromConfig(config.LLMConfig{Provider: "mystery", APIKey: "k", Model: "m"}); err == nil {
		t.Fatalf("expected unsupported provider error")
	}
	if _, err := NewProviderFromConfig(config.LLMConfig{Provider: config.ProviderOpenAI, Model: "m"}); err == nil {
		t.Fatalf("expected missing api key error")
	}
}

func TestOpenRouterUsesItsEndpoint(t *testing.T) {
	p, err := NewProviderFromConfig(config.LLMConfig{Provider: config.ProviderOpenRouter, APIKey: "k", Model: "m"})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if got := p.(*openAIProvider).endpoint; got != defaultOpenRouterChatURL {
		t.Fatalf("expected openrouter endpoint, got %q", got)
	}
}

func TestNewImageGeneratorFromConfig(t *testing.T) {
	g, err := NewImageGeneratorFromConfig(config.ImagesConfig{APIKey: "k", BaseURL: "http://localhost:9/v1/"})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	if got := g.(*openAIImageGenerator).endpoint; got != "http://localhost:9/v1/images/generations" {
		t.Fatalf("unexpected endpoint %q", got)
	}
	if _, err := NewImageGeneratorFromConfig(config.ImagesConfig{}); err == nil {
		t.Fatalf("expected missing api key error")
	}
}

func TestResolveMaxTokens(t *testing.T) {
	if got := resolveMaxTokens(80, 120); got != 80 {
		t.Fatalf("request value should win, got %d", got)
	}
	if got := resolveMaxTokens(0, 200); got != 200 {
		t.Fatalf("configured value should apply, got %d", got)
	}
	if got := resolveMaxTokens(0, 0); got != defaultMaxTokens {
		t.Fatalf("default should apply, got %d", got)
	}
}
