package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pandausagies/postbot/internal/config"
	"github.com/pandausagies/postbot/internal/provider"
)

// legacyEnv lists the unprefixed variables config.Load also reads.
var legacyEnv = []string{
	"API_KEY", "API_SECRET", "ACCESS_TOKEN", "ACCESS_TOKEN_SECRET",
	"OPENAI_API_KEY", "LLM_PROVIDER", "LLM_MODEL", "IMAGE_PROBABILITY",
	"USE_RELEASE_LINK", "RELEASE_LINK_URL", "RANDOM_DELAY",
	"TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID", "LOG_LEVEL",
}

func createTestHome(t *testing.T) string {
	t.Helper()
	homeDir := filepath.Join(t.TempDir(), ".postbot")
	t.Setenv("POSTBOT_HOME", homeDir)
	for _, name := range legacyEnv {
		t.Setenv(name, "")
	}
	return homeDir
}

const offlineConfig = `
[llm]
provider = "openai"
api_key = "test-key"
model = "gpt-4.1-mini"

[images]
probability = 0.0

[post]
members = ["ポキヌ"]
`

const onlineConfig = offlineConfig + `
[platform]
api_key = "k"
api_secret = "s"
access_token = "t"
access_token_secret = "ts"
`

func writeConfig(t *testing.T, homeDir, body string) {
	t.Helper()
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(homeDir, "config.toml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// stubFactories swaps the dependency factories for the duration of a test.
func stubFactories(t *testing.T, text provider.Provider, client platformClient) {
	t.Helper()
	origProvider, origImages, origPlatform := providerFactory, imageGeneratorFactory, platformFactory
	t.Cleanup(func() {
		providerFactory, imageGeneratorFactory, platformFactory = origProvider, origImages, origPlatform
	})

	providerFactory = func(config.LLMConfig) (provider.Provider, error) {
		return text, nil
	}
	imageGeneratorFactory = func(config.ImagesConfig) (provider.ImageGenerator, error) {
		t.Fatalf("image generator should not be created")
		return nil, nil
	}
	platformFactory = func(config.PlatformConfig) (platformClient, error) {
		if client == nil {
			t.Fatalf("platform client should not be created")
		}
		return client, nil
	}
}

type fakeProvider struct {
	resp *provider.ChatResponse
	err  error
}

func (p fakeProvider) Chat(_ context.Context, _ provider.ChatRequest) (*provider.ChatResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.resp, nil
}
