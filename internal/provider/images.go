package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/pandausagies/postbot/internal/config"
)

const defaultOpenAIImagesURL = "https://api.openai.com/v1/images/generations"

type openAIImageGenerator struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func newOpenAIImageGenerator(cfg config.ImagesConfig) (ImageGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("image api key is required")
	}
	endpoint := defaultOpenAIImagesURL
	if cfg.BaseURL != "" {
		endpoint = strings.TrimRight(cfg.BaseURL, "/") + "/images/generations"
	}
	return &openAIImageGenerator{
		apiKey:     cfg.APIKey,
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
	}, nil
}

// Generate requests exactly one image and returns its decoded bytes.
func (g *openAIImageGenerator) Generate(ctx context.Context, req ImageRequest) ([]byte, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("image prompt is required")
	}
	payload := openAIImageRequest{
		Model:   req.Model,
		Prompt:  req.Prompt,
		N:       1,
		Size:    req.Size,
		Quality: req.Quality,
	}

	var parsed openAIImageResponse
	if err := postJSON(ctx, g.httpClient, g.endpoint, g.apiKey, payload, &parsed); err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	if len(parsed.Data) == 0 || parsed.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("image response has no data")
	}

	raw, err := base64.StdEncoding.DecodeString(parsed.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image data: %w", err)
	}
	return raw, nil
}

type openAIImageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	N       int    `json:"n"`
	Size    string `json:"size,omitempty"`
	Quality string `json:"quality,omitempty"`
}

type openAIImageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}
