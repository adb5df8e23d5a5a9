// Package provider adapts generation backends (text, vision, images) to
// small provider-agnostic interfaces.
package provider

import "context"

// Provider sends chat requests to a text generation backend.
type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ImageGenerator produces one image from a prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, req ImageRequest) ([]byte, error)
}

// Role is the author role for a chat message.
type Role string

const (
	// RoleUser is a user-authored message.
	RoleUser Role = "user"
	// RoleAssistant is an assistant-authored message.
	RoleAssistant Role = "assistant"
)

// Image is an inline image attached to a user message.
type Image struct {
	MediaType string
	Data      []byte
}

// ChatMessage is a single message in model conversation history.
type ChatMessage struct {
	Role    Role
	Content string
	Images  []Image
}

// TokenUsage reports provider token accounting for one response.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// ChatRequest is the provider-agnostic request payload.
type ChatRequest struct {
	SystemPrompt string
	Messages     []ChatMessage
	MaxTokens    int
	// Temperature is left to the backend default when nil.
	Temperature *float64
}

// ChatResponse is the provider-agnostic response payload.
type ChatResponse struct {
	Content string
	Usage   TokenUsage
}

// ImageRequest describes a single image generation.
type ImageRequest struct {
	Model   string
	Prompt  string
	Size    string
	Quality string
}

// Temperature is a convenience for building ChatRequest.Temperature.
func Temperature(v float64) *float64 {
	return &v
}
