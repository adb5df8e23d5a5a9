// Package compose writes post and reply text with a generative-text
// provider and shapes it for publishing.
package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pandausagies/postbot/internal/chance"
	"github.com/pandausagies/postbot/internal/logging"
	"github.com/pandausagies/postbot/internal/provider"
)

// ErrEmptyContent is returned when the provider produced nothing usable.
var ErrEmptyContent = errors.New("generated text is empty")

// Mode selects the post template.
type Mode string

const (
	ModeDaily Mode = "daily"
	ModeBand  Mode = "band"
)

// ParseMode maps unknown names to ModeDaily.
func ParseMode(raw string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(raw))) == ModeBand {
		return ModeBand
	}
	return ModeDaily
}

const (
	// DefaultMaxLength caps a post body in runes.
	DefaultMaxLength = 270
	// DefaultReplyLength caps a reply in runes.
	DefaultReplyLength = 60

	postMaxTokens    = 120
	postTemperature  = 0.9
	replyMaxTokens   = 80
	replyTemperature = 0.8
)

// Draft is one composed post. Final is the exact text to publish.
type Draft struct {
	Mode         Mode
	ImageContext string
	Body         string
	Signed       string
	Final        string
}

// Options configures the composer.
type Options struct {
	Members        []string
	MaxLength      int
	ReplyMaxLength int
	ReleaseLink    string
}

// Composer turns a mode and image context into a signed post.
type Composer struct {
	provider provider.Provider
	random   chance.Source
	opts     Options
	logger   *slog.Logger
}

// New builds a composer. An empty ReleaseLink disables the link line.
func New(p provider.Provider, random chance.Source, opts Options) *Composer {
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	if opts.ReplyMaxLength <= 0 {
		opts.ReplyMaxLength = DefaultReplyLength
	}
	if random == nil {
		random = chance.NewSource()
	}
	return &Composer{
		provider: p,
		random:   random,
		opts:     opts,
		logger:   logging.Logger(),
	}
}

// Compose generates the post body for mode and applies signature and
// release link. An unknown mode is treated as daily.
func (c *Composer) Compose(ctx context.Context, mode Mode, imageContext string) (Draft, error) {
	mode = ParseMode(string(mode))
	system, err := SystemPrompt(mode, imageContext)
	if err != nil {
		return Draft{}, err
	}
	resp, err := c.provider.Chat(ctx, provider.ChatRequest{
		SystemPrompt: system,
		Messages: []provider.ChatMessage{{
			Role:    provider.RoleUser,
			Content: UserPrompt(),
		}},
		MaxTokens:   postMaxTokens,
		Temperature: provider.Temperature(postTemperature),
	})
	if err != nil {
		return Draft{}, fmt.Errorf("generate post text: %w", err)
	}

	body := Normalize(resp.Content, c.opts.MaxLength)
	if body == "" {
		return Draft{}, ErrEmptyContent
	}

	signed := c.Sign(body)
	final := signed
	if link := strings.TrimSpace(c.opts.ReleaseLink); link != "" {
		final = signed + "\n" + link
	}

	c.logger.Debug("composed post",
		"mode", mode,
		"runes", len([]rune(body)),
		"image_context", imageContext != "",
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)
	return Draft{
		Mode:         mode,
		ImageContext: imageContext,
		Body:         body,
		Signed:       signed,
		Final:        final,
	}, nil
}

// Sign appends a member signature line picked uniformly from the roster.
func (c *Composer) Sign(body string) string {
	if len(c.opts.Members) == 0 {
		return body
	}
	return body + "\n- " + chance.Pick(c.random, c.opts.Members)
}

// Reply writes a short friendly reply to original.
func (c *Composer) Reply(ctx context.Context, original string) (string, error) {
	user, err := replyPrompt(original)
	if err != nil {
		return "", err
	}
	resp, err := c.provider.Chat(ctx, provider.ChatRequest{
		SystemPrompt: replySystemPrompt,
		Messages: []provider.ChatMessage{{
			Role:    provider.RoleUser,
			Content: user,
		}},
		MaxTokens:   replyMaxTokens,
		Temperature: provider.Temperature(replyTemperature),
	})
	if err != nil {
		return "", fmt.Errorf("generate reply text: %w", err)
	}
	text := Normalize(resp.Content, c.opts.ReplyMaxLength)
	if text == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}

// Normalize applies NFC, collapses whitespace runs to single spaces, trims
// and truncates to maxRunes.
func Normalize(text string, maxRunes int) string {
	collapsed := strings.Join(strings.Fields(norm.NFC.String(text)), " ")
	if maxRunes <= 0 {
		return collapsed
	}
	runes := []rune(collapsed)
	if len(runes) <= maxRunes {
		return collapsed
	}
	return strings.TrimSpace(string(runes[:maxRunes]))
}
