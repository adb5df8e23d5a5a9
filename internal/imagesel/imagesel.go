// Package imagesel decides whether a post carries an image and which one:
// a generated snapshot on the special weekday, otherwise a pick from the
// manual pool that avoids repeating the previous run.
package imagesel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pandausagies/postbot/internal/chance"
	"github.com/pandausagies/postbot/internal/logging"
	"github.com/pandausagies/postbot/internal/provider"
	"github.com/pandausagies/postbot/internal/state"
	"github.com/pandausagies/postbot/internal/store"
)

// Source says where a candidate image came from.
type Source string

const (
	SourceManual    Source = "manual"
	SourceGenerated Source = "generated"
)

// ManualExtensions are the file types picked up from the manual pool.
var ManualExtensions = []string{".png", ".jpg", ".jpeg"}

const (
	describeMaxTokens = 120
	generatedPrefix   = "pandausagies_band_"
)

// Candidate is the image attached to the next post.
type Candidate struct {
	Path    string
	Source  Source
	Context string
}

// Options configures selection.
type Options struct {
	Probability    float64
	SpecialWeekday time.Weekday
	Location       *time.Location
	ManualDir      string
	GeneratedDir   string

	Model   string
	Size    string
	Quality string
}

// Deps are the collaborators the selector calls.
type Deps struct {
	Random chance.Source
	Images provider.ImageGenerator
	Vision provider.Provider
	State  state.Store
	Logger *slog.Logger
}

// Selector picks zero or one image per run.
type Selector struct {
	opts   Options
	random chance.Source
	images provider.ImageGenerator
	vision provider.Provider
	state  state.Store
	logger *slog.Logger
}

// New builds a selector. Missing Random and Logger fall back to the
// process defaults.
func New(opts Options, deps Deps) *Selector {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if deps.Random == nil {
		deps.Random = chance.NewSource()
	}
	if deps.Logger == nil {
		deps.Logger = logging.Logger()
	}
	return &Selector{
		opts:   opts,
		random: deps.Random,
		images: deps.Images,
		vision: deps.Vision,
		state:  deps.State,
		logger: deps.Logger,
	}
}

// Select returns the image for a post made at now, or nil for a text-only
// post. Generation and description failures are logged and degrade to no
// image (or no context); only a cancelled context is returned as an error.
func (s *Selector) Select(ctx context.Context, now time.Time) (*Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	draw := s.random.Float64()
	if draw > s.opts.Probability {
		s.logger.Debug("no image this run", "draw", draw, "probability", s.opts.Probability)
		return nil, nil
	}

	local := now.In(s.opts.Location)
	if local.Weekday() == s.opts.SpecialWeekday {
		return s.generate(ctx, local)
	}
	return s.pickManual(ctx)
}

func (s *Selector) generate(ctx context.Context, now time.Time) (*Candidate, error) {
	th := chance.Pick(s.random, themes)
	prompt := th.prompt
	if th.name == themePet {
		prompt = petPrompt(chance.Pick(s.random, petAnimals))
	}

	if s.images == nil {
		s.logger.Warn("image generator not configured, posting without image", "theme", th.name)
		return nil, nil
	}

	raw, err := s.images.Generate(ctx, provider.ImageRequest{
		Model:   s.opts.Model,
		Prompt:  prompt,
		Size:    s.opts.Size,
		Quality: s.opts.Quality,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("image generation failed, posting without image", "theme", th.name, "err", err)
		return nil, nil
	}

	path := filepath.Join(s.opts.GeneratedDir, GeneratedFileName(now))
	if err := store.WriteFile(path, raw); err != nil {
		s.logger.Warn("save generated image failed, posting without image", "path", path, "err", err)
		return nil, nil
	}

	s.logger.Info("generated image", "path", path, "theme", th.name)
	return &Candidate{Path: path, Source: SourceGenerated, Context: th.context}, nil
}

func (s *Selector) pickManual(ctx context.Context) (*Candidate, error) {
	images, err := store.ListFiles(s.opts.ManualDir, ManualExtensions...)
	if err != nil {
		s.logger.Warn("list manual images failed", "dir", s.opts.ManualDir, "err", err)
		return nil, nil
	}
	if len(images) == 0 {
		s.logger.Debug("manual image pool is empty", "dir", s.opts.ManualDir)
		return nil, nil
	}

	var last string
	if s.state != nil {
		last = s.state.Load(ctx).LastManualImage
	}
	candidates := slices.DeleteFunc(slices.Clone(images), func(p string) bool { return p == last })
	if len(candidates) == 0 {
		candidates = images
	}

	chosen := chance.Pick(s.random, candidates)
	if s.state != nil {
		if err := s.state.Save(ctx, state.Selection{LastManualImage: chosen}); err != nil {
			s.logger.Warn("save selection state failed", "path", chosen, "err", err)
		}
	}
	s.logger.Info("picked manual image", "path", chosen, "pool", len(images))

	return &Candidate{
		Path:    chosen,
		Source:  SourceManual,
		Context: s.describe(ctx, chosen),
	}, nil
}

// describe asks the vision provider for a short mood note. Any failure
// yields an empty context.
func (s *Selector) describe(ctx context.Context, path string) string {
	if s.vision == nil {
		return ""
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("read image for description failed", "path", path, "err", err)
		return ""
	}

	resp, err := s.vision.Chat(ctx, provider.ChatRequest{
		SystemPrompt: describeSystemPrompt,
		Messages: []provider.ChatMessage{{
			Role:    provider.RoleUser,
			Content: describeUserPrompt,
			Images:  []provider.Image{{MediaType: mediaType(path, raw), Data: raw}},
		}},
		MaxTokens: describeMaxTokens,
	})
	if err != nil {
		s.logger.Warn("describe image failed", "path", path, "err", err)
		return ""
	}
	desc := strings.TrimSpace(resp.Content)
	s.logger.Debug("described image", "path", path, "context", desc)
	return desc
}

// GeneratedFileName names a generated image after its creation time.
func GeneratedFileName(now time.Time) string {
	return fmt.Sprintf("%s%s.png", generatedPrefix, now.Format("20060102_150405"))
}

func mediaType(path string, raw []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return http.DetectContentType(raw)
}
