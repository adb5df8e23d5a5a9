// Package publish sends one composed post, with an optional image, to the
// platform.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pandausagies/postbot/internal/logging"
	"github.com/pandausagies/postbot/internal/platform"
)

// Client is the slice of the platform client the publisher needs.
type Client interface {
	UploadMedia(ctx context.Context, path string) (string, error)
	CreatePost(ctx context.Context, in platform.CreatePostInput) (string, error)
}

// Result describes a published post.
type Result struct {
	PostID        string
	URL           string
	MediaAttached bool
}

// Publisher posts text with an optional image.
type Publisher struct {
	client Client
	logger *slog.Logger
}

// New returns a publisher backed by client.
func New(client Client) *Publisher {
	return &Publisher{client: client, logger: logging.Logger()}
}

// Publish creates the post once. A failed image upload is logged and the
// post goes out text-only.
func (p *Publisher) Publish(ctx context.Context, text, imagePath string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, errors.New("publish: text is empty")
	}

	var mediaIDs []string
	if imagePath != "" {
		mediaID, err := p.client.UploadMedia(ctx, imagePath)
		if err != nil {
			p.logger.Warn("image upload failed, posting text only", "path", imagePath, "err", err)
		} else {
			mediaIDs = []string{mediaID}
			p.logger.Info("uploaded image", "path", imagePath, "media_id", mediaID)
		}
	}

	id, err := p.client.CreatePost(ctx, platform.CreatePostInput{Text: text, MediaIDs: mediaIDs})
	if err != nil {
		return Result{}, fmt.Errorf("publish post: %w", err)
	}

	res := Result{
		PostID:        id,
		URL:           platform.Permalink(id),
		MediaAttached: len(mediaIDs) > 0,
	}
	p.logger.Info("published post", "post_id", res.PostID, "url", res.URL, "media", res.MediaAttached)
	return res, nil
}
