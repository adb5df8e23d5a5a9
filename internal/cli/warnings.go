package cli

import (
	"github.com/pandausagies/postbot/internal/config"
	"github.com/pandausagies/postbot/internal/imagesel"
	"github.com/pandausagies/postbot/internal/logging"
	"github.com/pandausagies/postbot/internal/store"
)

// Emit startup warnings derived from non-fatal config/runtime conditions.
func warnStartupConditions(cfg *config.Config) {
	if cfg == nil {
		return
	}

	if cfg.Images.Probability > 0 {
		files, err := store.ListFiles(cfg.Images.Dir, imagesel.ManualExtensions...)
		if err == nil && len(files) == 0 {
			logging.Logger().Warn("manual image pool is empty. image runs outside the special weekday will post text only", "dir", cfg.Images.Dir)
		}
	}
	if cfg.Images.Probability > 0 && !cfg.Images.GenerationEnabled() {
		logging.Logger().Warn("images.api_key is empty. special weekday posts will go out text only")
	}
	e := cfg.Engagement
	if !e.LikeBack.Enabled && !e.Discovery.Enabled && !e.Replies.Enabled {
		logging.Logger().Info("all engagement agents are disabled")
	}
	if cfg.Post.ReleaseLink.Enabled && cfg.Post.MaxLength < 100 {
		logging.Logger().Warn("post.max_length is short while release_link is enabled. the link line can crowd out the post", "max_length", cfg.Post.MaxLength)
	}
}
