// Package engage runs the light reciprocal engagement performed after a
// post: liking back, discovery likes and a few short replies. Each agent
// works under a per-run action budget.
package engage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pandausagies/postbot/internal/logging"
	"github.com/pandausagies/postbot/internal/platform"
)

// Agent names used in logs and run reports.
const (
	NameLikeBack   = "like_back"
	NameDiscovery  = "discovery"
	NameSmartReply = "smart_reply"
)

// Client is the slice of the platform client the agents call.
type Client interface {
	Me(ctx context.Context) (platform.User, error)
	UserPosts(ctx context.Context, userID string, opts platform.UserPostsOptions) ([]platform.Post, error)
	LikingUsers(ctx context.Context, postID string, maxResults int) ([]platform.User, error)
	Like(ctx context.Context, postID string) error
	SearchRecent(ctx context.Context, query string, maxResults int) ([]platform.Post, error)
	CreatePost(ctx context.Context, in platform.CreatePostInput) (string, error)
}

// Replier writes a short reply to a post's text.
type Replier interface {
	Reply(ctx context.Context, original string) (string, error)
}

// Agent is one engagement stage.
type Agent interface {
	Name() string
	Run(ctx context.Context) (Outcome, error)
}

// Options configures one agent.
type Options struct {
	Enabled bool
	Limit   int
	Query   string
}

// Outcome summarises one agent run.
type Outcome struct {
	Agent    string
	Disabled bool
	Actions  int
	Skipped  int
	Targets  []string
}

// Budget caps the actions an agent takes in one run.
type Budget struct {
	Limit int
	Used  int
}

// Remaining reports whether another action is allowed.
func (b *Budget) Remaining() bool {
	return b.Used < b.Limit
}

// Spend records one action.
func (b *Budget) Spend() {
	b.Used++
}

type base struct {
	name   string
	client Client
	opts   Options
	logger *slog.Logger
}

func newBase(name string, client Client, opts Options) base {
	return base{
		name:   name,
		client: client,
		opts:   opts,
		logger: logging.Logger().With("agent", name),
	}
}

func (b base) Name() string { return b.name }

// active reports whether the agent should make any call at all.
func (b base) active() bool {
	return b.opts.Enabled && b.opts.Limit > 0
}

func (b base) self(ctx context.Context) (platform.User, error) {
	me, err := b.client.Me(ctx)
	if err != nil {
		return platform.User{}, fmt.Errorf("%s: resolve own account: %w", b.name, err)
	}
	return me, nil
}

// selfID returns the bot's account ID for skipping its own posts. A lookup
// failure is logged and yields "", which disables the filter.
func (b base) selfID(ctx context.Context) string {
	me, err := b.client.Me(ctx)
	if err != nil {
		b.logger.Warn("resolve own account failed, own posts are not filtered", "err", err)
		return ""
	}
	return me.ID
}

func isOwn(post platform.Post, selfID string) bool {
	return selfID != "" && post.AuthorID == selfID
}
