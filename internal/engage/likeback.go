package engage

import (
	"context"
	"fmt"

	"github.com/pandausagies/postbot/internal/platform"
)

const (
	ownPostsMax   = 5
	likersPerPost = 20
	likerPostsMax = 5
)

// LikeBack likes the latest original post of accounts that liked one of
// the bot's recent posts.
type LikeBack struct {
	base
}

// NewLikeBack returns the like-back agent.
func NewLikeBack(client Client, opts Options) *LikeBack {
	return &LikeBack{base: newBase(NameLikeBack, client, opts)}
}

// Run walks own posts, then their likers, liking one post per liker until
// the budget is spent.
func (a *LikeBack) Run(ctx context.Context) (Outcome, error) {
	out := Outcome{Agent: a.name}
	if !a.active() {
		out.Disabled = true
		return out, nil
	}

	me, err := a.self(ctx)
	if err != nil {
		return out, err
	}
	posts, err := a.client.UserPosts(ctx, me.ID, platform.UserPostsOptions{MaxResults: ownPostsMax})
	if err != nil {
		return out, fmt.Errorf("%s: list own posts: %w", a.name, err)
	}

	budget := Budget{Limit: a.opts.Limit}
	seen := map[string]bool{}
	for _, own := range posts {
		if !budget.Remaining() {
			break
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}
		likers, err := a.client.LikingUsers(ctx, own.ID, likersPerPost)
		if err != nil {
			a.logger.Warn("list liking users failed", "post_id", own.ID, "err", err)
			out.Skipped++
			continue
		}

		for _, user := range likers {
			if !budget.Remaining() {
				return out, nil
			}
			if user.ID == me.ID || seen[user.ID] {
				continue
			}
			seen[user.ID] = true

			theirs, err := a.client.UserPosts(ctx, user.ID, platform.UserPostsOptions{
				MaxResults:      likerPostsMax,
				ExcludeReplies:  true,
				ExcludeRetweets: true,
			})
			if err != nil {
				a.logger.Warn("list liker posts failed", "user_id", user.ID, "err", err)
				out.Skipped++
				continue
			}
			if len(theirs) == 0 {
				continue
			}

			target := theirs[0].ID
			if err := a.client.Like(ctx, target); err != nil {
				a.logger.Warn("like failed", "user_id", user.ID, "post_id", target, "err", err)
				out.Skipped++
				continue
			}
			budget.Spend()
			out.Actions++
			out.Targets = append(out.Targets, target)
			a.logger.Info("liked back", "user_id", user.ID, "post_id", target)
		}
	}
	return out, nil
}
