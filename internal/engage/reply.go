package engage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pandausagies/postbot/internal/compose"
	"github.com/pandausagies/postbot/internal/platform"
)

const repliesPerScan = 20

// SmartReply answers a few matching posts with a short generated reply.
type SmartReply struct {
	base
	replier Replier
}

// NewSmartReply returns the smart-reply agent.
func NewSmartReply(client Client, replier Replier, opts Options) *SmartReply {
	return &SmartReply{base: newBase(NameSmartReply, client, opts), replier: replier}
}

// Run replies to search results without links until the budget is spent.
func (a *SmartReply) Run(ctx context.Context) (Outcome, error) {
	out := Outcome{Agent: a.name}
	if !a.active() {
		out.Disabled = true
		return out, nil
	}

	selfID := a.selfID(ctx)
	results, err := a.client.SearchRecent(ctx, a.opts.Query, repliesPerScan)
	if err != nil {
		return out, fmt.Errorf("%s: search: %w", a.name, err)
	}

	budget := Budget{Limit: a.opts.Limit}
	for _, post := range results {
		if !budget.Remaining() {
			break
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if isOwn(post, selfID) || hasLink(post.Text) {
			continue
		}

		text, err := a.replier.Reply(ctx, post.Text)
		if err != nil {
			if !errors.Is(err, compose.ErrEmptyContent) {
				a.logger.Warn("generate reply failed", "post_id", post.ID, "err", err)
			}
			out.Skipped++
			continue
		}

		id, err := a.client.CreatePost(ctx, platform.CreatePostInput{Text: text, InReplyTo: post.ID})
		if err != nil {
			a.logger.Warn("send reply failed", "post_id", post.ID, "err", err)
			out.Skipped++
			continue
		}
		budget.Spend()
		out.Actions++
		out.Targets = append(out.Targets, post.ID)
		a.logger.Info("replied", "post_id", post.ID, "reply_id", id)
	}
	return out, nil
}

func hasLink(text string) bool {
	return strings.Contains(text, "http://") || strings.Contains(text, "https://")
}
