package engage

import (
	"context"
	"fmt"
)

// Discovery likes recent posts matching a search query.
type Discovery struct {
	base
}

// NewDiscovery returns the discovery-like agent.
func NewDiscovery(client Client, opts Options) *Discovery {
	return &Discovery{base: newBase(NameDiscovery, client, opts)}
}

// SearchSize is how many results discovery asks for given its limit.
func SearchSize(limit int) int {
	return max(10, min(limit*2, 100))
}

// Run likes search results in order until the budget is spent.
func (a *Discovery) Run(ctx context.Context) (Outcome, error) {
	out := Outcome{Agent: a.name}
	if !a.active() {
		out.Disabled = true
		return out, nil
	}

	selfID := a.selfID(ctx)
	results, err := a.client.SearchRecent(ctx, a.opts.Query, SearchSize(a.opts.Limit))
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
		if isOwn(post, selfID) {
			continue
		}
		if err := a.client.Like(ctx, post.ID); err != nil {
			a.logger.Warn("like failed", "post_id", post.ID, "err", err)
			out.Skipped++
			continue
		}
		budget.Spend()
		out.Actions++
		out.Targets = append(out.Targets, post.ID)
		a.logger.Info("liked discovery post", "post_id", post.ID)
	}
	return out, nil
}
