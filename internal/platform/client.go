// Package platform is a small X API client covering the calls postbot
// makes: posting, media upload, timelines, likes and recent search.
package platform

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/dghubble/oauth1"
	twitter "github.com/g8rswimmer/go-twitter/v2"

	"github.com/pandausagies/postbot/internal/config"
)

// Client calls the X API v2 through go-twitter and the v1.1 media endpoint
// directly. Every request is signed with OAuth 1.0a user-context credentials.
type Client struct {
	api        *twitter.Client
	uploadURL  string
	httpClient *http.Client

	meMu sync.Mutex
	me   *User
}

// signedTransport satisfies twitter.Authorizer. The oauth1 HTTP client signs
// requests, so nothing is added here.
type signedTransport struct{}

func (signedTransport) Add(*http.Request) {}

// New builds a client signing every request with the four static credentials.
func New(cfg config.PlatformConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	oauthConfig := oauth1.NewConfig(cfg.APIKey, cfg.APISecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessTokenSecret)
	return newClient(cfg.APIURL, cfg.UploadURL, oauthConfig.Client(context.Background(), token)), nil
}

func newClient(apiURL, uploadURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		api: &twitter.Client{
			Authorizer: signedTransport{},
			Client:     httpClient,
			Host:       strings.TrimRight(apiURL, "/"),
		},
		uploadURL:  strings.TrimRight(uploadURL, "/"),
		httpClient: httpClient,
	}
}

// Me returns the authenticated account. The result is cached for the
// lifetime of the client.
func (c *Client) Me(ctx context.Context) (User, error) {
	c.meMu.Lock()
	defer c.meMu.Unlock()
	if c.me != nil {
		return *c.me, nil
	}

	resp, err := c.api.AuthUserLookup(ctx, twitter.UserLookupOpts{})
	if err != nil {
		return User{}, wrapError("get me", err)
	}
	if resp.Raw == nil || len(resp.Raw.Users) == 0 || resp.Raw.Users[0] == nil || resp.Raw.Users[0].ID == "" {
		return User{}, errors.New("get me: response has no user id")
	}
	me := userFrom(resp.Raw.Users[0])
	c.me = &me
	return me, nil
}

// CreatePost publishes a post or reply and returns its ID.
func (c *Client) CreatePost(ctx context.Context, in CreatePostInput) (string, error) {
	if strings.TrimSpace(in.Text) == "" {
		return "", errors.New("create post: text is required")
	}
	req := twitter.CreateTweetRequest{Text: in.Text}
	if len(in.MediaIDs) > 0 {
		req.Media = &twitter.CreateTweetMedia{IDs: in.MediaIDs}
	}
	if in.InReplyTo != "" {
		req.Reply = &twitter.CreateTweetReply{InReplyToTweetID: in.InReplyTo}
	}

	resp, err := c.api.CreateTweet(ctx, req)
	if err != nil {
		return "", wrapError("create post", err)
	}
	if resp.Tweet == nil || resp.Tweet.ID == "" {
		return "", errors.New("create post: response has no post id")
	}
	return resp.Tweet.ID, nil
}

// UserPosts returns a user's most recent posts, newest first.
func (c *Client) UserPosts(ctx context.Context, userID string, opts UserPostsOptions) ([]Post, error) {
	timelineOpts := twitter.UserTweetTimelineOpts{
		MaxResults:  clamp(opts.MaxResults, 5, 100),
		TweetFields: []twitter.TweetField{twitter.TweetFieldAuthorID},
	}
	if opts.ExcludeRetweets {
		timelineOpts.Excludes = append(timelineOpts.Excludes, twitter.ExcludeRetweets)
	}
	if opts.ExcludeReplies {
		timelineOpts.Excludes = append(timelineOpts.Excludes, twitter.ExcludeReplies)
	}

	resp, err := c.api.UserTweetTimeline(ctx, userID, timelineOpts)
	if err != nil {
		return nil, wrapError("user posts", err)
	}
	return postsFrom(resp.Raw), nil
}

// LikingUsers returns accounts that liked a post.
func (c *Client) LikingUsers(ctx context.Context, postID string, maxResults int) ([]User, error) {
	resp, err := c.api.TweetLikesLookup(ctx, postID, twitter.TweetLikesLookupOpts{
		MaxResults: clamp(maxResults, 1, 100),
	})
	if err != nil {
		return nil, wrapError("liking users", err)
	}
	if resp.Raw == nil {
		return nil, nil
	}
	users := make([]User, 0, len(resp.Raw.Users))
	for _, u := range resp.Raw.Users {
		if u != nil {
			users = append(users, userFrom(u))
		}
	}
	return users, nil
}

// Like likes a post as the authenticated account.
func (c *Client) Like(ctx context.Context, postID string) error {
	me, err := c.Me(ctx)
	if err != nil {
		return err
	}
	if _, err := c.api.UserLikes(ctx, me.ID, postID); err != nil {
		return wrapError("like", err)
	}
	return nil
}

// SearchRecent runs a recent-search query in platform query syntax.
func (c *Client) SearchRecent(ctx context.Context, query string, maxResults int) ([]Post, error) {
	resp, err := c.api.TweetRecentSearch(ctx, query, twitter.TweetRecentSearchOpts{
		MaxResults:  clamp(maxResults, 10, 100),
		TweetFields: []twitter.TweetField{twitter.TweetFieldAuthorID},
	})
	if err != nil {
		return nil, wrapError("search recent", err)
	}
	return postsFrom(resp.Raw), nil
}

func userFrom(u *twitter.UserObj) User {
	return User{ID: u.ID, Username: u.UserName, Name: u.Name}
}

func postsFrom(raw *twitter.TweetRaw) []Post {
	if raw == nil {
		return nil
	}
	posts := make([]Post, 0, len(raw.Tweets))
	for _, t := range raw.Tweets {
		if t != nil {
			posts = append(posts, Post{ID: t.ID, Text: t.Text, AuthorID: t.AuthorID})
		}
	}
	return posts
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
