package platform

// Post is a platform post as returned by the v2 API.
type Post struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	AuthorID string `json:"author_id"`
}

// User is a platform account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// CreatePostInput is the body of a new post or reply.
type CreatePostInput struct {
	Text      string
	MediaIDs  []string
	InReplyTo string
}

// UserPostsOptions narrows a user timeline fetch.
type UserPostsOptions struct {
	MaxResults      int
	ExcludeReplies  bool
	ExcludeRetweets bool
}

// Permalink returns the public URL for a post ID.
func Permalink(postID string) string {
	return "https://x.com/i/web/status/" + postID
}
