package platform

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pandausagies/postbot/internal/config"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return newClient(srv.URL, srv.URL, srv.Client())
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(config.PlatformConfig{APIKey: "k"}); err == nil {
		t.Fatalf("expected missing credentials error")
	}
	c, err := New(config.PlatformConfig{
		APIKey:            "k",
		APISecret:         "s",
		AccessToken:       "t",
		AccessTokenSecret: "ts",
		APIURL:            "https://api.x.com/",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if c.api.Host != "https://api.x.com" {
		t.Fatalf("expected trimmed api url, got %q", c.api.Host)
	}
}

func TestCreatePost_WithMediaAndReply(t *testing.T) {
	var gotBody map[string]any
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/2/tweets" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1850","text":"hi"}}`))
	})

	id, err := c.CreatePost(context.Background(), CreatePostInput{
		Text:      "hi",
		MediaIDs:  []string{"m1"},
		InReplyTo: "99",
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if id != "1850" {
		t.Fatalf("expected id 1850, got %q", id)
	}
	if gotBody["text"] != "hi" {
		t.Fatalf("unexpected text in body %v", gotBody)
	}
	media, _ := gotBody["media"].(map[string]any)
	if diff := cmp.Diff([]any{"m1"}, media["media_ids"]); diff != "" {
		t.Fatalf("media ids mismatch (-want +got):\n%s", diff)
	}
	reply, _ := gotBody["reply"].(map[string]any)
	if reply["in_reply_to_tweet_id"] != "99" {
		t.Fatalf("unexpected reply in body %v", gotBody)
	}
}

func TestCreatePost_TextOnlyOmitsOptionalFields(t *testing.T) {
	var gotBody map[string]any
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1","text":"plain"}}`))
	})
	if _, err := c.CreatePost(context.Background(), CreatePostInput{Text: "plain"}); err != nil {
		t.Fatalf("create post: %v", err)
	}
	if gotBody["text"] != "plain" {
		t.Fatalf("unexpected body %v", gotBody)
	}
	for _, key := range []string{"media", "reply"} {
		if _, ok := gotBody[key]; ok {
			t.Fatalf("expected %s to be omitted, got %v", key, gotBody)
		}
	}
}

func TestUploadMedia(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		t.Fatalf("seed image: %v", err)
	}

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1.1/media/upload.json" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		file, header, err := r.FormFile("media")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		if header.Filename != "a.png" || string(body) != "png" {
			t.Fatalf("unexpected upload %q %q", header.Filename, body)
		}
		_, _ = w.Write([]byte(`{"media_id":1,"media_id_string":"777"}`))
	})

	id, err := c.UploadMedia(context.Background(), path)
	if err != nil {
		t.Fatalf("upload media: %v", err)
	}
	if id != "777" {
		t.Fatalf("expected media id 777, got %q", id)
	}
}

func TestUploadMedia_MissingFile(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("no request expected")
	})
	if _, err := c.UploadMedia(context.Background(), filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestUserPostsQuery(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2/users/42/tweets" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		exclude := q.Get("exclude")
		if q.Get("max_results") != "5" || !strings.Contains(exclude, "retweets") || !strings.Contains(exclude, "replies") {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"p1","text":"one","author_id":"42"},{"id":"p2","text":"two","author_id":"42"}]}`))
	})

	posts, err := c.UserPosts(context.Background(), "42", UserPostsOptions{MaxResults: 1, ExcludeReplies: true, ExcludeRetweets: true})
	if err != nil {
		t.Fatalf("user posts: %v", err)
	}
	want := []Post{{ID: "p1", Text: "one", AuthorID: "42"}, {ID: "p2", Text: "two", AuthorID: "42"}}
	if diff := cmp.Diff(want, posts); diff != "" {
		t.Fatalf("posts mismatch (-want +got):\n%s", diff)
	}
}

func TestUserPosts_EmptyDataIsEmpty(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta":{"result_count":0}}`))
	})
	posts, err := c.UserPosts(context.Background(), "42", UserPostsOptions{MaxResults: 5})
	if err != nil {
		t.Fatalf("user posts: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("expected no posts, got %v", posts)
	}
}

func TestLikeResolvesMeOnce(t *testing.T) {
	meCalls := 0
	var liked []string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/2/users/me":
			meCalls++
			_, _ = w.Write([]byte(`{"data":{"id":"7","username":"pandausagies"}}`))
		case r.URL.Path == "/2/users/7/likes" && r.Method == http.MethodPost:
			var body struct {
				TweetID string `json:"tweet_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			liked = append(liked, body.TweetID)
			_, _ = w.Write([]byte(`{"data":{"liked":true}}`))
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	for _, id := range []string{"a", "b"} {
		if err := c.Like(context.Background(), id); err != nil {
			t.Fatalf("like %s: %v", id, err)
		}
	}
	if meCalls != 1 {
		t.Fatalf("expected me to be cached, got %d calls", meCalls)
	}
	if diff := cmp.Diff([]string{"a", "b"}, liked); diff != "" {
		t.Fatalf("liked mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchRecentClampsMaxResults(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("query") != "バンド -is:retweet lang:ja" {
			t.Fatalf("unexpected query %q", q.Get("query"))
		}
		if q.Get("max_results") != "10" {
			t.Fatalf("expected max_results clamped to 10, got %q", q.Get("max_results"))
		}
		if !strings.Contains(q.Get("tweet.fields"), "author_id") {
			t.Fatalf("expected author_id field, got %q", q.Get("tweet.fields"))
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"s1","text":"t","author_id":"9"}]}`))
	})

	posts, err := c.SearchRecent(context.Background(), "バンド -is:retweet lang:ja", 4)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != "s1" {
		t.Fatalf("unexpected posts %v", posts)
	}
}

func TestAPIErrorKinds(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusTooManyRequests, ErrRateLimited},
	}
	for _, tc := range tests {
		c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"title":"nope"}`, tc.status)
		})
		_, err := c.LikingUsers(context.Background(), "1", 20)
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Op != "liking users" {
			t.Fatalf("status %d: expected APIError with op, got %v", tc.status, err)
		}
	}
}

func TestLikeErrorKeepsKind(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/2/users/me" {
			_, _ = w.Write([]byte(`{"data":{"id":"7","username":"pandausagies"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"title":"Forbidden","detail":"not allowed","type":"about:blank"}`))
	})

	err := c.Like(context.Background(), "a")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Op != "like" || !strings.Contains(apiErr.Body, "not allowed") {
		t.Fatalf("expected like APIError with detail, got %v", err)
	}
}

func TestUploadMediaErrorStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		t.Fatalf("seed image: %v", err)
	}
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})
	if _, err := c.UploadMedia(context.Background(), path); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestPermalink(t *testing.T) {
	if got := Permalink("123"); got != "https://x.com/i/web/status/123" {
		t.Fatalf("unexpected permalink %q", got)
	}
}
