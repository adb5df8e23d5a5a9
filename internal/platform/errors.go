package platform

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	twitter "github.com/g8rswimmer/go-twitter/v2"
)

var (
	// ErrUnauthorized is returned for rejected credentials.
	ErrUnauthorized = errors.New("platform: unauthorized")
	// ErrForbidden is returned when the account may not perform the action.
	ErrForbidden = errors.New("platform: forbidden")
	// ErrNotFound is returned for missing posts or users.
	ErrNotFound = errors.New("platform: not found")
	// ErrRateLimited is returned when the API rate limit is exhausted.
	ErrRateLimited = errors.New("platform: rate limited")
)

// APIError is a non-2xx response from the platform.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: platform API returned %d: %s", e.Op, e.Status, e.Body)
}

// Is maps HTTP status codes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	default:
		return false
	}
}

// wrapError turns go-twitter failures into *APIError so callers can match
// the package sentinels. Transport failures are wrapped as they are.
func wrapError(op string, err error) error {
	var errResp *twitter.ErrorResponse
	if errors.As(err, &errResp) {
		return &APIError{Op: op, Status: errResp.StatusCode, Body: truncateBody(errorDetail(errResp))}
	}
	var httpErr *twitter.HTTPError
	if errors.As(err, &httpErr) {
		return &APIError{Op: op, Status: httpErr.StatusCode, Body: httpErr.Status}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func errorDetail(e *twitter.ErrorResponse) string {
	parts := make([]string, 0, 2)
	for _, s := range []string{e.Title, e.Detail} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ": ")
}
