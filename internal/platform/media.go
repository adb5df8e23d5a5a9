package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const maxErrorBody = 512

type mediaUploadResponse struct {
	MediaIDString string `json:"media_id_string"`
}

// UploadMedia uploads an image file through the v1.1 media endpoint and
// returns its media ID.
func (c *Client) UploadMedia(ctx context.Context, path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("upload media: read %q: %w", path, err)
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("media", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("upload media: build form: %w", err)
	}
	if _, err := part.Write(raw); err != nil {
		return "", fmt.Errorf("upload media: write form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("upload media: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL+"/1.1/media/upload.json", &buf)
	if err != nil {
		return "", fmt.Errorf("upload media: build request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload media: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("upload media: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{Op: "upload media", Status: resp.StatusCode, Body: truncateBody(string(body))}
	}

	var parsed mediaUploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("upload media: decode response: %w", err)
	}
	if parsed.MediaIDString == "" {
		return "", errors.New("upload media: response has no media id")
	}
	return parsed.MediaIDString, nil
}

func truncateBody(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return text
}
