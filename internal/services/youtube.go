package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"composer-server/internal/util"
)

// YouTubeClient fetches video metadata from the YouTube Data v3 API.
type YouTubeClient struct {
	apiKey string
	client *http.Client
}

// videosResponse is the trimmed Data API response; the request asks only for
// items(snippet(title)) so nothing else comes back.
type videosResponse struct {
	Items []struct {
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	} `json:"items"`
}

// NewYouTubeClient creates a new YouTube Data API client
func NewYouTubeClient(apiKey string) *YouTubeClient {
	return &YouTubeClient{
		apiKey: apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// VideoTitle looks up the title for a video id. An unknown or removed video
// returns ("", nil): an empty result is not an error, the caller clears the
// preview silently.
func (c *YouTubeClient) VideoTitle(ctx context.Context, videoID string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("youtube client not initialized")
	}

	apiURL := util.BuildURL(util.YouTubeDataAPIBaseURL+"/videos", map[string]string{
		"key":    c.apiKey,
		"fields": "items(snippet(title))",
		"part":   "snippet",
		"id":     videoID,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("youtube request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("youtube API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("youtube API returned status %d", resp.StatusCode)
	}

	var videos videosResponse
	if err := json.NewDecoder(resp.Body).Decode(&videos); err != nil {
		return "", fmt.Errorf("failed to decode youtube response: %w", err)
	}

	if len(videos.Items) == 0 {
		return "", nil
	}
	return videos.Items[0].Snippet.Title, nil
}

// ThumbnailURL returns the deterministic default thumbnail for a video id.
func ThumbnailURL(videoID string) string {
	return util.YouTubeThumbBaseURL + "/" + videoID + "/default.jpg"
}
