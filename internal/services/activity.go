package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"composer-server/internal/types"
	"composer-server/internal/util"
)

// ActivityClient talks to the upstream activity API: status submission,
// user search for mention autocomplete and feed pages.
type ActivityClient struct {
	baseURL string
	client  *http.Client
}

// NewActivityClient creates a client for the upstream activity API.
func NewActivityClient(baseURL string) *ActivityClient {
	return &ActivityClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
}

// BaseURL returns the configured upstream base URL.
func (c *ActivityClient) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL
}

// PostActivity sends a prepared multipart submission body to the activity
// endpoint and returns the HTTP status. Anything but 200 counts as a failed
// submission; the caller rolls the composer back.
func (c *ActivityClient) PostActivity(ctx context.Context, body []byte, contentType string) (int, error) {
	if c == nil || c.baseURL == "" {
		return 0, fmt.Errorf("activity client not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v0.1/activity", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("activity request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("activity submission failed: %w", err)
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}

// usersFetchResponse mirrors the upstream users_fetch payload.
type usersFetchResponse struct {
	Data []types.UserMatch `json:"data"`
}

// SearchUsers looks up handles for the "@"-mention dropdown.
func (c *ActivityClient) SearchUsers(ctx context.Context, term string) ([]types.UserMatch, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("activity client not configured")
	}

	apiURL := util.BuildURL(c.baseURL+"/api/v0.1/users_fetch/", map[string]string{
		"search": term,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("users_fetch request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("users_fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("users_fetch returned status %d", resp.StatusCode)
	}

	var parsed usersFetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode users_fetch response: %w", err)
	}
	return parsed.Data, nil
}

// feedPageResponse mirrors the upstream activities page payload.
type feedPageResponse struct {
	Data    []types.FeedItem `json:"data"`
	HasNext bool             `json:"has_next"`
}

// FeedPage fetches one page of the activity feed.
func (c *ActivityClient) FeedPage(ctx context.Context, tab string, page int) ([]types.FeedItem, bool, error) {
	if c == nil || c.baseURL == "" {
		return nil, false, fmt.Errorf("activity client not configured")
	}

	apiURL := util.BuildURL(c.baseURL+"/api/v0.1/activities", map[string]string{
		"tab":  tab,
		"page": strconv.Itoa(page),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("activities request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("activities fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("activities returned status %d", resp.StatusCode)
	}

	var parsed feedPageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, false, fmt.Errorf("failed to decode activities response: %w", err)
	}
	return parsed.Data, parsed.HasNext, nil
}
