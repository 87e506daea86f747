package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"composer-server/internal/types"
	"composer-server/internal/util"
)

// GiphyClient handles communication with the Giphy API
type GiphyClient struct {
	apiKey string
	client *http.Client
}

// giphyResponse represents the JSON response from Giphy API
type giphyResponse struct {
	Data []giphyGif `json:"data"`
}

type giphyGif struct {
	Slug   string      `json:"slug"`
	Title  string      `json:"title"`
	Images giphyImages `json:"images"`
}

type giphyImages struct {
	Original             giphyImage `json:"original"`
	FixedWidthDownsample giphyImage `json:"fixed_width_downsampled"`
}

type giphyImage struct {
	Webp   string `json:"webp"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

// NewGiphyClient creates a new Giphy API client
func NewGiphyClient(apiKey string) *GiphyClient {
	return &GiphyClient{
		apiKey: apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
	}
}

// Search searches for GIFs matching the query. Results carry the original
// webp (the value that becomes the embedded resource on selection) and the
// downsampled webp for the picker grid.
func (c *GiphyClient) Search(ctx context.Context, query string) ([]types.GifResult, error) {
	if c == nil {
		return nil, fmt.Errorf("giphy client not initialized")
	}

	apiURL := util.BuildURL(util.GiphyAPIBaseURL+"/search", map[string]string{
		"limit":   strconv.Itoa(util.GifSearchLimit),
		"api_key": c.apiKey,
		"offset":  "0",
		"rating":  "G",
		"lang":    "en",
		"q":       query,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("giphy request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("giphy API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("giphy API returned status %d", resp.StatusCode)
	}

	var giphyResp giphyResponse
	if err := json.NewDecoder(resp.Body).Decode(&giphyResp); err != nil {
		return nil, fmt.Errorf("failed to decode giphy response: %w", err)
	}

	results := make([]types.GifResult, 0, len(giphyResp.Data))
	for _, gif := range giphyResp.Data {
		results = append(results, types.GifResult{
			Slug:     gif.Slug,
			Title:    gif.Title,
			URL:      gif.Images.Original.Webp,
			ThumbURL: gif.Images.FixedWidthDownsample.Webp,
		})
	}

	return results, nil
}
