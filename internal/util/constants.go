package util

// External service URLs
const (
	// GiphyAPIBaseURL is the base URL for Giphy API
	GiphyAPIBaseURL = "https://api.giphy.com/v1/gifs"

	// YouTubeDataAPIBaseURL is the base URL for the YouTube Data v3 API
	YouTubeDataAPIBaseURL = "https://www.googleapis.com/youtube/v3"

	// YouTubeThumbBaseURL is the base URL for video thumbnails; the default
	// thumbnail for a video id is <base>/<id>/default.jpg
	YouTubeThumbBaseURL = "https://img.youtube.com/vi"

	// YouTubeWatchBaseURL is the canonical watch URL prefix
	YouTubeWatchBaseURL = "https://www.youtube.com/watch?v="
)

// Composer limits
const (
	// MinPostLength is the trimmed character floor below which submit stays disabled
	MinPostLength = 5

	// DefaultMaxPostLength is the character ceiling unless overridden by config
	DefaultMaxPostLength = 560

	// MaxPollOptions is the number of poll answer slots
	MaxPollOptions = 5

	// DescriptionLimit is the preview description cutoff; longer descriptions
	// are truncated to this length plus an ellipsis marker
	DescriptionLimit = 200

	// GifSearchLimit is the page size requested from the Giphy search API
	GifSearchLimit = 13

	// MentionMinChars is the number of characters after "@" required before a
	// user-search lookup is issued
	MentionMinChars = 2
)

// PlaceholderPreviewImage is shown when page metadata carries no image.
const PlaceholderPreviewImage = "/static/images/preview-placeholder.png"
