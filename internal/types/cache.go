package types

// CachedMetadata wraps scraped page metadata for serialization. NotFound
// records that the page was fetched and yielded nothing usable, so repeat
// lookups stay cheap without being mistaken for cache misses.
type CachedMetadata struct {
	Meta      *LinkMetadata `json:"meta,omitempty"`
	FetchedAt int64         `json:"fetched_at"`
	NotFound  bool          `json:"not_found"`
}

// CachedVideoTitle wraps a YouTube title lookup result
type CachedVideoTitle struct {
	Title     string `json:"title"`
	FetchedAt int64  `json:"fetched_at"`
	NotFound  bool   `json:"not_found"`
}

// CachedGifSearch wraps one page of Giphy search results
type CachedGifSearch struct {
	Results   []GifResult `json:"results"`
	FetchedAt int64       `json:"fetched_at"`
}

// CachedUserSearch wraps a users_fetch lookup for mention autocomplete
type CachedUserSearch struct {
	Matches   []UserMatch `json:"matches"`
	FetchedAt int64       `json:"fetched_at"`
}

// Session is the logged-in identity attached to a composer session cookie.
type Session struct {
	ID        string `json:"id"`
	Handle    string `json:"handle"`
	CreatedAt int64  `json:"created_at"`
}
