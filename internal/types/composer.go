package types

import "time"

// PreviewPanel is the derived display state for a link or video embed.
// It must be hidden (Visible=false) whenever the embedded resource is empty.
type PreviewPanel struct {
	Visible     bool   `json:"visible"`
	Title       string `json:"title,omitempty"`
	Provider    string `json:"provider,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`

	// Padded marks the placeholder treatment used when the page metadata
	// carried no image of its own.
	Padded bool `json:"padded,omitempty"`
}

// GifPanel is the display state for a selected GIF. It is a distinct panel
// from the link/video preview and the two are never shown together.
type GifPanel struct {
	Visible bool   `json:"visible"`
	URL     string `json:"url,omitempty"`
}

// PollOptions holds up to five optional free-text poll answers. Present only
// while the poll UI is toggled on; discarded on submit.
type PollOptions struct {
	Options [5]string `json:"options"`
}

// NonEmpty returns the poll answers that actually carry text, in order.
func (p *PollOptions) NonEmpty() []string {
	if p == nil {
		return nil
	}
	var out []string
	for _, opt := range p.Options {
		if opt != "" {
			out = append(out, opt)
		}
	}
	return out
}

// VideoDecoration is the optional decorative graphic selected via the video
// toggle. Present only while toggled on; discarded on submit.
type VideoDecoration struct {
	Gfx int `json:"gfx"`
}

// ComposerState is the full per-session composer state. It is JSON-encoded
// for the Redis-backed session store, so every field that matters across
// requests must serialize.
type ComposerState struct {
	// Text is the current draft text as last reported by the client.
	Text string `json:"text"`

	// Embed is the single embedded resource candidate: a GIF URL, a YouTube
	// watch URL or a generic page URL. Empty means nothing is attached.
	Embed string `json:"embed,omitempty"`

	// EmbedRaw is the raw matched substring that produced Embed. Re-detection
	// of the same raw string is idempotent and triggers no new fetch.
	EmbedRaw string `json:"embed_raw,omitempty"`

	// Seq increases on every classification event. Resolver results carry the
	// sequence they were issued under and are discarded when stale.
	Seq uint64 `json:"seq"`

	Panel    PreviewPanel `json:"panel"`
	GifPanel GifPanel     `json:"gif_panel"`

	Poll  *PollOptions     `json:"poll,omitempty"`
	Video *VideoDecoration `json:"video,omitempty"`

	// Mention dropdown state for the "@" autocomplete.
	MentionTerm   string      `json:"mention_term,omitempty"`
	Mentions      []UserMatch `json:"mentions,omitempty"`
	MentionHideAt time.Time   `json:"mention_hide_at,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// MentionsVisible reports whether the dropdown should currently render,
// honoring the blur grace delay that lets a dropdown click land first.
func (s *ComposerState) MentionsVisible(now time.Time) bool {
	if s.MentionTerm == "" || len(s.Mentions) == 0 {
		return false
	}
	if !s.MentionHideAt.IsZero() && now.After(s.MentionHideAt) {
		return false
	}
	return true
}

// UserMatch is one "@"-mention autocomplete suggestion.
type UserMatch struct {
	AvatarURL string `json:"avatar_url"`
	Handle    string `json:"handle"`
}

// GifResult is a single GIF search hit, mapped from the Giphy response.
type GifResult struct {
	Slug     string `json:"slug"`
	Title    string `json:"title,omitempty"`
	URL      string `json:"url"`       // original webp, used as the embed value
	ThumbURL string `json:"thumb_url"` // fixed_width_downsampled webp for the picker grid
}

// LinkMetadata is the scraped page metadata served by /service/metadata/
// and consumed by the preview resolver. Link is the canonical page URL and
// doubles as the displayed provider label.
type LinkMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Link        string `json:"link"`
}

// Empty reports whether the scrape produced nothing usable.
func (m *LinkMetadata) Empty() bool {
	return m == nil || (m.Title == "" && m.Description == "")
}

// FeedItem is one rendered activity in the feed list.
type FeedItem struct {
	ID         int64  `json:"id"`
	Handle     string `json:"handle"`
	Text       string `json:"text"`
	TextHTML   string `json:"text_html,omitempty"`
	Resource   string `json:"resource,omitempty"`
	ResourceID string `json:"resource_id,omitempty"`
	Title      string `json:"title,omitempty"`
	Image      string `json:"image,omitempty"`
	CreatedAt  int64  `json:"created_at"`
}
