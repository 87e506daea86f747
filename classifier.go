package main

import (
	"regexp"
	"strings"

	"composer-server/internal/util"
)

// Content classification patterns
var (
	// gifProviderRegex recognizes Giphy media URLs. An embedded resource
	// matching it locks the composer: no text edit reclassifies until the
	// GIF is explicitly cleared.
	gifProviderRegex = regexp.MustCompile(`(?i)^https?://(?:media\d*\.|i\.)?giphy\.com/`)

	// youtubeRegex matches watch, short-link, shorts and embed URLs. The id
	// is captured greedily and validated for exact length afterwards, so an
	// id of the wrong length falls through to generic link detection.
	youtubeRegex = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?(?:youtube\.com/(?:watch\?v=|shorts/|embed/)|youtu\.be/)([A-Za-z0-9_-]+)`)

	// urlRegex matches the first bare URL in the text
	urlRegex = regexp.MustCompile(`https?://[^\s<>"]+`)
)

// youtubeIDLength is the only id length the video pattern accepts.
const youtubeIDLength = 11

// ClassKind tags a Classification.
type ClassKind int

const (
	ClassNone ClassKind = iota
	ClassGifLocked
	ClassYouTube
	ClassLink
)

func (k ClassKind) String() string {
	switch k {
	case ClassGifLocked:
		return "gif-locked"
	case ClassYouTube:
		return "youtube"
	case ClassLink:
		return "link"
	default:
		return "none"
	}
}

// Classification is the outcome of inspecting the composer text on one input
// event. Exactly one variant applies; the priority is GIF lock, then YouTube,
// then generic link, then none.
type Classification struct {
	Kind ClassKind

	// VideoID is set for ClassYouTube: the captured 11-character id.
	VideoID string

	// URL is the link target: for ClassYouTube the full matched string, for
	// ClassLink the first URL match.
	URL string

	// Raw is the exact matched substring. Re-detecting the same raw string
	// is idempotent: the resolver skips the fetch when Raw equals the raw
	// match that produced the current embed.
	Raw string

	// LineBreak records that the triggering edit was a line break. A
	// line-break edit never reclassifies and never clears existing embed
	// state, so multi-line composition doesn't flicker.
	LineBreak bool
}

// ClassifyInput classifies the full current text of the composer.
// currentEmbed is the embedded resource as it stands before this edit.
func ClassifyInput(text string, lineBreak bool, currentEmbed string) Classification {
	// A selected GIF always wins; detection is suppressed entirely.
	if IsGifEmbed(currentEmbed) {
		return Classification{Kind: ClassGifLocked, Raw: currentEmbed, LineBreak: lineBreak}
	}

	if lineBreak {
		return Classification{Kind: ClassNone, LineBreak: true}
	}

	if m := firstYouTubeMatch(text); m != nil {
		return Classification{
			Kind:    ClassYouTube,
			VideoID: m[1],
			URL:     m[0],
			Raw:     m[0],
		}
	}

	if m := urlRegex.FindString(text); m != "" {
		return Classification{Kind: ClassLink, URL: m, Raw: m}
	}

	return Classification{Kind: ClassNone}
}

// firstYouTubeMatch returns the first YouTube match whose captured id has
// exactly the expected length, or nil.
func firstYouTubeMatch(text string) []string {
	for _, m := range youtubeRegex.FindAllStringSubmatch(text, -1) {
		if len(m[1]) == youtubeIDLength {
			return m
		}
	}
	return nil
}

// IsGifEmbed reports whether an embedded resource value is a GIF-provider URL.
func IsGifEmbed(embed string) bool {
	return embed != "" && gifProviderRegex.MatchString(embed)
}

// IsYouTubeEmbed reports whether an embedded resource value is a YouTube URL
// with a valid id, and returns the id.
func IsYouTubeEmbed(embed string) (string, bool) {
	if embed == "" {
		return "", false
	}
	m := firstYouTubeMatch(embed)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// MentionTerm inspects the last whitespace-delimited token for an "@"
// autocomplete trigger. The lookup fires only once more than two characters
// follow the "@".
func MentionTerm(lastToken string) (string, bool) {
	if !strings.HasPrefix(lastToken, "@") {
		return "", false
	}
	term := lastToken[1:]
	if len(term) <= util.MentionMinChars {
		return "", false
	}
	return term, true
}
