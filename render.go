package main

import (
	"bytes"
	"html"
	"log/slog"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// activityMarkdown renders feed text. Hard wraps keep single newlines
// visible the way they were typed in the composer.
var activityMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
	// Unsafe lets the mention anchors through; bluemonday strips
	// everything else afterwards.
	goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps(), goldmarkhtml.WithUnsafe()),
)

// activityPolicy sanitizes rendered activity HTML. User text is
// untrusted input even after markdown rendering.
var activityPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("a", "span")
	p.RequireNoFollowOnLinks(true)
	return p
}()

var mentionPattern = regexp.MustCompile(`(^|\s)@([A-Za-z0-9_-]{2,})`)

// linkMentions wraps @handle references in profile links before
// markdown rendering so they survive sanitization as plain anchors.
func linkMentions(text string) string {
	return mentionPattern.ReplaceAllString(text, `$1<a class="mention" href="/profile/$2">@$2</a>`)
}

// renderActivityText converts raw activity text to sanitized HTML
func renderActivityText(text string) string {
	if text == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := activityMarkdown.Convert([]byte(linkMentions(text)), &buf); err != nil {
		slog.Debug("activity render failed, falling back to escaped text", "error", err)
		return "<p>" + html.EscapeString(text) + "</p>"
	}

	return activityPolicy.Sanitize(buf.String())
}
