package main

import (
	"context"
	"log/slog"
	"time"
)

// DraftStore persists unsent composer text per page location, so a draft
// survives navigating away and back. Cleared on successful submit or
// explicit clear.
type DraftStore struct {
	backend CacheBackend
	ttl     time.Duration
}

// NewDraftStore creates a draft store over the shared cache backend.
func NewDraftStore(backend CacheBackend, ttl time.Duration) *DraftStore {
	return &DraftStore{backend: backend, ttl: ttl}
}

// Draft keys follow the original widget's localStorage convention.
func draftKey(page string) string {
	return "draft:activity_" + page
}

// Get returns the stored draft for a page, or "".
func (d *DraftStore) Get(ctx context.Context, page string) string {
	data, found, err := d.backend.Get(ctx, draftKey(page))
	if err != nil {
		slog.Debug("draft get failed", "page", page, "error", err)
		return ""
	}
	if !found {
		return ""
	}
	return string(data)
}

// Set stores the draft text for a page. Called on every keystroke-class
// event, so failures are logged and swallowed.
func (d *DraftStore) Set(ctx context.Context, page, text string) {
	if err := d.backend.Set(ctx, draftKey(page), []byte(text), d.ttl); err != nil {
		slog.Debug("draft set failed", "page", page, "error", err)
	}
}

// Clear removes the draft for a page.
func (d *DraftStore) Clear(ctx context.Context, page string) {
	if err := d.backend.Delete(ctx, draftKey(page)); err != nil {
		slog.Debug("draft clear failed", "page", page, "error", err)
	}
}
