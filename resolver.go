package main

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"composer-server/internal/services"
	"composer-server/internal/types"
	"composer-server/internal/util"
)

// Singleflight groups for deduplicating concurrent lookups. Rapid typing
// fires an input event per keystroke with no debounce, so the same URL or
// video id is routinely requested many times at once; only one fetch runs
// and the rest share its result.
var (
	videoTitleGroup singleflight.Group
	metadataGroup   singleflight.Group
)

// resolveYouTube fetches the video title and commits the preview. The commit
// is guarded by seq: if another input event classified after this one was
// issued, the session's sequence has moved on and this result is dropped.
func (c *Composer) resolveYouTube(ctx context.Context, sessionID string, seq uint64, cls Classification) (*types.ComposerState, error) {
	title, err := c.lookupVideoTitle(ctx, cls.VideoID)
	if err != nil {
		slog.Debug("video lookup failed", "video_id", cls.VideoID, "error", err)
		title = ""
	}

	return c.states.Update(ctx, sessionID, func(s *types.ComposerState) {
		if s.Seq != seq {
			IncrementStaleResolve()
			return
		}
		if title == "" {
			// remote-fetch-empty: clear silently
			s.Embed = ""
			s.EmbedRaw = ""
			s.Panel = types.PreviewPanel{}
			return
		}
		s.Embed = cls.URL
		s.EmbedRaw = cls.Raw
		s.Panel = types.PreviewPanel{
			Visible:  true,
			Title:    title,
			Provider: "Youtube",
			Image:    services.ThumbnailURL(cls.VideoID),
		}
		s.GifPanel = types.GifPanel{}
	})
}

// resolveLink fetches page metadata and commits the preview under the same
// sequence guard.
func (c *Composer) resolveLink(ctx context.Context, sessionID string, seq uint64, cls Classification) (*types.ComposerState, error) {
	meta, err := c.lookupMetadata(ctx, cls.URL)
	if err != nil {
		slog.Debug("metadata lookup failed", "url", cls.URL, "error", err)
		meta = nil
	}
	if meta != nil {
		slog.Debug("link preview resolved", "url", cls.URL,
			"title", util.TruncateString(meta.Title, 80))
	}

	return c.states.Update(ctx, sessionID, func(s *types.ComposerState) {
		if s.Seq != seq {
			IncrementStaleResolve()
			return
		}
		if meta == nil {
			s.Embed = ""
			s.EmbedRaw = ""
			s.Panel = types.PreviewPanel{}
			return
		}

		panel := types.PreviewPanel{
			Visible:     true,
			Title:       meta.Title,
			Provider:    meta.Link,
			Description: util.TruncateDescription(meta.Description, util.DescriptionLimit),
			Image:       meta.Image,
		}
		if panel.Image == "" {
			panel.Image = util.PlaceholderPreviewImage
			panel.Padded = true
		}

		s.Embed = cls.URL
		s.EmbedRaw = cls.Raw
		s.Panel = panel
	})
}

// lookupVideoTitle resolves a video title through cache and singleflight.
func (c *Composer) lookupVideoTitle(ctx context.Context, videoID string) (string, error) {
	if title, notFound, ok := videoTitleCache.Get(videoID); ok {
		IncrementCacheHit()
		if notFound {
			return "", nil
		}
		return title, nil
	}
	IncrementCacheMiss()

	result, err, shared := videoTitleGroup.Do(videoID, func() (interface{}, error) {
		title, err := c.youtube.VideoTitle(ctx, videoID)
		if err != nil {
			return nil, err
		}
		videoTitleCache.Set(videoID, title)
		return title, nil
	})
	if shared {
		slog.Debug("singleflight: shared video lookup", "video_id", videoID)
	}
	if err != nil {
		return "", fmt.Errorf("video title %s: %w", videoID, err)
	}
	return result.(string), nil
}

// lookupMetadata resolves page metadata through cache and singleflight.
// Returns (nil, nil) for a page that yields nothing usable.
func (c *Composer) lookupMetadata(ctx context.Context, url string) (*types.LinkMetadata, error) {
	if meta, notFound, ok := metadataCache.Get(url); ok {
		IncrementCacheHit()
		if notFound {
			return nil, nil
		}
		return meta, nil
	}
	IncrementCacheMiss()

	result, err, shared := metadataGroup.Do(url, func() (interface{}, error) {
		meta, err := c.scraper.Scrape(ctx, url)
		if err != nil {
			return nil, err
		}
		if meta == nil {
			metadataCache.SetNotFound(url)
		} else {
			metadataCache.Set(url, meta)
		}
		return meta, nil
	})
	if shared {
		slog.Debug("singleflight: shared metadata lookup", "url", url)
	}
	if err != nil {
		return nil, fmt.Errorf("metadata %s: %w", url, err)
	}
	meta, _ := result.(*types.LinkMetadata)
	return meta, nil
}
