package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"composer-server/internal/config"
	"composer-server/internal/services"
	"composer-server/internal/types"
	"composer-server/internal/util"
)

// mentionGraceDelay keeps the mention dropdown alive briefly after blur so a
// click on a suggestion can land before the list disappears.
const mentionGraceDelay = 300 * time.Millisecond

// Composer owns the per-session composition state and the classify/resolve
// pipeline that runs on every input event. All external dependencies come in
// through the constructor; there is no ambient configuration.
type Composer struct {
	cfg      config.Config
	giphy    *services.GiphyClient
	youtube  *services.YouTubeClient
	scraper  *services.MetadataScraper
	upstream *services.ActivityClient
	states   StateStore
	drafts   *DraftStore
}

// NewComposer wires a composer from explicit dependencies.
func NewComposer(cfg config.Config, giphy *services.GiphyClient, youtube *services.YouTubeClient, scraper *services.MetadataScraper, upstream *services.ActivityClient, states StateStore, drafts *DraftStore) *Composer {
	return &Composer{
		cfg:      cfg,
		giphy:    giphy,
		youtube:  youtube,
		scraper:  scraper,
		upstream: upstream,
		states:   states,
		drafts:   drafts,
	}
}

// InputResult is the composer's answer to one input event.
type InputResult struct {
	Classification string               `json:"classification"`
	State          *types.ComposerState `json:"state"`
	SubmitEnabled  bool                 `json:"submit_enabled"`
}

// OnInput handles one edit of the composer text: persist the draft, classify
// the content, resolve any preview, and refresh mention suggestions.
func (c *Composer) OnInput(ctx context.Context, sessionID, page, text string, lineBreak bool) (*InputResult, error) {
	// The draft cache tracks the visible text on every keystroke-class event.
	c.drafts.Set(ctx, page, text)

	var cls Classification
	var seq uint64

	state, err := c.states.Update(ctx, sessionID, func(s *types.ComposerState) {
		s.Text = text
		cls = ClassifyInput(text, lineBreak, s.Embed)

		// Every classification event advances the sequence, so any resolver
		// still in flight for an older edit commits against a stale number
		// and gets dropped.
		s.Seq++
		seq = s.Seq

		if cls.Kind == ClassNone {
			s.Panel.Description = ""
			if !lineBreak {
				s.Embed = ""
				s.EmbedRaw = ""
				s.Panel = types.PreviewPanel{}
			}
		}
	})
	if err != nil {
		return nil, err
	}

	switch cls.Kind {
	case ClassGifLocked:
		// Selected GIF wins; nothing to resolve.
	case ClassYouTube:
		if cls.Raw == state.EmbedRaw {
			break // same match as last time, skip the fetch
		}
		state, err = c.resolveYouTube(ctx, sessionID, seq, cls)
		if err != nil {
			return nil, err
		}
	case ClassLink:
		if cls.Raw == state.EmbedRaw {
			break
		}
		state, err = c.resolveLink(ctx, sessionID, seq, cls)
		if err != nil {
			return nil, err
		}
	}

	state, err = c.refreshMentions(ctx, sessionID, text, state)
	if err != nil {
		return nil, err
	}

	return c.result(cls, state), nil
}

// refreshMentions updates the "@" dropdown for the last token of the text.
func (c *Composer) refreshMentions(ctx context.Context, sessionID, text string, state *types.ComposerState) (*types.ComposerState, error) {
	term, ok := MentionTerm(util.LastToken(text))
	if !ok {
		if state.MentionTerm == "" {
			return state, nil
		}
		return c.states.Update(ctx, sessionID, func(s *types.ComposerState) {
			s.MentionTerm = ""
			s.Mentions = nil
			s.MentionHideAt = time.Time{}
		})
	}

	if term == state.MentionTerm {
		return state, nil
	}

	matches := c.lookupUsers(ctx, term)
	return c.states.Update(ctx, sessionID, func(s *types.ComposerState) {
		s.MentionTerm = term
		s.Mentions = matches
		s.MentionHideAt = time.Time{}
	})
}

// lookupUsers resolves mention suggestions, serving repeated lookups from
// cache. A failed lookup yields an empty dropdown, not an error.
func (c *Composer) lookupUsers(ctx context.Context, term string) []types.UserMatch {
	if matches, ok := userSearchCache.Get(term); ok {
		IncrementCacheHit()
		return matches
	}
	IncrementCacheMiss()

	matches, err := c.upstream.SearchUsers(ctx, term)
	if err != nil {
		slog.Debug("user search failed", "term", term, "error", err)
		return nil
	}
	userSearchCache.Set(term, matches)
	return matches
}

// Blur schedules the mention dropdown to hide after the grace delay.
func (c *Composer) Blur(ctx context.Context, sessionID string) (*types.ComposerState, error) {
	return c.states.Update(ctx, sessionID, func(s *types.ComposerState) {
		if s.MentionTerm != "" {
			s.MentionHideAt = time.Now().Add(mentionGraceDelay)
		}
	})
}

// SelectGif attaches a GIF to the post. This is a direct user action that
// bypasses classification: the embed is set immediately and locks out link
// and video detection until cleared.
func (c *Composer) SelectGif(ctx context.Context, sessionID, gifURL string) (*types.ComposerState, error) {
	return c.states.Update(ctx, sessionID, func(s *types.ComposerState) {
		s.Seq++
		s.Embed = gifURL
		s.EmbedRaw = gifURL
		s.GifPanel = types.GifPanel{Visible: true, URL: gifURL}
		s.Panel = types.PreviewPanel{}
	})
}

// ClearGif releases the GIF lock and hides the GIF panel.
func (c *Composer) ClearGif(ctx context.Context, sessionID string) (*types.ComposerState, error) {
	return c.states.Update(ctx, sessionID, func(s *types.ComposerState) {
		if !IsGifEmbed(s.Embed) {
			return
		}
		s.Seq++
		s.Embed = ""
		s.EmbedRaw = ""
		s.GifPanel = types.GifPanel{}
	})
}

// SearchGifs proxies a picker search to Giphy with caching.
func (c *Composer) SearchGifs(ctx context.Context, query string) ([]types.GifResult, error) {
	key := gifSearchKey(query)
	if results, ok := gifSearchCache.Get(key); ok {
		IncrementCacheHit()
		return results, nil
	}
	IncrementCacheMiss()

	results, err := c.giphy.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	gifSearchCache.Set(key, results)
	return results, nil
}

// gifSearchKey normalizes a search query into a stable cache key so that
// word order and case don't fragment the cache.
func gifSearchKey(query string) string {
	words := util.SortedCopy(strings.Fields(strings.ToLower(query)))
	return strings.Join(words, " ")
}

// TogglePoll switches the poll UI on or off. Turning it off discards any
// entered options.
func (c *Composer) TogglePoll(ctx context.Context, sessionID string, on bool) (*types.ComposerState, error) {
	return c.states.Update(ctx, sessionID, func(s *types.ComposerState) {
		if on {
			if s.Poll == nil {
				s.Poll = &types.PollOptions{}
			}
		} else {
			s.Poll = nil
		}
	})
}

// SetPollOption records one poll answer. Slots outside 0..4 are ignored, as
// is input while the poll UI is off.
func (c *Composer) SetPollOption(ctx context.Context, sessionID string, slot int, text string) (*types.ComposerState, error) {
	return c.states.Update(ctx, sessionID, func(s *types.ComposerState) {
		if s.Poll == nil || slot < 0 || slot >= util.MaxPollOptions {
			return
		}
		s.Poll.Options[slot] = text
	})
}

// ToggleVideo switches the video decoration on (with the selected graphic)
// or off.
func (c *Composer) ToggleVideo(ctx context.Context, sessionID string, on bool, gfx int) (*types.ComposerState, error) {
	return c.states.Update(ctx, sessionID, func(s *types.ComposerState) {
		if on {
			s.Video = &types.VideoDecoration{Gfx: gfx}
		} else {
			s.Video = nil
		}
	})
}

// State returns the current composer state for a session, never nil.
func (c *Composer) State(ctx context.Context, sessionID string) (*types.ComposerState, error) {
	state, err := c.states.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = &types.ComposerState{}
	}
	return state, nil
}

// submitEnabled mirrors the submit control's disabled guard.
func (c *Composer) submitEnabled(text string) bool {
	trimmed := strings.TrimSpace(text)
	n := len([]rune(trimmed))
	return n >= util.MinPostLength && n <= c.cfg.MaxPostLength
}

func (c *Composer) result(cls Classification, state *types.ComposerState) *InputResult {
	return &InputResult{
		Classification: cls.Kind.String(),
		State:          state,
		SubmitEnabled:  c.submitEnabled(state.Text),
	}
}
