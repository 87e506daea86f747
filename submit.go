package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"composer-server/internal/types"
	"composer-server/internal/util"
)

// Submission guard errors. ErrSubmitDisabled is the silent local-validation
// block; ErrAuthRequired surfaces a login prompt.
var (
	ErrSubmitDisabled = errors.New("submit control disabled")
	ErrAuthRequired   = errors.New("login required to post")
)

// Resource is the tagged attachment variant serialized into a submission.
// Exactly one variant (or none) applies to a post.
type Resource interface {
	appendFields(w *multipart.Writer) error
}

// GifResource carries only the GIF URL.
type GifResource struct {
	ID string
}

func (r GifResource) appendFields(w *multipart.Writer) error {
	return writeFields(w, map[string]string{
		"resource":         "gif",
		"resourceProvider": "giphy",
		"resourceId":       r.ID,
	})
}

// VideoResource carries the video id plus the displayed panel text.
type VideoResource struct {
	ID          string
	Title       string
	Description string
	Image       string
}

func (r VideoResource) appendFields(w *multipart.Writer) error {
	return writeFields(w, map[string]string{
		"resource":         "video",
		"resourceProvider": "youtube",
		"resourceId":       r.ID,
		"title":            r.Title,
		"description":      r.Description,
		"image":            r.Image,
	})
}

// ContentResource carries a generic page URL with its panel metadata.
type ContentResource struct {
	URL         string
	Provider    string
	Title       string
	Description string
	Image       string
}

func (r ContentResource) appendFields(w *multipart.Writer) error {
	return writeFields(w, map[string]string{
		"resource":         "content",
		"resourceProvider": r.Provider,
		"resourceId":       r.URL,
		"title":            r.Title,
		"description":      r.Description,
		"image":            r.Image,
	})
}

func writeFields(w *multipart.Writer, fields map[string]string) error {
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return fmt.Errorf("write field %s: %w", name, err)
		}
	}
	return nil
}

// classifyResource derives the tagged resource variant from the composer
// state. The three shapes are mutually exclusive and tested in order: GIF,
// then video, then generic content. An empty embed yields nil.
func classifyResource(state *types.ComposerState) Resource {
	embed := state.Embed
	if embed == "" {
		return nil
	}
	if IsGifEmbed(embed) {
		return GifResource{ID: embed}
	}
	if id, ok := IsYouTubeEmbed(embed); ok {
		return VideoResource{
			ID:          id,
			Title:       state.Panel.Title,
			Description: state.Panel.Description,
			Image:       state.Panel.Image,
		}
	}
	return ContentResource{
		URL:         embed,
		Provider:    state.Panel.Provider,
		Title:       state.Panel.Title,
		Description: state.Panel.Description,
		Image:       state.Panel.Image,
	}
}

// SubmitRequest carries the submission form values that accompany the text.
type SubmitRequest struct {
	Page      string
	Ask       string
	What      string
	Tab       string
	CSRFToken string
}

// SubmitResult reports the terminal outcome of one submission attempt.
type SubmitResult struct {
	Submitted bool
	Status    int
}

// Submit builds and posts the composed activity. The textbox and draft are
// cleared optimistically before the request and restored when it fails;
// there is no automatic retry.
func (c *Composer) Submit(ctx context.Context, session *types.Session, sessionID string, req SubmitRequest) (*SubmitResult, error) {
	if session == nil || session.Handle == "" {
		return nil, ErrAuthRequired
	}

	state, err := c.State(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(state.Text)
	if !c.submitEnabled(text) {
		// local-validation-failure: no network call, draft untouched
		return nil, ErrSubmitDisabled
	}

	body, contentType, err := buildSubmission(state, text, req)
	if err != nil {
		return nil, err
	}

	// Optimistic reset: textbox and draft clear before the request goes out,
	// poll and video decoration are discarded either way. A rollback restores
	// the trimmed value that was submitted, not the raw padded text.
	if _, err := c.states.Update(ctx, sessionID, func(s *types.ComposerState) {
		s.Text = ""
		s.Poll = nil
		s.Video = nil
	}); err != nil {
		return nil, err
	}
	c.drafts.Clear(ctx, req.Page)

	status, err := c.upstream.PostActivity(ctx, body, contentType)
	if err != nil || status != http.StatusOK {
		// Roll back to the pre-submit view.
		if _, rbErr := c.states.Update(ctx, sessionID, func(s *types.ComposerState) {
			s.Text = text
		}); rbErr != nil {
			slog.Error("submission rollback failed", "error", rbErr)
		}
		c.drafts.Set(ctx, req.Page, text)
		if err != nil {
			IncrementSubmissionFailure()
			return nil, fmt.Errorf("submission: %w", err)
		}
		IncrementSubmissionFailure()
		return &SubmitResult{Submitted: false, Status: status}, nil
	}

	// Success: every preview surface resets.
	if _, err := c.states.Update(ctx, sessionID, func(s *types.ComposerState) {
		s.Seq++
		s.Embed = ""
		s.EmbedRaw = ""
		s.Panel = types.PreviewPanel{}
		s.GifPanel = types.GifPanel{}
		s.MentionTerm = ""
		s.Mentions = nil
	}); err != nil {
		slog.Error("post-submit state reset failed", "error", err)
	}

	IncrementSubmissionSuccess()
	return &SubmitResult{Submitted: true, Status: status}, nil
}

// buildSubmission serializes the composer state into the multipart payload
// the activity endpoint expects.
func buildSubmission(state *types.ComposerState, text string, req SubmitRequest) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	base := map[string]string{
		"ask":                 req.Ask,
		"data":                text,
		"what":                req.What,
		"tab":                 req.Tab,
		"csrfmiddlewaretoken": req.CSRFToken,
	}
	if err := writeFields(w, base); err != nil {
		return nil, "", err
	}

	if state.Video != nil {
		if err := writeFields(w, map[string]string{
			"has_video": "true",
			"video_gfx": strconv.Itoa(state.Video.Gfx),
		}); err != nil {
			return nil, "", err
		}
	}

	if resource := classifyResource(state); resource != nil {
		if err := resource.appendFields(w); err != nil {
			return nil, "", err
		}
	}

	for i, opt := range state.Poll.NonEmpty() {
		if i >= util.MaxPollOptions {
			break
		}
		if err := w.WriteField("option"+strconv.Itoa(i), opt); err != nil {
			return nil, "", fmt.Errorf("write poll option: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
