package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"composer-server/internal/types"
	"composer-server/internal/util"
)

// Handler-level globals, wired in main
var (
	composer    *Composer
	feedWatcher *FeedWatcher
)

// ensureSessionID returns the caller's session ID, minting a cookie for
// first-time visitors. Composer state and drafts key off this ID whether
// or not the visitor ever logs in.
func ensureSessionID(w http.ResponseWriter, r *http.Request) string {
	if id := sessionIDFromRequest(r); id != "" {
		return id
	}
	id := newSessionID()
	SetSessionCookie(w, r, sessionCookieName, id, int(cacheConfig.SessionTTL.Seconds()))
	return id
}

// currentSession returns the login session for the request, or nil when
// the visitor is anonymous.
func currentSession(r *http.Request) *types.Session {
	id := sessionIDFromRequest(r)
	if id == "" {
		return nil
	}
	session, err := sessionStore.Get(r.Context(), id)
	if err != nil {
		slog.Debug("session lookup failed", "error", err)
		return nil
	}
	return session
}

// wantsJSON checks whether the client asked for a JSON response rather
// than a redirect-with-flash flow.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// loginHandler establishes a login session for a handle.
// POST /login with form field "handle"
func loginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		util.RespondMethodNotAllowed(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		util.RespondBadRequest(w, "invalid form")
		return
	}

	handle := strings.TrimSpace(r.PostFormValue("handle"))
	if handle == "" {
		util.RespondBadRequest(w, "handle is required")
		return
	}

	sessionID := ensureSessionID(w, r)
	session := &types.Session{
		ID:        sessionID,
		Handle:    handle,
		CreatedAt: time.Now().Unix(),
	}
	if err := sessionStore.Set(r.Context(), session); err != nil {
		slog.Error("failed to store session", "error", err)
		util.RespondInternalError(w, "could not create session")
		return
	}

	slog.Info("user logged in", "handle", handle)
	util.WriteJSON(w, http.StatusOK, map[string]string{"handle": handle})
}

// logoutHandler tears down the login session
// POST /logout
func logoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		util.RespondMethodNotAllowed(w)
		return
	}

	if id := sessionIDFromRequest(r); id != "" {
		if err := sessionStore.Delete(r.Context(), id); err != nil {
			slog.Debug("session delete failed", "error", err)
		}
		composer.states.Delete(r.Context(), id)
	}
	DeleteCookie(w, r, sessionCookieName, "/")
	util.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ComposeStateResponse is the composer's snapshot for page load: current
// state, any saved draft for this page, and a fresh CSRF token.
type ComposeStateResponse struct {
	State         *types.ComposerState `json:"state"`
	Draft         string               `json:"draft,omitempty"`
	SubmitEnabled bool                 `json:"submit_enabled"`
	CSRFToken     string               `json:"csrf_token"`
	Handle        string               `json:"handle,omitempty"`
	Flash         FlashMessages        `json:"flash,omitempty"`
}

// composeStateHandler returns the composer state for the session.
// GET /compose/state?page=<page URL>
func composeStateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		util.RespondMethodNotAllowed(w)
		return
	}

	sessionID := ensureSessionID(w, r)
	page := r.URL.Query().Get("page")

	state, err := composer.State(r.Context(), sessionID)
	if err != nil {
		util.RespondInternalError(w, "could not load state")
		return
	}

	resp := ComposeStateResponse{
		State:         state,
		SubmitEnabled: composer.submitEnabled(state.Text),
		CSRFToken:     generateCSRFToken(sessionID),
		Flash:         getFlashMessages(w, r),
	}
	if session := currentSession(r); session != nil {
		resp.Handle = session.Handle
	}
	// Offer the saved draft for restore when nothing is typed yet
	if state.Text == "" && page != "" {
		resp.Draft = composer.drafts.Get(r.Context(), page)
	}

	util.WriteJSON(w, http.StatusOK, resp)
}

// composeInputHandler processes one edit of the composer text.
// POST /compose/input with fields text, line_break, page
func composeInputHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		util.RespondMethodNotAllowed(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		util.RespondBadRequest(w, "invalid form")
		return
	}

	sessionID := ensureSessionID(w, r)
	text := r.PostFormValue("text")
	lineBreak := r.PostFormValue("line_break") == "true"
	page := r.PostFormValue("page")

	result, err := composer.OnInput(r.Context(), sessionID, page, text, lineBreak)
	if err != nil {
		slog.Error("input handling failed", "error", err)
		util.RespondInternalError(w, "could not process input")
		return
	}

	// Hold the live feed still while something is being composed
	if strings.TrimSpace(text) != "" {
		feedWatcher.Pause()
	} else {
		feedWatcher.Resume()
	}

	util.WriteJSON(w, http.StatusOK, result)
}

// composeBlurHandler notes that the composer lost focus, which starts the
// mention dropdown's grace period.
// POST /compose/blur
func composeBlurHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		util.RespondMethodNotAllowed(w)
		return
	}

	sessionID := ensureSessionID(w, r)
	state, err := composer.Blur(r.Context(), sessionID)
	if err != nil {
		util.RespondInternalError(w, "could not process blur")
		return
	}
	util.WriteJSON(w, http.StatusOK, state)
}

// composeMentionsHandler serves mention suggestions for a term.
// GET /compose/mentions?term=<partial handle>
func composeMentionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		util.RespondMethodNotAllowed(w)
		return
	}

	raw := r.URL.Query().Get("term")
	if raw == "" {
		raw = r.URL.Query().Get("search")
	}
	term, ok := MentionTerm("@" + strings.TrimPrefix(raw, "@"))
	if !ok {
		util.WriteJSON(w, http.StatusOK, []types.UserMatch{})
		return
	}

	matches := composer.lookupUsers(r.Context(), term)
	if matches == nil {
		matches = []types.UserMatch{}
	}
	util.WriteJSON(w, http.StatusOK, matches)
}

// composeDraftHandler reads or writes the per-page draft directly,
// without going through an input event.
// GET /compose/draft?page=<page URL> or POST with fields page, text
func composeDraftHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		page := r.URL.Query().Get("page")
		if page == "" {
			util.RespondBadRequest(w, "page is required")
			return
		}
		util.WriteJSON(w, http.StatusOK, map[string]string{
			"draft": composer.drafts.Get(r.Context(), page),
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			util.RespondBadRequest(w, "invalid form")
			return
		}
		page := r.PostFormValue("page")
		if page == "" {
			util.RespondBadRequest(w, "page is required")
			return
		}
		composer.drafts.Set(r.Context(), page, r.PostFormValue("text"))
		util.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	default:
		util.RespondMethodNotAllowed(w)
	}
}

// composeGifSearchHandler proxies the GIF picker search.
// GET /compose/gifs?q=<query>
func composeGifSearchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		util.RespondMethodNotAllowed(w)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		util.RespondBadRequest(w, "q is required")
		return
	}

	results, err := composer.SearchGifs(r.Context(), query)
	if err != nil {
		slog.Warn("gif search failed", "query", query, "error", err)
		util.RespondBadGateway(w, "gif search unavailable")
		return
	}
	if results == nil {
		results = []types.GifResult{}
	}
	util.WriteJSON(w, http.StatusOK, results)
}

// composeGifSelectHandler attaches a picked GIF to the post.
// POST /compose/gif with field url
func composeGifSelectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		util.RespondMethodNotAllowed(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		util.RespondBadRequest(w, "invalid form")
		return
	}

	gifURL := strings.TrimSpace(r.PostFormValue("url"))
	if !IsGifEmbed(gifURL) {
		util.RespondBadRequest(w, "not a GIF URL")
		return
	}

	sessionID := ensureSessionID(w, r)
	state, err := composer.SelectGif(r.Context(), sessionID, gifURL)
	if err != nil {
		util.RespondInternalError(w, "could not attach GIF")
		return
	}
	util.WriteJSON(w, http.StatusOK, state)
}

// composeGifClearHandler releases the GIF lock.
// POST /compose/gif/clear
func composeGifClearHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		util.RespondMethodNotAllowed(w)
		return
	}

	sessionID := ensureSessionID(w, r)
	state, err := composer.ClearGif(r.Context(), sessionID)
	if err != nil {
		util.RespondInternalError(w, "could not clear GIF")
		return
	}
	util.WriteJSON(w, http.StatusOK, state)
}

// composePollHandler toggles the poll UI or records an option.
// POST /compose/poll with field on=true|false, or slot + text
func composePollHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		util.RespondMethodNotAllowed(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		util.RespondBadRequest(w, "invalid form")
		return
	}

	sessionID := ensureSessionID(w, r)

	if slotStr := r.PostFormValue("slot"); slotStr != "" {
		slot, err := strconv.Atoi(slotStr)
		if err != nil {
			util.RespondBadRequest(w, "invalid slot")
			return
		}
		state, err := composer.SetPollOption(r.Context(), sessionID, slot, r.PostFormValue("text"))
		if err != nil {
			util.RespondInternalError(w, "could not set poll option")
			return
		}
		util.WriteJSON(w, http.StatusOK, state)
		return
	}

	on := r.PostFormValue("on") == "true"
	state, err := composer.TogglePoll(r.Context(), sessionID, on)
	if err != nil {
		util.RespondInternalError(w, "could not toggle poll")
		return
	}
	util.WriteJSON(w, http.StatusOK, state)
}

// composeVideoHandler toggles the video decoration.
// POST /compose/video with fields on=true|false, gfx
func composeVideoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		util.RespondMethodNotAllowed(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		util.RespondBadRequest(w, "invalid form")
		return
	}

	sessionID := ensureSessionID(w, r)
	on := r.PostFormValue("on") == "true"
	gfx, _ := strconv.Atoi(r.PostFormValue("gfx"))

	state, err := composer.ToggleVideo(r.Context(), sessionID, on, gfx)
	if err != nil {
		util.RespondInternalError(w, "could not toggle video")
		return
	}
	util.WriteJSON(w, http.StatusOK, state)
}

// composeSubmitHandler posts the composed activity upstream.
// POST /compose/submit with fields page, ask, what, tab, csrfmiddlewaretoken
func composeSubmitHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		util.RespondMethodNotAllowed(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		util.RespondBadRequest(w, "invalid form")
		return
	}

	sessionID := ensureSessionID(w, r)
	req := SubmitRequest{
		Page:      r.PostFormValue("page"),
		Ask:       r.PostFormValue("ask"),
		What:      r.PostFormValue("what"),
		Tab:       r.PostFormValue("tab"),
		CSRFToken: r.PostFormValue(CSRFFieldName),
	}
	if req.Tab == "" {
		req.Tab = GetTabsConfig().DefaultTab()
	}

	if !validateCSRFToken(sessionID, req.CSRFToken) {
		util.RespondForbidden(w, "invalid or expired form token")
		return
	}

	session := currentSession(r)
	result, err := composer.Submit(r.Context(), session, sessionID, req)
	switch {
	case errors.Is(err, ErrAuthRequired):
		util.RespondUnauthorized(w, "login required")
		return
	case errors.Is(err, ErrSubmitDisabled):
		util.RespondBadRequest(w, "post is too short or too long")
		return
	case err != nil:
		slog.Error("submit failed", "error", err)
		util.RespondInternalError(w, "could not submit")
		return
	}

	if !result.Submitted {
		slog.Warn("upstream rejected submission", "status", result.Status)
		if wantsJSON(r) {
			util.WriteJSON(w, http.StatusBadGateway, result)
			return
		}
		redirectWithError(w, r, req.Page, "Your post could not be published. Your text has been restored.")
		return
	}

	// New post accepted; let the feed move again
	feedWatcher.Resume()

	if wantsJSON(r) {
		util.WriteJSON(w, http.StatusOK, result)
		return
	}
	redirectWithSuccess(w, r, req.Page, "Your post is live.")
}

// metadataHandler is the self-hosted preview scraper.
// GET /service/metadata/?url=<target>
func metadataHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		util.RespondMethodNotAllowed(w)
		return
	}

	target := strings.TrimSpace(r.URL.Query().Get("url"))
	if target == "" {
		util.RespondBadRequest(w, "url is required")
		return
	}

	meta, err := composer.lookupMetadata(r.Context(), target)
	if err != nil {
		slog.Debug("metadata lookup failed", "url", target, "error", err)
		util.RespondBadGateway(w, "could not fetch metadata")
		return
	}
	if meta == nil {
		util.RespondNotFound(w, "no metadata found")
		return
	}
	util.WriteJSON(w, http.StatusOK, meta)
}

// FeedResponse is one page of the activity feed
type FeedResponse struct {
	Items   []types.FeedItem `json:"items"`
	Page    int              `json:"page"`
	HasNext bool             `json:"has_next"`
}

// feedHandler serves one page of the activity feed with rendered text.
// GET /feed?tab=<tab>&page=<n>
func feedHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		util.RespondMethodNotAllowed(w)
		return
	}

	tabs := GetTabsConfig()
	tab := r.URL.Query().Get("tab")
	if !tabs.IsValidTab(tab) {
		tab = tabs.DefaultTab()
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	items, hasNext, err := composer.upstream.FeedPage(r.Context(), tab, page)
	if err != nil {
		slog.Warn("feed fetch failed", "tab", tab, "page", page, "error", err)
		util.RespondBadGateway(w, "feed unavailable")
		return
	}

	for i := range items {
		items[i].TextHTML = renderActivityText(items[i].Text)
	}
	if items == nil {
		items = []types.FeedItem{}
	}

	util.WriteJSON(w, http.StatusOK, FeedResponse{
		Items:   items,
		Page:    page,
		HasNext: hasNext,
	})
}
