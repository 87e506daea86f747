package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"composer-server/internal/types"
)

// Reconnect backoff bounds for the upstream activity socket
const (
	feedReconnectMin = 2 * time.Second
	feedReconnectMax = 2 * time.Minute
)

// FeedWatcher maintains a websocket subscription to the upstream
// activity stream and fans new items out to connected SSE clients.
// While paused (a user is mid-composition) items are buffered so the
// feed does not shift under the composer; Resume flushes the buffer.
type FeedWatcher struct {
	wsURL       string
	broadcaster *FeedBroadcaster

	paused  atomic.Bool
	pending chan types.FeedItem
}

// NewFeedWatcher derives the websocket endpoint from the upstream base URL
func NewFeedWatcher(upstreamURL string, broadcaster *FeedBroadcaster) *FeedWatcher {
	return &FeedWatcher{
		wsURL:       activityWebsocketURL(upstreamURL),
		broadcaster: broadcaster,
		pending:     make(chan types.FeedItem, 64),
	}
}

// activityWebsocketURL rewrites http(s) to ws(s) and appends the stream path
func activityWebsocketURL(upstreamURL string) string {
	u, err := url.Parse(upstreamURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/activity"
	return u.String()
}

// Pause stops fan-out of new feed items. Safe to call repeatedly.
func (fw *FeedWatcher) Pause() {
	fw.paused.Store(true)
}

// Resume re-enables fan-out and flushes any items buffered while paused
func (fw *FeedWatcher) Resume() {
	if !fw.paused.CompareAndSwap(true, false) {
		return
	}
	for {
		select {
		case item := <-fw.pending:
			fw.broadcaster.Broadcast(item)
		default:
			return
		}
	}
}

// IsPaused reports whether fan-out is currently suspended
func (fw *FeedWatcher) IsPaused() bool {
	return fw.paused.Load()
}

// Start runs the watch loop until ctx is cancelled, reconnecting with
// exponential backoff when the upstream socket drops.
func (fw *FeedWatcher) Start(ctx context.Context) {
	if fw.wsURL == "" {
		slog.Warn("feed watcher disabled: no upstream websocket URL")
		return
	}

	backoff := feedReconnectMin
	for {
		if ctx.Err() != nil {
			return
		}

		connected, err := fw.watch(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			// The dial succeeded, so the next drop starts a fresh backoff
			backoff = feedReconnectMin
		}
		if err != nil {
			slog.Warn("feed watcher disconnected", "url", fw.wsURL, "error", err, "retry_in", backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > feedReconnectMax {
			backoff = feedReconnectMax
		}
	}
}

// watch holds one websocket connection and pumps items until it fails.
// Reports whether the dial succeeded so the caller can reset its backoff.
func (fw *FeedWatcher) watch(ctx context.Context) (bool, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, fw.wsURL, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	slog.Info("feed watcher connected", "url", fw.wsURL)

	// Close the socket when ctx is cancelled so ReadMessage unblocks
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}

		var item types.FeedItem
		if err := json.Unmarshal(data, &item); err != nil {
			slog.Debug("feed watcher: unparseable message", "error", err)
			continue
		}

		fw.dispatch(item)
	}
}

// dispatch routes an item to the broadcaster, or buffers it while paused.
// The buffer drops oldest-first when full; the feed catches up on the
// next full page load anyway.
func (fw *FeedWatcher) dispatch(item types.FeedItem) {
	if !fw.paused.Load() {
		fw.broadcaster.Broadcast(item)
		return
	}
	for {
		select {
		case fw.pending <- item:
			return
		default:
			select {
			case <-fw.pending:
			default:
			}
		}
	}
}
