package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"composer-server/internal/types"
	"composer-server/internal/util"
)

// SSE event types
const (
	SSEEventActivity = "activity"
	SSEEventPing     = "ping"
)

// Maximum age for SSE client channels before cleanup
const maxSSEClientAge = 15 * time.Minute

// FeedBroadcaster manages SSE clients waiting for new feed activities
type FeedBroadcaster struct {
	mu      sync.RWMutex
	clients map[chan types.FeedItem]*clientInfo
}

// clientInfo tracks metadata about SSE clients for cleanup
type clientInfo struct {
	addedAt   time.Time
	closeOnce sync.Once
}

var feedBroadcaster = &FeedBroadcaster{
	clients: make(map[chan types.FeedItem]*clientInfo),
}

func init() {
	// Start periodic cleanup of orphaned SSE clients
	go feedBroadcaster.cleanupLoop()
}

// cleanupLoop periodically removes orphaned client channels
func (b *FeedBroadcaster) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		b.cleanup()
	}
}

// cleanup removes channels that are too old (likely orphaned)
func (b *FeedBroadcaster) cleanup() {
	now := time.Now()
	type toRemoveItem struct {
		ch   chan types.FeedItem
		info *clientInfo
	}
	var toRemove []toRemoveItem

	b.mu.RLock()
	for ch, info := range b.clients {
		if now.Sub(info.addedAt) > maxSSEClientAge {
			toRemove = append(toRemove, toRemoveItem{ch, info})
		}
	}
	b.mu.RUnlock()

	if len(toRemove) == 0 {
		return
	}

	b.mu.Lock()
	for _, item := range toRemove {
		// Double-check it still exists under write lock
		if _, exists := b.clients[item.ch]; exists {
			delete(b.clients, item.ch)
			item.info.closeOnce.Do(func() {
				close(item.ch)
			})
		}
	}
	b.mu.Unlock()

	slog.Debug("SSE feed: cleaned up orphaned clients", "count", len(toRemove))
}

// Subscribe adds a client channel to receive new feed items
func (b *FeedBroadcaster) Subscribe() chan types.FeedItem {
	ch := make(chan types.FeedItem, 16)
	b.mu.Lock()
	b.clients[ch] = &clientInfo{addedAt: time.Now()}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a client channel safely.
// Channel is closed after removal to unblock any pending receives.
func (b *FeedBroadcaster) Unsubscribe(ch chan types.FeedItem) {
	b.mu.Lock()
	info, exists := b.clients[ch]
	delete(b.clients, ch)
	b.mu.Unlock()

	if exists && info != nil {
		info.closeOnce.Do(func() {
			close(ch)
		})
	}
}

// Broadcast fans a feed item out to all connected clients.
// Slow clients are skipped rather than blocked on.
func (b *FeedBroadcaster) Broadcast(item types.FeedItem) {
	b.mu.RLock()
	channels := make([]chan types.FeedItem, 0, len(b.clients))
	for ch := range b.clients {
		channels = append(channels, ch)
	}
	b.mu.RUnlock()

	for _, ch := range channels {
		select {
		case ch <- item:
		default:
		}
	}
	slog.Debug("SSE feed: broadcast activity", "activity_id", item.ID, "clients", len(channels))
}

// SSEEvent represents an event to send over SSE
type SSEEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// sendSSEEvent sends a formatted SSE event to the client
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data interface{}) {
	event := SSEEvent{
		Type: eventType,
		Data: data,
	}

	jsonData, err := json.Marshal(event)
	if err != nil {
		slog.Error("SSE: failed to marshal event", "error", err)
		return
	}

	// SSE format: "event: <type>\ndata: <json>\n\n"
	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}

// streamFeedHandler handles SSE connections for live feed updates
// GET /feed/stream
func streamFeedHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		util.RespondInternalError(w, "SSE not supported")
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	// Note: No CORS header - SSE is same-origin only for security

	// Track SSE connection
	IncrementSSEConnections()
	defer DecrementSSEConnections()

	ctx := r.Context()

	itemChan := feedBroadcaster.Subscribe()
	defer feedBroadcaster.Unsubscribe(itemChan)

	// Ping ticker to keep connection alive (prevents proxy/browser timeouts)
	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	slog.Debug("SSE feed: client connected")

	for {
		select {
		case <-ctx.Done():
			slog.Debug("SSE feed: client disconnected")
			return

		case item, ok := <-itemChan:
			if !ok {
				return
			}
			item.TextHTML = renderActivityText(item.Text)
			sendSSEEvent(w, flusher, SSEEventActivity, item)

		case <-pingTicker.C:
			sendSSEEvent(w, flusher, SSEEventPing, nil)
		}
	}
}
