package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"composer-server/internal/types"
)

func TestActivityWebsocketURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://gitcoin.co", "wss://gitcoin.co/ws/activity"},
		{"http://localhost:8000", "ws://localhost:8000/ws/activity"},
		{"https://gitcoin.co/base/", "wss://gitcoin.co/base/ws/activity"},
	}
	for _, tc := range cases {
		if got := activityWebsocketURL(tc.in); got != tc.want {
			t.Errorf("activityWebsocketURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFeedWatcherPauseBuffersItems(t *testing.T) {
	b := &FeedBroadcaster{clients: make(map[chan types.FeedItem]*clientInfo)}
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	fw := NewFeedWatcher("http://example.com", b)

	// Unpaused: items fan out immediately
	fw.dispatch(types.FeedItem{ID: 1, Text: "first"})
	select {
	case item := <-ch:
		if item.ID != 1 {
			t.Errorf("item id = %d", item.ID)
		}
	default:
		t.Fatal("item not broadcast while unpaused")
	}

	// Paused: items are held back
	fw.Pause()
	if !fw.IsPaused() {
		t.Fatal("watcher not paused")
	}
	fw.dispatch(types.FeedItem{ID: 2, Text: "held"})
	select {
	case item := <-ch:
		t.Fatalf("item %d broadcast while paused", item.ID)
	default:
	}

	// Resume flushes the buffer
	fw.Resume()
	select {
	case item := <-ch:
		if item.ID != 2 {
			t.Errorf("flushed item id = %d", item.ID)
		}
	default:
		t.Fatal("buffered item not flushed on resume")
	}

	// Resume when already running is a no-op
	fw.Resume()
}

func TestFeedWatcherReportsConnection(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"id":1,"text":"hi"}`))
		conn.Close()
	}))
	defer srv.Close()

	b := &FeedBroadcaster{clients: make(map[chan types.FeedItem]*clientInfo)}
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	fw := NewFeedWatcher("http://example.com", b)
	fw.wsURL = "ws" + strings.TrimPrefix(srv.URL, "http")

	// A dial that succeeds reports connected even when the socket drops,
	// which is what lets the reconnect backoff start over
	connected, err := fw.watch(context.Background())
	if !connected {
		t.Error("watch did not report a successful connection")
	}
	if err == nil {
		t.Error("watch returned nil error after the server closed the socket")
	}
	select {
	case item := <-ch:
		if item.ID != 1 {
			t.Errorf("item id = %d", item.ID)
		}
	default:
		t.Error("socket message not broadcast")
	}

	// A refused dial reports no connection
	srv.Close()
	connected, err = fw.watch(context.Background())
	if connected {
		t.Error("watch reported a connection after a failed dial")
	}
	if err == nil {
		t.Error("watch returned nil error after a failed dial")
	}
}
