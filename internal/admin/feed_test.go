package admin

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestFeed_BroadcastsToSubscriber(t *testing.T) {
	feed := NewFeed(nil)
	server := httptest.NewServer(feed)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the handler a moment to register the subscriber before we
	// broadcast, since Upgrade and subscribe race the dial's return.
	time.Sleep(20 * time.Millisecond)

	feed.Broadcast(ReloadEvent{Kind: "reloaded", Timestamp: time.Unix(0, 0)})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	var got ReloadEvent
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Kind != "reloaded" {
		t.Errorf("Kind = %q, want %q", got.Kind, "reloaded")
	}
}

func TestFeed_NoSubscribersIsNoop(t *testing.T) {
	feed := NewFeed(nil)
	feed.Broadcast(ReloadEvent{Kind: "reloaded"})
}

func TestFeed_NilFeedBroadcastIsNoop(t *testing.T) {
	var feed *Feed
	feed.Broadcast(ReloadEvent{Kind: "reloaded"})
}
