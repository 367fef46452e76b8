// Package admin implements the operator-facing hot-reload notification
// feed (spec.md §9, SPEC_FULL.md §4.9): a websocket endpoint that
// broadcasts ReloadEvents as they happen. It never blocks request-serving
// goroutines; a slow or absent subscriber only ever drops its own events.
package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ReloadEvent describes the outcome of one hot-reload attempt.
type ReloadEvent struct {
	Kind      string    `json:"kind"` // "reloaded" or "reload_failed"
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// subscriberBuffer bounds how many undelivered events a lagging
// subscriber can accumulate before new ones are dropped for it.
const subscriberBuffer = 32

// Feed fans a stream of ReloadEvents out to any number of websocket
// subscribers connected at /__shellgate/events.
type Feed struct {
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[chan ReloadEvent]struct{}

	log *slog.Logger
}

// NewFeed builds an empty Feed. logger defaults to slog.Default.
func NewFeed(logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subscribers: make(map[chan ReloadEvent]struct{}),
		log:         logger,
	}
}

// Broadcast delivers event to every connected subscriber, dropping it
// for any subscriber whose buffer is currently full rather than waiting.
func (f *Feed) Broadcast(event ReloadEvent) {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- event:
		default:
			f.log.Warn("admin feed subscriber buffer full, dropping event")
		}
	}
}

// ServeHTTP upgrades the connection and streams ReloadEvents to it as
// JSON text frames until the client disconnects.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.Warn("admin feed upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch := make(chan ReloadEvent, subscriberBuffer)
	f.subscribe(ch)
	defer f.unsubscribe(ch)

	go f.discardReads(conn)

	for event := range ch {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// discardReads drains and ignores client frames so the websocket's
// control-frame handling (pings, close) keeps working; this feed is
// operator-read-only and accepts no client messages.
func (f *Feed) discardReads(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *Feed) subscribe(ch chan ReloadEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribers[ch] = struct{}{}
}

func (f *Feed) unsubscribe(ch chan ReloadEvent) {
	f.mu.Lock()
	delete(f.subscribers, ch)
	f.mu.Unlock()
	close(ch)
}
