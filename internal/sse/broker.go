// Package sse pushes live-reload notifications about posts to browsers over
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Change is what happened to a post file.
type Change string

const (
	Created Change = "created"
	Updated Change = "updated"
	Deleted Change = "deleted"
)

// Event types sent to clients.
const (
	TypePostCreated    = "post.created"
	TypePostUpdated    = "post.updated"
	TypePostDeleted    = "post.deleted"
	TypeListingUpdated = "listing.updated"
)

// Event is one message to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type postChange struct {
	change Change
	id     string
}

// Broker fans events out to connected clients.
//
// A single goroutine owns the client set, the event sequence and the
// listing throttle; the exported methods talk to it over channels.
type Broker struct {
	listingMin time.Duration
	heartbeat  time.Duration

	joins   chan chan []byte
	leaves  chan chan []byte
	events  chan Event
	changes chan postChange
	counts  chan chan int

	quit   chan struct{}
	done   chan struct{}
	closed atomic.Bool
}

// NewBroker creates a broker that emits listing.updated at most once per
// listingThrottle.
func NewBroker(listingThrottle time.Duration) *Broker {
	if listingThrottle <= 0 {
		listingThrottle = 2 * time.Second
	}

	b := &Broker{
		listingMin: listingThrottle,
		heartbeat:  30 * time.Second,
		joins:      make(chan chan []byte),
		leaves:     make(chan chan []byte),
		events:     make(chan Event, 256),
		changes:    make(chan postChange, 256),
		counts:     make(chan chan int),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.done)

	clients := make(map[chan []byte]struct{})
	var (
		seq         uint64
		lastListing time.Time
	)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		seq++
		raw := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// slow client, drop
			}
		}
	}

	for {
		select {
		case <-b.quit:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.joins:
			clients[ch] = struct{}{}

		case ch := <-b.leaves:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.events:
			broadcast(event)

		case req := <-b.changes:
			typ, ok := postEventType(req.change)
			if !ok {
				continue
			}
			broadcast(Event{Type: typ, Data: map[string]string{"id": req.id}})

			now := time.Now()
			if now.Sub(lastListing) >= b.listingMin {
				lastListing = now
				broadcast(Event{Type: TypeListingUpdated, Data: map[string]string{}})
			}

		case resp := <-b.counts:
			resp <- len(clients)
		}
	}
}

func postEventType(c Change) (string, bool) {
	switch c {
	case Created:
		return TypePostCreated, true
	case Updated:
		return TypePostUpdated, true
	case Deleted:
		return TypePostDeleted, true
	}
	return "", false
}

// Close stops the broker and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.quit)
	}
	<-b.done
}

// Subscribe registers a client and returns its message channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.joins <- ch:
	case <-b.done:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.leaves <- ch:
	case <-b.done:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.counts <- resp:
	case <-b.done:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.done:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.events <- event:
	case <-b.done:
	}
}

// PublishPostEvent announces a change to post id, followed by a throttled
// listing.updated.
func (b *Broker) PublishPostEvent(change Change, id string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changes <- postChange{change: change, id: id}:
	case <-b.done:
	}
}

// ServeHTTP streams events to one client (GET /api/events). A comment line
// is sent periodically so idle proxies keep the connection open.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ticker := time.NewTicker(b.heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
