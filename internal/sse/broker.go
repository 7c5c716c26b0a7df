// Package sse implements a Server-Sent Events broker for live dashboard updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types sent to dashboard clients.
const (
	TypeInboxCreated  = "inbox.created"
	TypeInboxUpdated  = "inbox.updated"
	TypeInboxDeleted  = "inbox.deleted"
	TypeEntryCompiled = "entry.compiled"
	TypeStatsUpdated  = "stats.updated"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type dayEventReq struct {
	kind string
	date string
}

// Broker manages SSE client connections and broadcasts events.
//
// A single internal event loop owns the client set and the stats throttle
// timestamp. Public methods talk to the loop over channels, so no mutexes
// are required.
type Broker struct {
	statsMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	dayEventCh    chan dayEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits at most one stats.updated event per
// statsThrottle interval.
func NewBroker(statsThrottle time.Duration) *Broker {
	if statsThrottle <= 0 {
		statsThrottle = 2 * time.Second
	}

	b := &Broker{
		statsMin:      statsThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		dayEventCh:    make(chan dayEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

// Frame encodes event in the text/event-stream wire format.
func Frame(event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, fmt.Errorf("sse: encode %s: %w", event.Type, err)
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastStats time.Time

	broadcast := func(event Event) {
		raw, err := Frame(event)
		if err != nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; drop rather than block the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.dayEventCh:
			data := map[string]string{"date": req.date}
			switch req.kind {
			case "created":
				broadcast(Event{Type: TypeInboxCreated, Data: data})
			case "updated":
				broadcast(Event{Type: TypeInboxUpdated, Data: data})
			case "deleted":
				broadcast(Event{Type: TypeInboxDeleted, Data: data})
			}

			now := time.Now()
			if now.Sub(lastStats) >= b.statsMin {
				lastStats = now
				broadcast(Event{Type: TypeStatsUpdated, Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
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
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishDayEvent publishes a day log change (created, updated or deleted)
// and a throttled stats.updated event. Its signature matches the index
// watcher callback.
func (b *Broker) PublishDayEvent(kind, date string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.dayEventCh <- dayEventReq{kind: kind, date: date}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
