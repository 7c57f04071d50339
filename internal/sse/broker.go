// Package sse streams vault change notifications to connected viewers over
// Server-Sent Events.
package sse

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Event is one message on the stream.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// vaultChange is a watcher notification entering the broker.
type vaultChange struct {
	kind string
	path string
}

const subscriberBuffer = 64

// Broker fans vault events out to SSE subscribers. One loop goroutine owns
// all mutable state (the subscriber set and the graph throttle clock); the
// exported methods only ever talk to that loop over channels.
type Broker struct {
	graphEvery time.Duration

	join   chan chan []byte
	leave  chan chan []byte
	events chan Event
	change chan vaultChange
	size   chan chan int

	quit chan struct{}
	done chan struct{}

	closed atomic.Bool
}

// NewBroker starts the broker loop. graphEvery bounds how often a
// graph.updated event is emitted; note events are never throttled.
func NewBroker(graphEvery time.Duration) *Broker {
	if graphEvery <= 0 {
		graphEvery = 2 * time.Second
	}
	b := &Broker{
		graphEvery: graphEvery,
		join:       make(chan chan []byte),
		leave:      make(chan chan []byte),
		events:     make(chan Event, 256),
		change:     make(chan vaultChange, 256),
		size:       make(chan chan int),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go b.loop()
	return b
}

// frame encodes an event into SSE wire format.
func frame(event Event) []byte {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil
	}
	var buf bytes.Buffer
	buf.WriteString("event: ")
	buf.WriteString(event.Type)
	buf.WriteString("\ndata: ")
	buf.Write(payload)
	buf.WriteString("\n\n")
	return buf.Bytes()
}

func (b *Broker) loop() {
	defer close(b.done)

	subs := make(map[chan []byte]struct{})
	var lastGraph time.Time

	send := func(event Event) {
		raw := frame(event)
		if raw == nil {
			return
		}
		for ch := range subs {
			select {
			case ch <- raw:
			default:
				// Slow subscriber; drop rather than stall the loop.
			}
		}
	}

	for {
		select {
		case <-b.quit:
			for ch := range subs {
				close(ch)
			}
			return

		case ch := <-b.join:
			subs[ch] = struct{}{}

		case ch := <-b.leave:
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}

		case event := <-b.events:
			send(event)

		case c := <-b.change:
			switch c.kind {
			case "created", "updated", "deleted":
				send(Event{Type: "note." + c.kind, Data: map[string]string{"path": c.path}})
			}
			if now := time.Now(); now.Sub(lastGraph) >= b.graphEvery {
				lastGraph = now
				send(Event{Type: "graph.updated", Data: map[string]string{}})
			}

		case resp := <-b.size:
			resp <- len(subs)
		}
	}
}

// Close stops the loop and closes every subscriber channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.quit)
	}
	<-b.done
}

// Subscribe registers a new subscriber and returns its channel. After Close
// the returned channel is already closed.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, subscriberBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.join <- ch:
	case <-b.done:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a subscriber; the broker closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.leave <- ch:
	case <-b.done:
	}
}

// ClientCount reports the number of connected subscribers.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.size <- resp:
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

// Publish broadcasts an arbitrary event to every subscriber.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.events <- event:
	case <-b.done:
	}
}

// PublishNoteEvent broadcasts a note change (kind is created/updated/deleted)
// plus a throttled graph.updated.
func (b *Broker) PublishNoteEvent(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.change <- vaultChange{kind: kind, path: path}:
	case <-b.done:
	}
}

// ServeHTTP streams events to one client until it disconnects.
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

	for {
		select {
		case <-r.Context().Done():
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
