// Package sse implements a Server-Sent Events broker that tells connected
// editors about changes under the data directory.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/starford/cravetown/internal/catalog"
)

// Event types.
const (
	TypeFileCreated     = "file.created"
	TypeFileUpdated     = "file.updated"
	TypeFileDeleted     = "file.deleted"
	TypeVersionsUpdated = "versions.updated"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// FileData is the payload of file.* events. Path is relative to the data
// directory.
type FileData struct {
	Path    string `json:"path"`
	Version string `json:"version,omitempty"`
}

// VersionsData is the payload of versions.updated: the versions touched
// since the previous versions.updated event.
type VersionsData struct {
	Versions []string `json:"versions"`
}

type fileEventReq struct {
	kind string
	path string
}

type subscribeReq struct {
	ch     chan []byte
	lastID string
}

type record struct {
	id  string
	raw []byte
}

// historySize bounds the events kept for Last-Event-ID replay.
const historySize = 128

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop owns the client set and the versions.updated
// throttle state; public methods talk to it over channels.
type Broker struct {
	versionsMin time.Duration

	subscribeCh   chan subscribeReq
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	fileEventCh   chan fileEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits versions.updated at most once per
// throttle interval.
func NewBroker(throttle time.Duration) *Broker {
	if throttle <= 0 {
		throttle = 2 * time.Second
	}

	b := &Broker{
		versionsMin:   throttle,
		subscribeCh:   make(chan subscribeReq),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		fileEventCh:   make(chan fileEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	history := make([]record, 0, historySize)
	dirty := make(map[string]struct{})
	var lastVersions time.Time
	var pending *time.Timer
	var pendingC <-chan time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		id := uuid.NewString()
		raw := []byte(fmt.Sprintf("id: %s\nevent: %s\ndata: %s\n\n", id, event.Type, payload))

		if len(history) == historySize {
			history = slices.Delete(history, 0, 1)
		}
		history = append(history, record{id: id, raw: raw})

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than block the loop.
			}
		}
	}

	flushVersions := func(now time.Time) {
		lastVersions = now
		ids := make([]string, 0, len(dirty))
		for id := range dirty {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		clear(dirty)
		broadcast(Event{Type: TypeVersionsUpdated, Data: VersionsData{Versions: ids}})
	}

	for {
		select {
		case <-b.stopCh:
			if pending != nil {
				pending.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case req := <-b.subscribeCh:
			clients[req.ch] = struct{}{}
			if req.lastID == "" {
				continue
			}
			// Replay what the client missed; an unknown id replays nothing.
			i := slices.IndexFunc(history, func(r record) bool { return r.id == req.lastID })
			if i < 0 {
				continue
			}
			for _, r := range history[i+1:] {
				select {
				case req.ch <- r.raw:
				default:
				}
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.fileEventCh:
			version := catalog.VersionOf(req.path)
			data := FileData{Path: req.path, Version: version}
			switch req.kind {
			case catalog.EventCreated:
				broadcast(Event{Type: TypeFileCreated, Data: data})
			case catalog.EventUpdated:
				broadcast(Event{Type: TypeFileUpdated, Data: data})
			case catalog.EventDeleted:
				broadcast(Event{Type: TypeFileDeleted, Data: data})
			default:
				continue
			}
			if version == "" {
				continue
			}
			dirty[version] = struct{}{}

			now := time.Now()
			if wait := b.versionsMin - now.Sub(lastVersions); wait <= 0 {
				flushVersions(now)
			} else if pendingC == nil {
				// Trailing emit so the last burst of changes is not lost.
				pending = time.NewTimer(wait)
				pendingC = pending.C
			}

		case now := <-pendingC:
			pending, pendingC = nil, nil
			if len(dirty) > 0 {
				flushVersions(now)
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel. A non-empty lastID
// replays the retained events published after it.
func (b *Broker) Subscribe(lastID string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscribeReq{ch: ch, lastID: lastID}:
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

// PublishFileEvent publishes a file change reported by the catalog watcher
// (kind is one of the catalog.Event* constants, path is data-dir relative)
// and schedules a throttled versions.updated event.
func (b *Broker) PublishFileEvent(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.fileEventCh <- fileEventReq{kind: kind, path: path}:
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
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(r.Header.Get("Last-Event-ID"))
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
