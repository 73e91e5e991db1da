package server

import (
	"fmt"
	"strings"
	"sync"

	"github.com/amosWeiskopf/sitemapsmith/pkg/crawler"
)

// Event is one server-sent event.
type Event struct {
	Name string
	Data string
}

// Hub fans crawl progress and log lines out to event-stream subscribers.
// Slow subscribers miss events rather than stall the crawl.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	buffer int
}

// NewHub creates a hub whose subscribers buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{subs: make(map[chan Event]struct{}), buffer: buffer}
}

// Subscribe registers a listener. The returned func unregisters it and
// closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers reports the number of active listeners.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish delivers e to every subscriber that has room for it.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Write publishes each log line as a "log" event, so the hub can be used as
// a logging sink.
func (h *Hub) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line != "" {
			h.Publish(Event{Name: "log", Data: line})
		}
	}
	return len(p), nil
}

// URLCrawled implements crawler.Observer.
func (h *Hub) URLCrawled(pageURL string, crawled int) {
	h.Publish(Event{Name: "progress", Data: fmt.Sprintf("Crawled %d: %s", crawled, pageURL)})
}

// BatchCompleted implements crawler.Observer.
func (h *Hub) BatchCompleted(r crawler.BatchReport) {
	h.Publish(Event{
		Name: "batch",
		Data: fmt.Sprintf("Batch %d done: %d crawled, %d visited, %d pending", r.Batch, r.Crawled, r.Visited, r.Pending),
	})
}

var _ crawler.Observer = (*Hub)(nil)
