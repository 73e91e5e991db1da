package crawler

import (
	"fmt"
	"sort"
)

// State is the lifecycle position of a frontier entry.
type State int

const (
	StateUnseen State = iota
	StatePending
	StateDispatched
	StateCrawled
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateUnseen:
		return "unseen"
	case StatePending:
		return "pending"
	case StateDispatched:
		return "dispatched"
	case StateCrawled:
		return "crawled"
	case StateRejected:
		return "rejected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// TargetID is a stable handle to a frontier entry.
type TargetID int

type entry struct {
	url   string
	state State
}

// Frontier tracks every URL ever discovered for one crawl. Entries only move
// forward: pending, dispatched, then crawled or rejected. It is not safe for
// concurrent use; the crawler owns it from a single goroutine.
type Frontier struct {
	entries []entry
	index   map[string]TargetID
	queue   []TargetID

	crawled  int
	rejected int
}

// NewFrontier returns an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{index: make(map[string]TargetID)}
}

// Add records a normalized URL as pending. It reports false when the URL was
// already known, whatever its state.
func (f *Frontier) Add(normalized string) (TargetID, bool) {
	if id, ok := f.index[normalized]; ok {
		return id, false
	}
	id := TargetID(len(f.entries))
	f.entries = append(f.entries, entry{url: normalized, state: StatePending})
	f.index[normalized] = id
	f.queue = append(f.queue, id)
	return id, true
}

// Lookup returns the ID for a known URL.
func (f *Frontier) Lookup(normalized string) (TargetID, bool) {
	id, ok := f.index[normalized]
	return id, ok
}

// StateOf returns the state of a URL, StateUnseen if it was never added.
func (f *Frontier) StateOf(normalized string) State {
	id, ok := f.index[normalized]
	if !ok {
		return StateUnseen
	}
	return f.entries[id].state
}

// URL returns the URL behind id.
func (f *Frontier) URL(id TargetID) string {
	return f.entries[id].url
}

// NextBatch moves up to n pending entries to dispatched, in discovery order.
func (f *Frontier) NextBatch(n int) []TargetID {
	if n <= 0 || len(f.queue) == 0 {
		return nil
	}
	if n > len(f.queue) {
		n = len(f.queue)
	}
	batch := make([]TargetID, n)
	copy(batch, f.queue[:n])
	f.queue = f.queue[n:]
	for _, id := range batch {
		f.entries[id].state = StateDispatched
	}
	return batch
}

// MarkCrawled moves a dispatched entry to crawled.
func (f *Frontier) MarkCrawled(id TargetID) error {
	if err := f.finish(id); err != nil {
		return err
	}
	f.entries[id].state = StateCrawled
	f.crawled++
	return nil
}

// MarkRejected moves a dispatched entry to rejected.
func (f *Frontier) MarkRejected(id TargetID) error {
	if err := f.finish(id); err != nil {
		return err
	}
	f.entries[id].state = StateRejected
	f.rejected++
	return nil
}

func (f *Frontier) finish(id TargetID) error {
	if id < 0 || int(id) >= len(f.entries) {
		return fmt.Errorf("%w: unknown target %d", ErrInvalidTransition, id)
	}
	if s := f.entries[id].state; s != StateDispatched {
		return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, f.entries[id].url, s)
	}
	return nil
}

// Pending is the number of entries waiting to be dispatched.
func (f *Frontier) Pending() int { return len(f.queue) }

// Crawled is the number of entries in the crawled set.
func (f *Frontier) Crawled() int { return f.crawled }

// Rejected is the number of entries that were dispatched but not crawled.
func (f *Frontier) Rejected() int { return f.rejected }

// Visited is the number of entries ever dispatched.
func (f *Frontier) Visited() int { return len(f.entries) - len(f.queue) }

// Known is the number of distinct URLs ever added.
func (f *Frontier) Known() int { return len(f.entries) }

// CrawledURLs returns the crawled set in lexicographic order.
func (f *Frontier) CrawledURLs() []string {
	urls := make([]string, 0, f.crawled)
	for _, e := range f.entries {
		if e.state == StateCrawled {
			urls = append(urls, e.url)
		}
	}
	sort.Strings(urls)
	return urls
}
