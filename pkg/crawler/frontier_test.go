package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontierLifecycle(t *testing.T) {
	f := NewFrontier()

	id, added := f.Add("https://example.com")
	require.True(t, added)
	assert.Equal(t, StatePending, f.StateOf("https://example.com"))
	assert.Equal(t, StateUnseen, f.StateOf("https://example.com/missing"))

	batch := f.NextBatch(f.Pending())
	require.Equal(t, []TargetID{id}, batch)
	assert.Equal(t, StateDispatched, f.StateOf("https://example.com"))
	assert.Equal(t, 0, f.Pending())
	assert.Equal(t, 1, f.Visited())

	require.NoError(t, f.MarkCrawled(id))
	assert.Equal(t, StateCrawled, f.StateOf("https://example.com"))
	assert.Equal(t, 1, f.Crawled())
}

func TestFrontierAddIsIdempotent(t *testing.T) {
	f := NewFrontier()
	first, added := f.Add("https://example.com/a")
	require.True(t, added)

	again, added := f.Add("https://example.com/a")
	assert.False(t, added)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, f.Pending())

	// already dispatched and finished URLs are never re-queued
	f.NextBatch(1)
	require.NoError(t, f.MarkRejected(first))
	_, added = f.Add("https://example.com/a")
	assert.False(t, added)
	assert.Equal(t, 0, f.Pending())
	assert.Equal(t, 1, f.Known())
}

func TestFrontierRejectsOutOfOrderTransitions(t *testing.T) {
	f := NewFrontier()
	id, _ := f.Add("https://example.com")

	assert.ErrorIs(t, f.MarkCrawled(id), ErrInvalidTransition)
	assert.ErrorIs(t, f.MarkRejected(TargetID(42)), ErrInvalidTransition)

	f.NextBatch(1)
	require.NoError(t, f.MarkCrawled(id))
	assert.ErrorIs(t, f.MarkRejected(id), ErrInvalidTransition)
	assert.ErrorIs(t, f.MarkCrawled(id), ErrInvalidTransition)
	assert.Equal(t, 1, f.Crawled())
	assert.Equal(t, 0, f.Rejected())
}

func TestFrontierNextBatchOrder(t *testing.T) {
	f := NewFrontier()
	for _, u := range []string{"https://e.com/c", "https://e.com/a", "https://e.com/b"} {
		f.Add(u)
	}

	batch := f.NextBatch(2)
	require.Len(t, batch, 2)
	assert.Equal(t, "https://e.com/c", f.URL(batch[0]))
	assert.Equal(t, "https://e.com/a", f.URL(batch[1]))
	assert.Equal(t, 1, f.Pending())

	assert.Len(t, f.NextBatch(10), 1)
	assert.Nil(t, f.NextBatch(10))
	assert.Nil(t, f.NextBatch(0))
}

func TestFrontierCrawledURLsSorted(t *testing.T) {
	f := NewFrontier()
	for _, u := range []string{"https://e.com/z", "https://e.com", "https://e.com/m", "https://e.com/bad"} {
		f.Add(u)
	}
	for _, id := range f.NextBatch(f.Pending()) {
		if f.URL(id) == "https://e.com/bad" {
			require.NoError(t, f.MarkRejected(id))
			continue
		}
		require.NoError(t, f.MarkCrawled(id))
	}

	assert.Equal(t, []string{"https://e.com", "https://e.com/m", "https://e.com/z"}, f.CrawledURLs())
	assert.Equal(t, 4, f.Visited())
	assert.Equal(t, 1, f.Rejected())

	id, ok := f.Lookup("https://e.com/m")
	require.True(t, ok)
	assert.Equal(t, "https://e.com/m", f.URL(id))
}
