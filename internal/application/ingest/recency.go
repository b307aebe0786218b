package ingest

import (
	"container/list"
	"sync"
	"time"
)

// recencyMap suppresses duplicate filesystem notifications for the same path
// within a dedup window. It is bounded: when full, the oldest entry is
// evicted first.
type recencyMap struct {
	mu       sync.Mutex
	capacity int
	window   time.Duration
	order    *list.List
	entries  map[string]*list.Element
}

type recencyEntry struct {
	path string
	seen time.Time
}

func newRecencyMap(capacity int, window time.Duration) *recencyMap {
	return &recencyMap{
		capacity: capacity,
		window:   window,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

// SeenRecently reports whether the path fired within the dedup window, and
// records this sighting either way.
func (r *recencyMap) SeenRecently(path string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if el, ok := r.entries[path]; ok {
		entry := el.Value.(*recencyEntry)
		if now.Sub(entry.seen) < r.window {
			return true
		}
		entry.seen = now
		r.order.MoveToBack(el)
		return false
	}

	r.entries[path] = r.order.PushBack(&recencyEntry{path: path, seen: now})
	for r.order.Len() > r.capacity {
		oldest := r.order.Front()
		r.order.Remove(oldest)
		delete(r.entries, oldest.Value.(*recencyEntry).path)
	}
	return false
}
