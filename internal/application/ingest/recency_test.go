package ingest

import (
	"fmt"
	"testing"
	"time"
)

func TestRecencyMapSuppressesWithinWindow(t *testing.T) {
	r := newRecencyMap(10, 2*time.Second)
	now := time.Now()

	if r.SeenRecently("/in/a.dcm", now) {
		t.Fatal("first sighting should not be suppressed")
	}
	if !r.SeenRecently("/in/a.dcm", now.Add(500*time.Millisecond)) {
		t.Fatal("sighting within window should be suppressed")
	}
	if r.SeenRecently("/in/a.dcm", now.Add(3*time.Second)) {
		t.Fatal("sighting after window should not be suppressed")
	}
}

func TestRecencyMapTracksPathsIndependently(t *testing.T) {
	r := newRecencyMap(10, 2*time.Second)
	now := time.Now()

	r.SeenRecently("/in/a.dcm", now)
	if r.SeenRecently("/in/b.dcm", now) {
		t.Fatal("different path should not be suppressed")
	}
}

func TestRecencyMapEvictsOldestAtCapacity(t *testing.T) {
	r := newRecencyMap(3, time.Hour)
	now := time.Now()

	for i := 0; i < 4; i++ {
		r.SeenRecently(fmt.Sprintf("/in/%d.dcm", i), now.Add(time.Duration(i)*time.Millisecond))
	}

	// /in/0.dcm was evicted, so a repeat within the window is not suppressed.
	if r.SeenRecently("/in/0.dcm", now.Add(time.Second)) {
		t.Fatal("evicted path should not be suppressed")
	}
	// /in/3.dcm is still tracked.
	if !r.SeenRecently("/in/3.dcm", now.Add(time.Second)) {
		t.Fatal("retained path should be suppressed")
	}
}

func TestRecencyMapRefreshMovesEntryToBack(t *testing.T) {
	r := newRecencyMap(2, time.Millisecond)
	now := time.Now()

	r.SeenRecently("/in/a.dcm", now)
	r.SeenRecently("/in/b.dcm", now)
	// Refresh a past its window so it becomes the most recent entry.
	r.SeenRecently("/in/a.dcm", now.Add(10*time.Millisecond))
	// Inserting c should now evict b, not a.
	r.SeenRecently("/in/c.dcm", now.Add(11*time.Millisecond))

	if !r.SeenRecently("/in/a.dcm", now.Add(11*time.Millisecond)) {
		t.Fatal("refreshed path should still be tracked")
	}
	if r.SeenRecently("/in/b.dcm", now.Add(11*time.Millisecond)) {
		t.Fatal("stale path should have been evicted")
	}
}
