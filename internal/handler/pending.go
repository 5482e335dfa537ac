package handler

import "time"

// pendingKind tags what a call-id is waiting for, mirroring the shape of
// the request that was submitted under it. It is the Go equivalent of a
// Rust enum carrying per-variant payload.
type pendingKind int

const (
	pendingCreateTarget pendingKind = iota
	pendingNavigate
	pendingExternalCommand
	pendingInternalCommand
)

// pendingEntry is one row of the pending-command table: a call-id maps to
// the intent it was issued for, when it was issued, and enough context to
// resolve (or fail) whoever is waiting on it.
type pendingEntry struct {
	kind    pendingKind
	issued  time.Time
	method  string
	targetID string // set for pendingInternalCommand

	// createTargetReply/navID/externalReply are mutually exclusive,
	// selected by kind.
	createTargetReply chan<- CreatePageResult
	navID             uint64 // set for pendingNavigate
	externalReply     chan<- CommandResult
}

// pendingTable tracks in-flight commands by call-id. It is owned
// exclusively by the Handler's run loop; nothing else may touch it.
type pendingTable struct {
	entries map[int64]pendingEntry
	timeout time.Duration
}

func newPendingTable(timeout time.Duration) *pendingTable {
	return &pendingTable{
		entries: make(map[int64]pendingEntry),
		timeout: timeout,
	}
}

func (t *pendingTable) insert(callID int64, e pendingEntry) {
	t.entries[callID] = e
}

func (t *pendingTable) take(callID int64) (pendingEntry, bool) {
	e, ok := t.entries[callID]
	if ok {
		delete(t.entries, callID)
	}
	return e, ok
}

func (t *pendingTable) len() int {
	return len(t.entries)
}

// evictExpired removes and returns every entry whose deadline has passed
// as of now. The caller is responsible for failing each one out with a
// TimeoutError.
func (t *pendingTable) evictExpired(now time.Time) map[int64]pendingEntry {
	var expired map[int64]pendingEntry
	for id, e := range t.entries {
		if now.Sub(e.issued) < t.timeout {
			continue
		}
		if expired == nil {
			expired = make(map[int64]pendingEntry)
		}
		expired[id] = e
		delete(t.entries, id)
	}
	return expired
}
