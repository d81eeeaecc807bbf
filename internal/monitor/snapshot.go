package monitor

import "github.com/montelibero/julesbot/internal/jules"

// Snapshot maps session ID to its last observed state. It is replaced
// wholesale after every successful tick, so it always mirrors the most
// recent fetch exactly.
type Snapshot map[string]string

// Clone returns an independent copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, state := range s {
		out[id] = state
	}
	return out
}

// ChangeKind classifies a detected change.
type ChangeKind string

const (
	// ChangeNew marks a session absent from the previous snapshot.
	ChangeNew ChangeKind = "new"
	// ChangeUpdated marks a session whose state differs from the
	// previous snapshot.
	ChangeUpdated ChangeKind = "updated"
)

// Change is one detected difference between a snapshot and a fetch.
type Change struct {
	Kind          ChangeKind
	Session       jules.Session
	PreviousState string
}

// Diff compares the previous snapshot against a fetched session list and
// returns changes in fetch order. Sessions that disappeared from the
// fetch produce no change; sessions without an ID are skipped.
func Diff(prev Snapshot, fetched []jules.Session) []Change {
	var changes []Change
	for _, s := range fetched {
		if s.ID == "" {
			continue
		}
		prevState, seen := prev[s.CleanID()]
		switch {
		case !seen:
			changes = append(changes, Change{Kind: ChangeNew, Session: s})
		case prevState != s.State:
			changes = append(changes, Change{Kind: ChangeUpdated, Session: s, PreviousState: prevState})
		}
	}
	return changes
}

// Commit builds the snapshot that exactly mirrors a fetched session
// list, dropping entries no longer present.
func Commit(fetched []jules.Session) Snapshot {
	next := make(Snapshot, len(fetched))
	for _, s := range fetched {
		if s.ID == "" {
			continue
		}
		next[s.CleanID()] = s.State
	}
	return next
}
