package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/montelibero/julesbot/internal/jules"
)

func TestDiff(t *testing.T) {
	prev := Snapshot{"1": "RUNNING", "2": "COMPLETED"}

	t.Run("new session", func(t *testing.T) {
		changes := Diff(prev, []jules.Session{
			{ID: "1", State: "RUNNING"},
			{ID: "3", State: "PLANNING"},
		})
		require.Len(t, changes, 1)
		assert.Equal(t, ChangeNew, changes[0].Kind)
		assert.Equal(t, "3", changes[0].Session.CleanID())
	})

	t.Run("updated session carries previous state", func(t *testing.T) {
		changes := Diff(prev, []jules.Session{{ID: "1", State: "COMPLETED"}})
		require.Len(t, changes, 1)
		assert.Equal(t, ChangeUpdated, changes[0].Kind)
		assert.Equal(t, "RUNNING", changes[0].PreviousState)
	})

	t.Run("unchanged sessions are silent", func(t *testing.T) {
		changes := Diff(prev, []jules.Session{
			{ID: "1", State: "RUNNING"},
			{ID: "2", State: "COMPLETED"},
		})
		assert.Empty(t, changes)
	})

	t.Run("removed sessions never notify", func(t *testing.T) {
		changes := Diff(prev, []jules.Session{{ID: "1", State: "RUNNING"}})
		assert.Empty(t, changes)
	})

	t.Run("resource prefix matches clean snapshot key", func(t *testing.T) {
		changes := Diff(prev, []jules.Session{{ID: "sessions/1", State: "RUNNING"}})
		assert.Empty(t, changes)
	})

	t.Run("sessions without an ID are skipped", func(t *testing.T) {
		changes := Diff(Snapshot{}, []jules.Session{{State: "RUNNING"}})
		assert.Empty(t, changes)
	})
}

func TestCommitReplacesSnapshotExactly(t *testing.T) {
	next := Commit([]jules.Session{
		{ID: "sessions/1", State: "DONE"},
		{ID: "4", State: "PLANNING"},
		{State: "NO_ID"},
	})
	assert.Equal(t, Snapshot{"1": "DONE", "4": "PLANNING"}, next)
}

func TestSnapshotClone(t *testing.T) {
	orig := Snapshot{"1": "RUNNING"}
	copied := orig.Clone()
	copied["1"] = "DONE"
	assert.Equal(t, "RUNNING", orig["1"])
}
