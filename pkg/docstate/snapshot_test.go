package docstate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := sermonState()
	edit := s.Root.Clone()
	edit.Children[0].Children[0].Text = "edited"
	s1, _, err := s.ApplyContentReplacement(edit, ActorUser)
	require.NoError(t, err)

	snap := s1.Snapshot(0)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))

	restored := FromSnapshot(&decoded)
	assert.Equal(t, 1, restored.Version)
	assert.True(t, restored.Root.Equal(s1.Root))
	assert.Len(t, restored.EventLog, 1)
	assert.True(t, restored.CanUndo(), "retained events stay undoable after reload")

	undone, _, err := restored.Undo()
	require.NoError(t, err)
	assert.True(t, undone.Root.Equal(s.Root))
}

func TestSnapshotTruncatesEventLog(t *testing.T) {
	s := sermonState()
	var err error
	for i := 0; i < 5; i++ {
		edit := s.Root.Clone()
		edit.Children[0].Children[0].Text = string(rune('a' + i))
		s, _, err = s.ApplyContentReplacement(edit, ActorUser)
		require.NoError(t, err)
	}

	snap := s.Snapshot(2)
	assert.Len(t, snap.EventLog, 2)
	assert.Equal(t, 5, snap.EventLog[1].ResultingVersion, "newest events are kept")
}

func TestFromSnapshotNil(t *testing.T) {
	s := FromSnapshot(nil)
	require.NotNil(t, s)
	assert.Equal(t, 0, s.Version)
	assert.NotNil(t, s.Root)
}

func TestSnapshotIsDetached(t *testing.T) {
	s := sermonState()
	snap := s.Snapshot(0)
	snap.Root.Children[0].Children[0].Text = "mutated snapshot"
	assert.Equal(t, "Before the quote.", s.Root.Children[0].Children[0].Text)
}
