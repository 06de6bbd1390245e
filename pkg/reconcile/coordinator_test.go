package reconcile

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homiletic/scribe/pkg/richtext"
)

// recordingView captures external pushes and optionally echoes each one
// back as a local edit, the way a real editor fires its change event
// when its document is replaced programmatically.
type recordingView struct {
	mu     sync.Mutex
	pushes [][]byte
	echo   *Coordinator
}

func (v *recordingView) ApplyExternal(payload []byte) error {
	v.mu.Lock()
	v.pushes = append(v.pushes, payload)
	echo := v.echo
	v.mu.Unlock()
	if echo != nil {
		echo.LocalEdit(payload)
	}
	return nil
}

func (v *recordingView) pushCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.pushes)
}

type recordingApply struct {
	mu       sync.Mutex
	payloads [][]byte
	done     chan struct{}
}

func newRecordingApply() *recordingApply {
	return &recordingApply{done: make(chan struct{}, 16)}
}

func (a *recordingApply) apply(payload []byte) error {
	a.mu.Lock()
	a.payloads = append(a.payloads, payload)
	a.mu.Unlock()
	a.done <- struct{}{}
	return nil
}

func (a *recordingApply) committed() [][]byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([][]byte, len(a.payloads))
	copy(out, a.payloads)
	return out
}

func newTestCoordinator(t *testing.T, view ViewAdapter, apply ApplyFunc, debounce time.Duration) *Coordinator {
	t.Helper()
	c, err := New(Config{
		DocumentID: "doc-1",
		View:       view,
		Apply:      apply,
		Debounce:   debounce,
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNewRequiresViewAndApply(t *testing.T) {
	_, err := New(Config{Apply: func([]byte) error { return nil }})
	assert.Error(t, err)

	_, err = New(Config{View: &recordingView{}})
	assert.Error(t, err)
}

func TestRapidEditsCoalesceToOneCommit(t *testing.T) {
	view := &recordingView{}
	apply := newRecordingApply()
	c := newTestCoordinator(t, view, apply.apply, 30*time.Millisecond)

	c.LocalEdit([]byte(`{"type":"doc","rev":1}`))
	c.LocalEdit([]byte(`{"type":"doc","rev":2}`))
	assert.Equal(t, PendingLocalSync, c.Phase())

	select {
	case <-apply.done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced commit never fired")
	}

	committed := apply.committed()
	require.Len(t, committed, 1, "a burst of edits commits exactly once")
	assert.Equal(t, []byte(`{"type":"doc","rev":2}`), committed[0], "the newest payload wins")
	assert.Equal(t, Idle, c.Phase())
}

func TestSeparateBurstsCommitSeparately(t *testing.T) {
	view := &recordingView{}
	apply := newRecordingApply()
	c := newTestCoordinator(t, view, apply.apply, 10*time.Millisecond)

	c.LocalEdit([]byte(`{"type":"doc","rev":1}`))
	<-apply.done
	c.LocalEdit([]byte(`{"type":"doc","rev":2}`))
	<-apply.done

	assert.Len(t, apply.committed(), 2)
}

func TestExternalChangeStampsAndPushes(t *testing.T) {
	view := &recordingView{}
	apply := newRecordingApply()
	c := newTestCoordinator(t, view, apply.apply, 10*time.Millisecond)

	err := c.ExternalChange([]byte(`{"type":"doc","attrs":{"nodeId":"r"}}`))
	require.NoError(t, err)

	require.Equal(t, 1, view.pushCount())
	assert.Equal(t, int64(1), richtext.PayloadSyncVersion(view.pushes[0]))
	assert.Equal(t, int64(1), c.ExternalVersion())
	assert.Equal(t, Idle, c.Phase())
}

func TestExternalChangeSuppressesItsOwnEcho(t *testing.T) {
	view := &recordingView{}
	apply := newRecordingApply()
	c := newTestCoordinator(t, view, apply.apply, 10*time.Millisecond)
	view.echo = c

	err := c.ExternalChange([]byte(`{"type":"doc"}`))
	require.NoError(t, err)

	// Give a would-be echo commit time to fire; nothing should.
	select {
	case <-apply.done:
		t.Fatal("echo of a programmatic update was committed as a local edit")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, Idle, c.Phase())
}

func TestExternalChangeSupersedesPendingLocalEdit(t *testing.T) {
	view := &recordingView{}
	apply := newRecordingApply()
	c := newTestCoordinator(t, view, apply.apply, 40*time.Millisecond)

	c.LocalEdit([]byte(`{"type":"doc","rev":1}`))
	require.NoError(t, c.ExternalChange([]byte(`{"type":"doc"}`)))

	select {
	case <-apply.done:
		t.Fatal("superseded local edit was committed anyway")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Empty(t, apply.committed())
}

func TestFlushCommitsPendingEditImmediately(t *testing.T) {
	view := &recordingView{}
	apply := newRecordingApply()
	c := newTestCoordinator(t, view, apply.apply, time.Hour)

	c.LocalEdit([]byte(`{"type":"doc","rev":1}`))
	c.Flush()

	select {
	case <-apply.done:
	case <-time.After(2 * time.Second):
		t.Fatal("flush did not deliver the pending edit")
	}
	require.Len(t, apply.committed(), 1)
	assert.Equal(t, Idle, c.Phase())
}

func TestFlushWithNothingPendingIsANoop(t *testing.T) {
	view := &recordingView{}
	apply := newRecordingApply()
	c := newTestCoordinator(t, view, apply.apply, 10*time.Millisecond)

	c.Flush()
	assert.Empty(t, apply.committed())
}

func TestCloseDropsPendingEdit(t *testing.T) {
	view := &recordingView{}
	apply := newRecordingApply()
	c := newTestCoordinator(t, view, apply.apply, 20*time.Millisecond)

	c.LocalEdit([]byte(`{"type":"doc","rev":1}`))
	c.Close()

	select {
	case <-apply.done:
		t.Fatal("edit committed after close")
	case <-time.After(80 * time.Millisecond):
	}
	assert.Empty(t, apply.committed())

	// Post-close calls are inert or refused.
	c.LocalEdit([]byte(`{"type":"doc","rev":2}`))
	assert.ErrorIs(t, c.ExternalChange([]byte(`{"type":"doc"}`)), ErrClosed)
	c.Close()
}

func TestCoordinatorState(t *testing.T) {
	view := &recordingView{}
	apply := newRecordingApply()
	c := newTestCoordinator(t, view, apply.apply, 10*time.Millisecond)

	require.NoError(t, c.ExternalChange([]byte(`{"type":"doc"}`)))

	state, ok := c.State().(CoordinatorState)
	require.True(t, ok)
	assert.Equal(t, "doc-1", state.DocumentID)
	assert.Equal(t, "idle", state.Phase)
	assert.Equal(t, int64(1), state.ExternalVersion)
	assert.Equal(t, "sync-coordinator", c.ComponentType())
}
