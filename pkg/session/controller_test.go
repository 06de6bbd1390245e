package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homiletic/scribe/pkg/ast"
	"github.com/homiletic/scribe/pkg/docstate"
	"github.com/homiletic/scribe/pkg/library"
	"github.com/homiletic/scribe/pkg/richtext"
)

type fakeView struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (v *fakeView) ApplyExternal(payload []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.payloads = append(v.payloads, payload)
	return nil
}

func (v *fakeView) last() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.payloads) == 0 {
		return nil
	}
	return v.payloads[len(v.payloads)-1]
}

func sermonController(t *testing.T, store *library.Store) (*Controller, *fakeView) {
	t.Helper()
	root := ast.NewRoot()
	root.Doc.Title = "On Grace"
	root.Children = []*ast.Node{
		ast.NewParagraph("For God so loved the world."),
	}

	view := &fakeView{}
	ctrl, err := NewController(ControllerConfig{
		DocID:    "on-grace",
		State:    docstate.New(root),
		View:     view,
		Store:    store,
		AutoSave: store != nil,
		Debounce: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)
	return ctrl, view
}

// editPayload renders the controller's current tree with one extra
// paragraph, the way a view edit would arrive on the wire.
func editPayload(t *testing.T, ctrl *Controller, extra string) []byte {
	t.Helper()
	doc, err := richtext.FromAST(ctrl.State().Root, richtext.DefaultOptions())
	require.NoError(t, err)
	doc.Content = append(doc.Content, &richtext.Node{
		Type:    richtext.TypeParagraph,
		Content: []*richtext.Node{{Type: richtext.TypeText, Text: extra}},
	})
	payload, err := doc.Marshal()
	require.NoError(t, err)
	return payload
}

func TestLocalEditCommitsThroughMutator(t *testing.T) {
	ctrl, _ := sermonController(t, nil)

	ctrl.LocalEdit(editPayload(t, ctrl, "Amen."))
	ctrl.Flush()

	deadline := time.Now().Add(2 * time.Second)
	for ctrl.State().Version != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	state := ctrl.State()
	require.Equal(t, 1, state.Version)
	require.Len(t, state.Root.Children, 2)
	assert.Equal(t, "Amen.", state.Root.Children[1].PlainText())
}

func TestUndoPushesExternalChange(t *testing.T) {
	ctrl, view := sermonController(t, nil)

	ctrl.LocalEdit(editPayload(t, ctrl, "Amen."))
	ctrl.Flush()
	deadline := time.Now().Add(2 * time.Second)
	for ctrl.State().Version != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 1, ctrl.State().Version)

	state, err := ctrl.Undo()
	require.NoError(t, err)
	assert.Equal(t, 0, state.Version)
	require.Len(t, state.Root.Children, 1)

	payload := view.last()
	require.NotNil(t, payload, "undo reaches the view as an external change")
	assert.Equal(t, int64(1), richtext.PayloadSyncVersion(payload))
	assert.Equal(t, state.Root.ID, richtext.PayloadRootID(payload))

	redone, err := ctrl.Redo()
	require.NoError(t, err)
	assert.Equal(t, 1, redone.Version)
	assert.Len(t, redone.Root.Children, 2)
}

func TestUndoWithoutHistory(t *testing.T) {
	ctrl, _ := sermonController(t, nil)

	_, err := ctrl.Undo()
	assert.ErrorIs(t, err, docstate.ErrNothingToUndo)
	_, err = ctrl.Redo()
	assert.ErrorIs(t, err, docstate.ErrNothingToRedo)
}

func TestUpdateMetadataPropagatesToView(t *testing.T) {
	ctrl, view := sermonController(t, nil)

	state, err := ctrl.UpdateMetadata(ast.DocMeta{Title: "Renamed", Speaker: "J. Doe"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", state.Root.Doc.Title)

	payload := view.last()
	require.NotNil(t, payload)
	parsed, err := richtext.ParsePayload(payload)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", parsed.Attrs["title"])
}

func TestStructuralOpCommitsPendingEdit(t *testing.T) {
	root := ast.NewRoot()
	root.Doc.Title = "On Grace"
	root.Children = []*ast.Node{
		ast.NewParagraph("For God so loved the world."),
	}

	view := &fakeView{}
	ctrl, err := NewController(ControllerConfig{
		DocID:    "on-grace",
		State:    docstate.New(root),
		View:     view,
		Debounce: time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)

	ctrl.LocalEdit(editPayload(t, ctrl, "Amen."))

	// The debounced keystrokes are committed before the metadata
	// change replaces the view, not discarded with it.
	state, err := ctrl.UpdateMetadata(ast.DocMeta{Title: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, 2, state.Version)
	require.Len(t, state.Root.Children, 2)
	assert.Equal(t, "Amen.", state.Root.Children[1].PlainText())
	assert.Equal(t, "Renamed", state.Root.Doc.Title)
}

func TestFailedStructuralOpLeavesStateAndView(t *testing.T) {
	ctrl, view := sermonController(t, nil)
	before := ctrl.State()

	_, err := ctrl.VerifyPassage("no-such-node", true)
	require.ErrorIs(t, err, docstate.ErrNotFound)
	assert.Same(t, before, ctrl.State())
	assert.Nil(t, view.last(), "no view push for a failed operation")
}

func TestAutoSavePersistsSnapshot(t *testing.T) {
	store := library.NewStore(library.Config{Path: t.TempDir(), Gitless: true})
	require.NoError(t, store.Initialize(context.Background()))

	ctrl, _ := sermonController(t, store)

	_, err := ctrl.UpdateMetadata(ast.DocMeta{Title: "Saved"})
	require.NoError(t, err)

	entry, err := store.Get(context.Background(), "on-grace")
	require.NoError(t, err)
	assert.Equal(t, "Saved", entry.Title)

	snap, err := store.LoadSnapshot(context.Background(), "on-grace")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.Version)
}

func TestExportRequest(t *testing.T) {
	ctrl, _ := sermonController(t, nil)

	req, err := ctrl.ExportRequest("md")
	require.NoError(t, err)
	assert.Contains(t, req.HTML, "<p>For God so loved the world.</p>")
	assert.Equal(t, "On Grace", req.Title)

	_, err = ctrl.ExportRequest("epub")
	assert.Error(t, err)
}
