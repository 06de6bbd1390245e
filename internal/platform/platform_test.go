package platform

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homiletic/scribe/pkg/library"
)

func TestOpenGitless(t *testing.T) {
	tmp := t.TempDir()

	s, err := Open(tmp, WithVersioning(false))
	require.NoError(t, err)
	t.Cleanup(s.Close)

	require.NoError(t, s.Store().Save(context.Background(), library.Entry{
		ID: "note", FullText: "hello",
	}, nil))

	_, err = os.Stat(filepath.Join(tmp, "note.md"))
	assert.NoError(t, err)
}

func TestOpenMustExist(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	_, err := Open(missing, WithMustExist(true), WithVersioning(false))
	assert.Error(t, err)
}

func TestOpenCustomSystemDir(t *testing.T) {
	tmp := t.TempDir()

	s, err := Open(tmp, WithVersioning(false), WithSystemDir(".custom"))
	require.NoError(t, err)
	t.Cleanup(s.Close)

	require.NoError(t, s.Store().Save(context.Background(), library.Entry{
		ID: "note", FullText: "hello",
	}, nil))
	_, err = s.Store().List(context.Background())
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(tmp, ".custom", "index.json"))
	assert.NoError(t, err)
}

func TestFindRoot(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, ".scribe"), 0755))
	nested := filepath.Join(tmp, "deep", "nested")
	require.NoError(t, os.MkdirAll(nested, 0755))

	root, err := FindRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, tmp, root)
}

func TestFindRootNotFound(t *testing.T) {
	// A bare temp dir has no indicators; unless a parent happens to,
	// the search should fail or at least not return the dir itself.
	tmp := t.TempDir()
	root, err := FindRoot(tmp)
	if err == nil {
		assert.NotEqual(t, tmp, root)
	}
}
