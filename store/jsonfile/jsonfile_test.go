package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodegraph/document"
	"nodegraph/store"
	"nodegraph/store/storetest"
)

func TestFileStore(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "graphs"))
	require.NoError(t, s.CreateSchema(context.Background()))
	storetest.Run(t, s)
}

func TestFileStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	first, err := s.Save(ctx, storetest.Sample("first"))
	require.NoError(t, err)
	second, err := s.Save(ctx, storetest.Sample("second"))
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestFileStore_KeepsCallerID(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := New(dir)

	doc := storetest.Sample("named")
	doc.ID = "my-graph"
	_, err := s.Save(ctx, doc)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "my-graph.graph.json"))
	require.NoError(t, err)
}

func TestFileStore_RejectsPathIDs(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())

	for _, id := range []string{"../escape", `a\b`, ".."} {
		_, err := s.Load(ctx, id)
		assert.ErrorIs(t, err, store.ErrNotFound, id)
	}
}

func TestFileStore_ListWithoutDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing"))
	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.graph.json"), []byte("{"), 0o644))

	_, err := New(dir).Load(context.Background(), "broken")
	require.ErrorIs(t, err, document.ErrInvalid)
}

func TestWriteAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	doc := storetest.Sample("export")

	require.NoError(t, WriteFile(path, doc))
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "export", got.Name)
	assert.Empty(t, got.ID, "WriteFile should not assign an ID")

	_, err = ReadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.ErrorIs(t, err, store.ErrNotFound)
}
