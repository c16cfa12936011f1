package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
}

func TestDirSource_ListFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.png", "A.jpg", "notes.txt", ".hidden.png", "clip.mp4")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "zfolder"), 0o755))

	items, err := NewDirSource(dir).List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"zfolder", "A.jpg", "b.png", "clip.mp4"}, IDs(items))
	assert.True(t, items[0].Folder)
	assert.True(t, items[1].HasFull())
	assert.True(t, items[3].Video)
	assert.False(t, items[3].HasFull(), "videos carry no full resolution still")
}

func TestDirSource_ShowHidden(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, ".hidden.png", "a.png")

	src := NewDirSource(dir)
	src.ShowHidden = true
	items, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestDirSource_Detail(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.png", "readme.md")
	src := NewDirSource(dir)

	d, err := src.Detail(context.Background(), "a.png")
	require.NoError(t, err)
	assert.Equal(t, "a.png", d.Item.ID)
	assert.Equal(t, int64(1), d.Size)
	assert.Equal(t, filepath.Join(dir, "a.png"), d.Extra["path"])

	_, err = src.Detail(context.Background(), "missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = src.Detail(context.Background(), "readme.md")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = src.Detail(context.Background(), "../a.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirSource_ListMissingDir(t *testing.T) {
	_, err := NewDirSource(filepath.Join(t.TempDir(), "nope")).List(context.Background())
	assert.Error(t, err)
}

func TestDirSource_WatchRelistsOnChange(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.png")
	src := NewDirSource(dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan []Item, 4)
	done := make(chan error, 1)
	go func() {
		done <- src.Watch(ctx, func(items []Item) { changes <- items })
	}()

	// Give the watcher time to register before producing events.
	time.Sleep(100 * time.Millisecond)
	writeFiles(t, dir, "b.png", "c.png")

	select {
	case items := <-changes:
		assert.Equal(t, []string{"a.png", "b.png", "c.png"}, IDs(items))
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for watch callback")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestDirSource_RelistAfterCancelIsDropped(t *testing.T) {
	src := NewDirSource(t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	called := 0
	src.relist(ctx, func([]Item) { called++ })
	assert.Equal(t, 1, called)

	cancel()
	src.relist(ctx, func([]Item) { called++ })
	assert.Equal(t, 1, called, "a listing finished after cancel must not be reported")
}

func TestItem_Name(t *testing.T) {
	assert.Equal(t, "c.png", Item{ID: "a/b/c.png"}.Name())
	assert.Equal(t, "c.png", Item{ID: "c.png"}.Name())
}
