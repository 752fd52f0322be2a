package upload

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveString(t *testing.T, s Store, username, body string) Info {
	t.Helper()
	info, err := s.Save(context.Background(), Info{
		Username:    username,
		Name:        "Q3 admissions",
		Filename:    "admissions.csv",
		ContentType: "text/csv",
	}, strings.NewReader(body))
	require.NoError(t, err)
	return info
}

func TestDiskStoreSaveOpen(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 0)
	require.NoError(t, err)

	info := saveString(t, store, "ana", "a,b\n1,2\n")
	assert.True(t, validID(info.ID))
	assert.Equal(t, int64(8), info.Size)
	assert.False(t, info.CreatedAt.IsZero())

	f, err := store.Open(context.Background(), info.ID)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f.Reader)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
	assert.Equal(t, "ana", f.Username)
	assert.Equal(t, "Q3 admissions", f.Name)
	assert.Equal(t, "admissions.csv", f.Filename)
	assert.FileExists(t, f.Path)
}

func TestDiskStoreTooLarge(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, 4)
	require.NoError(t, err)

	_, err = store.Save(context.Background(), Info{Size: 10}, strings.NewReader("0123456789"))
	assert.ErrorIs(t, err, ErrTooLarge)

	// Declared size lies; the copy limit still catches it.
	_, err = store.Save(context.Background(), Info{}, strings.NewReader("0123456789"))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial files must be removed")
}

func TestDiskStoreOpenRejectsBadIDs(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 0)
	require.NoError(t, err)

	for _, id := range []string{"", "../etc/passwd", "abc", "00000000-0000-0000-0000-000000000000"} {
		_, err := store.Open(context.Background(), id)
		assert.ErrorIs(t, err, ErrNotFound, id)
	}
}

func TestDiskStoreListNewestFirst(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 0)
	require.NoError(t, err)

	first := saveString(t, store, "ana", "1")
	time.Sleep(10 * time.Millisecond)
	second := saveString(t, store, "ana", "2")
	saveString(t, store, "ben", "3")

	infos, err := store.List(context.Background(), "ana")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, second.ID, infos[0].ID)
	assert.Equal(t, first.ID, infos[1].ID)

	all, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDiskStoreDelete(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 0)
	require.NoError(t, err)

	info := saveString(t, store, "ana", "x")
	require.NoError(t, store.Delete(context.Background(), info.ID))
	assert.ErrorIs(t, store.Delete(context.Background(), info.ID), ErrNotFound)

	_, err = store.Open(context.Background(), info.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDiskStoreCleanup(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, 0)
	require.NoError(t, err)

	old := saveString(t, store, "ana", "old")
	fresh := saveString(t, store, "ana", "fresh")

	// Age the first upload by rewriting its sidecar.
	meta, err := store.loadMeta(old.ID)
	require.NoError(t, err)
	meta.CreatedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.saveMeta(meta))

	// Unrelated files in the directory are left alone.
	other := filepath.Join(dir, "README")
	require.NoError(t, os.WriteFile(other, []byte("keep"), 0o644))
	past := time.Now().Add(-72 * time.Hour)
	require.NoError(t, os.Chtimes(other, past, past))

	require.NoError(t, store.Cleanup(context.Background(), 24*time.Hour))

	_, err = store.Open(context.Background(), old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	f, err := store.Open(context.Background(), fresh.ID)
	require.NoError(t, err)
	f.Close()
	assert.FileExists(t, other)
}

func TestDiskStoreSaveCancelled(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Save(ctx, Info{}, strings.NewReader("data"))
	assert.ErrorIs(t, err, context.Canceled)
}
