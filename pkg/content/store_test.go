package content

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "content"))
	require.NoError(t, err)
	return store
}

func TestNewStore_CreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "content")
	_, err := NewStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	rec := Record{
		Key:       "aZ3bQ9x",
		MediaType: "text/plain",
		Expiry:    time.Now().Add(time.Hour).Truncate(time.Millisecond),
		Body:      Compress([]byte("hello")),
	}

	var resolved Record
	require.NoError(t, store.Save(rec, false, func(r Record) { resolved = r }))
	assert.Equal(t, rec.Body, resolved.Body, "resolve receives the stored form")

	got, err := store.Load("aZ3bQ9x")
	require.NoError(t, err)
	assert.Equal(t, rec.Key, got.Key)
	assert.Equal(t, rec.MediaType, got.MediaType)
	assert.True(t, rec.Expiry.Equal(got.Expiry))
	assert.Equal(t, rec.Body, got.Body)
}

func TestSave_CompressFirst(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	body := []byte("hello hello hello hello")
	rec := Record{Key: "abc", MediaType: "text/plain", Expiry: time.Now().Add(time.Hour), Body: body}

	var resolved Record
	require.NoError(t, store.Save(rec, true, func(r Record) { resolved = r }))

	// The resolved and persisted body is the gzipped form.
	plain, err := Decompress(resolved.Body)
	require.NoError(t, err)
	assert.Equal(t, body, plain)

	got, err := store.Load("abc")
	require.NoError(t, err)
	assert.Equal(t, resolved.Body, got.Body)
}

func TestSave_ResolvesBeforeWrite(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	rec := Record{Key: "abc", MediaType: "text/plain", Expiry: time.Now().Add(time.Hour), Body: []byte("x")}

	var fileExistedAtResolve bool
	require.NoError(t, store.Save(rec, true, func(Record) {
		_, err := os.Stat(store.Path("abc"))
		fileExistedAtResolve = !os.IsNotExist(err)
	}))

	assert.False(t, fileExistedAtResolve, "promise must resolve before the disk write")
}

func TestSave_ConflictOnExistingFile(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	first := Record{Key: "abc", MediaType: "text/plain", Expiry: time.Now().Add(time.Hour), Body: []byte("first")}
	require.NoError(t, store.Save(first, true, nil))

	second := Record{Key: "abc", MediaType: "text/plain", Expiry: time.Now().Add(time.Hour), Body: []byte("second")}
	err := store.Save(second, true, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)

	// The prior record is untouched.
	got, err := store.Load("abc")
	require.NoError(t, err)
	plain, err := Decompress(got.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), plain)
}

func TestLoad_MissingReturnsEmptySentinel(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	rec, err := store.Load("nosuchkey")
	require.NoError(t, err)
	assert.True(t, rec.Empty())
}

func TestLoadMeta(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	rec := Record{
		Key:       "abc",
		MediaType: "application/octet-stream",
		Expiry:    time.UnixMilli(1700000000000),
		Body:      make([]byte, 1<<16),
	}
	require.NoError(t, store.Save(rec, false, nil))

	meta, err := store.LoadMeta(store.Path("abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", meta.Key)
	assert.Equal(t, rec.MediaType, meta.MediaType)
	assert.True(t, rec.Expiry.Equal(meta.Expiry))
	assert.Nil(t, meta.Body)
}
