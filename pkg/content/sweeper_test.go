package content

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveWithExpiry(t *testing.T, store *Store, key string, expiry time.Time) {
	t.Helper()
	rec := Record{Key: key, MediaType: "text/plain", Expiry: expiry, Body: []byte("data")}
	require.NoError(t, store.Save(rec, true, nil))
}

func TestSweep_RemovesExpiredKeepsLive(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	saveWithExpiry(t, store, "expired", time.Now().Add(-time.Minute))
	saveWithExpiry(t, store, "live", time.Now().Add(time.Hour))

	sweeper := NewSweeper(store, time.Minute, nil)
	removed := sweeper.Sweep(time.Now())
	assert.Equal(t, 1, removed)

	_, err := os.Stat(store.Path("expired"))
	assert.True(t, os.IsNotExist(err), "expired record must be deleted")

	_, err = os.Stat(store.Path("live"))
	assert.NoError(t, err, "live record must be retained")
}

func TestSweep_EmptyDirectory(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	sweeper := NewSweeper(store, time.Minute, nil)
	assert.Equal(t, 0, sweeper.Sweep(time.Now()))
}

func TestSweep_SkipsUnreadableFileAndContinues(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	saveWithExpiry(t, store, "expired", time.Now().Add(-time.Minute))

	// A file that is not a valid record must not abort the pass.
	require.NoError(t, os.WriteFile(store.Path("garbage"), []byte{0x01}, 0644))

	sweeper := NewSweeper(store, time.Minute, nil)
	removed := sweeper.Sweep(time.Now())
	assert.Equal(t, 1, removed)

	_, err := os.Stat(store.Path("garbage"))
	assert.NoError(t, err, "undecodable file is left in place")
}

type sweepRecorder struct {
	removed  int
	observed int
}

func (r *sweepRecorder) ObserveSweep(removed int, _ time.Duration) {
	r.removed += removed
	r.observed++
}

func TestSweep_ReportsMetrics(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	saveWithExpiry(t, store, "expired", time.Now().Add(-time.Minute))

	rec := &sweepRecorder{}
	sweeper := NewSweeper(store, time.Minute, rec)
	sweeper.Sweep(time.Now())

	assert.Equal(t, 1, rec.removed)
	assert.Equal(t, 1, rec.observed)
}
