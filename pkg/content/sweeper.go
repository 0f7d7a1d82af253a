package content

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/marmos91/bytedrop/internal/logger"
)

// SweeperMetrics receives sweep observations. A nil value disables
// collection with no overhead.
type SweeperMetrics interface {
	ObserveSweep(removed int, duration time.Duration)
}

// Sweeper periodically scans the content directory and deletes records
// whose expiry has passed.
//
// Each pass is a meta-read per file, so payloads are never loaded. A
// failure on one file is logged and the pass continues. The sweeper does
// not touch the in-memory cache: entries for deleted records idle-expire
// on their own.
type Sweeper struct {
	store    *Store
	interval time.Duration
	metrics  SweeperMetrics
}

// NewSweeper creates a sweeper over store running every interval.
func NewSweeper(store *Store, interval time.Duration, metrics SweeperMetrics) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		metrics:  metrics,
	}
}

// Run sweeps until ctx is cancelled. A first pass runs immediately to
// reclaim records that expired while the server was down.
func (s *Sweeper) Run(ctx context.Context) {
	s.Sweep(time.Now())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(time.Now())
		case <-ctx.Done():
			return
		}
	}
}

// Sweep performs one pass over the content directory and returns the
// number of records removed.
func (s *Sweeper) Sweep(now time.Time) int {
	start := time.Now()

	entries, err := os.ReadDir(s.store.Dir())
	if err != nil {
		logger.Warn("sweep: readdir failed", "dir", s.store.Dir(), logger.KeyError, err)
		return 0
	}

	var removed int
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(s.store.Dir(), e.Name())

		rec, err := s.store.LoadMeta(path)
		if err != nil {
			logger.Warn("sweep: meta read failed", "path", path, logger.KeyError, err)
			continue
		}
		if !rec.Expiry.Before(now) {
			continue
		}

		if err := os.Remove(path); err != nil {
			logger.Warn("sweep: remove failed", "path", path, logger.KeyError, err)
			continue
		}
		removed++
		logger.Debug("sweep: removed expired record",
			logger.KeyContent, rec.Key, "expired", rec.Expiry)
	}

	if removed > 0 {
		logger.Info("sweep complete", "removed", removed,
			logger.KeyDuration, time.Since(start))
	}
	if s.metrics != nil {
		s.metrics.ObserveSweep(removed, time.Since(start))
	}
	return removed
}
