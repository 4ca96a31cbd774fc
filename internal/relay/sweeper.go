package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper deletes objects that have outlived the retention window.
type Sweeper struct {
	store   ObjectStore
	window  time.Duration
	metrics *Metrics
}

// NewSweeper creates a retention sweeper. metrics may be nil.
func NewSweeper(store ObjectStore, window time.Duration, metrics *Metrics) *Sweeper {
	return &Sweeper{store: store, window: window, metrics: metrics}
}

// Sweep lists every object and deletes those with age >= the retention
// window at now. Per-object delete failures are logged and skipped; a
// failed delete is retried on the next sweep. Returns the number deleted.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	objects, err := s.store.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("sweep listing: %w", err)
	}

	deleted := 0
	for _, obj := range objects {
		if now.Sub(obj.LastModified) < s.window {
			continue
		}
		if err := s.store.Delete(ctx, obj.Key); err != nil {
			log.Error().Err(err).Str("key", obj.Key).Msg("couldn't delete expired object")
			continue
		}
		deleted++
	}

	if deleted > 0 {
		if s.metrics != nil {
			s.metrics.SweepDeletions.Add(float64(deleted))
		}
		log.Info().Int("deleted", deleted).Msg("retention sweep removed expired objects")
	}
	return deleted, nil
}
