package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// StaleAbandoner abandons up to limit executions untouched since cutoff and
// reports how many it moved.
type StaleAbandoner interface {
	AbandonStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// StaleWorker periodically abandons IN_PROGRESS and PAUSED executions that
// nobody has touched for a while.
type StaleWorker struct {
	executions StaleAbandoner
	after      time.Duration
	interval   time.Duration
	batch      int
	log        zerolog.Logger

	now func() time.Time
}

// NewStaleWorker creates a StaleWorker. after is the idle time that makes an
// execution stale; interval is the time between sweeps.
func NewStaleWorker(executions StaleAbandoner, after, interval time.Duration, batch int, log zerolog.Logger) *StaleWorker {
	if batch <= 0 {
		batch = 100
	}
	return &StaleWorker{
		executions: executions,
		after:      after,
		interval:   interval,
		batch:      batch,
		log:        log.With().Str("component", "stale_worker").Logger(),
		now:        time.Now,
	}
}

// Start runs a sweep every interval until ctx is cancelled. Call in a goroutine.
func (w *StaleWorker) Start(ctx context.Context) {
	w.log.Info().
		Dur("after", w.after).
		Dur("interval", w.interval).
		Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			n, err := w.Sweep(ctx)
			if err != nil && ctx.Err() == nil {
				w.log.Error().Err(err).Int("abandoned", n).Msg("Sweep failed")
				continue
			}
			if n > 0 {
				w.log.Info().Int("abandoned", n).Msg("Stale executions abandoned")
			}
		}
	}
}

// Sweep abandons stale executions batch by batch until a round comes back
// short. It returns the total abandoned, including rounds before an error.
func (w *StaleWorker) Sweep(ctx context.Context) (int, error) {
	cutoff := w.now().Add(-w.after)
	total := 0
	for {
		n, err := w.executions.AbandonStale(ctx, cutoff, w.batch)
		total += n
		if err != nil {
			return total, err
		}
		if n < w.batch {
			return total, nil
		}
	}
}
