package service

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// Sweeper periodically runs the expiration sweep. Correctness does not
// depend on the exact cadence, only on the sweep eventually running; a
// session that got swept is terminal and never picked up again.
type Sweeper struct {
	staging  StagingService
	interval time.Duration
	running  atomic.Bool
}

// NewSweeper creates a sweeper with the given interval (hourly by default).
func NewSweeper(staging StagingService, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		staging:  staging,
		interval: interval,
	}
}

// Start blocks until ctx is cancelled, sweeping on every tick. A second
// Start on a running sweeper returns immediately.
func (s *Sweeper) Start(ctx context.Context) {
	if s.running.Swap(true) {
		return
	}
	defer s.running.Store(false)

	log.Printf("Expiration sweeper started (interval %s)", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Expiration sweeper stopping")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// IsRunning reports whether the sweep loop is active.
func (s *Sweeper) IsRunning() bool {
	return s.running.Load()
}

func (s *Sweeper) sweep(ctx context.Context) {
	outcome, err := s.staging.ExpireLapsed(ctx)
	if err != nil {
		log.Printf("ERROR: Expiration sweep failed: %v", err)
		return
	}
	if outcome.Processed > 0 || outcome.Failed > 0 {
		log.Printf("Expiration sweep: %d sessions expired, %d exercises imported, %d failed",
			outcome.Processed, outcome.ExercisesImported, outcome.Failed)
	}
}
