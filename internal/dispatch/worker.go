// Package dispatch implements the Dispatch Worker (C10): the polling loop
// that moves rides from MATCHING to DRIVER_ASSIGNED or EXPIRED. Its
// ticker/select/Stop shape is grounded on the ride-hailing service's
// scheduler worker; the per-iteration matching/assignment logic is new.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pijushrbiswas/dispatch-core/internal/assignment"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/pkg/logger"
	"go.uber.org/zap"
)

const (
	pollInterval     = 2 * time.Second
	batchSize        = 10
	matchTimeout     = 60 * time.Second
	maxAge           = 5 * time.Minute
	subbatchSize     = 5
)

// Worker is the Dispatch Worker. Multiple instances are safe to run
// concurrently: every write goes through row locking in the repositories it
// depends on.
type Worker struct {
	queue    RideQueue
	matcher  Matcher
	assigner Assigner
	done     chan struct{}
}

func NewWorker(queue RideQueue, matcher Matcher, assigner Assigner) *Worker {
	return &Worker{queue: queue, matcher: matcher, assigner: assigner, done: make(chan struct{})}
}

// Start runs the poll loop until ctx is cancelled or Stop is called.
// Termination is cooperative: the current iteration always completes before
// the worker exits.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	w.runIteration(ctx)

	for {
		select {
		case <-ticker.C:
			w.runIteration(ctx)
		case <-ctx.Done():
			return
		case <-w.done:
			return
		}
	}
}

// Stop requests cooperative shutdown; the in-flight iteration still runs to
// completion.
func (w *Worker) Stop() {
	close(w.done)
}

func (w *Worker) runIteration(ctx context.Context) {
	rides, err := w.queue.PollMatching(ctx, maxAge, batchSize)
	if err != nil {
		logger.ErrorContext(ctx, "dispatch worker failed to poll matching rides", zap.Error(err))
		return
	}
	if len(rides) == 0 {
		return
	}

	for start := 0; start < len(rides); start += subbatchSize {
		end := start + subbatchSize
		if end > len(rides) {
			end = len(rides)
		}
		w.processSubbatch(ctx, rides[start:end])
	}
}

func (w *Worker) processSubbatch(ctx context.Context, rides []*domain.Ride) {
	var wg sync.WaitGroup
	wg.Add(len(rides))
	for _, ride := range rides {
		ride := ride
		go func() {
			defer wg.Done()
			w.processRide(ctx, ride)
		}()
	}
	wg.Wait()
}

func (w *Worker) processRide(ctx context.Context, ride *domain.Ride) {
	candidates, err := w.matcher.FindNearby(ctx, ride.PickupLatitude, ride.PickupLongitude, &ride.Tier)
	if err != nil {
		logger.ErrorContext(ctx, "dispatch worker failed to find candidates", zap.String("ride_id", ride.ID.String()), zap.Error(err))
		return
	}

	if len(candidates) == 0 {
		if time.Since(ride.CreatedAt) > matchTimeout {
			if err := w.queue.Expire(ctx, ride.ID); err != nil {
				logger.ErrorContext(ctx, "dispatch worker failed to expire ride", zap.String("ride_id", ride.ID.String()), zap.Error(err))
			}
		}
		return
	}

	for _, candidate := range candidates {
		_, err := w.assigner.Assign(ctx, ride.ID, candidate.DriverID)
		if err == nil {
			return
		}
		if errors.Is(err, assignment.ErrDriverUnavailable) || errors.Is(err, assignment.ErrConcurrentlyAssigned) {
			continue
		}
		logger.ErrorContext(ctx, "dispatch worker assign failed",
			zap.String("ride_id", ride.ID.String()), zap.String("driver_id", candidate.DriverID.String()), zap.Error(err))
		return
	}
}
