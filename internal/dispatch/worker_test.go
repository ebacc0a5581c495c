package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pijushrbiswas/dispatch-core/internal/assignment"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/internal/geo"
	"github.com/stretchr/testify/mock"
)

type mockRideQueue struct{ mock.Mock }

func (m *mockRideQueue) PollMatching(ctx context.Context, maxAge time.Duration, limit int) ([]*domain.Ride, error) {
	args := m.Called(ctx, maxAge, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ride), args.Error(1)
}

func (m *mockRideQueue) Expire(ctx context.Context, rideID uuid.UUID) error {
	args := m.Called(ctx, rideID)
	return args.Error(0)
}

type mockMatcher struct{ mock.Mock }

func (m *mockMatcher) FindNearby(ctx context.Context, lat, lon float64, tier *domain.Tier) ([]geo.Candidate, error) {
	args := m.Called(ctx, lat, lon, tier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]geo.Candidate), args.Error(1)
}

type mockAssigner struct{ mock.Mock }

func (m *mockAssigner) Assign(ctx context.Context, rideID, driverID uuid.UUID) (*domain.Ride, error) {
	args := m.Called(ctx, rideID, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ride), args.Error(1)
}

func TestWorker_ProcessRide_ExpiresWhenNoCandidatesAndAgedOut(t *testing.T) {
	queue, matcher, assigner := new(mockRideQueue), new(mockMatcher), new(mockAssigner)
	w := NewWorker(queue, matcher, assigner)
	ctx := context.Background()

	ride := &domain.Ride{ID: uuid.New(), CreatedAt: time.Now().Add(-90 * time.Second)}
	matcher.On("FindNearby", ctx, mock.Anything, mock.Anything, mock.Anything).Return([]geo.Candidate{}, nil)
	queue.On("Expire", ctx, ride.ID).Return(nil)

	w.processRide(ctx, ride)

	queue.AssertCalled(t, "Expire", ctx, ride.ID)
}

func TestWorker_ProcessRide_NoCandidatesButFreshIsNotExpired(t *testing.T) {
	queue, matcher, assigner := new(mockRideQueue), new(mockMatcher), new(mockAssigner)
	w := NewWorker(queue, matcher, assigner)
	ctx := context.Background()

	ride := &domain.Ride{ID: uuid.New(), CreatedAt: time.Now()}
	matcher.On("FindNearby", ctx, mock.Anything, mock.Anything, mock.Anything).Return([]geo.Candidate{}, nil)

	w.processRide(ctx, ride)

	queue.AssertNotCalled(t, "Expire", mock.Anything, mock.Anything)
}

func TestWorker_ProcessRide_SkipsUnavailableCandidateAndAssignsNext(t *testing.T) {
	queue, matcher, assigner := new(mockRideQueue), new(mockMatcher), new(mockAssigner)
	w := NewWorker(queue, matcher, assigner)
	ctx := context.Background()

	ride := &domain.Ride{ID: uuid.New(), CreatedAt: time.Now()}
	first, second := uuid.New(), uuid.New()
	matcher.On("FindNearby", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return([]geo.Candidate{{DriverID: first}, {DriverID: second}}, nil)

	assigner.On("Assign", ctx, ride.ID, first).Return(nil, assignment.ErrDriverUnavailable)
	assigner.On("Assign", ctx, ride.ID, second).Return(&domain.Ride{ID: ride.ID}, nil)

	w.processRide(ctx, ride)

	assigner.AssertCalled(t, "Assign", ctx, ride.ID, first)
	assigner.AssertCalled(t, "Assign", ctx, ride.ID, second)
}

func TestWorker_ProcessRide_StopsOnFirstSuccess(t *testing.T) {
	queue, matcher, assigner := new(mockRideQueue), new(mockMatcher), new(mockAssigner)
	w := NewWorker(queue, matcher, assigner)
	ctx := context.Background()

	ride := &domain.Ride{ID: uuid.New(), CreatedAt: time.Now()}
	first, second := uuid.New(), uuid.New()
	matcher.On("FindNearby", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return([]geo.Candidate{{DriverID: first}, {DriverID: second}}, nil)
	assigner.On("Assign", ctx, ride.ID, first).Return(&domain.Ride{ID: ride.ID}, nil)

	w.processRide(ctx, ride)

	assigner.AssertCalled(t, "Assign", ctx, ride.ID, first)
	assigner.AssertNotCalled(t, "Assign", ctx, ride.ID, second)
}

func TestWorker_ProcessRide_NonRetryableAssignErrorStopsIterating(t *testing.T) {
	queue, matcher, assigner := new(mockRideQueue), new(mockMatcher), new(mockAssigner)
	w := NewWorker(queue, matcher, assigner)
	ctx := context.Background()

	ride := &domain.Ride{ID: uuid.New(), CreatedAt: time.Now()}
	first, second := uuid.New(), uuid.New()
	matcher.On("FindNearby", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return([]geo.Candidate{{DriverID: first}, {DriverID: second}}, nil)
	assigner.On("Assign", ctx, ride.ID, first).Return(nil, errors.New("dependency failure"))

	w.processRide(ctx, ride)

	assigner.AssertCalled(t, "Assign", ctx, ride.ID, first)
	assigner.AssertNotCalled(t, "Assign", ctx, ride.ID, second)
}

func TestWorker_RunIteration_ProcessesInSubbatches(t *testing.T) {
	queue, matcher, assigner := new(mockRideQueue), new(mockMatcher), new(mockAssigner)
	w := NewWorker(queue, matcher, assigner)
	ctx := context.Background()

	rides := make([]*domain.Ride, 7)
	for i := range rides {
		rides[i] = &domain.Ride{ID: uuid.New(), CreatedAt: time.Now()}
	}
	queue.On("PollMatching", ctx, maxAge, batchSize).Return(rides, nil)
	matcher.On("FindNearby", ctx, mock.Anything, mock.Anything, mock.Anything).Return([]geo.Candidate{}, nil)

	w.runIteration(ctx)

	matcher.AssertNumberOfCalls(t, "FindNearby", 7)
}
