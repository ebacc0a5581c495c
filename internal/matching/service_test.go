package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pijushrbiswas/dispatch-core/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGeoIndex struct{ mock.Mock }

func (m *mockGeoIndex) SearchNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]geo.Candidate, error) {
	args := m.Called(ctx, lat, lon, radiusKm, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]geo.Candidate), args.Error(1)
}

func TestService_FindNearby_UsesDefaultRadiusAndLimit(t *testing.T) {
	idx := new(mockGeoIndex)
	svc := NewService(idx)
	ctx := context.Background()

	expected := []geo.Candidate{
		{DriverID: uuid.New(), DistanceKm: 0.8},
		{DriverID: uuid.New(), DistanceKm: 2.1},
	}
	idx.On("SearchNearby", ctx, 37.77, -122.42, DefaultRadiusKm, DefaultLimit).Return(expected, nil)

	candidates, err := svc.FindNearby(ctx, 37.77, -122.42, nil)

	require.NoError(t, err)
	assert.Equal(t, expected, candidates)
	idx.AssertExpectations(t)
}

func TestService_FindNearby_PropagatesIndexError(t *testing.T) {
	idx := new(mockGeoIndex)
	svc := NewService(idx)
	ctx := context.Background()

	idx.On("SearchNearby", ctx, 1.0, 2.0, DefaultRadiusKm, DefaultLimit).Return(nil, errors.New("redis unavailable"))

	_, err := svc.FindNearby(ctx, 1.0, 2.0, nil)

	require.Error(t, err)
}

func TestService_FindNearby_EmptyResultIsNotAnError(t *testing.T) {
	idx := new(mockGeoIndex)
	svc := NewService(idx)
	ctx := context.Background()

	idx.On("SearchNearby", ctx, 1.0, 2.0, DefaultRadiusKm, DefaultLimit).Return([]geo.Candidate{}, nil)

	candidates, err := svc.FindNearby(ctx, 1.0, 2.0, nil)

	require.NoError(t, err)
	assert.Empty(t, candidates)
}
