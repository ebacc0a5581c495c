package rides

import (
	"context"

	"github.com/google/uuid"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/internal/geo"
	"github.com/pijushrbiswas/dispatch-core/pkg/apperr"
	"github.com/pijushrbiswas/dispatch-core/pkg/eventbus"
	"github.com/pijushrbiswas/dispatch-core/pkg/logger"
	geoutil "github.com/pijushrbiswas/dispatch-core/pkg/geo"
	"go.uber.org/zap"
)

// FareEstimate is an advisory preview returned alongside a new ride: the
// haversine distance/duration between pickup and drop, and the fare they
// would yield at the ride's tier and surge multiplier. It is never stored;
// the authoritative fare is computed by the Trip Service at trip end from
// the driver's actual traveled distance and duration.
type FareEstimate struct {
	DistanceKm      float64
	DurationMinutes int
	EstimatedFare   float64
}

func estimateFare(ride *domain.Ride) FareEstimate {
	distanceKm := geoutil.Haversine(ride.PickupLatitude, ride.PickupLongitude, ride.DropLatitude, ride.DropLongitude)
	durationMinutes := geoutil.EstimateDuration(distanceKm)
	_, total := domain.CalculateFare(ride.Tier, distanceKm, durationMinutes*60, ride.SurgeMultiplier)
	return FareEstimate{DistanceKm: distanceKm, DurationMinutes: durationMinutes, EstimatedFare: total}
}

var validTiers = map[domain.Tier]bool{
	domain.TierEconomy: true,
	domain.TierPremium: true,
	domain.TierLuxury:  true,
}

var validPaymentMethods = map[domain.PaymentMethod]bool{
	domain.PaymentMethodCard:   true,
	domain.PaymentMethodCash:   true,
	domain.PaymentMethodWallet: true,
	domain.PaymentMethodUPI:    true,
}

// RideRequest is the validated input to RequestRide.
type RideRequest struct {
	RiderID         uuid.UUID
	PickupLatitude  float64
	PickupLongitude float64
	DropLatitude    float64
	DropLongitude   float64
	Tier            domain.Tier
	PaymentMethod   domain.PaymentMethod
	// SurgeMultiplier is externally supplied, not derived by this service
	// (surge computation is out of scope). Zero means "unset", resolved to
	// 1.00 by RequestRide.
	SurgeMultiplier float64
}

// Service is the Ride Intake service (C6).
type Service struct {
	store   Store
	matcher Matcher
	bus     Publisher
}

func NewService(store Store, matcher Matcher, bus Publisher) *Service {
	return &Service{store: store, matcher: matcher, bus: bus}
}

// RequestRide implements create_ride (§4.4): validates coordinates, tier,
// and payment method; inserts the ride directly in MATCHING; emits
// RIDE_CREATED; and returns the ride, an advisory candidate list from the
// Matching Service, and a fare estimate preview. Both the candidate list and
// the estimate are informational only — actual assignment is performed by
// the Dispatch Worker, and the billed fare is computed at trip end.
func (s *Service) RequestRide(ctx context.Context, req *RideRequest) (*domain.Ride, []geo.Candidate, FareEstimate, error) {
	if err := validateCoordinate(req.PickupLatitude, req.PickupLongitude); err != nil {
		return nil, nil, FareEstimate{}, err
	}
	if err := validateCoordinate(req.DropLatitude, req.DropLongitude); err != nil {
		return nil, nil, FareEstimate{}, err
	}
	if !validTiers[req.Tier] {
		return nil, nil, FareEstimate{}, apperr.NewValidationError("invalid tier")
	}
	if !validPaymentMethods[req.PaymentMethod] {
		return nil, nil, FareEstimate{}, apperr.NewValidationError("invalid payment method")
	}

	surge := req.SurgeMultiplier
	if surge <= 0 {
		surge = 1.00
	} else if surge < 1.00 {
		return nil, nil, FareEstimate{}, apperr.NewValidationError("surge_multiplier must be >= 1.00")
	}

	ride := &domain.Ride{
		ID:              uuid.New(),
		RiderID:         req.RiderID,
		PickupLatitude:  req.PickupLatitude,
		PickupLongitude: req.PickupLongitude,
		DropLatitude:    req.DropLatitude,
		DropLongitude:   req.DropLongitude,
		Tier:            req.Tier,
		PaymentMethod:   req.PaymentMethod,
		Status:          domain.RideMatching,
		SurgeMultiplier: surge,
	}

	if err := s.store.CreateRide(ctx, ride); err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, nil, FareEstimate{}, err
		}
		return nil, nil, FareEstimate{}, apperr.NewDependencyFailure("failed to create ride", err)
	}

	_ = s.bus.Publish(ctx, eventbus.EventRideCreated, ride)

	candidates, err := s.matcher.FindNearby(ctx, ride.PickupLatitude, ride.PickupLongitude, &ride.Tier)
	if err != nil {
		// Candidates are advisory; a matching failure does not fail ride
		// creation. The Dispatch Worker retries matching on its own poll.
		logger.ErrorContext(ctx, "failed to compute advisory candidates for new ride",
			zap.String("ride_id", ride.ID.String()), zap.Error(err))
		candidates = nil
	}

	return ride, candidates, estimateFare(ride), nil
}

// GetRide retrieves a ride by ID.
func (s *Service) GetRide(ctx context.Context, rideID uuid.UUID) (*domain.Ride, error) {
	ride, err := s.store.GetRideByID(ctx, rideID)
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, apperr.NewDependencyFailure("failed to get ride", err)
	}
	return ride, nil
}

// ListRides returns rides optionally filtered by status, capped at limit.
func (s *Service) ListRides(ctx context.Context, status *domain.RideStatus, limit int) ([]*domain.Ride, error) {
	if status != nil {
		switch *status {
		case domain.RideRequested, domain.RideMatching, domain.RideDriverAssigned,
			domain.RideCompleted, domain.RideCancelled, domain.RideExpired:
		default:
			appErr := apperr.NewValidationError(ErrInvalidStatusFilter.Error())
			appErr.Err = ErrInvalidStatusFilter
			return nil, appErr
		}
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rides, err := s.store.ListRides(ctx, status, limit)
	if err != nil {
		return nil, apperr.NewDependencyFailure("failed to list rides", err)
	}
	return rides, nil
}

func validateCoordinate(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return apperr.NewValidationError("latitude must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		return apperr.NewValidationError("longitude must be between -180 and 180")
	}
	return nil
}
