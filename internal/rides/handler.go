package rides

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/pkg/apperr"
	"github.com/pijushrbiswas/dispatch-core/pkg/common"
	"github.com/pijushrbiswas/dispatch-core/pkg/jwtkeys"
	"github.com/pijushrbiswas/dispatch-core/pkg/middleware"
	"github.com/pijushrbiswas/dispatch-core/pkg/config"
	"github.com/pijushrbiswas/dispatch-core/pkg/ratelimit"
	redisClient "github.com/pijushrbiswas/dispatch-core/pkg/redis"
)

// Handler exposes Ride Intake over HTTP.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the rider-facing ride endpoints onto router. redis is
// used to back the Idempotency-Key cache (C3) on create_ride, per §4.3/§4.4
// and scenario S6 — a retried request with the same key returns the
// original response instead of creating a second ride.
func (h *Handler) RegisterRoutes(router *gin.Engine, jwtProvider jwtkeys.KeyProvider, limiter *ratelimit.Limiter, rlCfg config.RateLimitConfig, redis redisClient.ClientInterface) {
	group := router.Group("/v1/rides")
	group.Use(middleware.AuthMiddlewareWithProvider(jwtProvider))
	if limiter != nil {
		group.Use(middleware.RateLimit(limiter, rlCfg))
	}

	group.POST("", middleware.Idempotency(redis, "create_ride"), h.requestRide)
	group.GET("/:id", h.getRide)
	group.GET("", h.listRides)
}

type requestRideBody struct {
	PickupLatitude  float64 `json:"pickup_latitude" binding:"required"`
	PickupLongitude float64 `json:"pickup_longitude" binding:"required"`
	DropLatitude    float64 `json:"drop_latitude" binding:"required"`
	DropLongitude   float64 `json:"drop_longitude" binding:"required"`
	Tier            string  `json:"tier" binding:"required"`
	PaymentMethod   string  `json:"payment_method" binding:"required"`
	SurgeMultiplier float64 `json:"surge_multiplier"`
}

type requestRideResponse struct {
	Ride       *domain.Ride  `json:"ride"`
	Candidates interface{}   `json:"candidates"`
	Estimate   FareEstimate  `json:"fare_estimate"`
}

func (h *Handler) requestRide(c *gin.Context) {
	riderID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body requestRideBody
	if !common.BindJSON(c, &body) {
		return
	}

	req := &RideRequest{
		RiderID:         riderID,
		PickupLatitude:  body.PickupLatitude,
		PickupLongitude: body.PickupLongitude,
		DropLatitude:    body.DropLatitude,
		DropLongitude:   body.DropLongitude,
		Tier:            domain.Tier(body.Tier),
		PaymentMethod:   domain.PaymentMethod(body.PaymentMethod),
		SurgeMultiplier: body.SurgeMultiplier,
	}

	ride, candidates, estimate, err := h.service.RequestRide(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	common.CreatedResponse(c, requestRideResponse{Ride: ride, Candidates: candidates, Estimate: estimate})
}

func (h *Handler) getRide(c *gin.Context) {
	rideID, ok := common.ParseUUIDParam(c, "id", "ride id")
	if !ok {
		return
	}

	ride, err := h.service.GetRide(c.Request.Context(), rideID)
	if err != nil {
		writeError(c, err)
		return
	}

	common.SuccessResponse(c, ride)
}

func (h *Handler) listRides(c *gin.Context) {
	var status *domain.RideStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.RideStatus(raw)
		status = &s
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	rides, err := h.service.ListRides(c.Request.Context(), status, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	common.SuccessResponse(c, rides)
}

// writeError maps an apperr.AppError onto its carried HTTP status; any other
// error is treated as an unclassified dependency failure.
func writeError(c *gin.Context, err error) {
	if appErr, ok := apperr.As(err); ok {
		common.ErrorResponse(c, appErr.HTTPStatus, appErr.Message)
		return
	}
	common.ErrorResponse(c, http.StatusInternalServerError, "internal error")
}
