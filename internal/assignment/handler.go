package assignment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pijushrbiswas/dispatch-core/pkg/apperr"
	"github.com/pijushrbiswas/dispatch-core/pkg/common"
	"github.com/pijushrbiswas/dispatch-core/pkg/jwtkeys"
	"github.com/pijushrbiswas/dispatch-core/pkg/middleware"
)

// Handler exposes the driver-facing half of the Assignment Service (C9)
// over HTTP: a driver accepting an assigned ride turns it into a trip.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the driver-facing assignment endpoints onto router.
func (h *Handler) RegisterRoutes(router *gin.Engine, jwtProvider jwtkeys.KeyProvider) {
	group := router.Group("/v1/drivers/:driverId/rides/:rideId")
	group.Use(middleware.AuthMiddlewareWithProvider(jwtProvider))
	group.POST("/accept", h.acceptRide)
}

// acceptRide implements §4.7's initialize_trip: the driver a ride was
// assigned to confirms acceptance, creating the CREATED trip.
func (h *Handler) acceptRide(c *gin.Context) {
	rideID, ok := common.ParseUUIDParam(c, "rideId", "ride id")
	if !ok {
		return
	}
	driverID, ok := common.ParseUUIDParam(c, "driverId", "driver id")
	if !ok {
		return
	}

	trip, err := h.service.InitializeTrip(c.Request.Context(), rideID, driverID)
	if err != nil {
		writeError(c, err)
		return
	}

	common.SuccessResponse(c, trip)
}

func writeError(c *gin.Context, err error) {
	if appErr, ok := apperr.As(err); ok {
		common.ErrorResponse(c, appErr.HTTPStatus, appErr.Message)
		return
	}
	common.ErrorResponse(c, http.StatusInternalServerError, "internal error")
}
