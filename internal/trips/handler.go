package trips

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pijushrbiswas/dispatch-core/pkg/apperr"
	"github.com/pijushrbiswas/dispatch-core/pkg/common"
	"github.com/pijushrbiswas/dispatch-core/pkg/jwtkeys"
	"github.com/pijushrbiswas/dispatch-core/pkg/middleware"
)

// Handler exposes the Trip Service (C11) over HTTP.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the trip lifecycle endpoints onto router.
func (h *Handler) RegisterRoutes(router *gin.Engine, jwtProvider jwtkeys.KeyProvider) {
	group := router.Group("/v1/trips")
	group.Use(middleware.AuthMiddlewareWithProvider(jwtProvider))

	group.POST("/:id/start", h.start)
	group.POST("/:id/pause", h.pause)
	group.POST("/:id/resume", h.start)
	group.POST("/:id/cancel", h.cancel)
	group.POST("/:id/end", h.end)
	group.GET("/:id/receipt", h.receipt)
}

func (h *Handler) start(c *gin.Context) {
	tripID, ok := common.ParseUUIDParam(c, "id", "trip id")
	if !ok {
		return
	}

	trip, err := h.service.Start(c.Request.Context(), tripID)
	if err != nil {
		writeError(c, err)
		return
	}

	common.SuccessResponse(c, trip)
}

func (h *Handler) pause(c *gin.Context) {
	tripID, ok := common.ParseUUIDParam(c, "id", "trip id")
	if !ok {
		return
	}

	trip, err := h.service.Pause(c.Request.Context(), tripID)
	if err != nil {
		writeError(c, err)
		return
	}

	common.SuccessResponse(c, trip)
}

type cancelTripBody struct {
	Reason string `json:"reason"`
}

func (h *Handler) cancel(c *gin.Context) {
	tripID, ok := common.ParseUUIDParam(c, "id", "trip id")
	if !ok {
		return
	}

	var body cancelTripBody
	if !common.BindJSON(c, &body) {
		return
	}

	trip, err := h.service.Cancel(c.Request.Context(), tripID, body.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	common.SuccessResponse(c, trip)
}

type endTripBody struct {
	DistanceKm  *float64 `json:"distance_km"`
	DurationSec *int     `json:"duration_sec"`
}

func (h *Handler) end(c *gin.Context) {
	tripID, ok := common.ParseUUIDParam(c, "id", "trip id")
	if !ok {
		return
	}

	var body endTripBody
	if !common.BindJSON(c, &body) {
		return
	}

	trip, err := h.service.End(c.Request.Context(), tripID, body.DistanceKm, body.DurationSec)
	if err != nil {
		writeError(c, err)
		return
	}

	common.SuccessResponse(c, trip)
}

func (h *Handler) receipt(c *gin.Context) {
	tripID, ok := common.ParseUUIDParam(c, "id", "trip id")
	if !ok {
		return
	}

	receipt, err := h.service.Receipt(c.Request.Context(), tripID)
	if err != nil {
		writeError(c, err)
		return
	}

	common.SuccessResponse(c, receipt)
}

func writeError(c *gin.Context, err error) {
	if appErr, ok := apperr.As(err); ok {
		common.ErrorResponse(c, appErr.HTTPStatus, appErr.Message)
		return
	}
	common.ErrorResponse(c, http.StatusInternalServerError, "internal error")
}
