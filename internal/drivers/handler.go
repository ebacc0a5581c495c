package drivers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/pkg/apperr"
	"github.com/pijushrbiswas/dispatch-core/pkg/common"
	"github.com/pijushrbiswas/dispatch-core/pkg/jwtkeys"
	"github.com/pijushrbiswas/dispatch-core/pkg/middleware"
)

// Handler exposes the Driver Registry over HTTP.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the driver-facing endpoints onto router.
func (h *Handler) RegisterRoutes(router *gin.Engine, jwtProvider jwtkeys.KeyProvider) {
	group := router.Group("/v1/drivers")
	group.Use(middleware.AuthMiddlewareWithProvider(jwtProvider))

	group.POST("", h.createDriver)
	group.GET("/:id", h.getDriver)
	group.GET("", h.listDrivers)
	group.PATCH("/:id/location", h.updateLocation)
	group.PATCH("/:id/status", h.updateStatus)
}

type createDriverBody struct {
	Name      string  `json:"name" binding:"required"`
	Phone     string  `json:"phone" binding:"required"`
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

func (h *Handler) createDriver(c *gin.Context) {
	var body createDriverBody
	if !common.BindJSON(c, &body) {
		return
	}

	driver, err := h.service.Create(c.Request.Context(), body.Name, body.Phone, body.Latitude, body.Longitude)
	if err != nil {
		writeError(c, err)
		return
	}

	common.CreatedResponse(c, driver)
}

func (h *Handler) getDriver(c *gin.Context) {
	driverID, ok := common.ParseUUIDParam(c, "id", "driver id")
	if !ok {
		return
	}

	driver, err := h.service.Get(c.Request.Context(), driverID)
	if err != nil {
		writeError(c, err)
		return
	}

	common.SuccessResponse(c, driver)
}

func (h *Handler) listDrivers(c *gin.Context) {
	var status *domain.DriverStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.DriverStatus(raw)
		status = &s
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	driverList, err := h.service.List(c.Request.Context(), status, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	common.SuccessResponse(c, driverList)
}

type updateLocationBody struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

func (h *Handler) updateLocation(c *gin.Context) {
	driverID, ok := common.ParseUUIDParam(c, "id", "driver id")
	if !ok {
		return
	}

	var body updateLocationBody
	if !common.BindJSON(c, &body) {
		return
	}

	if err := h.service.UpdateLocation(c.Request.Context(), driverID, body.Latitude, body.Longitude); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

type updateStatusBody struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	driverID, ok := common.ParseUUIDParam(c, "id", "driver id")
	if !ok {
		return
	}

	var body updateStatusBody
	if !common.BindJSON(c, &body) {
		return
	}

	driver, err := h.service.UpdateStatus(c.Request.Context(), driverID, domain.DriverStatus(body.Status))
	if err != nil {
		writeError(c, err)
		return
	}

	common.SuccessResponse(c, driver)
}

func writeError(c *gin.Context, err error) {
	if appErr, ok := apperr.As(err); ok {
		common.ErrorResponse(c, appErr.HTTPStatus, appErr.Message)
		return
	}
	common.ErrorResponse(c, http.StatusInternalServerError, "internal error")
}
