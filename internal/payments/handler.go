package payments

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/pijushrbiswas/dispatch-core/pkg/apperr"
	"github.com/pijushrbiswas/dispatch-core/pkg/common"
	"github.com/pijushrbiswas/dispatch-core/pkg/jwtkeys"
	"github.com/pijushrbiswas/dispatch-core/pkg/middleware"
)

// Handler exposes the Payment Service over HTTP: create_payment for riders
// and trusted callers, and the PSP webhook callback for finalization.
type Handler struct {
	service       *Service
	webhookSecret []byte
}

func NewHandler(service *Service, webhookSecret string) *Handler {
	return &Handler{service: service, webhookSecret: []byte(webhookSecret)}
}

// RegisterRoutes wires the payment endpoints onto router. The webhook route
// is unauthenticated by JWT (the PSP calls it directly) and is instead
// trusted via VerifyWebhookSignature.
func (h *Handler) RegisterRoutes(router *gin.Engine, jwtProvider jwtkeys.KeyProvider) {
	webhook := router.Group("/v1/payments")
	webhook.POST("/webhook", h.handleWebhook)

	group := router.Group("/v1/payments")
	group.Use(middleware.AuthMiddlewareWithProvider(jwtProvider))
	group.POST("", h.createPayment)
	group.GET("/:id", h.getPayment)
}

type createPaymentBody struct {
	TripID uuid.UUID `json:"trip_id" binding:"required"`
}

func (h *Handler) createPayment(c *gin.Context) {
	var body createPaymentBody
	if !common.BindJSON(c, &body) {
		return
	}

	payment, err := h.service.CreatePayment(c.Request.Context(), body.TripID)
	if err != nil {
		writeError(c, err)
		return
	}

	common.CreatedResponse(c, payment)
}

func (h *Handler) getPayment(c *gin.Context) {
	paymentID, ok := common.ParseUUIDParam(c, "id", "payment id")
	if !ok {
		return
	}

	payment, err := h.service.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		writeError(c, err)
		return
	}

	common.SuccessResponse(c, payment)
}

type webhookBody struct {
	PSPTransactionID string `json:"psp_transaction_id" binding:"required"`
	Succeeded        bool   `json:"succeeded"`
	RawResponse      string `json:"raw_response"`
}

// handleWebhook implements §4.10's webhook(payload): verify the HMAC
// signature against the raw body before any JSON parsing, then apply the
// outcome to the referenced payment.
func (h *Handler) handleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "failed to read request body")
		return
	}

	signature := c.GetHeader("X-Signature")
	if err := VerifyWebhookSignature(h.webhookSecret, signature, body, time.Now()); err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "invalid webhook signature")
		return
	}

	var parsed webhookBody
	if err := binding.JSON.BindBody(body, &parsed); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	payment, err := h.service.ApplyWebhook(c.Request.Context(), parsed.PSPTransactionID, parsed.Succeeded, parsed.RawResponse)
	if err != nil {
		writeError(c, err)
		return
	}

	common.SuccessResponse(c, payment)
}

// writeError maps an apperr.AppError onto its carried HTTP status; any
// other error is treated as an unclassified dependency failure.
func writeError(c *gin.Context, err error) {
	if appErr, ok := apperr.As(err); ok {
		common.ErrorResponse(c, appErr.HTTPStatus, appErr.Message)
		return
	}
	common.ErrorResponse(c, http.StatusInternalServerError, "internal error")
}
