package handlers

import (
	"io"
	"net/http"

	"github.com/ArowuTest/tripledigit-backend/internal/services"
	"github.com/ArowuTest/tripledigit-backend/pkg/apperror"
	"github.com/ArowuTest/tripledigit-backend/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	HeaderWebhookSignature = "X-Webhook-Signature"
	maxWebhookBody         = 1 << 20
)

// PaymentHandler receives payment-provider callbacks
type PaymentHandler struct {
	paymentService *services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Webhook handles POST /api/payments/webhook
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		response.Error(c, apperror.Validation("Cannot read request body"))
		return
	}

	if err := h.paymentService.VerifySignature(body, c.GetHeader(HeaderWebhookSignature)); err != nil {
		response.Error(c, err)
		return
	}

	message, err := h.paymentService.HandleWebhook(c.Request.Context(), body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": message})
}
