package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adiallo/spendbot/internal/domain/models"
	service "github.com/adiallo/spendbot/internal/service/telegram"
)

// secretTokenHeader carries the shared secret Telegram echoes on webhook calls.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookHandler handles inbound and outbound Telegram HTTP events.
type WebhookHandler struct {
	svc    service.MessagingService
	logger *zap.Logger
}

// NewWebhookHandler constructs the HTTP handler adapter.
func NewWebhookHandler(svc service.MessagingService, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{svc: svc, logger: logger}
}

// Receive ingests webhook POST callbacks from Telegram.
func (h *WebhookHandler) Receive(c *gin.Context) {
	if err := h.svc.VerifyWebhookSecret(c.GetHeader(secretTokenHeader)); err != nil {
		h.logger.Warn("webhook secret verification failed", zap.Error(err))
		c.String(http.StatusForbidden, "verification failed")
		return
	}

	var update models.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.logger.Warn("invalid webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := h.svc.HandleUpdate(c.Request.Context(), update); err != nil {
		h.logger.Error("failed processing update", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process update"})
		return
	}

	c.Status(http.StatusOK)
}

// SendMessage allows sending outbound automation or manual responses.
func (h *WebhookHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid outbound payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.svc.SendOutbound(c.Request.Context(), req); err != nil {
		h.logger.Error("failed sending outbound", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
		return
	}

	c.Status(http.StatusAccepted)
}
