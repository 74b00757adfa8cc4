package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adiallo/spendbot/internal/domain/models"
	"github.com/adiallo/spendbot/internal/repository/mongodb"
	"github.com/adiallo/spendbot/internal/repository/sheets"
	"github.com/adiallo/spendbot/internal/service/auth"
	service "github.com/adiallo/spendbot/internal/service/telegram"
)

const authSuccessPage = `<!DOCTYPE html>
<html>
<head><title>Authorization Successful</title><meta name="viewport" content="width=device-width, initial-scale=1"></head>
<body style="font-family: sans-serif; max-width: 600px; margin: 40px auto;">
<h1>Authorization successful</h1>
<p>Your Google account is connected and your "Spending" spreadsheet is ready.</p>
<p>Return to Telegram and send expenses in this format:</p>
<pre>position / sum / date / source</pre>
<p>Example: Coffee / 5.50 / today / Starbucks</p>
</body>
</html>`

const authFailurePage = `<!DOCTYPE html>
<html>
<head><title>Authorization Failed</title><meta name="viewport" content="width=device-width, initial-scale=1"></head>
<body style="font-family: sans-serif; max-width: 600px; margin: 40px auto;">
<h1>Authorization failed</h1>
<p>Something went wrong during authorization. Return to Telegram and run /auth to try again.</p>
</body>
</html>`

const authSuccessReply = `Authorization successful. Your "Spending" spreadsheet has been created.

Send expenses in this format:
position / sum / date / source

Example: Coffee / 5.50 / today / Starbucks`

// Exchanger trades an authorization code for an opaque credential blob.
type Exchanger interface {
	Exchange(ctx context.Context, code string) ([]byte, error)
}

// AuthHandler completes the OAuth authorization-code flow: it stores the
// exchanged credentials, provisions the user's ledger spreadsheet and notifies
// the user in chat.
type AuthHandler struct {
	exchanger    Exchanger
	directory    mongodb.Directory
	ledger       sheets.Ledger
	messagingSvc service.MessagingService
	logger       *zap.Logger
}

// NewAuthHandler constructs the OAuth callback handler.
func NewAuthHandler(exchanger Exchanger, directory mongodb.Directory, ledger sheets.Ledger, messagingSvc service.MessagingService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		exchanger:    exchanger,
		directory:    directory,
		ledger:       ledger,
		messagingSvc: messagingSvc,
		logger:       logger,
	}
}

// Callback handles the provider redirect carrying code and state.
func (h *AuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		c.String(http.StatusBadRequest, "missing authorization code or state")
		return
	}

	telegramID, err := auth.ParseState(state)
	if err != nil {
		h.logger.Warn("invalid oauth state", zap.String("state", state), zap.Error(err))
		c.String(http.StatusBadRequest, "invalid state")
		return
	}

	ctx := c.Request.Context()

	credentials, err := h.exchanger.Exchange(ctx, code)
	if err != nil {
		h.logger.Error("token exchange failed", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.failurePage(c)
		return
	}

	if _, err := h.directory.Upsert(ctx, models.UserRecord{
		TelegramID:    telegramID,
		Credentials:   credentials,
		Authenticated: true,
	}); err != nil {
		h.logger.Error("failed to store user credentials", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.failurePage(c)
		return
	}

	spreadsheetID, err := h.ledger.CreateLedger(ctx, credentials)
	if err != nil {
		h.logger.Error("failed to create ledger spreadsheet", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.failurePage(c)
		return
	}

	if _, err := h.directory.SetSpreadsheetID(ctx, telegramID, spreadsheetID); err != nil {
		h.logger.Error("failed to attach spreadsheet to user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.failurePage(c)
		return
	}

	h.logger.Info("user authorized and ledger provisioned",
		zap.Int64("telegram_id", telegramID),
		zap.String("spreadsheet_id", spreadsheetID))

	// Private chat IDs equal the user ID, so the confirmation can go straight
	// back to the user. Best effort only; the success page already tells them.
	if err := h.messagingSvc.SendOutbound(ctx, models.OutboundMessageRequest{
		ChatID:  telegramID,
		Message: authSuccessReply,
	}); err != nil {
		h.logger.Warn("failed to send chat confirmation", zap.Int64("telegram_id", telegramID), zap.Error(err))
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(authSuccessPage))
}

func (h *AuthHandler) failurePage(c *gin.Context) {
	c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte(authFailurePage))
}
