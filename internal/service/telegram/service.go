package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/adiallo/spendbot/internal/config"
	"github.com/adiallo/spendbot/internal/domain/models"
	"github.com/adiallo/spendbot/internal/service/commands"
	client "github.com/adiallo/spendbot/pkg/clients/telegram"
)

// ErrInvalidWebhookSecret indicates the webhook call did not carry the shared
// secret Telegram was configured with.
var ErrInvalidWebhookSecret = errors.New("invalid webhook secret token")

const (
	invalidFormatReply = "Invalid format. Please use: position / sum / date / source\n\nExample: Coffee / 5.50 / 2024-01-15 / Starbucks"
	invalidAmountReply = "Sum must be a valid number."
	emptyFieldReply    = "Position and source must not be empty."
	notAuthedReply     = "Please authorize first using the /auth command."
	genericFailReply   = "Could not save your expense right now. Please try again."
)

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhookSecret(secretToken string) error
	HandleUpdate(ctx context.Context, update models.Update) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// BotService is the production implementation backed by the Telegram Bot API.
type BotService struct {
	cfg        config.TelegramConfig
	client     client.Client
	dispatcher commands.Dispatcher
	logger     *zap.Logger
}

// NewBotService wires a new service instance.
func NewBotService(cfg config.TelegramConfig, client client.Client, dispatcher commands.Dispatcher, logger *zap.Logger) *BotService {
	svc := &BotService{
		cfg:        cfg,
		client:     client,
		dispatcher: dispatcher,
		logger:     logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// VerifyWebhookSecret validates the X-Telegram-Bot-Api-Secret-Token header
// value. When no secret is configured the check is skipped.
func (s *BotService) VerifyWebhookSecret(secretToken string) error {
	if s.cfg.WebhookSecret == "" {
		return nil
	}
	if secretToken != s.cfg.WebhookSecret {
		return ErrInvalidWebhookSecret
	}
	return nil
}

// HandleUpdate processes one inbound webhook update. Each user's messages
// arrive one at a time per chat; every remote call is awaited to completion
// before the reply goes out, so a single user's entries stay sequential.
func (s *BotService) HandleUpdate(ctx context.Context, update models.Update) error {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return nil
	}

	userID := msg.Chat.ID
	if msg.From != nil {
		userID = msg.From.ID
	}

	text := strings.TrimSpace(msg.Text)

	var reply string
	switch {
	case models.IsCommand(text):
		cmd := models.ParseCommand(text)
		s.logger.Info("parsed inbound command",
			zap.Int64("telegram_id", userID),
			zap.String("command", string(cmd.Type)))

		result, err := s.dispatcher.HandleCommand(ctx, cmd, userID)
		if err != nil {
			s.logger.Error("command failed", zap.Int64("telegram_id", userID), zap.Error(err))
			reply = genericFailReply
		} else {
			reply = result
		}
	case strings.Contains(text, "/"):
		result, err := s.dispatcher.HandleExpense(ctx, userID, text)
		if err != nil {
			reply = s.expenseErrorReply(userID, err)
		} else {
			reply = result
		}
	default:
		// Free text without a delimiter is neither a command nor an expense.
		s.logger.Debug("ignoring plain text message", zap.Int64("telegram_id", userID))
		return nil
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.SendMessage(ctxWithTimeout, client.SendMessageRequest{
		ChatID: msg.Chat.ID,
		Text:   reply,
	})
	return err
}

// SendOutbound lets internal operators push quick notifications via HTTP.
func (s *BotService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.SendMessage(ctxWithTimeout, client.SendMessageRequest{
		ChatID: req.ChatID,
		Text:   req.Message,
	})
	return err
}

// expenseErrorReply maps dispatcher failures onto corrective user text. All
// failures travel back over the same reply channel as successes.
func (s *BotService) expenseErrorReply(userID int64, err error) string {
	switch {
	case errors.Is(err, models.ErrWrongFieldCount):
		return invalidFormatReply
	case errors.Is(err, models.ErrInvalidAmount):
		return invalidAmountReply
	case errors.Is(err, models.ErrEmptyField):
		return emptyFieldReply
	case errors.Is(err, commands.ErrNotAuthenticated):
		return notAuthedReply
	default:
		s.logger.Error("failed to handle expense", zap.Int64("telegram_id", userID), zap.Error(err))
		return genericFailReply
	}
}
