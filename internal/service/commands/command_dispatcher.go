package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adiallo/spendbot/internal/domain/models"
	"github.com/adiallo/spendbot/internal/repository/mongodb"
	"github.com/adiallo/spendbot/internal/repository/sheets"
)

// ErrNotAuthenticated indicates the user tried to log an expense before
// completing the authorization flow.
var ErrNotAuthenticated = errors.New("user has not completed authorization")

const welcomeMessage = `Welcome to the expense tracker bot.

To get started, connect your Google account:
1. Run /auth and open the link
2. Once authorized, a "Spending" spreadsheet is created for you

Then send expenses in this format:
position / sum / date / source

Example: Coffee / 5.50 / 2024-01-15 / Starbucks

Commands:
/start - Show this message
/auth - Get the authorization link
/help - Show help`

const helpMessage = `How to use the expense tracker bot:

1. Authorize Google access with /auth
2. Send expenses in this format:
   position / sum / date / source

Examples:
- Coffee / 5.50 / 2024-01-15 / Starbucks
- Lunch / 12.00 / today / McDonald's
- Gas / 45.00 / yesterday / Shell

Date tokens supported: YYYY-MM-DD, today, yesterday.

Every expense lands in your Spending spreadsheet, and the per-source
summary on the Pivot Analysis sheet is rebuilt after each entry.`

const unknownCommandMessage = "Unknown command. Supported: /start, /auth, /help."

// Authorizer provides the authorization URL handed out by /auth.
type Authorizer interface {
	AuthURL(telegramID int64) string
}

// Dispatcher executes parsed bot commands and expense lines.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, telegramID int64) (string, error)
	HandleExpense(ctx context.Context, telegramID int64, text string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	directory  mongodb.Directory
	ledger     sheets.Ledger
	authorizer Authorizer
	logger     *zap.Logger
	now        func() time.Time
}

// NewService constructs a command dispatcher.
func NewService(directory mongodb.Directory, ledger sheets.Ledger, authorizer Authorizer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		directory:  directory,
		ledger:     ledger,
		authorizer: authorizer,
		logger:     logger,
		now:        time.Now,
	}
}

// HandleCommand produces the reply text for a slash command.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, telegramID int64) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.Int64("telegram_id", telegramID))

	switch cmd.Type {
	case models.CommandStart:
		return welcomeMessage, nil
	case models.CommandHelp:
		return helpMessage, nil
	case models.CommandAuth:
		user, err := s.directory.FindByTelegramID(ctx, telegramID)
		if err != nil {
			return "", fmt.Errorf("look up user %d: %w", telegramID, err)
		}
		if user.Ready() {
			return "You are already authenticated and your spreadsheet is set up.", nil
		}
		url := s.authorizer.AuthURL(telegramID)
		return fmt.Sprintf("Open the link below to authorize Google access:\n\n%s\n\nAfter that, a \"Spending\" spreadsheet will be created for you.", url), nil
	default:
		return unknownCommandMessage, nil
	}
}

// HandleExpense parses an expense line, appends it to the user's ledger and
// rebuilds the summary. The append must succeed for the entry to be confirmed;
// a failed summary rebuild is only logged and heals on the next append.
func (s *Service) HandleExpense(ctx context.Context, telegramID int64, text string) (string, error) {
	user, err := s.directory.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return "", fmt.Errorf("look up user %d: %w", telegramID, err)
	}
	if !user.Ready() {
		return "", ErrNotAuthenticated
	}

	record, err := models.ParseExpenseLine(text, s.now())
	if err != nil {
		return "", err
	}

	if err := s.ledger.AppendRow(ctx, user.Credentials, user.SpreadsheetID, record); err != nil {
		return "", fmt.Errorf("append expense: %w", err)
	}

	s.recomputeSummary(ctx, user)

	return fmt.Sprintf("Expense logged: %s %.2f at %s on %s.", record.Position, record.Amount, record.Source, record.Date), nil
}

// recomputeSummary runs one full aggregation cycle: read every ledger row,
// group by source, replace the summary region wholesale. An empty row set is a
// no-op so a racing read can never wipe a populated summary.
func (s *Service) recomputeSummary(ctx context.Context, user *models.UserRecord) {
	rows, err := s.ledger.ReadAllRows(ctx, user.Credentials, user.SpreadsheetID)
	if err != nil {
		s.logger.Warn("summary rebuild skipped, ledger read failed", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
		return
	}

	summaries := models.AggregateBySource(rows)
	if len(summaries) == 0 {
		return
	}

	if err := s.ledger.ReplaceSummary(ctx, user.Credentials, user.SpreadsheetID, summaries); err != nil {
		s.logger.Warn("summary replace failed, will heal on next append", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
	}
}
