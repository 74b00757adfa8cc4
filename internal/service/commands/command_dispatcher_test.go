package commands

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adiallo/spendbot/internal/domain/models"
)

type fakeDirectory struct {
	users map[int64]*models.UserRecord
	err   error
}

func (d *fakeDirectory) FindByTelegramID(_ context.Context, telegramID int64) (*models.UserRecord, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.users[telegramID], nil
}

func (d *fakeDirectory) Upsert(_ context.Context, user models.UserRecord) (*models.UserRecord, error) {
	if d.users == nil {
		d.users = map[int64]*models.UserRecord{}
	}
	d.users[user.TelegramID] = &user
	return &user, nil
}

func (d *fakeDirectory) SetSpreadsheetID(_ context.Context, telegramID int64, spreadsheetID string) (*models.UserRecord, error) {
	user, ok := d.users[telegramID]
	if !ok {
		return nil, errors.New("user not found in directory")
	}
	user.SpreadsheetID = spreadsheetID
	return user, nil
}

func (d *fakeDirectory) ListAuthenticated(_ context.Context) ([]models.UserRecord, error) {
	var out []models.UserRecord
	for _, u := range d.users {
		if u.Ready() {
			out = append(out, *u)
		}
	}
	return out, nil
}

// fakeLedger keeps rows in memory and records summary replacements, with
// per-operation failure toggles.
type fakeLedger struct {
	rows       []models.LedgerRow
	summary    []models.SourceSummary
	replaced   int
	appendErr  error
	readErr    error
	replaceErr error
}

func (l *fakeLedger) CreateLedger(context.Context, []byte) (string, error) {
	return "sheet-1", nil
}

func (l *fakeLedger) AppendRow(_ context.Context, _ []byte, _ string, record models.ExpenseRecord) error {
	if l.appendErr != nil {
		return l.appendErr
	}
	l.rows = append(l.rows, models.LedgerRow{
		Position: record.Position,
		Amount:   fmt.Sprintf("%v", record.Amount),
		Date:     record.Date,
		Source:   record.Source,
	})
	return nil
}

func (l *fakeLedger) ReadAllRows(context.Context, []byte, string) ([]models.LedgerRow, error) {
	if l.readErr != nil {
		return nil, l.readErr
	}
	return l.rows, nil
}

func (l *fakeLedger) ReplaceSummary(_ context.Context, _ []byte, _ string, summaries []models.SourceSummary) error {
	if l.replaceErr != nil {
		return l.replaceErr
	}
	l.summary = summaries
	l.replaced++
	return nil
}

type fakeAuthorizer struct{}

func (fakeAuthorizer) AuthURL(telegramID int64) string {
	return fmt.Sprintf("https://accounts.example.com/auth?state=%d", telegramID)
}

func authedUser(id int64) *models.UserRecord {
	return &models.UserRecord{
		TelegramID:    id,
		Credentials:   []byte(`{"access_token":"tok"}`),
		SpreadsheetID: "sheet-1",
		Authenticated: true,
	}
}

func newTestService(directory *fakeDirectory, ledger *fakeLedger) *Service {
	svc := NewService(directory, ledger, fakeAuthorizer{}, nil)
	svc.now = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestHandleExpense(t *testing.T) {
	ctx := context.Background()

	t.Run("append then summary rebuild", func(t *testing.T) {
		ledger := &fakeLedger{}
		directory := &fakeDirectory{users: map[int64]*models.UserRecord{7: authedUser(7)}}
		svc := newTestService(directory, ledger)

		reply, err := svc.HandleExpense(ctx, 7, "Coffee / 5.50 / today / Starbucks")
		require.NoError(t, err)
		assert.Contains(t, reply, "Coffee")
		assert.Contains(t, reply, "Starbucks")

		require.Len(t, ledger.rows, 1)
		assert.Equal(t, models.LedgerRow{Position: "Coffee", Amount: "5.5", Date: "2024-01-15", Source: "Starbucks"}, ledger.rows[0])

		require.Len(t, ledger.summary, 1)
		assert.Equal(t, models.SourceSummary{Source: "Starbucks", Total: 5.5, Count: 1}, ledger.summary[0])
	})

	t.Run("malformed line leaves ledger untouched", func(t *testing.T) {
		ledger := &fakeLedger{}
		directory := &fakeDirectory{users: map[int64]*models.UserRecord{7: authedUser(7)}}
		svc := newTestService(directory, ledger)

		_, err := svc.HandleExpense(ctx, 7, "Coffee - 5.50")
		assert.ErrorIs(t, err, models.ErrWrongFieldCount)
		assert.Empty(t, ledger.rows)
		assert.Zero(t, ledger.replaced)
	})

	t.Run("unauthenticated user", func(t *testing.T) {
		ledger := &fakeLedger{}
		directory := &fakeDirectory{}
		svc := newTestService(directory, ledger)

		_, err := svc.HandleExpense(ctx, 7, "Coffee / 5.50 / today / Starbucks")
		assert.ErrorIs(t, err, ErrNotAuthenticated)
		assert.Empty(t, ledger.rows)
	})

	t.Run("user with credentials but no spreadsheet", func(t *testing.T) {
		user := authedUser(7)
		user.SpreadsheetID = ""
		directory := &fakeDirectory{users: map[int64]*models.UserRecord{7: user}}
		svc := newTestService(directory, &fakeLedger{})

		_, err := svc.HandleExpense(ctx, 7, "Coffee / 5.50 / today / Starbucks")
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("append failure surfaces to caller", func(t *testing.T) {
		ledger := &fakeLedger{appendErr: errors.New("quota exceeded")}
		directory := &fakeDirectory{users: map[int64]*models.UserRecord{7: authedUser(7)}}
		svc := newTestService(directory, ledger)

		_, err := svc.HandleExpense(ctx, 7, "Coffee / 5.50 / today / Starbucks")
		require.Error(t, err)
		assert.NotErrorIs(t, err, models.ErrWrongFieldCount)
	})

	t.Run("summary replace failure still confirms the append", func(t *testing.T) {
		ledger := &fakeLedger{replaceErr: errors.New("range locked")}
		directory := &fakeDirectory{users: map[int64]*models.UserRecord{7: authedUser(7)}}
		svc := newTestService(directory, ledger)

		reply, err := svc.HandleExpense(ctx, 7, "Coffee / 5.50 / today / Starbucks")
		require.NoError(t, err)
		assert.NotEmpty(t, reply)
		require.Len(t, ledger.rows, 1)
		assert.Empty(t, ledger.summary)
	})

	t.Run("ledger read failure skips the rebuild", func(t *testing.T) {
		ledger := &fakeLedger{readErr: errors.New("network down")}
		directory := &fakeDirectory{users: map[int64]*models.UserRecord{7: authedUser(7)}}
		svc := newTestService(directory, ledger)

		_, err := svc.HandleExpense(ctx, 7, "Coffee / 5.50 / today / Starbucks")
		require.NoError(t, err)
		assert.Zero(t, ledger.replaced)
	})

	t.Run("summary accumulates across appends", func(t *testing.T) {
		ledger := &fakeLedger{}
		directory := &fakeDirectory{users: map[int64]*models.UserRecord{7: authedUser(7)}}
		svc := newTestService(directory, ledger)

		for _, line := range []string{
			"Coffee / 5 / today / A",
			"Lunch / 2 / today / B",
			"Snack / 3 / today / A",
		} {
			_, err := svc.HandleExpense(ctx, 7, line)
			require.NoError(t, err)
		}

		require.Len(t, ledger.summary, 2)
		assert.Equal(t, models.SourceSummary{Source: "A", Total: 8, Count: 2}, ledger.summary[0])
		assert.Equal(t, models.SourceSummary{Source: "B", Total: 2, Count: 1}, ledger.summary[1])
		assert.Equal(t, 3, ledger.replaced)
	})
}

func TestHandleCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("start shows the format", func(t *testing.T) {
		svc := newTestService(&fakeDirectory{}, &fakeLedger{})
		reply, err := svc.HandleCommand(ctx, models.ParseCommand("/start"), 7)
		require.NoError(t, err)
		assert.Contains(t, reply, "position / sum / date / source")
	})

	t.Run("help lists date tokens", func(t *testing.T) {
		svc := newTestService(&fakeDirectory{}, &fakeLedger{})
		reply, err := svc.HandleCommand(ctx, models.ParseCommand("/help"), 7)
		require.NoError(t, err)
		assert.Contains(t, reply, "yesterday")
	})

	t.Run("auth hands out the authorization link", func(t *testing.T) {
		svc := newTestService(&fakeDirectory{}, &fakeLedger{})
		reply, err := svc.HandleCommand(ctx, models.ParseCommand("/auth"), 7)
		require.NoError(t, err)
		assert.Contains(t, reply, "https://accounts.example.com/auth?state=7")
	})

	t.Run("auth for a ready user short-circuits", func(t *testing.T) {
		directory := &fakeDirectory{users: map[int64]*models.UserRecord{7: authedUser(7)}}
		svc := newTestService(directory, &fakeLedger{})
		reply, err := svc.HandleCommand(ctx, models.ParseCommand("/auth"), 7)
		require.NoError(t, err)
		assert.Contains(t, reply, "already authenticated")
	})

	t.Run("unknown command", func(t *testing.T) {
		svc := newTestService(&fakeDirectory{}, &fakeLedger{})
		reply, err := svc.HandleCommand(ctx, models.ParseCommand("/export"), 7)
		require.NoError(t, err)
		assert.Contains(t, reply, "Unknown command")
	})
}
