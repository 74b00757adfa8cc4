package reporting

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/adiallo/spendbot/internal/domain/models"
	"github.com/adiallo/spendbot/internal/repository/sheets"
)

// Service builds per-user spending digests for the scheduler.
type Service struct {
	ledger sheets.Ledger
	logger *zap.Logger
}

// NewService wires a new digest service instance.
func NewService(ledger sheets.Ledger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ledger: ledger, logger: logger}
}

// BuildDigest reads the user's full ledger, aggregates it by source and
// renders a plain-text spending overview.
func (s *Service) BuildDigest(ctx context.Context, user models.UserRecord) (string, error) {
	rows, err := s.ledger.ReadAllRows(ctx, user.Credentials, user.SpreadsheetID)
	if err != nil {
		return "", fmt.Errorf("load ledger rows: %w", err)
	}

	summaries := models.AggregateBySource(rows)
	if len(summaries) == 0 {
		return "Spending digest: no expenses logged yet.", nil
	}

	var b strings.Builder
	b.WriteString("Spending digest by source:\n")

	var grandTotal float64
	var entries int
	for _, summary := range summaries {
		fmt.Fprintf(&b, "- %s: %.2f (%d entries)\n", summary.Source, summary.Total, summary.Count)
		grandTotal += summary.Total
		entries += summary.Count
	}

	fmt.Fprintf(&b, "Total: %.2f across %d entries.", grandTotal, entries)
	return b.String(), nil
}
