package sheets

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/adiallo/spendbot/internal/domain/models"
)

const (
	spreadsheetTitle = "Spending"
	expensesSheet    = "Expenses"
	summarySheet     = "Pivot Analysis"

	expensesAppendRange = "Expenses!A:D"
	expensesDataRange   = "Expenses!A2:D"
	summaryClearRange   = "Pivot Analysis!A2:C"
	summaryWriteRange   = "Pivot Analysis!A2"
)

// Ledger defines the persistence operations supported by the Google Sheets
// adapter. Credentials are the opaque token blob stored in the user directory;
// only this package decodes them.
type Ledger interface {
	CreateLedger(ctx context.Context, credentials []byte) (string, error)
	AppendRow(ctx context.Context, credentials []byte, ledgerID string, record models.ExpenseRecord) error
	ReadAllRows(ctx context.Context, credentials []byte, ledgerID string) ([]models.LedgerRow, error)
	ReplaceSummary(ctx context.Context, credentials []byte, ledgerID string, summaries []models.SourceSummary) error
}

// GoogleSheetLedger implements the Ledger interface using the official Google
// Sheets API, building a per-user client from stored OAuth tokens.
type GoogleSheetLedger struct {
	oauthConfig *oauth2.Config
	logger      *zap.Logger
}

// NewGoogleSheetLedger builds a Google Sheets backed ledger store.
func NewGoogleSheetLedger(oauthConfig *oauth2.Config, logger *zap.Logger) *GoogleSheetLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleSheetLedger{oauthConfig: oauthConfig, logger: logger}
}

func (l *GoogleSheetLedger) service(ctx context.Context, credentials []byte) (*sheetsapi.Service, error) {
	token := new(oauth2.Token)
	if err := json.Unmarshal(credentials, token); err != nil {
		return nil, fmt.Errorf("decode stored credentials: %w", err)
	}

	service, err := sheetsapi.NewService(ctx, option.WithTokenSource(l.oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}
	return service, nil
}

// CreateLedger creates the user's "Spending" spreadsheet: an Expenses sheet
// with four columns and a Pivot Analysis sheet with the derived summary,
// header rows written and formatted. Returns the new spreadsheet ID.
func (l *GoogleSheetLedger) CreateLedger(ctx context.Context, credentials []byte) (string, error) {
	service, err := l.service(ctx, credentials)
	if err != nil {
		return "", err
	}

	spreadsheet, err := service.Spreadsheets.Create(&sheetsapi.Spreadsheet{
		Properties: &sheetsapi.SpreadsheetProperties{Title: spreadsheetTitle},
		Sheets: []*sheetsapi.Sheet{
			{Properties: &sheetsapi.SheetProperties{
				Title:          expensesSheet,
				GridProperties: &sheetsapi.GridProperties{RowCount: 1000, ColumnCount: 4},
			}},
			{Properties: &sheetsapi.SheetProperties{
				Title:          summarySheet,
				GridProperties: &sheetsapi.GridProperties{RowCount: 1000, ColumnCount: 10},
			}},
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create spreadsheet: %w", err)
	}

	spreadsheetID := spreadsheet.SpreadsheetId

	var expensesSheetID, summarySheetID int64
	for _, sheet := range spreadsheet.Sheets {
		switch sheet.Properties.Title {
		case expensesSheet:
			expensesSheetID = sheet.Properties.SheetId
		case summarySheet:
			summarySheetID = sheet.Properties.SheetId
		}
	}

	headers := &sheetsapi.ValueRange{Values: [][]interface{}{{"Position", "Sum", "Date", "Source"}}}
	_, err = service.Spreadsheets.Values.Update(spreadsheetID, "Expenses!A1:D1", headers).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("write expense headers: %w", err)
	}

	requests := []*sheetsapi.Request{
		headerFormatRequest(expensesSheetID, 4, &sheetsapi.Color{Red: 0.2, Green: 0.6, Blue: 0.9}),
		{
			UpdateCells: &sheetsapi.UpdateCellsRequest{
				Range: &sheetsapi.GridRange{
					SheetId:          summarySheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   3,
				},
				Rows: []*sheetsapi.RowData{{
					Values: []*sheetsapi.CellData{
						{UserEnteredValue: &sheetsapi.ExtendedValue{StringValue: strPtr("Source")}},
						{UserEnteredValue: &sheetsapi.ExtendedValue{StringValue: strPtr("Total Amount")}},
						{UserEnteredValue: &sheetsapi.ExtendedValue{StringValue: strPtr("Count")}},
					},
				}},
				Fields: "userEnteredValue",
			},
		},
		headerFormatRequest(summarySheetID, 3, &sheetsapi.Color{Red: 0.9, Green: 0.6, Blue: 0.2}),
	}

	_, err = service.Spreadsheets.BatchUpdate(spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("format ledger headers: %w", err)
	}

	l.logger.Info("ledger spreadsheet created", zap.String("spreadsheet_id", spreadsheetID))
	return spreadsheetID, nil
}

// AppendRow appends the expense record to the Expenses sheet.
func (l *GoogleSheetLedger) AppendRow(ctx context.Context, credentials []byte, ledgerID string, record models.ExpenseRecord) error {
	service, err := l.service(ctx, credentials)
	if err != nil {
		return err
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{
		{record.Position, record.Amount, record.Date, record.Source},
	}}

	call := service.Spreadsheets.Values.Append(ledgerID, expensesAppendRange, payload).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", expensesAppendRange, err)
	}

	l.logger.Debug("row appended to ledger", zap.String("spreadsheet_id", ledgerID))
	return nil
}

// ReadAllRows fetches every expense row, in append order, skipping the header.
func (l *GoogleSheetLedger) ReadAllRows(ctx context.Context, credentials []byte, ledgerID string) ([]models.LedgerRow, error) {
	service, err := l.service(ctx, credentials)
	if err != nil {
		return nil, err
	}

	resp, err := service.Spreadsheets.Values.Get(ledgerID, expensesDataRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", expensesDataRange, err)
	}

	rows := make([]models.LedgerRow, 0, len(resp.Values))
	for _, cells := range resp.Values {
		rows = append(rows, models.LedgerRow{
			Position: cellString(cells, 0),
			Amount:   cellString(cells, 1),
			Date:     cellString(cells, 2),
			Source:   cellString(cells, 3),
		})
	}
	return rows, nil
}

// ReplaceSummary rebuilds the Pivot Analysis data region wholesale: clear,
// then write the aggregated rows. An empty summary set clears nothing and
// writes nothing.
func (l *GoogleSheetLedger) ReplaceSummary(ctx context.Context, credentials []byte, ledgerID string, summaries []models.SourceSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	service, err := l.service(ctx, credentials)
	if err != nil {
		return err
	}

	if _, err := service.Spreadsheets.Values.Clear(ledgerID, summaryClearRange, &sheetsapi.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear summary range %s: %w", summaryClearRange, err)
	}

	values := make([][]interface{}, 0, len(summaries))
	for _, s := range summaries {
		values = append(values, []interface{}{s.Source, fmt.Sprintf("%.2f", s.Total), s.Count})
	}

	payload := &sheetsapi.ValueRange{Values: values}
	_, err = service.Spreadsheets.Values.Update(ledgerID, summaryWriteRange, payload).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write summary range %s: %w", summaryWriteRange, err)
	}

	l.logger.Debug("summary replaced", zap.String("spreadsheet_id", ledgerID), zap.Int("sources", len(summaries)))
	return nil
}

func headerFormatRequest(sheetID int64, columns int64, background *sheetsapi.Color) *sheetsapi.Request {
	return &sheetsapi.Request{
		RepeatCell: &sheetsapi.RepeatCellRequest{
			Range: &sheetsapi.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    0,
				EndRowIndex:      1,
				StartColumnIndex: 0,
				EndColumnIndex:   columns,
			},
			Cell: &sheetsapi.CellData{
				UserEnteredFormat: &sheetsapi.CellFormat{
					BackgroundColor: background,
					TextFormat: &sheetsapi.TextFormat{
						ForegroundColor: &sheetsapi.Color{Red: 1, Green: 1, Blue: 1},
						Bold:            true,
					},
				},
			},
			Fields: "userEnteredFormat(backgroundColor,textFormat)",
		},
	}
}

func cellString(cells []interface{}, i int) string {
	if i >= len(cells) || cells[i] == nil {
		return ""
	}
	return fmt.Sprint(cells[i])
}

func strPtr(s string) *string {
	return &s
}
