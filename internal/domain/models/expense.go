package models

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrWrongFieldCount indicates the expense line did not contain exactly four segments.
var ErrWrongFieldCount = errors.New("expense line must have exactly 4 fields")

// ErrInvalidAmount indicates the sum segment is not a finite number.
var ErrInvalidAmount = errors.New("expense amount must be a valid number")

// ErrEmptyField indicates the position or source segment is empty after trimming.
var ErrEmptyField = errors.New("expense position and source must not be empty")

// DateLayout is the canonical date representation stored in the ledger.
const DateLayout = "2006-01-02"

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ExpenseRecord is a single validated expense entry. Records are append-only;
// once written to the ledger they are never mutated.
type ExpenseRecord struct {
	Position string
	Amount   float64
	Date     string
	Source   string
}

// ParseExpenseLine turns one line of free text into an ExpenseRecord. The line
// is split on "/" into exactly four segments (position, sum, date, source),
// each trimmed. The date token is normalized against the reference time, so a
// successful parse always carries a canonical date. Command lines (leading "/")
// must be filtered out by the caller before reaching this function.
func ParseExpenseLine(line string, ref time.Time) (ExpenseRecord, error) {
	parts := strings.Split(line, "/")
	if len(parts) != 4 {
		return ExpenseRecord{}, ErrWrongFieldCount
	}

	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}

	amount, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || math.IsInf(amount, 0) || math.IsNaN(amount) {
		return ExpenseRecord{}, ErrInvalidAmount
	}

	if parts[0] == "" || parts[3] == "" {
		return ExpenseRecord{}, ErrEmptyField
	}

	return ExpenseRecord{
		Position: parts[0],
		Amount:   amount,
		Date:     NormalizeDate(parts[2], ref),
		Source:   parts[3],
	}, nil
}

// NormalizeDate resolves a date token to its canonical YYYY-MM-DD form. It
// understands "today" and "yesterday" (case-insensitive) relative to ref, and
// passes through tokens already shaped like YYYY-MM-DD without a calendar
// check. Any other token falls back to ref; a bad date never fails the entry.
func NormalizeDate(token string, ref time.Time) string {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "today":
		return ref.Format(DateLayout)
	case "yesterday":
		return ref.AddDate(0, 0, -1).Format(DateLayout)
	}

	token = strings.TrimSpace(token)
	if isoDatePattern.MatchString(token) {
		return token
	}

	return ref.Format(DateLayout)
}
