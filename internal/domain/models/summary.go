package models

import "strconv"

// LedgerRow is an expense record as read back from the ledger, cells in their
// stored string representation. Ordering is append order.
type LedgerRow struct {
	Position string
	Amount   string
	Date     string
	Source   string
}

// SourceSummary is the per-source aggregate derived from the current ledger
// contents. It is a cache, fully rebuilt on every append, never a source of
// truth on its own.
type SourceSummary struct {
	Source string
	Total  float64
	Count  int
}

// AggregateBySource groups ledger rows by their source field (exact,
// case-sensitive match) and computes the total amount and row count per group.
// Amounts that fail to coerce contribute zero to the total. Output order is the
// first-appearance order of each distinct source. An empty input yields an
// empty result, which callers must treat as "no update" rather than "clear".
func AggregateBySource(rows []LedgerRow) []SourceSummary {
	if len(rows) == 0 {
		return nil
	}

	index := make(map[string]int, len(rows))
	summaries := make([]SourceSummary, 0, len(rows))

	for _, row := range rows {
		amount, err := strconv.ParseFloat(row.Amount, 64)
		if err != nil {
			amount = 0
		}

		i, ok := index[row.Source]
		if !ok {
			index[row.Source] = len(summaries)
			summaries = append(summaries, SourceSummary{Source: row.Source})
			i = len(summaries) - 1
		}

		summaries[i].Total += amount
		summaries[i].Count++
	}

	return summaries
}
