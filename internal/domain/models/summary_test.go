package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateBySource(t *testing.T) {
	t.Run("empty input yields empty output", func(t *testing.T) {
		assert.Empty(t, AggregateBySource(nil))
		assert.Empty(t, AggregateBySource([]LedgerRow{}))
	})

	t.Run("groups by source in first-appearance order", func(t *testing.T) {
		rows := []LedgerRow{
			{Position: "Coffee", Amount: "5", Date: "2024-01-15", Source: "A"},
			{Position: "Lunch", Amount: "2", Date: "2024-01-15", Source: "B"},
			{Position: "Snack", Amount: "3", Date: "2024-01-16", Source: "A"},
		}

		got := AggregateBySource(rows)
		require.Len(t, got, 2)
		assert.Equal(t, SourceSummary{Source: "A", Total: 8, Count: 2}, got[0])
		assert.Equal(t, SourceSummary{Source: "B", Total: 2, Count: 1}, got[1])
	})

	t.Run("source matching is case-sensitive", func(t *testing.T) {
		rows := []LedgerRow{
			{Amount: "1", Source: "shell"},
			{Amount: "1", Source: "Shell"},
		}

		got := AggregateBySource(rows)
		require.Len(t, got, 2)
	})

	t.Run("uncoercible amount contributes zero", func(t *testing.T) {
		rows := []LedgerRow{
			{Amount: "5.50", Source: "A"},
			{Amount: "oops", Source: "A"},
		}

		got := AggregateBySource(rows)
		require.Len(t, got, 1)
		assert.Equal(t, 5.5, got[0].Total)
		assert.Equal(t, 2, got[0].Count)
	})

	t.Run("idempotent over the same row set", func(t *testing.T) {
		rows := []LedgerRow{
			{Amount: "5", Source: "A"},
			{Amount: "2", Source: "B"},
			{Amount: "3", Source: "A"},
		}

		first := AggregateBySource(rows)
		second := AggregateBySource(rows)
		assert.Equal(t, first, second)
	})
}
