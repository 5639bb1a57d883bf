package reconciliation

import (
	"testing"
	"time"

	"reconciliation-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nrow(doc, amount string, date time.Time, code, status string) domain.NormalizedRow {
	return domain.NormalizedRow{DocumentNumber: doc, Amount: dec(amount), Date: date, Code: code, StatusRaw: status, Source: domain.SourceB}
}

func TestAggregateRows(t *testing.T) {
	nov15 := time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC)
	nov10 := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)

	agg := AggregateRows(domain.SourceB, []domain.NormalizedRow{
		nrow("123", "50.00", nov15, "", ""),
		nrow("7", "10", time.Time{}, "C7", "N"),
		nrow("123", "25.50", nov10, "C1", "I"),
		nrow("123", "0.50", time.Time{}, "C2", "N"),
	})

	require.Equal(t, 2, agg.Len())
	records := agg.Records()
	assert.Equal(t, "123", records[0].DocumentNumber)
	assert.Equal(t, "7", records[1].DocumentNumber)

	rec, ok := agg.Get("123")
	require.True(t, ok)
	assertDecimal(t, "76", rec.Amount)
	assert.Equal(t, nov10, rec.Date)
	assert.Equal(t, "C1", rec.Code)
	assert.Equal(t, "I", rec.StatusRaw)
	assert.Equal(t, 3, rec.Lines)

	rec, ok = agg.Get("7")
	require.True(t, ok)
	assert.True(t, rec.Date.IsZero())

	_, ok = agg.Get("999")
	assert.False(t, ok)
}

func TestAggregateRowsIsIdempotent(t *testing.T) {
	first := AggregateRows(domain.SourceA, []domain.NormalizedRow{
		nrow("1", "10", time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC), "X", ""),
		nrow("1", "5", time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), "Y", ""),
		nrow("2", "3", time.Time{}, "", "N"),
	})

	again := make([]domain.NormalizedRow, 0, first.Len())
	for _, r := range first.Records() {
		again = append(again, domain.NormalizedRow{
			DocumentNumber: r.DocumentNumber,
			Amount:         r.Amount,
			Date:           r.Date,
			Code:           r.Code,
			StatusRaw:      r.StatusRaw,
		})
	}
	second := AggregateRows(domain.SourceA, again)

	require.Equal(t, first.Len(), second.Len())
	for i, want := range first.Records() {
		got := second.Records()[i]
		assert.Equal(t, want.DocumentNumber, got.DocumentNumber)
		assert.True(t, want.Amount.Equal(got.Amount))
		assert.Equal(t, want.Date, got.Date)
		assert.Equal(t, want.Code, got.Code)
		assert.Equal(t, want.StatusRaw, got.StatusRaw)
	}
}

func TestAggregateWithout(t *testing.T) {
	agg := AggregateRows(domain.SourceB, []domain.NormalizedRow{
		nrow("1", "1", time.Time{}, "", ""),
		nrow("2", "2", time.Time{}, "", ""),
	})
	trimmed := agg.Without(map[string]bool{"1": true})

	assert.Equal(t, 1, trimmed.Len())
	assert.Equal(t, domain.SourceB, trimmed.Source)
	assert.Equal(t, 2, agg.Len())

	var empty *Aggregate
	assert.Equal(t, 0, empty.Len())
	assert.Nil(t, empty.Records())
	assert.Equal(t, 0, empty.Without(nil).Len())
}
