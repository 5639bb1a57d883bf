package reconciliation

import (
	"testing"
	"time"

	"reconciliation-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aggOf(source domain.Source, pairs ...string) *Aggregate {
	rows := make([]domain.NormalizedRow, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		rows = append(rows, domain.NormalizedRow{DocumentNumber: pairs[i], Amount: dec(pairs[i+1]), Source: source})
	}
	return AggregateRows(source, rows)
}

func TestReconcileThreshold(t *testing.T) {
	tests := []struct {
		name    string
		amountA string
		want    domain.Status
	}{
		{"inside tolerance", "100.04", domain.StatusMatched},
		{"at tolerance", "100.05", domain.StatusMatched},
		{"past tolerance", "100.06", domain.StatusAmountMismatch},
		{"past tolerance below", "99.94", domain.StatusAmountMismatch},
		{"equal", "100.00", domain.StatusMatched},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := Reconcile(aggOf(domain.SourceA, "1", tt.amountA), aggOf(domain.SourceB, "1", "100.00"))
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, tt.want, records[0].Status)
			assert.True(t, records[0].Difference.Equal(dec(tt.amountA).Sub(dec("100.00"))))
		})
	}
}

func TestReconcileOuterJoin(t *testing.T) {
	a := aggOf(domain.SourceA, "10", "5", "9", "1", "100", "2", "A1", "3")
	b := aggOf(domain.SourceB, "9", "1", "11", "7")

	records, err := Reconcile(a, b)
	require.NoError(t, err)

	docs := make([]string, 0, len(records))
	byDoc := make(map[string]domain.ReconciliationRecord)
	for _, r := range records {
		docs = append(docs, r.DocumentNumber)
		byDoc[r.DocumentNumber] = r
	}
	assert.Equal(t, []string{"9", "10", "11", "100", "A1"}, docs)

	assert.Equal(t, domain.StatusMatched, byDoc["9"].Status)
	assert.Equal(t, domain.StatusOnlyA, byDoc["10"].Status)
	assertDecimal(t, "0", byDoc["10"].AmountB)
	assertDecimal(t, "5", byDoc["10"].Difference)
	assert.Equal(t, domain.StatusOnlyB, byDoc["11"].Status)
	assertDecimal(t, "0", byDoc["11"].AmountA)
	assertDecimal(t, "-7", byDoc["11"].Difference)

	for _, r := range records {
		assert.True(t, r.Difference.Equal(r.AmountA.Sub(r.AmountB)), r.DocumentNumber)
	}
}

func TestReconcileVoided(t *testing.T) {
	nov := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	a := aggOf(domain.SourceA, "888", "10", "123", "50")
	b := AggregateRows(domain.SourceB, []domain.NormalizedRow{
		{DocumentNumber: "123", Amount: dec("50"), StatusRaw: "N"},
		{DocumentNumber: "888", Amount: dec("10"), StatusRaw: " i  cancelada", Date: nov},
		{DocumentNumber: "5", Amount: dec("4"), StatusRaw: "I"},
	})

	records, err := Reconcile(a, b)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "123", records[0].DocumentNumber)
	assert.Equal(t, domain.StatusMatched, records[0].Status)

	assert.Equal(t, "5", records[1].DocumentNumber)
	assert.Equal(t, domain.StatusVoided, records[1].Status)

	voided := records[2]
	assert.Equal(t, "888", voided.DocumentNumber)
	assert.Equal(t, domain.StatusVoided, voided.Status)
	assertDecimal(t, "0", voided.AmountA)
	assertDecimal(t, "10", voided.AmountB)
	assertDecimal(t, "-10", voided.Difference)
	require.NotNil(t, voided.DateB)
	assert.Equal(t, nov, *voided.DateB)
	assert.Nil(t, voided.DateA)
}

func TestIsVoided(t *testing.T) {
	assert.True(t, IsVoided("I"))
	assert.True(t, IsVoided(" i "))
	assert.True(t, IsVoided("I   Cancelada"))
	assert.False(t, IsVoided("Inutilizada"))
	assert.False(t, IsVoided("N"))
	assert.False(t, IsVoided(""))
}

func TestReconcileInsufficientData(t *testing.T) {
	_, err := Reconcile(aggOf(domain.SourceA), aggOf(domain.SourceB))
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Reconcile(nil, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestReconcileOnlyVoided(t *testing.T) {
	b := AggregateRows(domain.SourceB, []domain.NormalizedRow{{DocumentNumber: "1", Amount: dec("2"), StatusRaw: "I"}})
	records, err := Reconcile(aggOf(domain.SourceA), b)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.StatusVoided, records[0].Status)
}

func TestBuildReport(t *testing.T) {
	records := []domain.ReconciliationRecord{
		{DocumentNumber: "1", Status: domain.StatusMatched},
		{DocumentNumber: "2", Status: domain.StatusOnlyA},
		{DocumentNumber: "3", Status: domain.StatusMatched},
	}
	report := BuildReport(records, 3, 2)

	assert.Equal(t, domain.ReportHeaders, report.Headers)
	assert.Equal(t, 3, report.Summary.Total)
	assert.Equal(t, 3, report.Summary.ReadA)
	assert.Equal(t, 2, report.Summary.ReadB)
	assert.Equal(t, map[domain.Status]int{
		domain.StatusMatched:        2,
		domain.StatusAmountMismatch: 0,
		domain.StatusOnlyA:          1,
		domain.StatusOnlyB:          0,
		domain.StatusVoided:         0,
	}, report.Summary.ByStatus)

	report.Headers[0] = "changed"
	assert.Equal(t, "Code", domain.ReportHeaders[0])
}
