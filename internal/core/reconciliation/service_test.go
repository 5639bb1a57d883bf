package reconciliation

import (
	"errors"
	"testing"

	"reconciliation-service/internal/domain"
	"reconciliation-service/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInput() Input {
	a := dominioGrid(
		dominioLine(txt("00123"), txt("1.234,56"), "15/11/2025"),
		dominioLine(txt("777"), txt("50,00"), "16/11/2025"),
		row(23, map[int]domain.Cell{0: txt("Total geral"), 20: txt("1.294,56")}),
		dominioLine(txt("888"), txt("10,00"), "17/11/2025"),
	)
	b := empresaGrid(
		empresaLine(txt("123"), txt("1.234,58"), "15/11/2025", "N"),
		empresaLine(txt("888"), txt("10,00"), "17/11/2025", "I"),
	)
	return Input{
		Company: "Filial 01",
		Period:  "11-2025",
		SourceA: []domain.SourceTable{{Name: "dominio.xlsx", Grid: a}},
		SourceB: []domain.SourceTable{{Name: "empresa.xlsx", Grid: b}},
	}
}

func TestServiceReconcile(t *testing.T) {
	var rec events.Recorder
	svc := NewService(Options{Sink: rec.Sink()})

	report, err := svc.Reconcile(sampleInput())
	require.NoError(t, err)

	assert.Equal(t, "Filial 01", report.Company)
	assert.Equal(t, "11-2025", report.Period)
	require.Len(t, report.Records, 3)

	matched := report.Records[0]
	assert.Equal(t, "123", matched.DocumentNumber)
	assert.Equal(t, domain.StatusMatched, matched.Status)
	assertDecimal(t, "-0.02", matched.Difference)

	onlyA := report.Records[1]
	assert.Equal(t, "777", onlyA.DocumentNumber)
	assert.Equal(t, domain.StatusOnlyA, onlyA.Status)

	voided := report.Records[2]
	assert.Equal(t, "888", voided.DocumentNumber)
	assert.Equal(t, domain.StatusVoided, voided.Status)
	assertDecimal(t, "-10", voided.Difference)

	assert.Equal(t, 3, report.Summary.Total)
	assert.Equal(t, 3, report.Summary.ReadA)
	assert.Equal(t, 2, report.Summary.ReadB)
	assert.Equal(t, 1, report.Summary.ByStatus[domain.StatusVoided])

	var messages []string
	for _, ev := range rec.Events() {
		assert.Equal(t, "Filial 01", ev.Company)
		messages = append(messages, ev.Message)
	}
	assert.Contains(t, messages, "tabela lida")
	assert.Contains(t, messages, "conciliação concluída")
}

func TestServiceConcatenatesTables(t *testing.T) {
	in := sampleInput()
	in.SourceA = append(in.SourceA, domain.SourceTable{
		Name: "dominio-2.xlsx",
		Grid: dominioGrid(dominioLine(txt("123"), txt("0,02"), "14/11/2025")),
	})

	report, err := NewService(Options{}).Reconcile(in)
	require.NoError(t, err)

	first := report.Records[0]
	assert.Equal(t, "123", first.DocumentNumber)
	assertDecimal(t, "1234.58", first.AmountA)
	assert.Equal(t, domain.StatusMatched, first.Status)
	require.NotNil(t, first.DateA)
	assert.Equal(t, 14, first.DateA.Day())
}

func TestServiceRejectsTables(t *testing.T) {
	t.Run("grid too short", func(t *testing.T) {
		in := sampleInput()
		in.SourceB = []domain.SourceTable{{Name: "curta.xlsx", Grid: blankRows(3, 21)}}

		var rec events.Recorder
		_, err := NewService(Options{Sink: rec.Sink()}).Reconcile(in)
		require.ErrorIs(t, err, ErrHeaderNotFound)

		var tableErr *TableError
		require.True(t, errors.As(err, &tableErr))
		assert.Equal(t, domain.SourceB, tableErr.Source)
		assert.Equal(t, "curta.xlsx", tableErr.Table)

		evs := rec.Events()
		require.NotEmpty(t, evs)
		assert.Equal(t, events.LevelError, evs[len(evs)-1].Level)
	})

	t.Run("grid too narrow", func(t *testing.T) {
		in := sampleInput()
		g := blankRows(8, 2)
		g[0][0], g[0][1] = txt("Nota"), txt("Valor")
		in.SourceA = []domain.SourceTable{{Name: "estreita.xlsx", Grid: g}}

		_, err := NewService(Options{}).Reconcile(in)
		assert.ErrorIs(t, err, ErrInsufficientColumns)
	})

	t.Run("nothing left after filtering", func(t *testing.T) {
		in := Input{
			SourceA: []domain.SourceTable{{Name: "a", Grid: dominioGrid()}},
			SourceB: []domain.SourceTable{{Name: "b", Grid: empresaGrid()}},
		}
		_, err := NewService(Options{}).Reconcile(in)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})
}

func TestServiceCustomLayout(t *testing.T) {
	layout, err := LookupLayout("dominio-valor-contabil")
	require.NoError(t, err)

	g := blankRows(8, 23)
	for i := 6; i < 8; i++ {
		g[i][2] = txt("01/11/2025")
		g[i][4] = txt("10")
		g[i][22] = txt("5,00")
	}
	in := Input{
		SourceA: []domain.SourceTable{{Name: "a", Grid: g}},
		SourceB: []domain.SourceTable{{Name: "b", Grid: empresaGrid(empresaLine(txt("10"), txt("10,00"), "01/11/2025", "N"))}},
	}

	report, err := NewService(Options{LayoutA: layout}).Reconcile(in)
	require.NoError(t, err)
	require.Len(t, report.Records, 1)
	assert.Equal(t, domain.StatusMatched, report.Records[0].Status)
}
