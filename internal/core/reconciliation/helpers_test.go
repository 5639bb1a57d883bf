package reconciliation

import (
	"testing"

	"reconciliation-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// row builds a row of the given width with cells placed by column.
func row(width int, cells map[int]domain.Cell) []domain.Cell {
	r := make([]domain.Cell, width)
	for col, c := range cells {
		r[col] = c
	}
	return r
}

func txt(s string) domain.Cell { return domain.Text(s) }

func num(f float64) domain.Cell { return domain.Number(f) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

// dominioGrid builds a source-A export: two title rows, a header and the given lines.
func dominioGrid(lines ...[]domain.Cell) domain.RawGrid {
	const width = 23
	g := domain.RawGrid{
		row(width, map[int]domain.Cell{0: txt("ESCRITA FISCAL - RELATÓRIO DE ENTRADAS")}),
		row(width, map[int]domain.Cell{0: txt("Período: 11/2025")}),
		row(width, map[int]domain.Cell{2: txt("Data"), 4: txt("Nota"), 8: txt("Código"), 20: txt("Valor Contábil")}),
	}
	return append(g, lines...)
}

func dominioLine(doc domain.Cell, amount domain.Cell, date string) []domain.Cell {
	return row(23, map[int]domain.Cell{2: txt(date), 4: doc, 20: amount})
}

// empresaGrid builds a source-B export with its header on the first row.
func empresaGrid(lines ...[]domain.Cell) domain.RawGrid {
	const width = 21
	g := domain.RawGrid{
		row(width, map[int]domain.Cell{10: txt("Dt. Emissão"), 12: txt("N.Nota"), 17: txt("Total Nota"), 20: txt("Situação")}),
	}
	return append(g, lines...)
}

func empresaLine(doc domain.Cell, amount domain.Cell, date, status string) []domain.Cell {
	return row(21, map[int]domain.Cell{10: txt(date), 12: doc, 17: amount, 20: txt(status)})
}
