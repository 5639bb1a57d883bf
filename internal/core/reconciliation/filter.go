package reconciliation

import (
	"strings"
	"time"

	"reconciliation-service/internal/domain"

	"github.com/shopspring/decimal"
)

// MinAmount is the smallest amount a document line may carry; lines at or below it are dropped.
var MinAmount = decimal.RequireFromString("0.01")

// DropStats counts why body rows were discarded.
type DropStats struct {
	TotalRows   int `json:"total_rows"`
	LeadingRows int `json:"leading_rows"`
	NoNumber    int `json:"no_number"`
	LowAmount   int `json:"low_amount"`
}

// FilterRows normalizes the table body and keeps only document lines.
func (n Normalizer) FilterRows(body domain.RawGrid, cols domain.ColumnRoleMap, source domain.Source) ([]domain.NormalizedRow, DropStats) {
	var stats DropStats
	docCol := cols.Index(domain.RoleDocumentNumber)
	amountCol := cols.Index(domain.RoleAmount)

	kept := make(domain.RawGrid, 0, len(body))
	for _, row := range body {
		if isTotalRow(row) {
			stats.TotalRows++
			continue
		}
		kept = append(kept, row)
	}

	start := n.leadingTrim(kept, docCol)
	stats.LeadingRows = start
	kept = kept[start:]

	dates := make([]time.Time, len(kept))
	if dateCol := cols.Index(domain.RoleDate); dateCol >= 0 {
		col := make([]domain.Cell, len(kept))
		for i := range kept {
			col[i] = kept.At(i, dateCol)
		}
		dates = n.Dates(col)
	}

	rows := make([]domain.NormalizedRow, 0, len(kept))
	for i := range kept {
		doc := n.DocumentNumber(kept.At(i, docCol))
		if doc == domain.NoNumber {
			stats.NoNumber++
			continue
		}
		amount := n.Amount(kept.At(i, amountCol))
		if !amount.GreaterThan(MinAmount) {
			stats.LowAmount++
			continue
		}
		rows = append(rows, domain.NormalizedRow{
			DocumentNumber: doc,
			Amount:         amount,
			Date:           dates[i],
			Code:           cellValue(kept, i, cols.Index(domain.RoleCode)),
			StatusRaw:      cellValue(kept, i, cols.Index(domain.RoleStatus)),
			Source:         source,
		})
	}
	return rows, stats
}

// isTotalRow identifica subtotais e totais gerais injetados pela exportação.
func isTotalRow(row []domain.Cell) bool {
	return strings.Contains(rowText(row), "total")
}

// leadingTrim pula sub-cabeçalhos residuais abaixo do título detectado.
func (n Normalizer) leadingTrim(rows domain.RawGrid, docCol int) int {
	for i := range rows {
		if n.DocumentNumber(rows.At(i, docCol)) != domain.NoNumber {
			return i
		}
	}
	return 0
}

func cellValue(g domain.RawGrid, row, col int) string {
	if col < 0 {
		return ""
	}
	return strings.TrimSpace(g.At(row, col).String())
}
