// Package export writes reconciliation reports as an xlsx workbook or a
// Windows-1252 CSV file.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"reconciliation-service/internal/domain"

	"github.com/xuri/excelize/v2"
)

// ErrExportFailure wraps any failure to produce or persist the report file.
var ErrExportFailure = errors.New("falha ao exportar relatório")

// Sheet names of the report workbook.
const (
	ResultSheet  = "Resultado"
	SummarySheet = "Resumo"
)

// moneyFormat is the built-in excel number format "#,##0.00".
const moneyFormat = 4

type statusStyle struct {
	fill, font string
}

var statusStyles = map[domain.Status]statusStyle{
	domain.StatusAmountMismatch: {fill: "FFC7CE", font: "9C0006"},
	domain.StatusOnlyA:          {fill: "FFEB9C", font: "9C6500"},
	domain.StatusOnlyB:          {fill: "BDD7EE", font: "000000"},
	domain.StatusVoided:         {fill: "D9D9D9", font: "595959"},
}

// Workbook builds the report workbook in memory. The caller closes it.
func Workbook(report *domain.Report) (*excelize.File, error) {
	if report == nil {
		return nil, fmt.Errorf("%w: relatório vazio", ErrExportFailure)
	}
	f := excelize.NewFile()
	if err := fillWorkbook(f, report); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	return f, nil
}

// WriteWorkbook saves the report workbook at path, creating its directory.
func WriteWorkbook(path string, report *domain.Report) error {
	f, err := Workbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailure, err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrExportFailure, path, err)
	}
	return nil
}

// WriteWorkbookTo streams the report workbook to w.
func WriteWorkbookTo(w io.Writer, report *domain.Report) error {
	f, err := Workbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailure, err)
	}
	return nil
}

func fillWorkbook(f *excelize.File, report *domain.Report) error {
	if err := f.SetSheetName(f.GetSheetName(0), ResultSheet); err != nil {
		return err
	}
	if err := writeResults(f, report); err != nil {
		return err
	}
	return writeSummary(f, report)
}

func writeResults(f *excelize.File, report *domain.Report) error {
	const sheet = ResultSheet

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: moneyFormat})
	if err != nil {
		return err
	}
	fills := make(map[domain.Status]int, len(statusStyles))
	for status, st := range statusStyles {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{st.fill}, Pattern: 1},
			Font: &excelize.Font{Color: st.font},
		})
		if err != nil {
			return err
		}
		fills[status] = id
	}

	headers := make([]any, len(report.Headers))
	for i, h := range report.Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	if len(headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return err
		}
	}

	for i, rec := range report.Records {
		rowNum := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		values := []any{
			rec.Code,
			rec.DocumentNumber,
			rec.AmountA.InexactFloat64(),
			rec.AmountB.InexactFloat64(),
			rec.Difference.InexactFloat64(),
			string(rec.Status),
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
		if id, ok := fills[rec.Status]; ok {
			statusCell, _ := excelize.CoordinatesToCellName(6, rowNum)
			if err := f.SetCellStyle(sheet, statusCell, statusCell, id); err != nil {
				return err
			}
		}
	}

	if n := len(report.Records); n > 0 {
		last, _ := excelize.CoordinatesToCellName(5, n+1)
		if err := f.SetCellStyle(sheet, "C2", last, moneyStyle); err != nil {
			return err
		}
	}

	widths := []struct {
		from, to string
		width    float64
	}{
		{"A", "B", 12},
		{"C", "E", 18},
		{"F", "F", 25},
	}
	for _, w := range widths {
		if err := f.SetColWidth(sheet, w.from, w.to, w.width); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeSummary(f *excelize.File, report *domain.Report) error {
	const sheet = SummarySheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][]any{
		{"Empresa", report.Company},
		{"Período", report.Period},
		{"Notas lidas A", report.Summary.ReadA},
		{"Notas lidas B", report.Summary.ReadB},
		{"Total", report.Summary.Total},
	}
	for _, status := range domain.Statuses {
		rows = append(rows, []any{string(status), report.Summary.ByStatus[status]})
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "A", 18)
}
