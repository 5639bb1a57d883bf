package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"reconciliation-service/internal/domain"

	"github.com/xuri/excelize/v2"
)

// UnmergedName returns the default destination of Unmerge: <stem>_limpo.xlsx next to src.
func UnmergedName(src string) string {
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(filepath.Dir(src), stem+"_limpo.xlsx")
}

// Unmerge writes a merge-free xlsx copy of src. Each merged range is split and
// its blank cells receive the top-left value. Legacy .xls files are converted
// to xlsx values only. An empty dst uses UnmergedName. Returns the written path.
func Unmerge(src, dst string) (string, error) {
	if dst == "" {
		dst = UnmergedName(src)
	}
	switch ext := strings.ToLower(filepath.Ext(src)); ext {
	case ".xlsx":
		return dst, unmergeXLSX(src, dst)
	case ".xls":
		return dst, convertToXLSX(src, dst)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func unmergeXLSX(src, dst string) error {
	f, err := excelize.OpenFile(src)
	if err != nil {
		return fmt.Errorf("erro ao abrir %s: %w", src, err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		merges, err := f.GetMergeCells(sheet)
		if err != nil {
			return fmt.Errorf("erro ao obter células mescladas da aba %s: %w", sheet, err)
		}
		for _, mc := range merges {
			if err := unmergeRange(f, sheet, mc.GetStartAxis(), mc.GetEndAxis()); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(dst); err != nil {
		return fmt.Errorf("erro ao salvar %s: %w", dst, err)
	}
	return nil
}

func unmergeRange(f *excelize.File, sheet, start, end string) error {
	m, err := parseMergeRange(start, end)
	if err != nil {
		return err
	}
	value, err := f.GetCellValue(sheet, start, excelize.Options{RawCellValue: true})
	if err != nil {
		return err
	}
	if err := f.UnmergeCell(sheet, start, end); err != nil {
		return fmt.Errorf("erro ao desmesclar %s:%s: %w", start, end, err)
	}
	if value == "" {
		return nil
	}
	for r := m.top; r <= m.bottom; r++ {
		for c := m.left; c <= m.right; c++ {
			axis, _ := excelize.CoordinatesToCellName(c+1, r+1)
			current, err := f.GetCellValue(sheet, axis, excelize.Options{RawCellValue: true})
			if err != nil || current != "" {
				continue
			}
			if err := f.SetCellValue(sheet, axis, typedValue(value)); err != nil {
				return err
			}
		}
	}
	return nil
}

// typedValue keeps numbers numeric when a raw value is copied across a range.
func typedValue(raw string) any {
	if c := classify(raw); c.Kind == domain.CellNumber {
		return c.Number
	}
	return raw
}

func convertToXLSX(src, dst string) error {
	table, err := New(Options{}).Load(src)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"
	for r, row := range table.Grid {
		for c, cell := range row {
			var value any
			switch cell.Kind {
			case domain.CellBlank:
				continue
			case domain.CellNumber:
				value = cell.Number
			default:
				value = cell.String()
			}
			axis, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, axis, value); err != nil {
				return err
			}
		}
	}
	if err := f.SaveAs(dst); err != nil {
		return fmt.Errorf("erro ao salvar %s: %w", dst, err)
	}
	return nil
}
