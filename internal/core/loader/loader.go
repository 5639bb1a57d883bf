// Package loader reads the raw fiscal exports (xlsx, legacy xls and csv) into
// position-only grids, flattening merged cells on the way.
package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"reconciliation-service/internal/domain"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var (
	// ErrUnsupportedFormat is returned for extensions other than .xlsx, .xls and .csv.
	ErrUnsupportedFormat = errors.New("formato de arquivo não suportado")
	// ErrEmptyWorkbook is returned when the file has no sheet to read.
	ErrEmptyWorkbook = errors.New("planilha sem abas")
)

// Options controls how a grid is flattened.
type Options struct {
	// FillDown copia para baixo o último valor não vazio de cada coluna (células mescladas verticalmente).
	FillDown bool
}

// DefaultOptions returns the options used by Load and LoadReader.
func DefaultOptions() Options {
	return Options{FillDown: true}
}

// Loader turns files into domain.SourceTable values.
type Loader struct {
	opts Options
}

// New cria um loader com as opções informadas.
func New(opts Options) *Loader {
	return &Loader{opts: opts}
}

// Load reads a file from disk with DefaultOptions.
func Load(path string) (domain.SourceTable, error) {
	return New(DefaultOptions()).Load(path)
}

// LoadReader reads an already opened file with DefaultOptions.
func LoadReader(name string, r io.Reader) (domain.SourceTable, error) {
	return New(DefaultOptions()).LoadReader(name, r)
}

// Load reads a file from disk.
func (l *Loader) Load(path string) (domain.SourceTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.SourceTable{}, fmt.Errorf("erro ao abrir arquivo %s: %w", path, err)
	}
	defer f.Close()
	return l.LoadReader(filepath.Base(path), f)
}

// LoadReader reads a file whose format is taken from the extension of name.
func (l *Loader) LoadReader(name string, r io.Reader) (domain.SourceTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.SourceTable{}, fmt.Errorf("erro ao ler arquivo %s: %w", name, err)
	}

	var (
		rows   [][]string
		merges []mergeRange
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx":
		rows, merges, err = readXLSX(data)
	case ".xls":
		rows, merges, err = readXLS(data)
	case ".csv":
		rows, err = readCSV(data)
	default:
		return domain.SourceTable{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return domain.SourceTable{}, fmt.Errorf("erro ao ler %s: %w", name, err)
	}

	grid := buildGrid(rows)
	fillMerged(grid, merges)
	if l.opts.FillDown {
		fillDown(grid)
	}
	return domain.SourceTable{Name: name, Grid: grid}, nil
}

// mergeRange is a 0-based inclusive cell range.
type mergeRange struct {
	top, left, bottom, right int
}

func readXLSX(data []byte) ([][]string, []mergeRange, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrEmptyWorkbook
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("erro ao obter linhas da aba %s: %w", sheet, err)
	}

	cells, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("erro ao obter células mescladas da aba %s: %w", sheet, err)
	}
	merges := make([]mergeRange, 0, len(cells))
	for _, mc := range cells {
		m, err := parseMergeRange(mc.GetStartAxis(), mc.GetEndAxis())
		if err != nil {
			continue
		}
		merges = append(merges, m)
	}
	return rows, merges, nil
}

func parseMergeRange(start, end string) (mergeRange, error) {
	left, top, err := excelize.CellNameToCoordinates(start)
	if err != nil {
		return mergeRange{}, err
	}
	right, bottom, err := excelize.CellNameToCoordinates(end)
	if err != nil {
		return mergeRange{}, err
	}
	return mergeRange{top: top - 1, left: left - 1, bottom: bottom - 1, right: right - 1}, nil
}

func readXLS(data []byte) ([][]string, []mergeRange, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		// exportações antigas às vezes salvam xlsx com extensão .xls
		if f, errX := excelize.OpenReader(bytes.NewReader(data)); errX == nil {
			f.Close()
			return readXLSX(data)
		}
		return nil, nil, err
	}
	if len(workbook.GetSheets()) == 0 {
		return nil, nil, ErrEmptyWorkbook
	}
	sheet, err := workbook.GetSheet(0)
	if err != nil {
		return nil, nil, fmt.Errorf("erro ao obter planilha do arquivo .xls: %w", err)
	}

	var rows [][]string
	for _, row := range sheet.GetRows() {
		var values []string
		for _, cell := range row.GetCols() {
			values = append(values, cell.GetString())
		}
		rows = append(rows, values)
	}
	return rows, nil, nil
}

func readCSV(data []byte) ([][]string, error) {
	decoder := charmap.ISO8859_1.NewDecoder()
	reader := csv.NewReader(transform.NewReader(bytes.NewReader(data), decoder))
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

var numericRegex = regexp.MustCompile(`^-?\d+(\.\d+)?([eE][-+]?\d+)?$`)

// classify turns a raw cell value into a typed cell.
func classify(raw string) domain.Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.Cell{}
	}
	if numericRegex.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) {
			return domain.Number(f)
		}
	}
	return domain.Text(raw)
}

func buildGrid(rows [][]string) domain.RawGrid {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	grid := make(domain.RawGrid, len(rows))
	for i, r := range rows {
		grid[i] = make([]domain.Cell, width)
		for j, v := range r {
			grid[i][j] = classify(v)
		}
	}
	return grid
}

// fillMerged replica o valor do canto superior esquerdo em todo o intervalo mesclado.
func fillMerged(grid domain.RawGrid, merges []mergeRange) {
	for _, m := range merges {
		if m.top < 0 || m.top >= len(grid) || m.left < 0 || m.left >= len(grid[m.top]) {
			continue
		}
		value := grid[m.top][m.left]
		for r := m.top; r <= m.bottom && r < len(grid); r++ {
			for c := m.left; c <= m.right && c < len(grid[r]); c++ {
				if grid[r][c].IsBlank() {
					grid[r][c] = value
				}
			}
		}
	}
}

func fillDown(grid domain.RawGrid) {
	for r := 1; r < len(grid); r++ {
		for c := range grid[r] {
			if grid[r][c].IsBlank() {
				grid[r][c] = grid[r-1][c]
			}
		}
	}
}
