// package domain/models.go
package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies one of the two accounting exports being reconciled.
type Source string

// Constants for the reconciled sources.
const (
	SourceA Source = "A" // livro fiscal (Domínio)
	SourceB Source = "B" // registro da loja/filial (Empresa)
)

// CellKind describes how a raw cell value should be interpreted.
type CellKind int

// Constants for cell kinds.
const (
	CellBlank CellKind = iota
	CellText
	CellNumber
	CellDate
)

// Cell is an opaque value read from a spreadsheet grid.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Time   time.Time
}

// Text builds a text cell; whitespace-only input becomes a blank cell.
func Text(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

// Number builds a numeric cell.
func Number(f float64) Cell {
	return Cell{Kind: CellNumber, Number: f}
}

// Date builds a date-like cell.
func Date(t time.Time) Cell {
	return Cell{Kind: CellDate, Time: t}
}

// IsBlank reports whether the cell carries no value.
func (c Cell) IsBlank() bool {
	return c.Kind == CellBlank
}

// String renders the cell the way it would appear when the row is flattened to text.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellDate:
		return c.Time.Format("02/01/2006")
	default:
		return ""
	}
}

// RawGrid is an ordered sequence of rows of cells, position-only.
type RawGrid [][]Cell

// Width returns the widest row length of the grid.
func (g RawGrid) Width() int {
	width := 0
	for _, row := range g {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// At returns the cell at row/col or a blank cell when out of bounds.
func (g RawGrid) At(row, col int) Cell {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return Cell{}
	}
	return g[row][col]
}

// SourceTable is one physical file already loaded into a grid.
type SourceTable struct {
	Name string
	Grid RawGrid
}

// Role is a semantic column of a source table.
type Role string

// Constants for column roles.
const (
	RoleDocumentNumber Role = "DocumentNumber"
	RoleAmount         Role = "Amount"
	RoleDate           Role = "Date"
	RoleCode           Role = "Code"
	RoleStatus         Role = "Status"
)

// ColumnRoleMap maps roles to column indexes of one table.
type ColumnRoleMap map[Role]int

// Index returns the column of a role, or -1 if it was not resolved.
func (m ColumnRoleMap) Index(role Role) int {
	if idx, ok := m[role]; ok {
		return idx
	}
	return -1
}

// NoNumber is the canonical document number of rows that carry no usable number.
const NoNumber = "S/N"

// NormalizedRow is one document line after value normalization.
// A zero Date means the date could not be read.
type NormalizedRow struct {
	DocumentNumber string
	Amount         decimal.Decimal
	Date           time.Time
	Code           string
	StatusRaw      string
	Source         Source
}

// AggregateRecord is the document-level summary of one source.
type AggregateRecord struct {
	DocumentNumber string
	Amount         decimal.Decimal
	Date           time.Time
	Code           string
	StatusRaw      string
	Lines          int
}

// Status classifies the agreement state of a document across the two sources.
type Status string

// Constants for reconciliation statuses.
const (
	StatusOnlyA          Status = "OnlyA"
	StatusOnlyB          Status = "OnlyB"
	StatusVoided         Status = "Voided"
	StatusAmountMismatch Status = "AmountMismatch"
	StatusMatched        Status = "Matched"
)

// Statuses lists every status in report order.
var Statuses = []Status{StatusMatched, StatusAmountMismatch, StatusOnlyA, StatusOnlyB, StatusVoided}

// ReconciliationRecord is one row of the final report.
type ReconciliationRecord struct {
	Code           string          `json:"code"`
	DocumentNumber string          `json:"document_number"`
	AmountA        decimal.Decimal `json:"amount_a"`
	AmountB        decimal.Decimal `json:"amount_b"`
	Difference     decimal.Decimal `json:"difference"`
	Status         Status          `json:"status"`
	DateA          *time.Time      `json:"date_a,omitempty"`
	DateB          *time.Time      `json:"date_b,omitempty"`
}

// ReportHeaders is the column order handed to the export collaborator.
var ReportHeaders = []string{"Code", "DocumentNumber", "Amount_A", "Amount_B", "Difference", "Status"}

// Summary holds the counters of one reconciliation.
type Summary struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"by_status"`
	ReadA    int            `json:"read_a"`
	ReadB    int            `json:"read_b"`
}

// Report is the reconciliation of one company/period.
type Report struct {
	Company string                 `json:"company,omitempty"`
	Period  string                 `json:"period,omitempty"`
	Headers []string               `json:"headers"`
	Records []ReconciliationRecord `json:"records"`
	Summary Summary                `json:"summary"`
}
