package reconciliation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"reconciliation-service/internal/domain"

	"github.com/shopspring/decimal"
)

// DefaultAmountCeiling is the sanity ceiling used when the guard is turned on.
var DefaultAmountCeiling = decimal.NewFromInt(5_000_000)

var amountCharsRegex = regexp.MustCompile(`[^\d.,-]`)
var docCharsRegex = regexp.MustCompile(`[^\d.]`)

// Normalizer turns raw cells into canonical values. Parsing failures never
// escape: they degrade to zero, a zero time or domain.NoNumber.
type Normalizer struct {
	// CeilingEnabled zera valores de texto acima de Ceiling (artefatos de exportação corrompida).
	// Células numéricas passam sem o teto.
	CeilingEnabled bool
	Ceiling        decimal.Decimal
}

// Amount returns the canonical amount of a cell.
func (n Normalizer) Amount(c domain.Cell) decimal.Decimal {
	switch c.Kind {
	case domain.CellNumber:
		return decimal.NewFromFloat(c.Number)
	case domain.CellText:
		v := parseAmountText(c.Text)
		if n.CeilingEnabled && v.GreaterThan(n.Ceiling) {
			return decimal.Zero
		}
		return v
	default:
		return decimal.Zero
	}
}

// parseAmountText: o separador que aparece por último é o decimal; vírgula sozinha também é decimal.
func parseAmountText(val string) decimal.Decimal {
	s := amountCharsRegex.ReplaceAllString(strings.TrimSpace(val), "")
	if s == "" {
		return decimal.Zero
	}
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DocumentNumber returns the canonical document number of a cell.
func (n Normalizer) DocumentNumber(c domain.Cell) string {
	switch c.Kind {
	case domain.CellNumber:
		return canonicalDocNumber(decimal.NewFromFloat(c.Number))
	case domain.CellText:
		t := strings.TrimSpace(c.Text)
		if strings.HasPrefix(t, "-") || (strings.HasPrefix(t, "(") && strings.HasSuffix(t, ")")) {
			return domain.NoNumber
		}
		digits := docCharsRegex.ReplaceAllString(t, "")
		if digits == "" {
			return domain.NoNumber
		}
		d, err := decimal.NewFromString(digits)
		if err != nil {
			return domain.NoNumber
		}
		return canonicalDocNumber(d)
	default:
		return domain.NoNumber
	}
}

func canonicalDocNumber(d decimal.Decimal) string {
	if !d.IsPositive() {
		return domain.NoNumber
	}
	whole := d.Truncate(0)
	if whole.IsZero() {
		return domain.NoNumber
	}
	return whole.String()
}

// MaxDateFailureRate is the highest share of unreadable cells a date scheme may leave.
const MaxDateFailureRate = 0.5

// esquemas em ordem: dd/mm/aaaa estrito, dia-primeiro tolerante, serial do Excel
var dateSchemes = []func(domain.Cell) (time.Time, bool){
	parseDateStrict,
	parseDateDayFirst,
	parseDateSerial,
}

// Dates normalizes a whole date column. Each scheme is tried in turn and the
// first one that reads at least half of the column is kept; when none does,
// the last scheme (spreadsheet serial) is the reading returned.
func (n Normalizer) Dates(col []domain.Cell) []time.Time {
	if len(col) == 0 {
		return []time.Time{}
	}
	masked := make([]bool, len(col))
	for i, c := range col {
		masked[i] = looksLikeHeader(c)
	}
	var out []time.Time
	for _, scheme := range dateSchemes {
		out = make([]time.Time, len(col))
		failures := 0
		for i, c := range col {
			if masked[i] {
				failures++
				continue
			}
			if t, ok := scheme(c); ok {
				out[i] = t
			} else {
				failures++
			}
		}
		if float64(failures)/float64(len(col)) <= MaxDateFailureRate {
			return out
		}
	}
	return out
}

// looksLikeHeader mascara títulos que vazaram para o corpo ("Dt. Emissão").
func looksLikeHeader(c domain.Cell) bool {
	if c.Kind != domain.CellText {
		return false
	}
	lower := strings.ToLower(c.Text)
	return strings.Contains(lower, "dt") || strings.Contains(lower, "emiss")
}

func parseDateStrict(c domain.Cell) (time.Time, bool) {
	switch c.Kind {
	case domain.CellDate:
		return c.Time, true
	case domain.CellText:
		if t, err := time.Parse("2/1/2006", strings.TrimSpace(c.Text)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var dayFirstLayouts = []string{
	"2/1/2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/06",
	"2-1-2006",
	"2.1.2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
}

func parseDateDayFirst(c domain.Cell) (time.Time, bool) {
	switch c.Kind {
	case domain.CellDate:
		return c.Time, true
	case domain.CellText:
		s := strings.TrimSpace(c.Text)
		for _, layout := range dayFirstLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func parseDateSerial(c domain.Cell) (time.Time, bool) {
	var serial float64
	switch c.Kind {
	case domain.CellDate:
		return c.Time, true
	case domain.CellNumber:
		serial = c.Number
	case domain.CellText:
		f, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
		if err != nil {
			return time.Time{}, false
		}
		serial = f
	default:
		return time.Time{}, false
	}
	if serial <= 0 {
		return time.Time{}, false
	}
	return excelSerialToDate(serial), true
}

func excelSerialToDate(serial float64) time.Time {
	// base Excel serial -> 1899-12-30
	base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	frac := serial - float64(int64(serial))
	duration := time.Duration(int64(serial)*24) * time.Hour
	duration += time.Duration(frac * 24 * float64(time.Hour))
	return base.Add(duration)
}
