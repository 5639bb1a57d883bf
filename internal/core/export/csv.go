package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"reconciliation-service/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// WriteCSV writes the report records as a ';' separated Windows-1252 CSV with
// comma decimals.
func WriteCSV(w io.Writer, report *domain.Report) error {
	if report == nil {
		return fmt.Errorf("%w: relatório vazio", ErrExportFailure)
	}
	encoder := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	tw := transform.NewWriter(w, encoder)
	writer := csv.NewWriter(tw)
	writer.Comma = ';'

	header := make([]string, len(report.Headers))
	for i, h := range report.Headers {
		header[i] = sanitizeForCSV(h)
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailure, err)
	}

	for _, rec := range report.Records {
		record := []string{
			sanitizeForCSV(rec.Code),
			sanitizeForCSV(rec.DocumentNumber),
			formatTwoDecimalsComma(rec.AmountA),
			formatTwoDecimalsComma(rec.AmountB),
			formatTwoDecimalsComma(rec.Difference),
			string(rec.Status),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("%w: %w", ErrExportFailure, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailure, err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailure, err)
	}
	return nil
}

func formatTwoDecimalsComma(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

// sanitizeForCSV remove quebras de linha e tabs embutidos, troca controles por espaço e faz trim.
func sanitizeForCSV(s string) string {
	s = strings.TrimFunc(s, unicode.IsSpace)
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r == '\r' || r == '\n' || r == '\t' {
			continue
		}
		if r < 32 {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
