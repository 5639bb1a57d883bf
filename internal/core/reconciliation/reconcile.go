package reconciliation

import (
	"sort"
	"strings"
	"time"

	"reconciliation-service/internal/domain"

	"github.com/shopspring/decimal"
)

// MismatchTolerance is the largest absolute difference still reported as Matched.
var MismatchTolerance = decimal.RequireFromString("0.05")

// VoidedMarker is the status code source B uses for cancelled documents.
const VoidedMarker = "I"

// IsVoided reports whether a source-B status marks the document as cancelled.
func IsVoided(statusRaw string) bool {
	s := strings.ToUpper(strings.Join(strings.Fields(statusRaw), " "))
	return s == VoidedMarker || strings.HasPrefix(s, VoidedMarker+" ")
}

// VoidedSet returns the document numbers of b whose status is voided.
func VoidedSet(b *Aggregate) map[string]bool {
	voided := make(map[string]bool)
	for _, rec := range b.Records() {
		if IsVoided(rec.StatusRaw) {
			voided[rec.DocumentNumber] = true
		}
	}
	return voided
}

// Reconcile outer-joins the two aggregates by document number. Voided
// documents are taken out of both sides first and reported after the joined
// records with their own status.
func Reconcile(a, b *Aggregate) ([]domain.ReconciliationRecord, error) {
	if a.Len() == 0 && b.Len() == 0 {
		return nil, ErrInsufficientData
	}

	voided := VoidedSet(b)
	effA := a.Without(voided)
	effB := b.Without(voided)

	docs := make(map[string]bool, effA.Len()+effB.Len())
	for _, rec := range effA.Records() {
		docs[rec.DocumentNumber] = true
	}
	for _, rec := range effB.Records() {
		docs[rec.DocumentNumber] = true
	}

	records := make([]domain.ReconciliationRecord, 0, len(docs)+len(voided))
	for _, doc := range sortedDocs(docs) {
		recA, inA := effA.Get(doc)
		recB, inB := effB.Get(doc)
		diff := recA.Amount.Sub(recB.Amount)
		records = append(records, domain.ReconciliationRecord{
			Code:           firstNonEmpty(recA.Code, recB.Code),
			DocumentNumber: doc,
			AmountA:        recA.Amount,
			AmountB:        recB.Amount,
			Difference:     diff,
			Status:         classify(inA, inB, diff),
			DateA:          datePtr(recA.Date),
			DateB:          datePtr(recB.Date),
		})
	}

	for _, doc := range sortedDocs(voided) {
		recA, _ := a.Get(doc)
		recB, _ := b.Get(doc)
		records = append(records, domain.ReconciliationRecord{
			Code:           firstNonEmpty(recA.Code, recB.Code),
			DocumentNumber: doc,
			AmountA:        decimal.Zero,
			AmountB:        recB.Amount,
			Difference:     recB.Amount.Neg(),
			Status:         domain.StatusVoided,
			DateB:          datePtr(recB.Date),
		})
	}
	return records, nil
}

func classify(inA, inB bool, diff decimal.Decimal) domain.Status {
	switch {
	case inA && !inB:
		return domain.StatusOnlyA
	case inB && !inA:
		return domain.StatusOnlyB
	case diff.Abs().GreaterThan(MismatchTolerance):
		return domain.StatusAmountMismatch
	default:
		return domain.StatusMatched
	}
}

// sortedDocs ordena numericamente; números não puramente numéricos vão ao fim, em ordem lexical.
func sortedDocs(set map[string]bool) []string {
	docs := make([]string, 0, len(set))
	for d := range set {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return lessDocNumber(docs[i], docs[j]) })
	return docs
}

func lessDocNumber(x, y string) bool {
	xNum, yNum := isDigits(x), isDigits(y)
	switch {
	case xNum && yNum:
		xs, ys := strings.TrimLeft(x, "0"), strings.TrimLeft(y, "0")
		if len(xs) != len(ys) {
			return len(xs) < len(ys)
		}
		if xs != ys {
			return xs < ys
		}
		return x < y
	case xNum:
		return true
	case yNum:
		return false
	default:
		return x < y
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func datePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
