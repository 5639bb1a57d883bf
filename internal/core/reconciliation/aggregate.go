package reconciliation

import (
	"reconciliation-service/internal/domain"
)

// Aggregate holds one record per document number of a single source, in
// first-appearance order.
type Aggregate struct {
	Source domain.Source
	order  []string
	byDoc  map[string]*domain.AggregateRecord
}

// AggregateRows collapses the lines of one source per document number: amounts
// are summed, the earliest known date is kept, and code/status come from the
// first line that has them.
func AggregateRows(source domain.Source, rows []domain.NormalizedRow) *Aggregate {
	agg := &Aggregate{Source: source, byDoc: make(map[string]*domain.AggregateRecord)}
	for _, row := range rows {
		rec, ok := agg.byDoc[row.DocumentNumber]
		if !ok {
			rec = &domain.AggregateRecord{DocumentNumber: row.DocumentNumber}
			agg.byDoc[row.DocumentNumber] = rec
			agg.order = append(agg.order, row.DocumentNumber)
		}
		rec.Amount = rec.Amount.Add(row.Amount)
		rec.Lines++
		if !row.Date.IsZero() && (rec.Date.IsZero() || row.Date.Before(rec.Date)) {
			rec.Date = row.Date
		}
		if rec.Code == "" {
			rec.Code = row.Code
		}
		if rec.StatusRaw == "" {
			rec.StatusRaw = row.StatusRaw
		}
	}
	return agg
}

// Len returns the number of documents.
func (a *Aggregate) Len() int {
	if a == nil {
		return 0
	}
	return len(a.order)
}

// Get returns the record of a document number.
func (a *Aggregate) Get(doc string) (domain.AggregateRecord, bool) {
	if a == nil {
		return domain.AggregateRecord{}, false
	}
	rec, ok := a.byDoc[doc]
	if !ok {
		return domain.AggregateRecord{}, false
	}
	return *rec, true
}

// Records returns the records in first-appearance order.
func (a *Aggregate) Records() []domain.AggregateRecord {
	if a == nil {
		return nil
	}
	out := make([]domain.AggregateRecord, 0, len(a.order))
	for _, doc := range a.order {
		out = append(out, *a.byDoc[doc])
	}
	return out
}

// Without returns a copy of the aggregate minus the given document numbers.
func (a *Aggregate) Without(docs map[string]bool) *Aggregate {
	out := &Aggregate{byDoc: make(map[string]*domain.AggregateRecord)}
	if a == nil {
		return out
	}
	out.Source = a.Source
	for _, doc := range a.order {
		if docs[doc] {
			continue
		}
		rec := *a.byDoc[doc]
		out.byDoc[doc] = &rec
		out.order = append(out.order, doc)
	}
	return out
}
