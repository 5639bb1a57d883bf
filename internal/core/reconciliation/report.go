package reconciliation

import (
	"reconciliation-service/internal/domain"
)

// BuildReport assembles the ordered records and the summary counters.
func BuildReport(records []domain.ReconciliationRecord, readA, readB int) *domain.Report {
	byStatus := make(map[domain.Status]int, len(domain.Statuses))
	for _, st := range domain.Statuses {
		byStatus[st] = 0
	}
	for _, r := range records {
		byStatus[r.Status]++
	}
	headers := make([]string, len(domain.ReportHeaders))
	copy(headers, domain.ReportHeaders)
	return &domain.Report{
		Headers: headers,
		Records: records,
		Summary: domain.Summary{
			Total:    len(records),
			ByStatus: byStatus,
			ReadA:    readA,
			ReadB:    readB,
		},
	}
}
