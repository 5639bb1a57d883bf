package reconciliation

import (
	"fmt"
	"strings"

	"reconciliation-service/internal/domain"
)

// HeaderScanRows is how many leading rows are searched for the table header.
const HeaderScanRows = 30

// HeaderMatch reports where the header was found and how.
type HeaderMatch struct {
	Row      int
	Fallback bool
}

// LocateHeader finds the row that starts the data table. The first row within
// HeaderScanRows whose text has a token of every group wins; otherwise the
// layout's fixed row is used, which must leave at least one body row.
func LocateHeader(grid domain.RawGrid, tokenGroups [][]string, fallbackRow int) (HeaderMatch, error) {
	limit := HeaderScanRows
	if len(grid) < limit {
		limit = len(grid)
	}
	for i := 0; i < limit; i++ {
		if rowHasAllGroups(rowText(grid[i]), tokenGroups) {
			return HeaderMatch{Row: i}, nil
		}
	}
	if len(grid) <= fallbackRow+1 {
		return HeaderMatch{}, fmt.Errorf("%w: %d linha(s), esperado cabeçalho na linha %d", ErrHeaderNotFound, len(grid), fallbackRow+1)
	}
	return HeaderMatch{Row: fallbackRow, Fallback: true}, nil
}

func rowHasAllGroups(text string, groups [][]string) bool {
	if text == "" || len(groups) == 0 {
		return false
	}
	for _, group := range groups {
		found := false
		for _, tok := range group {
			if strings.Contains(text, tok) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
