package reconciliation

import (
	"fmt"
	"strings"

	"reconciliation-service/internal/domain"
)

// Resolution tells how a role got its column.
type Resolution string

// Constants for resolution strategies.
const (
	ResolvedByHeader   Resolution = "header"
	ResolvedByPosition Resolution = "position"
)

// ColumnResolution is the outcome of resolving every role of a layout.
type ColumnResolution struct {
	Columns domain.ColumnRoleMap
	How     map[domain.Role]Resolution
}

// resolveStrategy returns a column for a role or -1.
type resolveStrategy func(rs RoleSpec, header []string, width int, claimed map[int]bool) int

// ResolveColumns maps each role of the layout to a column of a table of the given width.
// Strategies run in order (header phrase, then fixed position); the first hit wins.
func ResolveColumns(header []domain.Cell, width int, layout Layout) (ColumnResolution, error) {
	folded := make([]string, len(header))
	for i, c := range header {
		folded[i] = foldText(c.String())
	}

	strategies := []struct {
		how Resolution
		fn  resolveStrategy
	}{
		{ResolvedByHeader, byHeaderPhrase},
		{ResolvedByPosition, byPosition},
	}

	res := ColumnResolution{Columns: domain.ColumnRoleMap{}, How: map[domain.Role]Resolution{}}
	claimed := make(map[int]bool)
	for _, rs := range layout.Roles {
		idx := -1
		for _, s := range strategies {
			if idx = s.fn(rs, folded, width, claimed); idx >= 0 {
				res.How[rs.Role] = s.how
				break
			}
		}
		if idx < 0 {
			if rs.Required {
				return ColumnResolution{}, fmt.Errorf("%w: layout %s, papel %s não resolvido (posição %d, tabela com %d colunas)",
					ErrInsufficientColumns, layout.Name, rs.Role, rs.Fallback, width)
			}
			continue
		}
		res.Columns[rs.Role] = idx
		claimed[idx] = true
	}
	return res, nil
}

// byHeaderPhrase prefers, phrase by phrase, an exact header over a header containing the phrase.
func byHeaderPhrase(rs RoleSpec, header []string, width int, claimed map[int]bool) int {
	for _, phrase := range rs.Phrases {
		for i, h := range header {
			if i < width && !claimed[i] && h == phrase {
				return i
			}
		}
		for i, h := range header {
			if i < width && !claimed[i] && h != "" && strings.Contains(h, phrase) {
				return i
			}
		}
	}
	return -1
}

func byPosition(rs RoleSpec, _ []string, width int, claimed map[int]bool) int {
	if rs.Fallback == NoFallback || rs.Fallback >= width || claimed[rs.Fallback] {
		return -1
	}
	return rs.Fallback
}
