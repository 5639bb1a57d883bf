package reconciliation

import (
	"fmt"
	"sort"

	"reconciliation-service/internal/domain"
)

// NoFallback marks a role that can only be resolved through its header.
const NoFallback = -1

// RoleSpec declares how one semantic column is found.
type RoleSpec struct {
	Role     domain.Role
	Phrases  []string // trechos de cabeçalho, já normalizados (minúsculos, sem acento)
	Fallback int
	Required bool
}

// Layout is the declarative description of one source export.
type Layout struct {
	Name   string
	Source domain.Source
	// HeaderTokens são grupos: a linha precisa conter ao menos um token de cada grupo.
	HeaderTokens [][]string
	// HeaderFallbackRow é o índice da linha de títulos no layout histórico.
	HeaderFallbackRow int
	// Roles na ordem de resolução; colunas já atribuídas não são reaproveitadas.
	Roles []RoleSpec
}

// MinWidth is the smallest table width that fits every required positional fallback.
func (l Layout) MinWidth() int {
	width := 0
	for _, r := range l.Roles {
		if r.Required && r.Fallback+1 > width {
			width = r.Fallback + 1
		}
	}
	return width
}

var documentHeaderTokens = [][]string{
	{"nota", "n.º", "documento"},
	{"valor", "total"},
}

func dominioLayout(name string, amountCol int) Layout {
	return Layout{
		Name:              name,
		Source:            domain.SourceA,
		HeaderTokens:      documentHeaderTokens,
		HeaderFallbackRow: 5,
		Roles: []RoleSpec{
			{Role: domain.RoleAmount, Phrases: []string{"valor contabil", "valor cont", "vlr. contabil", "vlr contabil"}, Fallback: amountCol, Required: true},
			{Role: domain.RoleDocumentNumber, Phrases: []string{"nota", "documento", "n.º", "numero"}, Fallback: 4, Required: true},
			{Role: domain.RoleDate, Phrases: []string{"emissao", "emiss", "data"}, Fallback: 2, Required: true},
			{Role: domain.RoleCode, Phrases: []string{"codigo", "cod."}, Fallback: NoFallback},
		},
	}
}

func empresaLayout(name string, amountCol, statusCol int) Layout {
	return Layout{
		Name:              name,
		Source:            domain.SourceB,
		HeaderTokens:      documentHeaderTokens,
		HeaderFallbackRow: 5,
		Roles: []RoleSpec{
			{Role: domain.RoleAmount, Phrases: []string{"total nota", "total da nota", "total produtos", "total dos produtos"}, Fallback: amountCol, Required: true},
			{Role: domain.RoleDocumentNumber, Phrases: []string{"n.nota", "n. nota", "nº nota", "n.º nota", "numero nota", "nota"}, Fallback: 12, Required: true},
			{Role: domain.RoleDate, Phrases: []string{"emissao", "emiss", "data"}, Fallback: 10, Required: true},
			{Role: domain.RoleStatus, Phrases: []string{"situacao", "status", "sit."}, Fallback: statusCol, Required: statusCol != NoFallback},
			{Role: domain.RoleCode, Phrases: []string{"codigo", "cod."}, Fallback: NoFallback},
		},
	}
}

var layouts = map[string]Layout{
	"dominio":                dominioLayout("dominio", 20),
	"dominio-valor-contabil": dominioLayout("dominio-valor-contabil", 22),
	"empresa":                empresaLayout("empresa", 17, 20),
	"empresa-total-produtos": empresaLayout("empresa-total-produtos", 20, NoFallback),
}

// DefaultLayoutA and DefaultLayoutB are used when no layout is configured.
const (
	DefaultLayoutA = "dominio"
	DefaultLayoutB = "empresa"
)

// LookupLayout returns a registered layout by name.
func LookupLayout(name string) (Layout, error) {
	l, ok := layouts[name]
	if !ok {
		return Layout{}, fmt.Errorf("layout desconhecido: %q", name)
	}
	return l, nil
}

// LayoutNames lists the registered layouts.
func LayoutNames() []string {
	names := make([]string, 0, len(layouts))
	for n := range layouts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
