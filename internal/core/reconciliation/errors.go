package reconciliation

import (
	"errors"
	"fmt"

	"reconciliation-service/internal/domain"
)

var (
	// ErrHeaderNotFound means the grid is too short to hold a header at the layout's fallback row.
	ErrHeaderNotFound = errors.New("cabeçalho da tabela não encontrado")
	// ErrInsufficientColumns means a required role could not be placed inside the table.
	ErrInsufficientColumns = errors.New("colunas insuficientes")
	// ErrInsufficientData means both sources were empty after filtering.
	ErrInsufficientData = errors.New("dados insuficientes")
)

// TableError names the table whose structure was rejected.
type TableError struct {
	Source domain.Source
	Table  string
	Err    error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("fonte %s, tabela %q: %v", e.Source, e.Table, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}
