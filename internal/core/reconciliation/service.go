package reconciliation

import (
	"errors"

	"reconciliation-service/internal/domain"
	"reconciliation-service/internal/events"
)

// Service define a interface do motor de conciliação.
type Service interface {
	Reconcile(in Input) (*domain.Report, error)
}

// Input carries every table of one company/period. Several tables per source
// are concatenated before aggregation.
type Input struct {
	Company string
	Period  string
	SourceA []domain.SourceTable
	SourceB []domain.SourceTable
}

// Options configures the engine.
type Options struct {
	LayoutA    Layout
	LayoutB    Layout
	Normalizer Normalizer
	Sink       events.Sink
}

type service struct {
	layoutA    Layout
	layoutB    Layout
	normalizer Normalizer
	events     *events.Emitter
}

// NewService cria uma nova instância do motor. Layouts vazios usam os padrões.
func NewService(opts Options) Service {
	if opts.LayoutA.Name == "" {
		opts.LayoutA, _ = LookupLayout(DefaultLayoutA)
	}
	if opts.LayoutB.Name == "" {
		opts.LayoutB, _ = LookupLayout(DefaultLayoutB)
	}
	return &service{
		layoutA:    opts.LayoutA,
		layoutB:    opts.LayoutB,
		normalizer: opts.Normalizer,
		events:     events.NewEmitter(opts.Sink),
	}
}

func (s *service) Reconcile(in Input) (*domain.Report, error) {
	em := s.events.For(in.Company)

	rowsA, err := s.prepareSource(em, s.layoutA, in.SourceA)
	if err != nil {
		return nil, err
	}
	rowsB, err := s.prepareSource(em, s.layoutB, in.SourceB)
	if err != nil {
		return nil, err
	}

	aggA := AggregateRows(domain.SourceA, rowsA)
	aggB := AggregateRows(domain.SourceB, rowsB)
	em.Info("notas lidas", map[string]any{"source_a": aggA.Len(), "source_b": aggB.Len()})

	records, err := Reconcile(aggA, aggB)
	if err != nil {
		if errors.Is(err, ErrInsufficientData) {
			em.Error("dados insuficientes", nil)
		}
		return nil, err
	}

	report := BuildReport(records, aggA.Len(), aggB.Len())
	report.Company = in.Company
	report.Period = in.Period
	em.Info("conciliação concluída", map[string]any{
		"total":  report.Summary.Total,
		"status": report.Summary.ByStatus,
	})
	return report, nil
}

func (s *service) prepareSource(em *events.Emitter, layout Layout, tables []domain.SourceTable) ([]domain.NormalizedRow, error) {
	var rows []domain.NormalizedRow
	for _, table := range tables {
		tableRows, err := s.prepareTable(em, layout, table)
		if err != nil {
			em.Error("tabela rejeitada", map[string]any{"source": layout.Source, "table": table.Name, "error": err.Error()})
			return nil, &TableError{Source: layout.Source, Table: table.Name, Err: err}
		}
		rows = append(rows, tableRows...)
	}
	return rows, nil
}

// prepareTable runs locate → resolve → normalize → filter over one grid.
func (s *service) prepareTable(em *events.Emitter, layout Layout, table domain.SourceTable) ([]domain.NormalizedRow, error) {
	grid := table.Grid
	header, err := LocateHeader(grid, layout.HeaderTokens, layout.HeaderFallbackRow)
	if err != nil {
		return nil, err
	}
	if header.Fallback {
		em.Warn("cabeçalho não localizado, usando linha fixa", map[string]any{"table": table.Name, "row": header.Row + 1})
	} else {
		em.Debug("cabeçalho localizado", map[string]any{"table": table.Name, "row": header.Row + 1})
	}

	width := grid.Width()
	cols, err := ResolveColumns(grid[header.Row], width, layout)
	if err != nil {
		return nil, err
	}
	em.Debug("colunas resolvidas", map[string]any{"table": table.Name, "layout": layout.Name, "columns": cols.Columns, "how": cols.How})

	rows, stats := s.normalizer.FilterRows(grid[header.Row+1:], cols.Columns, layout.Source)
	em.Info("tabela lida", map[string]any{
		"table":  table.Name,
		"source": layout.Source,
		"rows":   len(rows),
		"drops":  stats,
	})
	return rows, nil
}
