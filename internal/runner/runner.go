// Package runner orchestrates batch reconciliations: base directory, company
// folders, loading, the engine and the report export, one company at a time.
package runner

import (
	"errors"
	"fmt"
	"path/filepath"

	"reconciliation-service/internal/config"
	"reconciliation-service/internal/core/discovery"
	"reconciliation-service/internal/core/export"
	"reconciliation-service/internal/core/loader"
	"reconciliation-service/internal/core/reconciliation"
	"reconciliation-service/internal/domain"
	"reconciliation-service/internal/events"
)

var (
	// ErrNoCompanies means neither the request nor the configuration lists a company.
	ErrNoCompanies = errors.New("nenhuma empresa informada")
	// ErrInvalidPeriod means the period is not MM-YYYY.
	ErrInvalidPeriod = errors.New("período inválido")
)

// Request selects what a batch reconciles. Empty fields fall back to the configuration.
type Request struct {
	Period    string   `json:"period"`
	Companies []string `json:"companies"`
}

// CompanyStatus is the outcome of one company in a batch.
type CompanyStatus string

// Constants for company outcomes.
const (
	CompanyDone    CompanyStatus = "done"
	CompanySkipped CompanyStatus = "skipped"
	CompanyFailed  CompanyStatus = "failed"
)

// CompanyResult reports what happened to one company.
type CompanyResult struct {
	Company string          `json:"company"`
	Status  CompanyStatus   `json:"status"`
	Reason  string          `json:"reason,omitempty"`
	Output  string          `json:"output,omitempty"`
	Summary *domain.Summary `json:"summary,omitempty"`
}

// Result is the outcome of a whole batch.
type Result struct {
	Period    string          `json:"period"`
	Base      string          `json:"base"`
	Companies []CompanyResult `json:"companies"`
}

// Runner runs batches with a fixed configuration.
type Runner struct {
	cfg    *config.Config
	loader *loader.Loader
	sink   events.Sink
}

// New cria um runner; um sink nil descarta os eventos.
func New(cfg *config.Config, sink events.Sink) *Runner {
	if sink == nil {
		sink = events.Discard
	}
	return &Runner{
		cfg:    cfg,
		loader: loader.New(loader.Options{FillDown: cfg.FillDownEnabled()}),
		sink:   sink,
	}
}

// WithSink returns a copy of the runner that emits to sink.
func (r *Runner) WithSink(sink events.Sink) *Runner {
	cp := *r
	cp.sink = sink
	if cp.sink == nil {
		cp.sink = events.Discard
	}
	return &cp
}

// Run processes the companies strictly in order. A company that cannot be
// reconciled is reported and skipped; only a missing base directory aborts.
func (r *Runner) Run(req Request) (*Result, error) {
	em := events.NewEmitter(r.sink)

	period, companies, err := r.resolve(req)
	if err != nil {
		return nil, err
	}

	em.Info("iniciando conciliação", map[string]any{"period": period, "companies": len(companies)})
	base, err := discovery.ResolveBase(r.cfg.BaseDirs, period)
	if err != nil {
		em.Error("pasta base não encontrada", map[string]any{"period": period})
		return nil, err
	}
	em.Info("pasta base", map[string]any{"base": base})

	layoutA, layoutB, err := r.cfg.Layouts()
	if err != nil {
		return nil, err
	}
	svc := reconciliation.NewService(reconciliation.Options{
		LayoutA:    layoutA,
		LayoutB:    layoutB,
		Normalizer: r.cfg.Normalizer(),
		Sink:       r.sink,
	})

	result := &Result{Period: period, Base: base, Companies: make([]CompanyResult, 0, len(companies))}
	for _, company := range companies {
		res := r.runCompany(svc, em.For(company), base, company, period)
		result.Companies = append(result.Companies, res)
	}
	em.Info("fim", map[string]any{"companies": len(result.Companies)})
	return result, nil
}

func (r *Runner) resolve(req Request) (period string, companies []string, err error) {
	period = req.Period
	if period == "" {
		period = r.cfg.Period
	}
	if !config.ValidPeriod(period) {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	companies = req.Companies
	if len(companies) == 0 {
		companies = r.cfg.Companies
	}
	if len(companies) == 0 {
		return "", nil, ErrNoCompanies
	}
	return period, companies, nil
}

func (r *Runner) runCompany(svc reconciliation.Service, em *events.Emitter, base, company, period string) CompanyResult {
	skip := func(err error) CompanyResult {
		em.Warn("empresa pulada", map[string]any{"reason": err.Error()})
		return CompanyResult{Company: company, Status: CompanySkipped, Reason: err.Error()}
	}

	em.Info("empresa", nil)
	files, err := r.cfg.Finder().Find(base, company)
	if err != nil {
		return skip(err)
	}
	if files.Fuzzy {
		em.Warn("pasta localizada por aproximação", map[string]any{"folder": files.Folder})
	}

	tablesA, err := r.loadAll(em, domain.SourceA, files.SourceA)
	if err != nil {
		return skip(err)
	}
	tablesB, err := r.loadAll(em, domain.SourceB, files.SourceB)
	if err != nil {
		return skip(err)
	}

	report, err := svc.Reconcile(reconciliation.Input{Company: company, Period: period, SourceA: tablesA, SourceB: tablesB})
	if err != nil {
		return skip(err)
	}

	out := filepath.Join(r.cfg.OutputDir, r.cfg.OutputFile(company, period))
	if err := export.WriteWorkbook(out, report); err != nil {
		em.Error("erro ao salvar consolidado", map[string]any{"output": out, "error": err.Error()})
		return CompanyResult{Company: company, Status: CompanyFailed, Reason: err.Error(), Summary: &report.Summary}
	}
	em.Info("consolidado salvo", map[string]any{"output": out})
	return CompanyResult{Company: company, Status: CompanyDone, Output: out, Summary: &report.Summary}
}

func (r *Runner) loadAll(em *events.Emitter, source domain.Source, paths []string) ([]domain.SourceTable, error) {
	tables := make([]domain.SourceTable, 0, len(paths))
	for _, path := range paths {
		em.Info("lendo arquivo", map[string]any{"source": source, "file": filepath.Base(path)})
		table, err := r.loader.Load(path)
		if err != nil {
			return nil, fmt.Errorf("fonte %s: %w", source, err)
		}
		tables = append(tables, table)
	}
	return tables, nil
}

// Validate checks the company folders of a period without reading any file.
func (r *Runner) Validate(req Request) (string, []discovery.Check, error) {
	period, companies, err := r.resolve(req)
	if err != nil {
		return "", nil, err
	}
	base, err := discovery.ResolveBase(r.cfg.BaseDirs, period)
	if err != nil {
		return "", nil, err
	}
	return base, r.cfg.Finder().Validate(base, companies), nil
}
