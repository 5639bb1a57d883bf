package runner

import (
	"os"
	"path/filepath"
	"testing"

	"reconciliation-service/internal/config"
	"reconciliation-service/internal/core/discovery"
	"reconciliation-service/internal/domain"
	"reconciliation-service/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func saveWorkbook(t *testing.T, path string, cells map[string]any) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f := excelize.NewFile()
	defer f.Close()
	for axis, v := range cells {
		require.NoError(t, f.SetCellValue("Sheet1", axis, v))
	}
	require.NoError(t, f.SaveAs(path))
}

func companyDir(base, company string) string {
	return filepath.Join(base, company, "ESCRITA FISCAL", "RELATORIO RPA - "+company)
}

// fixture builds <root>/2025/11-2025 with one complete company and one broken one.
func fixture(t *testing.T) (root string, cfg *config.Config) {
	t.Helper()
	root = t.TempDir()
	base := filepath.Join(root, "2025", "11-2025")

	loja := companyDir(base, "LOJA A")
	saveWorkbook(t, filepath.Join(loja, "DOMINIO 11-2025.xlsx"), map[string]any{
		"A1": "Relatório de entradas",
		"A2": "Período 11/2025",
		"C3": "Data", "E3": "Nota", "U3": "Valor Contábil",
		"C4": "15/11/2025", "E4": 123, "U4": 100.5,
		"C5": "16/11/2025", "E5": 777, "U5": 50,
	})
	saveWorkbook(t, filepath.Join(loja, "EMPRESA 11-2025.xlsx"), map[string]any{
		"K1": "Dt. Emissão", "M1": "N.Nota", "R1": "Total Nota", "U1": "Situação",
		"K2": "15/11/2025", "M2": 123, "R2": 100.5, "U2": "N",
		"K3": "17/11/2025", "M3": 888, "R3": 10, "U3": "I",
	})

	broken := companyDir(base, "LOJA B")
	require.NoError(t, os.MkdirAll(broken, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(broken, "DOMINIO.xlsx"), []byte("corrompido"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(broken, "EMPRESA.xlsx"), []byte("corrompido"), 0o644))

	cfg = config.Default()
	cfg.Period = "11-2025"
	cfg.BaseDirs = []string{filepath.Join(root, "{year}", "{period}")}
	cfg.Companies = []string{"LOJA A", "LOJA B", "LOJA C"}
	cfg.OutputDir = filepath.Join(root, "saida")
	return root, cfg
}

func TestRun(t *testing.T) {
	root, cfg := fixture(t)
	var rec events.Recorder

	result, err := New(cfg, rec.Sink()).Run(Request{})
	require.NoError(t, err)

	assert.Equal(t, "11-2025", result.Period)
	assert.Equal(t, filepath.Join(root, "2025", "11-2025"), result.Base)
	require.Len(t, result.Companies, 3)

	done := result.Companies[0]
	assert.Equal(t, "LOJA A", done.Company)
	require.Equal(t, CompanyDone, done.Status, done.Reason)
	assert.Equal(t, filepath.Join(root, "saida", "Conciliacao_LOJA_A_11-2025.xlsx"), done.Output)
	assert.FileExists(t, done.Output)
	require.NotNil(t, done.Summary)
	assert.Equal(t, 3, done.Summary.Total)
	assert.Equal(t, 1, done.Summary.ByStatus[domain.StatusMatched])
	assert.Equal(t, 1, done.Summary.ByStatus[domain.StatusOnlyA])
	assert.Equal(t, 1, done.Summary.ByStatus[domain.StatusVoided])

	assert.Equal(t, CompanySkipped, result.Companies[1].Status)
	assert.Contains(t, result.Companies[1].Reason, "fonte A")

	assert.Equal(t, CompanySkipped, result.Companies[2].Status)
	assert.Contains(t, result.Companies[2].Reason, discovery.ErrCompanyDirNotFound.Error())

	var saved, skipped int
	for _, ev := range rec.Events() {
		switch ev.Message {
		case "consolidado salvo":
			saved++
		case "empresa pulada":
			skipped++
		}
	}
	assert.Equal(t, 1, saved)
	assert.Equal(t, 2, skipped)
}

func TestRunRequestOverrides(t *testing.T) {
	_, cfg := fixture(t)
	result, err := New(cfg, nil).Run(Request{Period: "11-2025", Companies: []string{"LOJA A"}})
	require.NoError(t, err)
	require.Len(t, result.Companies, 1)
	assert.Equal(t, CompanyDone, result.Companies[0].Status)
}

func TestRunFatalErrors(t *testing.T) {
	_, cfg := fixture(t)
	r := New(cfg, nil)

	_, err := r.Run(Request{Period: "12-2025"})
	assert.ErrorIs(t, err, discovery.ErrBaseNotFound)

	_, err = r.Run(Request{Period: "2025"})
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	cfg.Companies = nil
	_, err = r.Run(Request{})
	assert.ErrorIs(t, err, ErrNoCompanies)
}

func TestRunExportFailure(t *testing.T) {
	root, cfg := fixture(t)
	blocker := filepath.Join(root, "bloqueio")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.OutputDir = filepath.Join(blocker, "saida")

	result, err := New(cfg, nil).Run(Request{Companies: []string{"LOJA A"}})
	require.NoError(t, err)
	assert.Equal(t, CompanyFailed, result.Companies[0].Status)
	assert.NotNil(t, result.Companies[0].Summary)
}

func TestValidate(t *testing.T) {
	_, cfg := fixture(t)
	base, checks, err := New(cfg, nil).Validate(Request{})
	require.NoError(t, err)
	assert.NotEmpty(t, base)
	require.Len(t, checks, 3)
	assert.True(t, checks[0].OK())
	assert.True(t, checks[1].OK())
	assert.False(t, checks[2].Exists)
}
