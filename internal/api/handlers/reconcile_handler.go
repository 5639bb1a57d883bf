package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"reconciliation-service/internal/api/responses"
	"reconciliation-service/internal/core/export"
	"reconciliation-service/internal/core/loader"
	"reconciliation-service/internal/core/reconciliation"
	"reconciliation-service/internal/domain"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReconcileHandler lida com a conciliação síncrona de arquivos enviados.
type ReconcileHandler struct {
	service reconciliation.Service
	loader  *loader.Loader
}

// NewReconcileHandler cria um novo handler de conciliação.
func NewReconcileHandler(service reconciliation.Service, l *loader.Loader) *ReconcileHandler {
	return &ReconcileHandler{
		service: service,
		loader:  l,
	}
}

// HandleReconcile concilia os arquivos das fontes A e B enviados no formulário.
func (h *ReconcileHandler) HandleReconcile(c *gin.Context) {
	format := strings.ToLower(c.DefaultPostForm("format", "json"))
	if format != "json" && format != "xlsx" && format != "csv" {
		responses.Error(c, http.StatusBadRequest, fmt.Sprintf("Formato de saída não suportado: %s", format))
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Formulário multipart inválido")
		return
	}
	headersA := form.File["sourceAFiles"]
	headersB := form.File["sourceBFiles"]
	if len(headersA) == 0 || len(headersB) == 0 {
		responses.Error(c, http.StatusBadRequest, "Envie ao menos um arquivo de cada fonte (sourceAFiles, sourceBFiles)")
		return
	}

	tablesA, err := h.loadTables(headersA)
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Não foi possível ler um dos arquivos da fonte A", err.Error())
		return
	}
	tablesB, err := h.loadTables(headersB)
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Não foi possível ler um dos arquivos da fonte B", err.Error())
		return
	}

	report, err := h.service.Reconcile(reconciliation.Input{
		Company: c.PostForm("company"),
		Period:  c.PostForm("period"),
		SourceA: tablesA,
		SourceB: tablesB,
	})
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, reconciliation.ErrHeaderNotFound) ||
			errors.Is(err, reconciliation.ErrInsufficientColumns) ||
			errors.Is(err, reconciliation.ErrInsufficientData) {
			code = http.StatusUnprocessableEntity
		}
		responses.Error(c, code, "Erro na conciliação", err.Error())
		return
	}

	switch format {
	case "xlsx":
		h.sendFile(c, report, "xlsx", xlsxContentType, export.WriteWorkbookTo)
	case "csv":
		h.sendFile(c, report, "csv", "text/csv; charset=windows-1252", export.WriteCSV)
	default:
		responses.Success(c, report, "Conciliação concluída com sucesso")
	}
}

func (h *ReconcileHandler) loadTables(headers []*multipart.FileHeader) ([]domain.SourceTable, error) {
	tables := make([]domain.SourceTable, 0, len(headers))
	for _, header := range headers {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		if ext != ".csv" && ext != ".xls" && ext != ".xlsx" {
			return nil, fmt.Errorf("extensão de arquivo não suportada: %s (%s)", ext, header.Filename)
		}
		file, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("erro ao abrir %s: %w", header.Filename, err)
		}
		table, err := h.loader.LoadReader(header.Filename, file)
		file.Close()
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func (h *ReconcileHandler) sendFile(c *gin.Context, report *domain.Report, ext, contentType string, write func(w io.Writer, report *domain.Report) error) {
	var buf bytes.Buffer
	if err := write(&buf, report); err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao gerar o arquivo de saída", err.Error())
		return
	}
	fileName := fmt.Sprintf("Conciliacao_%s.%s", time.Now().Format("20060102_150405"), ext)
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
