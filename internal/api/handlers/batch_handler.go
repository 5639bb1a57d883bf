package handlers

import (
	"errors"
	"net/http"

	"reconciliation-service/internal/api/responses"
	"reconciliation-service/internal/config"
	"reconciliation-service/internal/runner"

	"github.com/gin-gonic/gin"
)

// BatchHandler expõe a fila de conciliações em lote.
type BatchHandler struct {
	queue *runner.Queue
}

// NewBatchHandler cria um novo handler de lotes.
func NewBatchHandler(queue *runner.Queue) *BatchHandler {
	return &BatchHandler{queue: queue}
}

// HandleSubmit enfileira um lote e devolve o id do job.
func (h *BatchHandler) HandleSubmit(c *gin.Context) {
	var req runner.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Error(c, http.StatusBadRequest, "Requisição inválida", err.Error())
		return
	}
	if req.Period != "" && !config.ValidPeriod(req.Period) {
		responses.Error(c, http.StatusBadRequest, "Período deve estar no formato MM-AAAA")
		return
	}

	ticket, err := h.queue.Submit(req)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, runner.ErrQueueFull) || errors.Is(err, runner.ErrQueueClosed) {
			code = http.StatusServiceUnavailable
		}
		responses.Error(c, code, "Não foi possível enfileirar o lote", err.Error())
		return
	}
	responses.Accepted(c, gin.H{"id": ticket.ID}, "Lote enfileirado")
}

// HandleGet devolve o estado atual de um lote.
func (h *BatchHandler) HandleGet(c *gin.Context) {
	job, ok := h.queue.Get(c.Param("id"))
	if !ok {
		responses.Error(c, http.StatusNotFound, "Lote não encontrado")
		return
	}
	responses.Success(c, job, "")
}
