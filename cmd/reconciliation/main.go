// cmd/reconciliation/main.go
package main

import (
	"log"
	"os"

	"reconciliation-service/internal/api/handlers"
	"reconciliation-service/internal/api/responses"
	"reconciliation-service/internal/config"
	"reconciliation-service/internal/core/loader"
	"reconciliation-service/internal/core/reconciliation"
	"reconciliation-service/internal/events"
	"reconciliation-service/internal/logging"
	"reconciliation-service/internal/runner"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Default()
	if path := os.Getenv("CONCILIADOR_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Fatal("Falha ao carregar a configuração: ", err)
		}
		cfg = loaded
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal("Falha ao iniciar o logger: ", err)
	}
	defer logger.Sync()
	responses.InitLogger(logger)
	sink := events.ZapSink(logger)

	layoutA, layoutB, err := cfg.Layouts()
	if err != nil {
		logger.Fatal("layout inválido", zap.Error(err))
	}
	reconcileService := reconciliation.NewService(reconciliation.Options{
		LayoutA:    layoutA,
		LayoutB:    layoutB,
		Normalizer: cfg.Normalizer(),
		Sink:       sink,
	})
	reconcileHandler := handlers.NewReconcileHandler(reconcileService, loader.New(loader.Options{FillDown: cfg.FillDownEnabled()}))

	queue := runner.NewQueue(runner.New(cfg, sink), cfg.Server.QueueSize)
	defer queue.Close()
	batchHandler := handlers.NewBatchHandler(queue)

	router := gin.Default()

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/reconcile", reconcileHandler.HandleReconcile)
		apiV1.POST("/batches", batchHandler.HandleSubmit)
		apiV1.GET("/batches/:id", batchHandler.HandleGet)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP", "service": "reconciliation-service"})
	})

	port := cfg.Server.Port
	logger.Info("Reconciliation Service iniciado", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("Falha ao iniciar o servidor de conciliação", zap.Error(err))
	}
}
