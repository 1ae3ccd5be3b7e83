// Command etl is the CLI collaborator that drives Pipeline.Run (spec §1,
// §6 "Environment contract"). It is intentionally thin: flag parsing,
// configuration/database wiring, and a health/metrics surface for
// operators watching a long-running import live here; every ETL
// invariant lives in pkg/pipeline and its collaborators.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codeready-toolchain/skypeetl/pkg/config"
	"github.com/codeready-toolchain/skypeetl/pkg/database"
	"github.com/codeready-toolchain/skypeetl/pkg/etlcontext"
	"github.com/codeready-toolchain/skypeetl/pkg/pipeline"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	source := flag.String("source", "", "Path to the Skype export source file (JSON or TAR)")
	userDisplayName := flag.String("user-display-name", "", "Display name to tag the export with")
	taskID := flag.String("task-id", "", "Task id for checkpoint/resume (defaults to a generated uuid)")
	healthPort := flag.String("health-port", getEnv("HEALTH_PORT", "8080"), "Port for the /healthz and /metrics surface")
	flag.Parse()

	if *source == "" {
		fmt.Fprintln(os.Stderr, "usage: etl -source <path> [-user-display-name NAME] [-task-id ID]")
		os.Exit(pipeline.ExitFatalError)
	}

	logger := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		logger.Error("failed to initialize configuration", "error", err)
		os.Exit(pipeline.ExitFatalError)
	}

	dbClient, err := database.NewClient(ctx, database.FromPipelineConfig(cfg.Database))
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(pipeline.ExitDatabaseUnavailable)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logger.Error("error closing database client", "error", err)
		}
	}()

	id := *taskID
	if id == "" {
		id = uuid.New().String()
	}

	etlCtx := etlcontext.New(id, cfg, logger)
	p := pipeline.NewPipeline(etlCtx, dbClient)

	srv := startHealthServer(*healthPort, etlCtx, dbClient)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	exitCode := p.Run(ctx, *source, *userDisplayName)
	os.Exit(exitCode)
}

// startHealthServer exposes the ambient /healthz and /metrics surface a
// long-running import is watched through; it is observability, not a
// query surface over loaded data (Non-goal, spec §1), and runs detached
// from the pipeline's own lifecycle.
func startHealthServer(port string, etlCtx *etlcontext.Context, dbClient *database.Client) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		dbHealth, err := database.Health(reqCtx, dbClient.DB())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": dbHealth, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": dbHealth})
	})

	router.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, etlCtx.Summary())
	})

	srv := &http.Server{Addr: ":" + port, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("health server stopped unexpectedly", "error", err)
		}
	}()
	return srv
}
