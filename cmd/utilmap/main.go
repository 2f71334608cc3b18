package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/perfgrid/utilmap/internal/analysis"
	"github.com/perfgrid/utilmap/internal/config"
	"github.com/perfgrid/utilmap/internal/report"
	"github.com/perfgrid/utilmap/internal/store"
	"github.com/perfgrid/utilmap/pkg/logutil"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logutil.InitLogger()
	logger := logutil.GetLogger()
	defer logger.Sync()

	go func() {
		sigch := make(chan os.Signal, 1)
		signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigch
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	a, err := analysis.New(cfg.Analysis, store.OpenSQLite, cfg)
	if err != nil {
		logger.Fatal("Unknown analysis", zap.Error(err), zap.Strings("available", analysis.Kinds()))
	}

	logger.Info("Running analysis",
		zap.String("analysis", a.Name()),
		zap.Int("reports", len(cfg.ReportPaths)))

	result, err := analysis.Run(ctx, a, cfg)
	if err != nil {
		logger.Fatal("Analysis failed", zap.Error(err))
	}
	if len(result.Tables) == 0 {
		return
	}

	writer, err := report.NewWriter(cfg.OutputDir, a.Name())
	if err != nil {
		logger.Fatal("Error creating output directory", zap.Error(err))
	}
	for _, table := range result.Tables {
		path, err := writer.WriteTable(table)
		if err != nil {
			logger.Fatal("Error writing output", zap.Error(err))
		}
		logger.Info("Wrote output file", zap.String("path", path))
	}
}
