package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/austin-311-etl/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/austin-311-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/austin-311-etl/internal/adapter/kafka"
	mongoadapter "github.com/couchcryptid/austin-311-etl/internal/adapter/mongo"
	"github.com/couchcryptid/austin-311-etl/internal/config"
	"github.com/couchcryptid/austin-311-etl/internal/observability"
	"github.com/couchcryptid/austin-311-etl/internal/pipeline"
)

// sink is a pipeline loader that holds a connection to release on shutdown.
type sink interface {
	pipeline.BatchLoader
	Close(ctx context.Context) error
}

// kafkaSink adapts the Kafka writer's Close to the sink interface.
type kafkaSink struct {
	*kafkaadapter.Writer
}

func (k kafkaSink) Close(_ context.Context) error { return k.Writer.Close() }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader, err := csvfile.Open(cfg.SourceCSVPath, logger)
	if err != nil {
		logger.Error("failed to open source export", "error", err)
		os.Exit(1)
	}

	var loader sink
	checkers := []httpadapter.ReadinessChecker{}
	switch cfg.SinkType {
	case config.SinkKafka:
		loader = kafkaSink{kafkaadapter.NewWriter(cfg, logger)}
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic, "brokers", cfg.KafkaBrokers)
	default:
		mongoLoader, err := mongoadapter.NewLoader(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to connect to mongo", "error", err)
			_ = reader.Close()
			os.Exit(1)
		}
		loader = mongoLoader
		checkers = append(checkers, mongoLoader)
	}

	transformer := pipeline.NewTransformer(logger)
	p := pipeline.New(reader, transformer, loader, logger, metrics, cfg.BatchSize)
	checkers = append(checkers, p)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger, checkers...)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run the load; the service exits once the export is drained.
	done := make(chan struct{})
	exitCode := 0
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
			exitCode = 1
		}
	}()

	select {
	case <-ctx.Done():
		<-done
	case <-done:
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("csv reader close error", "error", err)
	}
	if err := loader.Close(shutdownCtx); err != nil {
		logger.Error("sink close error", "error", err)
	}

	logger.Info("shutdown complete")
	if exitCode != 0 {
		cancel()
		os.Exit(exitCode)
	}
}
