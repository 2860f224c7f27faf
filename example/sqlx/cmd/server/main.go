package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kroma-labs/sqlscope/example/sqlx/internal/config"
	"github.com/kroma-labs/sqlscope/example/sqlx/internal/database"
	"github.com/kroma-labs/sqlscope/example/sqlx/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"go.opentelemetry.io/otel"
)

func main() {
	ctx := context.Background()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	reg := prometheus.NewRegistry()

	// 1. Setup OpenTelemetry (Tracing + Metrics)
	shutdownTracing, shutdownMetrics, err := telemetry.Setup(ctx, reg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup OTel")
	}
	defer func() {
		shutdownTracing(ctx)
		shutdownMetrics(ctx)
	}()

	// 2. Start Prometheus Metrics Server
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{Addr: config.MetricsPort, Handler: mux}
	go func() {
		log.Info().Str("addr", config.MetricsPort).Msg("starting Prometheus metrics server")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("metrics server failed")
		}
	}()

	// 3. Connect, retrying while the database starts
	db, err := database.New(ctx, reg)
	if err != nil {
		log.Fatal().Msg("failed to open database:" + err.Error())
	}
	defer db.Close()

	tracer := otel.Tracer("example-app")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := db.CreateTable(ctx); err != nil {
		log.Error().Err(err).Msg("failed to create table")
	}

	ticker := time.NewTicker(time.Duration(config.OperationInterval) * time.Second)
	defer ticker.Stop()

	log.Info().
		Str("metrics", "http://localhost:2112/metrics").
		Msg("sqlx example app started, press Ctrl+C to stop")

	for {
		select {
		case <-ticker.C:
			ctx, span := tracer.Start(ctx, "db-operations")

			if err := db.InsertUsers(ctx); err != nil {
				log.Error().Err(err).Msg("failed to insert users")
			}
			if err := db.QueryUsers(ctx); err != nil {
				log.Error().Err(err).Msg("failed to query users")
			}
			if _, err := db.GetUser(ctx, "Alice"); err != nil {
				log.Error().Err(err).Msg("failed to get user")
			}
			if err := db.InsertWithTransaction(ctx); err != nil {
				log.Error().Err(err).Msg("failed transaction")
			}
			db.QueryMissingTable(ctx)

			span.End()

		case <-sigChan:
			log.Info().Msg("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("metrics server shutdown error")
			}
			return
		}
	}
}
