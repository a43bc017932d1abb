package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"sirene/internal/archive"
	"sirene/internal/load"
	"sirene/internal/notify"
	"sirene/internal/pipeline"
	"sirene/internal/platform/config"
	"sirene/internal/platform/database"
	"sirene/internal/platform/httpserver"
	"sirene/internal/platform/logger"
	"sirene/internal/platform/metrics"
	"sirene/internal/refdata"
)

// main wires the ingestion dependencies and runs both stock datasets in
// sequence. Business logic lives in the internal packages.
func main() {
	// A local .env is a convenience; absence is fine.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := load.EnsureSchema(ctx, db); err != nil {
		log.Error("schema migration failed", "error", err)
		os.Exit(1)
	}
	if err := refdata.Seed(ctx, db); err != nil {
		log.Error("NAF translation seed failed", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	srv := httpserver.New(cfg.MetricsAddr, m.Handler())
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	var messenger notify.Messenger = notify.Noop{}
	if cfg.WebhookURL != "" {
		webhook, err := notify.NewWebhook(cfg.WebhookURL, notify.WithLogger(log))
		if err != nil {
			log.Error("webhook configuration invalid", "error", err)
			os.Exit(1)
		}
		messenger = webhook
	}

	archiveOpts := []archive.Option{
		archive.WithLogger(log),
		archive.WithBytesCounter(m.RetrievalBytes),
	}
	if cfg.MirrorBucket != "" {
		mirror, err := archive.NewMirror(ctx, cfg.MirrorBucket, cfg.MirrorRegion)
		if err != nil {
			log.Error("archive mirror unavailable", "error", err)
			os.Exit(1)
		}
		archiveOpts = append(archiveOpts, archive.WithMirror(mirror))
	}
	retriever := archive.New(cfg.ArchiveBaseURL, cfg.DataDir, archiveOpts...)

	engine, err := load.NewEngine(db, load.WithLogger(log))
	if err != nil {
		log.Error("load engine init failed", "error", err)
		os.Exit(1)
	}

	runner, err := pipeline.NewRunner(retriever, engine, cfg.DataDir,
		pipeline.WithMessenger(messenger),
		pipeline.WithMetrics(m),
		pipeline.WithLogger(log),
		pipeline.WithFragmentLimit(cfg.FragmentLines))
	if err != nil {
		log.Error("runner init failed", "error", err)
		os.Exit(1)
	}

	// Establishments first, then legal units. A failed dataset aborts its own
	// run only; the other still gets its chance.
	failed := false
	if _, err := runner.Run(ctx, pipeline.Establishments(config.EstablishmentDataset)); err != nil {
		log.Error("dataset run failed", "dataset", "establishments", "error", err)
		failed = true
	}
	if _, err := runner.Run(ctx, pipeline.LegalUnits(config.LegalUnitDataset)); err != nil {
		log.Error("dataset run failed", "dataset", "legal_units", "error", err)
		failed = true
	} else if err := runner.AggregateNafCounts(ctx); err != nil {
		// The count rows read the merged legal mirror, so the job only runs
		// after a clean legal-unit run.
		log.Error("naf count aggregation failed", "error", err)
		failed = true
	}
	if failed {
		os.Exit(1)
	}
}
