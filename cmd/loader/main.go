package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"physioload/internal/config"
	"physioload/internal/dataset"
	"physioload/internal/infrastructure"
	"physioload/internal/ingest"
	"physioload/internal/store"
	"physioload/pkg/contracts/domain"
)

func main() {
	sessionTypeFlag := flag.String("session-type", "", "session type to load: STRESS, AEROBIC or ANAEROBIC")
	subject := flag.String("subject", "", "load a single subject (e.g. S05)")
	loadAll := flag.Bool("load-all", false, "load every subject of the session type")
	includeProblematic := flag.Bool("include-problematic", false, "load subjects with known quality issues, tagging their metadata")
	dataDir := flag.String("data-dir", "", "dataset base directory (overrides config)")
	storePath := flag.String("store", "", "analytical store path (overrides config)")
	flag.Parse()

	sessionType, err := domain.ParseSessionType(*sessionTypeFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -session-type: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}
	if *subject == "" && !*loadAll {
		fmt.Fprintln(os.Stderr, "one of -subject or -all is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	if *dataDir != "" {
		cfg.Dataset.BaseDir = *dataDir
	}
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, err := infrastructure.InitializeMetrics(cfg.Metrics, logger)
	if err != nil {
		logger.Error("Failed to initialize metrics", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer metrics.Shutdown(ctx)

	root, err := dataset.Locate(cfg.Dataset.BaseDir, dataset.DefaultCandidates())
	if err != nil {
		logger.Error("Dataset not found", slog.String("base_dir", cfg.Dataset.BaseDir), slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		logger.Error("Failed to open analytical store", slog.String("path", cfg.Store.Path), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	uploader := store.NewUploader(db, store.UploaderConfig{
		ChunkSize: cfg.Upload.ChunkSize,
		RateLimit: cfg.Upload.RateLimit,
		Burst:     cfg.Upload.Burst,
	}, logger, metrics)
	loader := ingest.NewLoader(root, nil, uploader, db, logger, metrics)

	logger.Info("Starting physiological data load",
		slog.String("session_type", string(sessionType)),
		slog.String("dataset_root", root),
		slog.String("store", cfg.Store.Path),
		slog.Bool("include_problematic", *includeProblematic))

	if *loadAll {
		report, err := loader.LoadAll(ctx, sessionType, *includeProblematic)
		if err != nil {
			logger.Error("Batch run aborted", slog.String("error", err.Error()))
			os.Exit(1)
		}

		fmt.Printf("\nRun %s — %s\n", report.RunID, sessionType)
		for _, result := range report.Results {
			line := fmt.Sprintf("  %-6s %-8s", result.SubjectID, result.Outcome)
			if result.Outcome == ingest.OutcomeLoaded {
				line += fmt.Sprintf(" %d records", result.Records)
			}
			if result.Reason != "" && result.Outcome != ingest.OutcomeLoaded {
				line += " (" + result.Reason + ")"
			}
			fmt.Println(line)
		}
		fmt.Printf("Loaded %d, skipped %d, failed %d\n", report.Loaded, report.Skipped, report.Failed)

		if report.Failed > 0 {
			os.Exit(1)
		}
		return
	}

	result, err := loader.LoadSubjectSession(ctx, *subject, sessionType, *includeProblematic)
	if err != nil {
		logger.Error("Subject load failed",
			slog.String("subject_id", *subject),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	switch result.Outcome {
	case ingest.OutcomeLoaded:
		fmt.Printf("Loaded %s: %d records\n", result.SessionID, result.Records)
	case ingest.OutcomeSkipped:
		fmt.Printf("Skipped %s: %s\n", result.SessionID, result.Reason)
	}
}
