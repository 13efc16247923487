package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"mail_loader/internal/config"
	"mail_loader/internal/credentials"
	"mail_loader/internal/domain"
	"mail_loader/internal/progress"
	"mail_loader/internal/publisher"
	"mail_loader/internal/scheduler"
	"mail_loader/internal/scoring"
	"mail_loader/internal/service"
	"mail_loader/internal/source/remote"
	"mail_loader/internal/storage/sqlstore"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single load cycle and exit")
	scoreID := flag.String("score", "", "print the augmented score of one stored record and exit")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	store, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("store ready", "driver", cfg.Database.Driver)

	creds := credentials.NewStaticProvider(cfg.API.AccessToken)

	client := remote.New(remote.Config{
		BaseURL:            cfg.API.BaseURL,
		Timeout:            cfg.API.Timeout,
		MaxAttempts:        cfg.API.Retry.MaxAttempts,
		InitialBackoff:     cfg.API.Retry.InitialBackoff,
		MaxBackoff:         cfg.API.Retry.MaxBackoff,
		ScoreRatePerSecond: cfg.API.ScoreRatePerSecond,
	}, creds, logger)

	if *scoreID != "" {
		if err := printScore(ctx, cfg, store, client, creds, *scoreID, logger); err != nil {
			logger.Error("failed to score record", "id", *scoreID, "error", err)
			os.Exit(1)
		}
		return
	}

	var events service.Publisher
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		events = rabbitMQ
	}

	background := scoring.NewBackground(store, store, scoring.BackgroundConfig{
		ChunkSize:     cfg.Scoring.ChunkSize,
		ProgressEvery: cfg.Scoring.ProgressEvery,
		Variant:       cfg.Scoring.Variant,
	}, logger)

	loader := service.NewLoader(client, store, background, creds, events, logger, cfg.Loader)
	defer loader.Close()

	tracker := progress.NewTracker(progress.Options{
		MessageInterval: cfg.Progress.MessageInterval,
		ResetDelay:      cfg.Progress.ResetDelay,
	}, logger)
	defer tracker.Close()

	go logProgress(tracker, logger)

	sched := scheduler.NewScheduler(loader, tracker, cfg.Sync, logger)

	logger.Info("starting mail loader",
		"base_url", cfg.API.BaseURL,
		"interval", cfg.Sync.Interval,
		"schedule", cfg.Sync.Schedule,
		"max_records", cfg.Loader.MaxRecords,
		"scoring_variant", cfg.Scoring.Variant,
	)

	if *once {
		sched.RunOnce(ctx)
		loader.WaitBackground()
		return
	}

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

// logProgress writes tracker phase changes to the log until the tracker closes.
func logProgress(tracker *progress.Tracker, logger *slog.Logger) {
	states, unsubscribe := tracker.Subscribe()
	defer unsubscribe()

	var last progress.State
	for state := range states {
		if state.Phase == last.Phase && state.Error == last.Error {
			continue
		}
		logger.Info("progress",
			"phase", state.Phase,
			"progress", state.Progress,
			"loaded", state.EmailsLoaded,
			"total", state.TotalEmails,
			"error", state.Error,
		)
		last = state
	}
}

func printScore(
	ctx context.Context,
	cfg *config.Config,
	store *sqlstore.Store,
	client *remote.Client,
	creds credentials.Provider,
	id string,
	logger *slog.Logger,
) error {
	record, err := store.GetRecord(ctx, id)
	if err != nil {
		return err
	}

	profiles, err := store.GetAllSenderProfiles(ctx)
	if err != nil {
		return err
	}
	var profile *domain.SenderProfile
	key := scoring.SenderKey(record.From)
	for i := range profiles {
		if scoring.SenderKey(profiles[i].Email) == key {
			profile = &profiles[i]
			break
		}
	}

	var remoteScorer scoring.RemoteScorer
	if cfg.API.RemoteScoring {
		remoteScorer = client
	}
	scorer := scoring.NewScorer(remoteScorer, creds, scoring.NewCache(cfg.Scoring.CacheTTL), logger)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(scorer.ComputeAugmentedScore(ctx, *record, profile))
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
