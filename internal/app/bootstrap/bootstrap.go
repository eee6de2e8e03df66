package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	scriptvoting "showrunner/contexts/editorial/script-voting"
	scriptvotingpg "showrunner/contexts/editorial/script-voting/adapters/postgres"
	scriptvotingcommands "showrunner/contexts/editorial/script-voting/application/commands"
	scriptvotingports "showrunner/contexts/editorial/script-voting/ports"
	seriesproduction "showrunner/contexts/production/series-production"
	"showrunner/contexts/production/series-production/adapters/ffmpeg"
	"showrunner/contexts/production/series-production/adapters/gradient"
	"showrunner/contexts/production/series-production/adapters/mediahttp"
	"showrunner/contexts/production/series-production/adapters/miniostore"
	"showrunner/contexts/production/series-production/adapters/modal"
	productionpg "showrunner/contexts/production/series-production/adapters/postgres"
	productionports "showrunner/contexts/production/series-production/ports"
	"showrunner/internal/platform/config"
	"showrunner/internal/platform/db"
	"showrunner/internal/platform/httpserver"
	"showrunner/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	scriptVoting scriptvoting.Module
	production   seriesproduction.Module
	consumerOn   bool
	stuckSweepOn bool
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	pg, err := connect(cfg)
	if err != nil {
		return nil, err
	}

	votingModule := buildScriptVoting(cfg, pg, nil, logger)
	productionModule, err := buildProduction(cfg, pg, nil, nil, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	server := httpserver.New(votingModule, productionModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	pg, err := connect(cfg)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	votingModule := buildScriptVoting(cfg, pg, kafka, logger)
	productionModule, err := buildProduction(cfg, pg, kafka, kafka, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	return &WorkerApp{
		postgres:     pg,
		scriptVoting: votingModule,
		production:   productionModule,
		consumerOn:   cfg.EnableScriptSelectedConsumer,
		stuckSweepOn: cfg.EnableStuckJobSweep,
		pollInterval: cfg.TickInterval,
		logger:       logger,
	}, nil
}

func connect(cfg config.Config) (*db.Postgres, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	models := append(scriptvotingpg.Models(), productionpg.Models()...)
	if err := pg.Migrate(models...); err != nil {
		_ = pg.Close()
		return nil, err
	}
	return pg, nil
}

func buildScriptVoting(
	cfg config.Config,
	pg *db.Postgres,
	publisher scriptvotingports.EventPublisher,
	logger *slog.Logger,
) scriptvoting.Module {
	repo := scriptvotingpg.NewRepository(pg.DB, logger)
	return scriptvoting.NewModule(scriptvoting.Dependencies{
		Periods:    repo,
		Scripts:    repo,
		Votes:      repo,
		Outbox:     repo,
		OutboxRead: repo,
		Publisher:  publisher,
		Clock:      scriptvotingpg.SystemClock{},
		IDGen:      scriptvotingpg.UUIDGenerator{},
		Schedule: scriptvotingcommands.Schedule{
			Cadence:        scriptvotingcommands.Cadence(cfg.VotingCadence),
			Weekday:        cfg.VotingWeekday,
			HourUTC:        cfg.VotingHourUTC,
			ImmediateDelay: cfg.VotingImmediateDelay,
			PeriodLength:   cfg.VotingPeriodLength,
		},
		MinScripts: cfg.MinScriptsPerPeriod,
		Logger:     logger,
	})
}

func buildProduction(
	cfg config.Config,
	pg *db.Postgres,
	publisher productionports.EventPublisher,
	subscriber productionports.EventSubscriber,
	logger *slog.Logger,
) (seriesproduction.Module, error) {
	if strings.TrimSpace(cfg.MinioEndpoint) == "" {
		return seriesproduction.Module{}, errors.New("MINIO_ENDPOINT is required")
	}
	objectStore, err := miniostore.NewObjectStore(
		cfg.MinioEndpoint,
		cfg.MinioAccessKey,
		cfg.MinioSecretKey,
		cfg.MinioBucket,
		cfg.MinioUseSSL,
		logger,
	)
	if err != nil {
		return seriesproduction.Module{}, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := objectStore.EnsureBucket(ctx); err != nil {
		return seriesproduction.Module{}, err
	}

	repo := productionpg.NewRepository(pg.DB, logger)
	video := modal.NewClient(cfg.ModalVideoEndpoint, cfg.ModalRefineEndpoint, 0, logger)
	narration := gradient.NewTTS(cfg.GradientTTSEndpoint, cfg.GradientAPIKey, logger)

	return seriesproduction.NewModule(seriesproduction.Dependencies{
		Series:    repo,
		Episodes:  repo,
		Variants:  repo,
		ClipVotes: repo,
		Jobs:      repo,

		Video:      video,
		Refiner:    video,
		Narration:  narration,
		Store:      objectStore,
		Downloader: mediahttp.NewDownloader("", 0),
		Muxer:      ffmpeg.NewMuxer("", logger),

		Outbox:     repo,
		OutboxRead: repo,
		Publisher:  publisher,
		Subscriber: subscriber,
		Dedup:      repo,
		Clock:      productionpg.SystemClock{},
		IDGen:      productionpg.UUIDGenerator{},

		MaxAttempts:    cfg.JobMaxAttempts,
		ClipWindow:     cfg.ClipWindowDuration,
		WorkerMaxJobs:  cfg.WorkerMaxJobs,
		WorkerRuntime:  cfg.WorkerMaxRuntime,
		StuckThreshold: cfg.StuckJobThreshold,
		Logger:         logger,
	}), nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if w.consumerOn {
		if err := w.production.Consumer.Start(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.scriptVoting.PeriodCycle.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.scriptVoting.OutboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.production.OutboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.production.QueueDrain.RunOnce(ctx); err != nil {
			return err
		}
		if w.stuckSweepOn {
			if err := w.production.StuckSweep.RunOnce(ctx); err != nil {
				return err
			}
		}
		if err := w.production.ClipWindows.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
