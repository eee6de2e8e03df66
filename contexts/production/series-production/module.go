package seriesproduction

import (
	"log/slog"
	"time"

	httpadapter "showrunner/contexts/production/series-production/adapters/http"
	"showrunner/contexts/production/series-production/adapters/memory"
	"showrunner/contexts/production/series-production/application/commands"
	"showrunner/contexts/production/series-production/application/queries"
	"showrunner/contexts/production/series-production/application/workers"
	"showrunner/contexts/production/series-production/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	Consumer    workers.ScriptSelectedConsumer
	QueueDrain  workers.QueueDrainJob
	ClipWindows workers.ClipWindowJob
	StuckSweep  workers.StuckJobSweeper
	OutboxRelay workers.OutboxRelay
	Store       *memory.Store
}

type Dependencies struct {
	Series    ports.SeriesRepository
	Episodes  ports.EpisodeRepository
	Variants  ports.VariantRepository
	ClipVotes ports.ClipVoteRepository
	Jobs      ports.JobRepository

	Video      ports.VideoGenerator
	Refiner    ports.PromptRefiner
	Narration  ports.NarrationSynthesizer
	Store      ports.ObjectStore
	Downloader ports.MediaDownloader
	Muxer      ports.MediaMuxer

	Outbox     ports.OutboxWriter
	OutboxRead ports.OutboxRepository
	Publisher  ports.EventPublisher
	Subscriber ports.EventSubscriber
	Dedup      ports.EventDedupStore
	Clock      ports.Clock
	IDGen      ports.IDGenerator

	MaxAttempts    int
	ClipWindow     time.Duration
	WorkerMaxJobs  int
	WorkerRuntime  time.Duration
	StuckThreshold time.Duration
	ScratchDir     string
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	reconciler := commands.ReconcilerUseCase{
		Series:   deps.Series,
		Episodes: deps.Episodes,
		Jobs:     deps.Jobs,
		Outbox:   deps.Outbox,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Logger:   deps.Logger,
	}
	finalizer := commands.FinalizerUseCase{
		Episodes:   deps.Episodes,
		Variants:   deps.Variants,
		Store:      deps.Store,
		Downloader: deps.Downloader,
		Muxer:      deps.Muxer,
		Clock:      deps.Clock,
		ScratchDir: deps.ScratchDir,
		Logger:     deps.Logger,
	}
	dispatcher := commands.DispatcherUseCase{
		Series:      deps.Series,
		Episodes:    deps.Episodes,
		Jobs:        deps.Jobs,
		Outbox:      deps.Outbox,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		MaxAttempts: deps.MaxAttempts,
		Logger:      deps.Logger,
	}
	worker := commands.WorkerUseCase{
		Jobs:       deps.Jobs,
		Episodes:   deps.Episodes,
		Variants:   deps.Variants,
		Series:     deps.Series,
		Video:      deps.Video,
		Refiner:    deps.Refiner,
		Narration:  deps.Narration,
		Store:      deps.Store,
		Reconciler: reconciler,
		Outbox:     deps.Outbox,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		ClipWindow: deps.ClipWindow,
		Logger:     deps.Logger,
	}
	ballots := commands.ClipBallotUseCase{
		Episodes:   deps.Episodes,
		Variants:   deps.Variants,
		ClipVotes:  deps.ClipVotes,
		Finalizer:  finalizer,
		Reconciler: reconciler,
		Outbox:     deps.Outbox,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	catalog := queries.CatalogUseCase{
		Series:   deps.Series,
		Episodes: deps.Episodes,
		Variants: deps.Variants,
	}

	return Module{
		Handler: httpadapter.Handler{
			Dispatcher: dispatcher,
			Ballots:    ballots,
			Catalog:    catalog,
			Logger:     deps.Logger,
		},
		Consumer: workers.ScriptSelectedConsumer{
			Subscriber: deps.Subscriber,
			Dedup:      deps.Dedup,
			Dispatcher: dispatcher,
			Clock:      deps.Clock,
			Logger:     deps.Logger,
		},
		QueueDrain: workers.QueueDrainJob{
			Worker:     worker,
			MaxJobs:    deps.WorkerMaxJobs,
			MaxRuntime: deps.WorkerRuntime,
			Logger:     deps.Logger,
		},
		ClipWindows: workers.ClipWindowJob{
			Ballots: ballots,
			Logger:  deps.Logger,
		},
		StuckSweep: workers.StuckJobSweeper{
			Jobs:      deps.Jobs,
			Episodes:  deps.Episodes,
			Clock:     deps.Clock,
			Threshold: deps.StuckThreshold,
			Logger:    deps.Logger,
		},
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.OutboxRead,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against the in-memory store with the
// given media collaborators, for tests and local runs.
func NewInMemoryModule(
	video ports.VideoGenerator,
	narration ports.NarrationSynthesizer,
	objectStore ports.ObjectStore,
	downloader ports.MediaDownloader,
	muxer ports.MediaMuxer,
	publisher ports.EventPublisher,
	subscriber ports.EventSubscriber,
	logger *slog.Logger,
) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Series:     store,
		Episodes:   store,
		Variants:   store,
		ClipVotes:  store,
		Jobs:       store,
		Video:      video,
		Narration:  narration,
		Store:      objectStore,
		Downloader: downloader,
		Muxer:      muxer,
		Outbox:     store,
		OutboxRead: store,
		Publisher:  publisher,
		Subscriber: subscriber,
		Dedup:      store,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
