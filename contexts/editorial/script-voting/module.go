package scriptvoting

import (
	"log/slog"

	httpadapter "showrunner/contexts/editorial/script-voting/adapters/http"
	"showrunner/contexts/editorial/script-voting/adapters/memory"
	"showrunner/contexts/editorial/script-voting/application/commands"
	"showrunner/contexts/editorial/script-voting/application/queries"
	"showrunner/contexts/editorial/script-voting/application/workers"
	"showrunner/contexts/editorial/script-voting/domain/entities"
	"showrunner/contexts/editorial/script-voting/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	PeriodCycle workers.PeriodCycleJob
	OutboxRelay workers.OutboxRelay
	Store       *memory.Store
}

type Dependencies struct {
	Periods    ports.PeriodRepository
	Scripts    ports.ScriptRepository
	Votes      ports.VoteRepository
	Outbox     ports.OutboxWriter
	OutboxRead ports.OutboxRepository
	Publisher  ports.EventPublisher
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Schedule   commands.Schedule
	MinScripts int
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	scriptUseCase := commands.ScriptUseCase{
		Scripts: deps.Scripts,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Logger:  deps.Logger,
	}
	voteUseCase := commands.VoteUseCase{
		Scripts: deps.Scripts,
		Votes:   deps.Votes,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Logger:  deps.Logger,
	}
	periodUseCase := commands.PeriodUseCase{
		Periods:    deps.Periods,
		Scripts:    deps.Scripts,
		Outbox:     deps.Outbox,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Schedule:   deps.Schedule,
		MinScripts: deps.MinScripts,
		Logger:     deps.Logger,
	}
	standingsUseCase := queries.StandingsUseCase{
		Periods: deps.Periods,
		Scripts: deps.Scripts,
	}
	return Module{
		Handler: httpadapter.Handler{
			Scripts:   scriptUseCase,
			Votes:     voteUseCase,
			Standings: standingsUseCase,
			Logger:    deps.Logger,
		},
		PeriodCycle: workers.PeriodCycleJob{
			Periods: periodUseCase,
			Logger:  deps.Logger,
		},
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.OutboxRead,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Script, publisher ports.EventPublisher, schedule commands.Schedule, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Periods:    store,
		Scripts:    store,
		Votes:      store,
		Outbox:     store,
		OutboxRead: store,
		Publisher:  publisher,
		Clock:      store,
		IDGen:      store,
		Schedule:   schedule,
		MinScripts: 3,
		Logger:     logger,
	})
	module.Store = store
	return module
}
