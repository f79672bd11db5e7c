package main

import (
	"context"
	"fmt"
	"time"

	"github.com/callegarimattia/battleship-core/internal/api"
	"github.com/callegarimattia/battleship-core/internal/cleaner"
	"github.com/callegarimattia/battleship-core/internal/connection"
	"github.com/callegarimattia/battleship-core/internal/env"
	"github.com/callegarimattia/battleship-core/internal/events"
	"github.com/callegarimattia/battleship-core/internal/lobby"
	"github.com/callegarimattia/battleship-core/internal/model"
	"github.com/callegarimattia/battleship-core/internal/resume"
	"github.com/callegarimattia/battleship-core/internal/scheduler"
	"github.com/callegarimattia/battleship-core/internal/service"
	"github.com/callegarimattia/battleship-core/internal/store"
	"github.com/labstack/echo/v4"
)

// Application wires every component together and owns the HTTP server
// lifecycle, mirroring the teacher's cmd/server main's Application{}.Run()
// shape (never itself defined in the retrieved pack — see DESIGN.md).
type Application struct {
	E     *echo.Echo
	cfg   *env.Config
	bus   *events.MemoryBus
	pool  *scheduler.Pool
	clean *cleaner.Cleaner
}

// Setup constructs the dependency graph and registers every HTTP route. It
// must be called once before Run.
func (a *Application) Setup() error {
	cfg, err := env.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	bus := events.NewMemoryBus()
	bus.WarmUp()
	a.bus = bus

	pool := scheduler.New(cfg.SchedulerPoolSize)
	a.pool = pool

	games := store.NewGameStore()
	lobbies := store.NewLobbyStore()
	resumeTokens := store.NewResumeStore()
	connections := store.NewConnectionStore()

	gameConfig := model.GameConfiguration{
		BoardWidth:      cfg.BoardWidth,
		BoardHeight:     cfg.BoardHeight,
		ShipMargin:      cfg.ShipMargin,
		FleetDefinition: cfg.FleetDefinition,
	}

	resumeRegistry := resume.NewRegistry(resumeTokens)
	matchmaker := lobby.NewMatchmaker(lobbies, games, resumeRegistry, bus, gameConfig)

	tracker := connection.New(
		connections,
		bus,
		pauseFunc(games),
		statusFunc(games),
		cfg.DisconnectGracePeriod,
		pool,
	)

	svc := service.New(games, matchmaker, resumeRegistry, tracker, bus)

	cl := cleaner.New(connections, pool, cfg.ConnectionCleanupInterval, cfg.ConnectionStaleThreshold)
	a.clean = cl
	go cl.Run()

	e := echo.New()
	e.HideBanner = true
	handler := api.NewHandler(svc, cfg.JWTSecret)
	wsHandler := api.NewWebSocketHandler(bus, svc)
	api.RegisterRoutes(e, handler, wsHandler, cfg.JWTSecret, cfg.RateLimit)
	a.E = e

	return nil
}

// Run starts the HTTP server. Call Setup first.
func (a *Application) Run() error {
	defer a.shutdown()
	return a.E.Start(":" + a.cfg.Port)
}

func (a *Application) shutdown() {
	if a.clean != nil {
		a.clean.Stop()
	}
	if a.pool != nil {
		a.pool.Stop()
	}
	if a.bus != nil {
		a.bus.Close()
	}
}

func pauseFunc(games *store.GameStore) connection.PauseFunc {
	return func(ctx context.Context, gameCode, playerID string) ([]events.Event, error) {
		return games.WithLock(ctx, gameCode, func(g *model.Game) ([]events.Event, error) {
			return g.Pause(playerID, time.Now())
		})
	}
}

func statusFunc(games *store.GameStore) connection.StatusFunc {
	return func(ctx context.Context, gameCode string) (string, error) {
		g, err := games.Snapshot(ctx, gameCode)
		if err != nil {
			return "", err
		}
		return g.Status.String(), nil
	}
}
