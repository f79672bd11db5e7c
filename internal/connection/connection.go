// Package connection implements the connection tracker of spec §4.G: one row
// per (game, player) transport session, driving the game to PAUSED after a
// disconnect grace period.
package connection

import (
	"context"
	"time"

	"github.com/callegarimattia/battleship-core/internal/events"
	"github.com/callegarimattia/battleship-core/internal/scheduler"
)

// PlayerConnection is one (game, player)'s transport session state.
type PlayerConnection struct {
	GameCode   string
	PlayerID   string
	PlayerName string
	SessionID  string
	Connected  bool
	LastSeen   time.Time
}

// Repository is the persistence contract the tracker needs (spec §4.K:
// upsert on connections, composite (game, player) lookup).
type Repository interface {
	// Upsert stores conn and returns the row that existed before, if any —
	// the tracker needs the prior Connected value to decide whether this is
	// a fresh join or a reconnect.
	Upsert(ctx context.Context, conn PlayerConnection) (previous PlayerConnection, existed bool, err error)
	FindBySession(ctx context.Context, sessionID string) (PlayerConnection, bool, error)
	FindByGameAndPlayer(ctx context.Context, gameCode, playerID string) (PlayerConnection, bool, error)
}

// PauseFunc drives the bound game to PAUSED (spec §4.D) and returns the
// events that transition produced, or an error if the game was not in a
// pausable state (already paused, finished, unknown — all treated as a
// harmless no-op by the grace check).
type PauseFunc func(ctx context.Context, gameCode, playerID string) ([]events.Event, error)

// StatusFunc returns the current status string of a game, for building
// PLAYER_RECONNECTED/PLAYER_DISCONNECTED event payloads.
type StatusFunc func(ctx context.Context, gameCode string) (string, error)

// Tracker implements session open/close and the delayed grace check.
type Tracker struct {
	repo        Repository
	bus         events.Bus
	pause       PauseFunc
	status      StatusFunc
	gracePeriod time.Duration
	pool        *scheduler.Pool
}

// New wires a tracker. gracePeriod is T_grace from spec §4.G (default 10s).
func New(repo Repository, bus events.Bus, pause PauseFunc, status StatusFunc, gracePeriod time.Duration, pool *scheduler.Pool) *Tracker {
	return &Tracker{repo: repo, bus: bus, pause: pause, status: status, gracePeriod: gracePeriod, pool: pool}
}

// Open records a transport session starting. If the (game, player) row
// existed and was previously disconnected, emits PLAYER_RECONNECTED.
func (t *Tracker) Open(ctx context.Context, gameCode, playerID, playerName, sessionID string) error {
	conn := PlayerConnection{
		GameCode:   gameCode,
		PlayerID:   playerID,
		PlayerName: playerName,
		SessionID:  sessionID,
		Connected:  true,
		LastSeen:   time.Now(),
	}

	previous, existed, err := t.repo.Upsert(ctx, conn)
	if err != nil {
		return err
	}
	if !existed || previous.Connected {
		return nil
	}

	status, err := t.status(ctx, gameCode)
	if err != nil {
		return err
	}
	t.bus.Publish(events.NewPlayerReconnected(gameCode, status, time.Now(), playerID, playerName))
	return nil
}

// IsConnected reports whether (gameCode, playerID) currently has an open
// session. Used by the resume handshake to check both players are connected
// before completing phase two.
func (t *Tracker) IsConnected(ctx context.Context, gameCode, playerID string) (bool, error) {
	conn, found, err := t.repo.FindByGameAndPlayer(ctx, gameCode, playerID)
	if err != nil {
		return false, err
	}
	return found && conn.Connected, nil
}

// Close records a transport session ending and schedules the disconnect
// grace check.
func (t *Tracker) Close(ctx context.Context, sessionID string) error {
	conn, found, err := t.repo.FindBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	conn.Connected = false
	conn.LastSeen = time.Now()
	if _, _, err := t.repo.Upsert(ctx, conn); err != nil {
		return err
	}

	t.scheduleGraceCheck(conn.GameCode, conn.PlayerID, conn.PlayerName)
	return nil
}

// scheduleGraceCheck fires after gracePeriod and re-reads the connection row
// rather than relying on the task being cancelled, per spec §5: a
// reconnect before it fires makes it a no-op.
func (t *Tracker) scheduleGraceCheck(gameCode, playerID, playerName string) {
	t.pool.After(t.gracePeriod, func() {
		ctx := context.Background()

		current, found, err := t.repo.FindByGameAndPlayer(ctx, gameCode, playerID)
		if err != nil || !found || current.Connected {
			return
		}

		status, err := t.status(ctx, gameCode)
		if err != nil {
			return
		}
		t.bus.Publish(events.NewPlayerDisconnected(gameCode, status, time.Now(), playerID, playerName))

		pauseEvents, err := t.pause(ctx, gameCode, playerID)
		if err != nil {
			return // not pausable (already paused/finished) — the disconnect notice still stands
		}
		for _, e := range pauseEvents {
			t.bus.Publish(e)
		}
	})
}
