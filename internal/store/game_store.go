// Package store provides the in-memory persistence boundary of spec §4.K:
// one sharded map per entity, grounded on the teacher's
// MemoryService{games map[string]*safeGame, gamesMu sync.RWMutex} shape,
// repeated here once per entity kind.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/callegarimattia/battleship-core/internal/apierr"
	"github.com/callegarimattia/battleship-core/internal/events"
	"github.com/callegarimattia/battleship-core/internal/model"
)

// ErrGameNotFound is returned for an unknown game code.
var ErrGameNotFound = errors.New("game not found")

type gameRow struct {
	game      *model.Game
	mu        sync.Mutex
	updatedAt time.Time
}

// GameStore is the atomic read-modify-write boundary for model.Game (spec
// §4.K, §5): a per-game mutex serializes every mutation so concurrent shots
// against the same game can never interleave, while unrelated games proceed
// in parallel.
type GameStore struct {
	mu   sync.RWMutex
	rows map[string]*gameRow
}

// NewGameStore creates an empty game store.
func NewGameStore() *GameStore {
	return &GameStore{rows: make(map[string]*gameRow)}
}

// Create registers a brand-new game. Fails with Conflict if the code is
// already taken.
func (s *GameStore) Create(_ context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rows[game.Code]; exists {
		return apierr.New(apierr.KindConflict, errors.New("game code already in use"))
	}
	s.rows[game.Code] = &gameRow{game: game, updatedAt: time.Now()}
	return nil
}

// Get returns the live game for code without acquiring its row lock. Callers
// that need a consistency guarantee across several field reads should use
// WithLock instead.
func (s *GameStore) Get(_ context.Context, code string) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[code]
	if !ok {
		return nil, apierr.New(apierr.KindNotFound, ErrGameNotFound)
	}
	return row.game, nil
}

// Snapshot returns code's game while briefly holding its row mutex, giving
// the caller a happens-after view of the most recent WithLock mutation.
// Callers must only read fields synchronously; the pointer must not be
// retained past the call.
func (s *GameStore) Snapshot(_ context.Context, code string) (*model.Game, error) {
	s.mu.RLock()
	row, ok := s.rows[code]
	s.mu.RUnlock()
	if !ok {
		return nil, apierr.New(apierr.KindNotFound, ErrGameNotFound)
	}

	row.mu.Lock()
	defer row.mu.Unlock()
	return row.game, nil
}

// WithLock runs fn against code's game while holding that game's mutex,
// bumping its updatedAt on success. This is the transaction boundary every
// gameplay mutation (confirm, reroll, shot, pause, resume, forfeit) goes
// through.
func (s *GameStore) WithLock(_ context.Context, code string, fn func(*model.Game) ([]events.Event, error)) ([]events.Event, error) {
	s.mu.RLock()
	row, ok := s.rows[code]
	s.mu.RUnlock()
	if !ok {
		return nil, apierr.New(apierr.KindNotFound, ErrGameNotFound)
	}

	row.mu.Lock()
	defer row.mu.Unlock()

	out, err := fn(row.game)
	if err != nil {
		return nil, err
	}
	row.updatedAt = time.Now()
	return out, nil
}
