package store

import (
	"context"
	"sync"

	"github.com/callegarimattia/battleship-core/internal/apierr"
	"github.com/callegarimattia/battleship-core/internal/lobby"
)

// LobbyStore implements lobby.Repository: FIFO scan by creation time plus
// optimistic version compare-and-swap (spec §4.K, §5).
type LobbyStore struct {
	mu   sync.Mutex
	rows map[string]lobby.Lobby
	// order preserves insertion order for the FIFO scan, since Go map
	// iteration order is unspecified.
	order []string
}

// NewLobbyStore creates an empty lobby store.
func NewLobbyStore() *LobbyStore {
	return &LobbyStore{rows: make(map[string]lobby.Lobby)}
}

// OldestWaiting returns the first-created lobby still in WAITING status.
func (s *LobbyStore) OldestWaiting(_ context.Context) (lobby.Lobby, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, code := range s.order {
		if row := s.rows[code]; row.Status == lobby.StatusWaiting {
			return row, true, nil
		}
	}
	return lobby.Lobby{}, false, nil
}

// Create inserts a brand-new lobby row.
func (s *LobbyStore) Create(_ context.Context, l lobby.Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows[l.Code] = l
	s.order = append(s.order, l.Code)
	return nil
}

// CompareAndSwap persists l only if the stored version still equals
// expectedVersion, then bumps the stored version by one. Returns
// lobby.ErrVersionConflict otherwise.
func (s *LobbyStore) CompareAndSwap(_ context.Context, l lobby.Lobby, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.rows[l.Code]
	if !ok || current.Version != expectedVersion {
		return apierr.New(apierr.KindConflict, lobby.ErrVersionConflict)
	}
	l.Version = expectedVersion + 1
	s.rows[l.Code] = l
	return nil
}
