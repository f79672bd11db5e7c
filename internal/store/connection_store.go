package store

import (
	"context"
	"sync"
	"time"

	"github.com/callegarimattia/battleship-core/internal/connection"
)

// ConnectionStore implements both connection.Repository (session
// open/close, keyed lookups) and cleaner.Repository (stale sweep), backed by
// one map keyed on the (game, player) composite plus a secondary index by
// session id.
type ConnectionStore struct {
	mu        sync.Mutex
	byPlayer  map[string]connection.PlayerConnection
	bySession map[string]string // sessionID -> composite key
}

// NewConnectionStore creates an empty connection store.
func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{
		byPlayer:  make(map[string]connection.PlayerConnection),
		bySession: make(map[string]string),
	}
}

func (s *ConnectionStore) Upsert(_ context.Context, conn connection.PlayerConnection) (connection.PlayerConnection, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := compositeKey(conn.GameCode, conn.PlayerID)
	previous, existed := s.byPlayer[key]

	s.byPlayer[key] = conn
	s.bySession[conn.SessionID] = key

	return previous, existed, nil
}

func (s *ConnectionStore) FindBySession(_ context.Context, sessionID string) (connection.PlayerConnection, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.bySession[sessionID]
	if !ok {
		return connection.PlayerConnection{}, false, nil
	}
	conn, ok := s.byPlayer[key]
	return conn, ok, nil
}

func (s *ConnectionStore) FindByGameAndPlayer(_ context.Context, gameCode, playerID string) (connection.PlayerConnection, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.byPlayer[compositeKey(gameCode, playerID)]
	return conn, ok, nil
}

// DeleteStale implements cleaner.Repository: removes every row whose
// lastSeen predates olderThan, deleting row by row on its composite key. The
// store mutex is held for the whole sweep, so a concurrent Upsert waits for
// the sweep to finish instead of racing it.
func (s *ConnectionStore) DeleteStale(_ context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, conn := range s.byPlayer {
		if conn.LastSeen.Before(olderThan) {
			delete(s.byPlayer, key)
			delete(s.bySession, conn.SessionID)
			removed++
		}
	}
	return removed, nil
}
