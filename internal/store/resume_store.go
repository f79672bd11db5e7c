package store

import (
	"context"
	"sync"

	"github.com/callegarimattia/battleship-core/internal/resume"
)

// ResumeStore implements resume.Repository with the composite (game, player)
// and by-value unique indices spec §4.K names.
type ResumeStore struct {
	mu        sync.Mutex
	byValue   map[string]resume.Token
	byComposite map[string]resume.Token
}

// NewResumeStore creates an empty resume token store.
func NewResumeStore() *ResumeStore {
	return &ResumeStore{
		byValue:     make(map[string]resume.Token),
		byComposite: make(map[string]resume.Token),
	}
}

func (s *ResumeStore) FindByGameAndPlayer(_ context.Context, gameCode, playerID string) (resume.Token, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.byComposite[compositeKey(gameCode, playerID)]
	return token, ok, nil
}

func (s *ResumeStore) FindByValue(_ context.Context, value string) (resume.Token, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.byValue[value]
	return token, ok, nil
}

func (s *ResumeStore) Save(_ context.Context, token resume.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byValue[token.Value] = token
	s.byComposite[compositeKey(token.GameCode, token.PlayerID)] = token
	return nil
}

func compositeKey(gameCode, playerID string) string {
	return gameCode + "\x00" + playerID
}
