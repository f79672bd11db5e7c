// Package resume implements the resume-token registry of spec §4.F: an
// idempotent, unguessable handle letting a disconnected client reclaim its
// seat in a game without replaying its player id in the clear.
package resume

import (
	"context"
	"errors"
	"time"

	"github.com/callegarimattia/battleship-core/internal/apierr"
	"github.com/google/uuid"
)

// ErrTokenNotFound is returned by Resolve for an unknown token. Tokens have
// no expiry.
var ErrTokenNotFound = errors.New("resume token not found")

// Token is a minted resume handle for one (game, player) pair.
type Token struct {
	Value      string
	GameCode   string
	PlayerID   string
	IssuedAt   time.Time
	LastUsedAt time.Time
}

// Repository is the persistence contract a Registry needs: lookup by the
// composite (game, player) key for idempotent minting, and lookup by token
// value for resolution (spec §4.K's composite unique index).
type Repository interface {
	FindByGameAndPlayer(ctx context.Context, gameCode, playerID string) (Token, bool, error)
	FindByValue(ctx context.Context, value string) (Token, bool, error)
	Save(ctx context.Context, token Token) error
}

// Registry mints and resolves resume tokens.
type Registry struct {
	repo Repository
}

// NewRegistry wires a registry over repo.
func NewRegistry(repo Repository) *Registry {
	return &Registry{repo: repo}
}

// MintFor returns the existing token for (gameCode, playerID) if one was
// already minted, or generates and persists a new one. A v4 UUID supplies
// 122 bits of randomness, meeting the spec's entropy floor exactly.
func (r *Registry) MintFor(ctx context.Context, gameCode, playerID string) (string, error) {
	existing, ok, err := r.repo.FindByGameAndPlayer(ctx, gameCode, playerID)
	if err != nil {
		return "", err
	}
	if ok {
		return existing.Value, nil
	}

	now := time.Now()
	token := Token{
		Value:      uuid.NewString(),
		GameCode:   gameCode,
		PlayerID:   playerID,
		IssuedAt:   now,
		LastUsedAt: now,
	}
	if err := r.repo.Save(ctx, token); err != nil {
		return "", err
	}
	return token.Value, nil
}

// Resolve looks up the (game, player) pair behind a token and bumps its
// lastUsedAt. Fails with NotFound if the token is unknown.
func (r *Registry) Resolve(ctx context.Context, value string) (Token, error) {
	token, ok, err := r.repo.FindByValue(ctx, value)
	if err != nil {
		return Token{}, err
	}
	if !ok {
		return Token{}, apierr.New(apierr.KindNotFound, ErrTokenNotFound)
	}

	token.LastUsedAt = time.Now()
	if err := r.repo.Save(ctx, token); err != nil {
		return Token{}, err
	}
	return token, nil
}
