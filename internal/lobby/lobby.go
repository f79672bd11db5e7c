// Package lobby implements the FIFO matchmaker of spec §4.E: pairs waiting
// players into games two at a time, minting a resume token for each joiner.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/callegarimattia/battleship-core/internal/apierr"
	"github.com/callegarimattia/battleship-core/internal/events"
	"github.com/callegarimattia/battleship-core/internal/model"
	"github.com/google/uuid"
)

// Lobby status values.
const (
	StatusWaiting = "WAITING"
	StatusFull    = "FULL"
)

// Lobby is the matchmaking record pairing two players into one game.
type Lobby struct {
	Code      string
	Status    string
	GameCode  string
	Version   int
	CreatedAt time.Time
}

// ErrEmptyUsername is returned for a blank username.
var ErrEmptyUsername = errors.New("username must not be empty")

// ErrVersionConflict is returned by Repository.CompareAndSwap when the
// stored version has moved since the caller read it.
var ErrVersionConflict = errors.New("lobby version conflict")

// Repository is the persistence contract the matchmaker needs from a Lobby
// store: FIFO lookup plus optimistic compare-and-swap (spec §4.K, §5).
type Repository interface {
	// OldestWaiting returns the oldest WAITING lobby by creation time, if any.
	OldestWaiting(ctx context.Context) (Lobby, bool, error)
	Create(ctx context.Context, lobby Lobby) error
	// CompareAndSwap persists lobby only if the stored version still equals
	// expectedVersion, then bumps the version by one. Returns
	// ErrVersionConflict otherwise.
	CompareAndSwap(ctx context.Context, lobby Lobby, expectedVersion int) error
}

// GameRepository is the narrow slice of the game store the matchmaker needs.
type GameRepository interface {
	Create(ctx context.Context, game *model.Game) error
	Get(ctx context.Context, code string) (*model.Game, error)
}

// ResumeMinter mints a resume token for a (game, player) pair.
type ResumeMinter interface {
	MintFor(ctx context.Context, gameCode, playerID string) (string, error)
}

// Result is what AutoJoin hands back to the HTTP boundary.
type Result struct {
	Lobby       Lobby
	Game        *model.Game
	Player      model.Player
	ResumeToken string
}

// Matchmaker implements spec §4.E's autoJoin, serialized by a single mutex —
// the "pessimistic serialization" option of spec §5 — because the operation
// touches a lobby and its game together and the critical section is short.
// The lobby write additionally goes through the store's version
// compare-and-swap; a conflict is returned to the caller, not retried (see
// DESIGN.md Open Question 4).
type Matchmaker struct {
	mu      sync.Mutex
	lobbies Repository
	games   GameRepository
	resumes ResumeMinter
	bus     events.Bus
	config  model.GameConfiguration
}

// NewMatchmaker wires a matchmaker over the given repositories, resume
// registry, and event bus, using config for every game it creates.
func NewMatchmaker(lobbies Repository, games GameRepository, resumes ResumeMinter, bus events.Bus, config model.GameConfiguration) *Matchmaker {
	return &Matchmaker{lobbies: lobbies, games: games, resumes: resumes, bus: bus, config: config}
}

// AutoJoin pairs username into the oldest waiting lobby, or opens a new one
// if none is waiting.
func (m *Matchmaker) AutoJoin(ctx context.Context, username string) (Result, error) {
	if username == "" {
		return Result{}, apierr.New(apierr.KindBadRequest, ErrEmptyUsername)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	lobby, found, err := m.lobbies.OldestWaiting(ctx)
	if err != nil {
		return Result{}, err
	}
	if !found {
		return m.openLobby(ctx, username)
	}
	return m.fillLobby(ctx, lobby, username)
}

func (m *Matchmaker) openLobby(ctx context.Context, username string) (Result, error) {
	gameCode := newCode("game")
	player := model.Player{ID: uuid.NewString(), Username: username}

	game := model.NewGame(gameCode, m.config)
	if err := game.Join(player, newRNG()); err != nil {
		return Result{}, err
	}
	if err := m.games.Create(ctx, game); err != nil {
		return Result{}, err
	}

	lobby := Lobby{Code: newCode("lobby"), Status: StatusWaiting, GameCode: gameCode, CreatedAt: time.Now()}
	if err := m.lobbies.Create(ctx, lobby); err != nil {
		return Result{}, err
	}

	token, err := m.resumes.MintFor(ctx, gameCode, player.ID)
	if err != nil {
		return Result{}, err
	}

	return Result{Lobby: lobby, Game: game, Player: player, ResumeToken: token}, nil
}

func (m *Matchmaker) fillLobby(ctx context.Context, lobby Lobby, username string) (Result, error) {
	game, err := m.games.Get(ctx, lobby.GameCode)
	if err != nil {
		return Result{}, err
	}

	player := model.Player{ID: uuid.NewString(), Username: username}
	if err := game.Join(player, newRNG()); err != nil {
		return Result{}, err
	}

	token, err := m.resumes.MintFor(ctx, lobby.GameCode, player.ID)
	if err != nil {
		return Result{}, err
	}

	updated := lobby
	updated.Status = StatusFull
	if err := m.lobbies.CompareAndSwap(ctx, updated, lobby.Version); err != nil {
		return Result{}, err
	}

	m.bus.Publish(events.NewLobbyFull(lobby.GameCode, game.Status.String(), time.Now(), lobby.Code))

	return Result{Lobby: updated, Game: game, Player: player, ResumeToken: token}, nil
}

func newCode(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// newRNG seeds a fresh generator per auto-placement call from the
// auto-seeded, concurrency-safe package source (spec §5: "RNG ... may be
// per-request").
func newRNG() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
