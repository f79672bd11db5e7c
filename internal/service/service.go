// Package service orchestrates the model, lobby, resume, connection, and
// event packages into the use-cases the HTTP boundary calls, grounded on the
// teacher's service/gameplay.go lock-mutate-persist-publish shape:
// acquire the game's lock, mutate, let persistence happen as a side effect
// of mutating the stored pointer, then publish only after the lock is
// released.
package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/callegarimattia/battleship-core/internal/apierr"
	"github.com/callegarimattia/battleship-core/internal/connection"
	"github.com/callegarimattia/battleship-core/internal/events"
	"github.com/callegarimattia/battleship-core/internal/lobby"
	"github.com/callegarimattia/battleship-core/internal/model"
	"github.com/callegarimattia/battleship-core/internal/resume"
	"github.com/callegarimattia/battleship-core/internal/store"
)

func newRNG() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// ErrBoardNotFound is returned when a boardId in a request doesn't belong to
// the acting player in that game — the only board a player may act on is
// their own.
var ErrBoardNotFound = errors.New("board does not belong to the acting player")

// Service is the single orchestration point the API layer talks to.
type Service struct {
	games      *store.GameStore
	matchmaker *lobby.Matchmaker
	resumes    *resume.Registry
	tracker    *connection.Tracker
	bus        events.Bus
}

// New wires a Service over its dependencies.
func New(games *store.GameStore, matchmaker *lobby.Matchmaker, resumes *resume.Registry, tracker *connection.Tracker, bus events.Bus) *Service {
	return &Service{games: games, matchmaker: matchmaker, resumes: resumes, tracker: tracker, bus: bus}
}

// AutoJoin pairs username into a game via the matchmaker (spec §4.E).
func (s *Service) AutoJoin(ctx context.Context, username string) (lobby.Result, error) {
	return s.matchmaker.AutoJoin(ctx, username)
}

// ConfirmBoard locks playerID's board, returning the resulting game state.
func (s *Service) ConfirmBoard(ctx context.Context, gameCode, boardID, playerID string) (*model.Game, error) {
	if boardID != playerID {
		return nil, apierr.New(apierr.KindForbidden, ErrBoardNotFound)
	}

	evs, err := s.games.WithLock(ctx, gameCode, func(g *model.Game) ([]events.Event, error) {
		return g.ConfirmBoard(playerID, time.Now())
	})
	if err != nil {
		return nil, err
	}
	s.publish(evs)

	return s.games.Snapshot(ctx, gameCode)
}

// RerollBoard clears and re-auto-places playerID's board.
func (s *Service) RerollBoard(ctx context.Context, gameCode, boardID, playerID string) (*model.Game, error) {
	if boardID != playerID {
		return nil, apierr.New(apierr.KindForbidden, ErrBoardNotFound)
	}

	evs, err := s.games.WithLock(ctx, gameCode, func(g *model.Game) ([]events.Event, error) {
		return g.RerollBoard(playerID, newRNG(), time.Now())
	})
	if err != nil {
		return nil, err
	}
	s.publish(evs)

	return s.games.Snapshot(ctx, gameCode)
}

// FireShot resolves a shot, returning its result and the post-shot game.
func (s *Service) FireShot(ctx context.Context, gameCode, shooterID string, x, y int) (model.ShotResult, *model.Game, error) {
	var result model.ShotResult

	evs, err := s.games.WithLock(ctx, gameCode, func(g *model.Game) ([]events.Event, error) {
		r, es, ferr := g.FireShot(shooterID, model.Coordinate{X: x, Y: y}, time.Now())
		result = r
		return es, ferr
	})
	if err != nil {
		return 0, nil, err
	}
	s.publish(evs)

	game, err := s.games.Snapshot(ctx, gameCode)
	return result, game, err
}

// Pause moves a RUNNING game to PAUSED at playerID's explicit request.
func (s *Service) Pause(ctx context.Context, gameCode, playerID string) (*model.Game, error) {
	evs, err := s.games.WithLock(ctx, gameCode, func(g *model.Game) ([]events.Event, error) {
		return g.Pause(playerID, time.Now())
	})
	if err != nil {
		return nil, err
	}
	s.publish(evs)

	return s.games.Snapshot(ctx, gameCode)
}

// Forfeit ends the game immediately in the opponent's favor.
func (s *Service) Forfeit(ctx context.Context, gameCode, playerID string) (*model.Game, error) {
	evs, err := s.games.WithLock(ctx, gameCode, func(g *model.Game) ([]events.Event, error) {
		return g.Forfeit(playerID, time.Now())
	})
	if err != nil {
		return nil, err
	}
	s.publish(evs)

	return s.games.Snapshot(ctx, gameCode)
}

// ResumeResult is what RequestResume hands back to the HTTP boundary.
type ResumeResult struct {
	Game              *model.Game
	PlayerID          string
	HandshakeComplete bool
}

// RequestResume resolves a resume token and drives the two-phase handshake
// of spec §4.H.
func (s *Service) RequestResume(ctx context.Context, token string) (ResumeResult, error) {
	tok, err := s.resumes.Resolve(ctx, token)
	if err != nil {
		return ResumeResult{}, err
	}

	var complete bool
	evs, err := s.games.WithLock(ctx, tok.GameCode, func(g *model.Game) ([]events.Event, error) {
		bothConnected, cerr := s.bothConnected(ctx, tok.GameCode, g, tok.PlayerID)
		if cerr != nil {
			return nil, cerr
		}
		done, es, rerr := g.RequestResume(tok.PlayerID, bothConnected, time.Now())
		complete = done
		return es, rerr
	})
	if err != nil {
		return ResumeResult{}, err
	}
	s.publish(evs)

	game, err := s.games.Snapshot(ctx, tok.GameCode)
	if err != nil {
		return ResumeResult{}, err
	}
	return ResumeResult{Game: game, PlayerID: tok.PlayerID, HandshakeComplete: complete}, nil
}

func (s *Service) bothConnected(ctx context.Context, gameCode string, g *model.Game, playerID string) (bool, error) {
	opponent, ok := g.Opponent(playerID)
	if !ok {
		return false, nil
	}

	selfConnected, err := s.tracker.IsConnected(ctx, gameCode, playerID)
	if err != nil {
		return false, err
	}
	opponentConnected, err := s.tracker.IsConnected(ctx, gameCode, opponent.ID)
	if err != nil {
		return false, err
	}
	return selfConnected && opponentConnected, nil
}

// PostChatMessage appends a chat message to the game.
func (s *Service) PostChatMessage(ctx context.Context, gameCode, senderID, text string) (model.ChatMessage, error) {
	var msg model.ChatMessage
	_, err := s.games.WithLock(ctx, gameCode, func(g *model.Game) ([]events.Event, error) {
		m, merr := g.AddMessage(senderID, text, time.Now())
		msg = m
		return nil, merr
	})
	return msg, err
}

// ChatMessages returns the full chat log for a game.
func (s *Service) ChatMessages(ctx context.Context, gameCode string) ([]model.ChatMessage, error) {
	game, err := s.games.Snapshot(ctx, gameCode)
	if err != nil {
		return nil, err
	}
	return game.Messages, nil
}

// OpenSession records a transport session starting (spec §4.G).
func (s *Service) OpenSession(ctx context.Context, gameCode, playerID, playerName, sessionID string) error {
	return s.tracker.Open(ctx, gameCode, playerID, playerName, sessionID)
}

// CloseSession records a transport session ending and schedules the grace
// check.
func (s *Service) CloseSession(ctx context.Context, sessionID string) error {
	return s.tracker.Close(ctx, sessionID)
}

func (s *Service) publish(evs []events.Event) {
	for _, e := range evs {
		s.bus.Publish(e)
	}
}
