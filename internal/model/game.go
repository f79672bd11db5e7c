package model

import (
	"math/rand/v2"
	"time"

	"github.com/callegarimattia/battleship-core/internal/events"
)

// GameConfiguration is the per-game board/fleet configuration (spec §3).
type GameConfiguration struct {
	BoardWidth      int
	BoardHeight     int
	ShipMargin      int // accepted, never consulted — see DESIGN.md Open Question 1
	FleetDefinition string
}

// DefaultConfiguration is the spec §3 default: 10x10, margin 2, two
// destroyers, two cruisers, one battleship, one carrier.
func DefaultConfiguration() GameConfiguration {
	return GameConfiguration{
		BoardWidth:      10,
		BoardHeight:     10,
		ShipMargin:      2,
		FleetDefinition: DefaultFleetDefinition,
	}
}

// Player is a game participant.
type Player struct {
	ID       string
	Username string
}

// Game is the aggregate root enforcing spec §4.D's state machine.
type Game struct {
	Code   string
	Status Status
	Config GameConfiguration

	Players []Player
	boards  map[string]*Board
	Shots   []Shot
	Messages []ChatMessage

	CurrentTurnPlayerID string
	ResumeReadyPlayerID string
	WinnerPlayerID       string
}

// NewGame creates a game in WAITING with no players yet.
func NewGame(code string, config GameConfiguration) *Game {
	return &Game{
		Code:   code,
		Status: StatusWaiting,
		Config: config,
		boards: make(map[string]*Board),
	}
}

// PlayerByID returns the player with the given id, if part of the game.
func (g *Game) PlayerByID(id string) (Player, bool) {
	for _, p := range g.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// Opponent returns the other player in the game, if any.
func (g *Game) Opponent(playerID string) (Player, bool) {
	for _, p := range g.Players {
		if p.ID != playerID {
			return p, true
		}
	}
	return Player{}, false
}

// BoardFor returns playerID's own board.
func (g *Game) BoardFor(playerID string) (*Board, bool) {
	b, ok := g.boards[playerID]
	return b, ok
}

// ShotsAgainst returns the shot history scoped to the board owned by
// playerID, in the order they were fired.
func (g *Game) ShotsAgainst(playerID string) []Shot {
	var out []Shot
	for _, s := range g.Shots {
		if s.TargetBoard == playerID {
			out = append(out, s)
		}
	}
	return out
}

// Join adds a player to the game. The second join fills the fleet (auto
// placement on both boards) and transitions WAITING → SETUP, per spec §4.D.
func (g *Game) Join(player Player, rng *rand.Rand) error {
	if g.Status != StatusWaiting {
		return illegalState(ErrGameFull)
	}
	if len(g.Players) >= 2 {
		return illegalState(ErrGameFull)
	}

	g.Players = append(g.Players, player)
	g.boards[player.ID] = NewBoard(player.ID, g.Config.BoardWidth, g.Config.BoardHeight)

	if len(g.Players) != 2 {
		return nil
	}

	fleet, err := ParseFleet(g.Config.FleetDefinition, g.Config.BoardWidth, g.Config.BoardHeight)
	if err != nil {
		return err
	}
	for _, p := range g.Players {
		if err := g.boards[p.ID].AutoPlace(fleet, rng); err != nil {
			return err
		}
	}
	g.Status = StatusSetup
	return nil
}

// ConfirmBoard locks playerID's auto-placed board. When both boards are
// locked, the game advances READY → RUNNING in the same call (spec's "auto"
// transition), picking the first joiner as the starting player — see
// DESIGN.md Open Question 2.
func (g *Game) ConfirmBoard(playerID string, now time.Time) ([]events.Event, error) {
	if g.Status != StatusSetup {
		return nil, illegalState(ErrNotInSetup)
	}

	player, ok := g.PlayerByID(playerID)
	if !ok {
		return nil, forbidden(ErrUnknownPlayer)
	}

	board := g.boards[playerID]
	if board.Locked() {
		return nil, illegalState(ErrBoardLocked)
	}
	board.Lock()

	out := []events.Event{events.NewBoardConfirmed(g.Code, g.Status.String(), now, player.ID, player.Username)}

	if g.allBoardsLocked() {
		g.Status = StatusReady
		g.CurrentTurnPlayerID = g.Players[0].ID // first joiner starts
		g.Status = StatusRunning

		starter, _ := g.PlayerByID(g.CurrentTurnPlayerID)
		out = append(out, events.NewGameStarted(g.Code, g.Status.String(), now, starter.ID, starter.Username))
	}

	return out, nil
}

// RerollBoard clears and re-auto-places playerID's board while still
// unlocked.
func (g *Game) RerollBoard(playerID string, rng *rand.Rand, now time.Time) ([]events.Event, error) {
	if g.Status != StatusSetup {
		return nil, illegalState(ErrNotInSetup)
	}

	player, ok := g.PlayerByID(playerID)
	if !ok {
		return nil, forbidden(ErrUnknownPlayer)
	}

	board := g.boards[playerID]
	if board.Locked() {
		return nil, illegalState(ErrBoardLocked)
	}

	if err := board.Clear(); err != nil {
		return nil, err
	}
	fleet, err := ParseFleet(g.Config.FleetDefinition, g.Config.BoardWidth, g.Config.BoardHeight)
	if err != nil {
		return nil, err
	}
	if err := board.AutoPlace(fleet, rng); err != nil {
		return nil, err
	}

	return []events.Event{events.NewBoardRerolled(g.Code, g.Status.String(), now, player.ID, player.Username)}, nil
}

// FireShot resolves a shot from shooterID at c against the opponent's board,
// enforcing turn ownership. Turn flips only on MISS (spec §3/§8 invariant 4);
// a win is declared the instant every opponent placement is covered.
func (g *Game) FireShot(shooterID string, c Coordinate, now time.Time) (ShotResult, []events.Event, error) {
	if g.Status != StatusRunning {
		return 0, nil, illegalState(ErrNotInPlay)
	}

	shooter, ok := g.PlayerByID(shooterID)
	if !ok {
		return 0, nil, forbidden(ErrUnknownPlayer)
	}
	if g.CurrentTurnPlayerID != shooterID {
		return 0, nil, outOfTurn(ErrNotYourTurn)
	}

	defender, _ := g.Opponent(shooterID)
	board := g.boards[defender.ID]
	if !board.inBounds(c) {
		return 0, nil, badRequest(ErrShotOutOfBounds)
	}

	history := g.ShotsAgainst(defender.ID)
	result := ResolveShot(board, history, c)

	if result != ResultAlreadyShot {
		g.Shots = append(g.Shots, Shot{
			Coordinate:  c,
			Result:      result,
			Shooter:     shooterID,
			TargetBoard: defender.ID,
			At:          now,
		})
	}

	out := []events.Event{events.NewShotFired(g.Code, g.Status.String(), now, events.ShotFired{
		AttackerID:          shooter.ID,
		AttackerName:        shooter.Username,
		DefenderID:          defender.ID,
		DefenderName:        defender.Username,
		X:                   c.X,
		Y:                   c.Y,
		Result:              result.String(),
		Hit:                 result == ResultHit || result == ResultSunk,
		ShipSunk:            result == ResultSunk,
		CurrentTurnPlayerID: g.CurrentTurnPlayerID,
	})}

	switch result {
	case ResultMiss:
		g.CurrentTurnPlayerID = defender.ID
		out = append(out, events.NewTurnChanged(g.Code, g.Status.String(), now, defender.ID, defender.Username, result.String()))
	case ResultSunk:
		if AllSunk(board, g.ShotsAgainst(defender.ID)) {
			g.Status = StatusFinished
			g.WinnerPlayerID = shooter.ID
			out = append(out, events.NewGameFinished(g.Code, g.Status.String(), now, shooter.ID, shooter.Username))
		}
	}

	return result, out, nil
}

// Pause moves a RUNNING game to PAUSED, clearing any half-completed resume
// handshake. playerID is whoever (or whatever) triggered it — an explicit
// pause request or the connection tracker's grace-period timeout.
func (g *Game) Pause(playerID string, now time.Time) ([]events.Event, error) {
	if g.Status != StatusRunning {
		return nil, illegalState(ErrNotInPlay)
	}
	if _, ok := g.PlayerByID(playerID); !ok {
		return nil, forbidden(ErrUnknownPlayer)
	}

	g.Status = StatusPaused
	g.ResumeReadyPlayerID = ""

	return []events.Event{events.NewGamePaused(g.Code, g.Status.String(), now, playerID)}, nil
}

// RequestResume implements the two-phase handshake of spec §4.H.
func (g *Game) RequestResume(playerID string, bothConnected bool, now time.Time) (handshakeComplete bool, out []events.Event, err error) {
	if _, ok := g.PlayerByID(playerID); !ok {
		return false, nil, forbidden(ErrUnknownPlayer)
	}

	if g.Status == StatusWaiting {
		return false, nil, nil // idempotent: refresh during setup
	}
	if g.Status != StatusPaused {
		return false, nil, illegalState(ErrResumeRejected)
	}

	if g.ResumeReadyPlayerID == "" {
		g.ResumeReadyPlayerID = playerID
		return false, []events.Event{events.NewGameResumePending(g.Code, g.Status.String(), now, playerID)}, nil
	}

	if g.ResumeReadyPlayerID == playerID {
		return false, nil, nil // same player re-requesting before the partner responds
	}

	if !bothConnected {
		return false, nil, illegalState(ErrResumeRejected)
	}

	g.ResumeReadyPlayerID = ""
	g.Status = StatusRunning

	return true, []events.Event{events.NewGameResumed(g.Code, g.Status.String(), now, playerID)}, nil
}

// Forfeit ends the game immediately in the opponent's favor.
func (g *Game) Forfeit(playerID string, now time.Time) ([]events.Event, error) {
	player, ok := g.PlayerByID(playerID)
	if !ok {
		return nil, forbidden(ErrUnknownPlayer)
	}
	if g.Status == StatusFinished {
		return nil, illegalState(ErrNotInPlay)
	}

	opponent, hasOpponent := g.Opponent(playerID)
	if !hasOpponent {
		return nil, illegalState(ErrNotInPlay)
	}

	g.Status = StatusFinished
	g.WinnerPlayerID = opponent.ID

	return []events.Event{
		events.NewGameForfeited(g.Code, g.Status.String(), now, player.ID),
		events.NewGameFinished(g.Code, g.Status.String(), now, opponent.ID, opponent.Username),
	}, nil
}

func (g *Game) allBoardsLocked() bool {
	if len(g.Players) != 2 {
		return false
	}
	for _, p := range g.Players {
		if !g.boards[p.ID].Locked() {
			return false
		}
	}
	return true
}
