// Package events implements the typed event publication contract of spec
// §4.I: one concrete Go type per event case instead of a heterogeneous
// payload map, fanned out to per-game topics.
package events

import "time"

// Type is the discriminant for an Event.
type Type string

// Event types and their mandatory payload keys, per spec §4.I.
const (
	TypeBoardConfirmed     Type = "BOARD_CONFIRMED"
	TypeBoardRerolled      Type = "BOARD_REROLLED"
	TypeGameStarted        Type = "GAME_STARTED"
	TypeShotFired          Type = "SHOT_FIRED"
	TypeTurnChanged        Type = "TURN_CHANGED"
	TypeGameFinished       Type = "GAME_FINISHED"
	TypeGamePaused         Type = "GAME_PAUSED"
	TypeGameResumed        Type = "GAME_RESUMED"
	TypeGameResumePending  Type = "GAME_RESUME_PENDING"
	TypeGameForfeited      Type = "GAME_FORFEITED"
	TypePlayerDisconnected Type = "PLAYER_DISCONNECTED"
	TypePlayerReconnected  Type = "PLAYER_RECONNECTED"
	TypeLobbyFull          Type = "LOBBY_FULL"
)

// Event is the common shape every published event satisfies. Concrete
// payloads are distinct Go types rather than a map[string]any, per spec §9's
// design note on replacing the source's dynamic payloads with a tagged
// variant; the JSON wire shape (one object per event, fields flattened) is
// unaffected by that choice.
type Event interface {
	EventType() Type
	Code() string
	GameStatus() string
	At() time.Time
}

// base is embedded by every concrete event to provide the common fields.
type base struct {
	Type       Type      `json:"type"`
	GameCode   string    `json:"gameCode"`
	GameStatus_ string   `json:"gameStatus"`
	Timestamp  time.Time `json:"timestamp"`
}

func (b base) EventType() Type         { return b.Type }
func (b base) Code() string            { return b.GameCode }
func (b base) GameStatus() string      { return b.GameStatus_ }
func (b base) At() time.Time           { return b.Timestamp }

func newBase(t Type, gameCode, status string, at time.Time) base {
	return base{Type: t, GameCode: gameCode, GameStatus_: status, Timestamp: at}
}

// BoardConfirmed corresponds to BOARD_CONFIRMED / BOARD_REROLLED.
type BoardConfirmed struct {
	base
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// NewBoardConfirmed builds a BOARD_CONFIRMED event.
func NewBoardConfirmed(gameCode, status string, at time.Time, playerID, playerName string) BoardConfirmed {
	return BoardConfirmed{base: newBase(TypeBoardConfirmed, gameCode, status, at), PlayerID: playerID, PlayerName: playerName}
}

// NewBoardRerolled builds a BOARD_REROLLED event.
func NewBoardRerolled(gameCode, status string, at time.Time, playerID, playerName string) BoardConfirmed {
	ev := NewBoardConfirmed(gameCode, status, at, playerID, playerName)
	ev.Type = TypeBoardRerolled
	return ev
}

// GameStarted corresponds to GAME_STARTED.
type GameStarted struct {
	base
	CurrentTurnPlayerID   string `json:"currentTurnPlayerId"`
	CurrentTurnPlayerName string `json:"currentTurnPlayerName"`
}

// NewGameStarted builds a GAME_STARTED event.
func NewGameStarted(gameCode, status string, at time.Time, turnID, turnName string) GameStarted {
	return GameStarted{
		base:                  newBase(TypeGameStarted, gameCode, status, at),
		CurrentTurnPlayerID:   turnID,
		CurrentTurnPlayerName: turnName,
	}
}

// ShotFired corresponds to SHOT_FIRED.
type ShotFired struct {
	base
	AttackerID          string `json:"attackerId"`
	AttackerName        string `json:"attackerName"`
	DefenderID          string `json:"defenderId"`
	DefenderName        string `json:"defenderName"`
	X                   int    `json:"x"`
	Y                   int    `json:"y"`
	Result              string `json:"result"`
	Hit                 bool   `json:"hit"`
	ShipSunk            bool   `json:"shipSunk"`
	CurrentTurnPlayerID string `json:"currentTurnPlayerId"`
}

// NewShotFired builds a SHOT_FIRED event.
func NewShotFired(gameCode, status string, at time.Time, p ShotFired) ShotFired {
	p.base = newBase(TypeShotFired, gameCode, status, at)
	return p
}

// TurnChanged corresponds to TURN_CHANGED.
type TurnChanged struct {
	base
	CurrentTurnPlayerID   string `json:"currentTurnPlayerId"`
	CurrentTurnPlayerName string `json:"currentTurnPlayerName"`
	LastShotResult        string `json:"lastShotResult"`
}

// NewTurnChanged builds a TURN_CHANGED event.
func NewTurnChanged(gameCode, status string, at time.Time, turnID, turnName, lastResult string) TurnChanged {
	return TurnChanged{
		base:                  newBase(TypeTurnChanged, gameCode, status, at),
		CurrentTurnPlayerID:   turnID,
		CurrentTurnPlayerName: turnName,
		LastShotResult:        lastResult,
	}
}

// GameFinished corresponds to GAME_FINISHED.
type GameFinished struct {
	base
	WinnerPlayerID   string `json:"winnerPlayerId"`
	WinnerPlayerName string `json:"winnerPlayerName"`
}

// NewGameFinished builds a GAME_FINISHED event.
func NewGameFinished(gameCode, status string, at time.Time, winnerID, winnerName string) GameFinished {
	return GameFinished{base: newBase(TypeGameFinished, gameCode, status, at), WinnerPlayerID: winnerID, WinnerPlayerName: winnerName}
}

// PlayerTriggered covers GAME_PAUSED / GAME_RESUMED / GAME_RESUME_PENDING /
// GAME_FORFEITED, each of which carries only the triggering playerId.
type PlayerTriggered struct {
	base
	PlayerID string `json:"playerId"`
}

func newPlayerTriggered(t Type, gameCode, status string, at time.Time, playerID string) PlayerTriggered {
	return PlayerTriggered{base: newBase(t, gameCode, status, at), PlayerID: playerID}
}

// NewGamePaused builds a GAME_PAUSED event.
func NewGamePaused(gameCode, status string, at time.Time, playerID string) PlayerTriggered {
	return newPlayerTriggered(TypeGamePaused, gameCode, status, at, playerID)
}

// NewGameResumed builds a GAME_RESUMED event.
func NewGameResumed(gameCode, status string, at time.Time, playerID string) PlayerTriggered {
	return newPlayerTriggered(TypeGameResumed, gameCode, status, at, playerID)
}

// NewGameResumePending builds a GAME_RESUME_PENDING event.
func NewGameResumePending(gameCode, status string, at time.Time, playerID string) PlayerTriggered {
	return newPlayerTriggered(TypeGameResumePending, gameCode, status, at, playerID)
}

// NewGameForfeited builds a GAME_FORFEITED event.
func NewGameForfeited(gameCode, status string, at time.Time, playerID string) PlayerTriggered {
	return newPlayerTriggered(TypeGameForfeited, gameCode, status, at, playerID)
}

// PlayerConnectionChanged covers PLAYER_DISCONNECTED / PLAYER_RECONNECTED.
type PlayerConnectionChanged struct {
	base
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// NewPlayerDisconnected builds a PLAYER_DISCONNECTED event.
func NewPlayerDisconnected(gameCode, status string, at time.Time, playerID, playerName string) PlayerConnectionChanged {
	return PlayerConnectionChanged{base: newBase(TypePlayerDisconnected, gameCode, status, at), PlayerID: playerID, PlayerName: playerName}
}

// NewPlayerReconnected builds a PLAYER_RECONNECTED event.
func NewPlayerReconnected(gameCode, status string, at time.Time, playerID, playerName string) PlayerConnectionChanged {
	ev := NewPlayerDisconnected(gameCode, status, at, playerID, playerName)
	ev.Type = TypePlayerReconnected
	return ev
}

// LobbyFull corresponds to LOBBY_FULL.
type LobbyFull struct {
	base
	LobbyCode string `json:"lobbyCode"`
}

// NewLobbyFull builds a LOBBY_FULL event. It has no meaningful game status
// yet (the game has just left WAITING), so callers pass the game's status
// string directly like every other constructor.
func NewLobbyFull(gameCode, status string, at time.Time, lobbyCode string) LobbyFull {
	return LobbyFull{base: newBase(TypeLobbyFull, gameCode, status, at), LobbyCode: lobbyCode}
}
