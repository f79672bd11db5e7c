// Package dto contains the wire shapes for spec §6's HTTP responses,
// grounded on the teacher's dto.go BoardView/CellState fog-of-war shape.
package dto

import (
	"time"

	"github.com/callegarimattia/battleship-core/internal/lobby"
	"github.com/callegarimattia/battleship-core/internal/model"
)

// CellState describes what a single coordinate looks like to a given
// observer.
type CellState string

// Possible CellState values. CellShip only ever appears on the owner's own
// board — an opponent's board never reveals unhit ship cells.
const (
	CellEmpty   CellState = "EMPTY"
	CellShip    CellState = "SHIP"
	CellHit     CellState = "HIT"
	CellMiss    CellState = "MISS"
	CellSunk    CellState = "SUNK"
	CellUnknown CellState = "UNKNOWN"
)

// BoardDto is a fog-of-war-appropriate snapshot of one board, as seen by a
// specific observer (owner or opponent).
type BoardDto struct {
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Locked bool        `json:"locked"`
	Grid   []CellState `json:"grid"` // row-major, length width*height
}

// LobbyDto is the response body of POST /api/lobbies/auto-join. SessionToken
// is the bearer JWT the client must send on every subsequent request; it is
// an ambient-stack addition, not part of §4.E's domain result.
type LobbyDto struct {
	LobbyCode    string `json:"lobbyCode"`
	Status       string `json:"status"`
	GameCode     string `json:"gameCode"`
	PlayerID     string `json:"playerId"`
	ResumeToken  string `json:"resumeToken"`
	SessionToken string `json:"sessionToken"`
}

// NewLobbyDto builds a LobbyDto from a matchmaker result and its minted
// session token.
func NewLobbyDto(r lobby.Result, sessionToken string) LobbyDto {
	return LobbyDto{
		LobbyCode:    r.Lobby.Code,
		Status:       r.Lobby.Status,
		GameCode:     r.Lobby.GameCode,
		PlayerID:     r.Player.ID,
		ResumeToken:  r.ResumeToken,
		SessionToken: sessionToken,
	}
}

// GamePublicDto is the per-player snapshot spec §4.H/§6 requires: own board
// with placements, opponent identity only, turn/lock flags, and each side's
// shot history — never the opponent's unhit placements.
type GamePublicDto struct {
	GameCode            string        `json:"gameCode"`
	Status              string        `json:"status"`
	YourPlayerID        string        `json:"yourPlayerId"`
	OpponentID          string        `json:"opponentId,omitempty"`
	OpponentName        string        `json:"opponentName,omitempty"`
	CurrentTurnPlayerID string        `json:"currentTurnPlayerId,omitempty"`
	YourTurn            bool          `json:"yourTurn"`
	WinnerPlayerID      string        `json:"winnerPlayerId,omitempty"`
	YourBoard           BoardDto      `json:"yourBoard"`
	OpponentBoardLocked bool          `json:"opponentBoardLocked"`
	ShotsAgainstYou     []ShotDto     `json:"shotsAgainstYou"`
	YourShots           []ShotDto     `json:"yourShots"`
}

// ShotDto is one entry of a shot history.
type ShotDto struct {
	X      int       `json:"x"`
	Y      int       `json:"y"`
	Result string    `json:"result"`
	At     time.Time `json:"at"`
}

// NewGamePublicDto builds the snapshot for viewerID. It never touches the
// opponent's unhit ship placements.
func NewGamePublicDto(g *model.Game, viewerID string) GamePublicDto {
	out := GamePublicDto{
		GameCode:            g.Code,
		Status:              g.Status.String(),
		YourPlayerID:        viewerID,
		CurrentTurnPlayerID: g.CurrentTurnPlayerID,
		YourTurn:            g.CurrentTurnPlayerID == viewerID,
		WinnerPlayerID:      g.WinnerPlayerID,
	}

	if board, ok := g.BoardFor(viewerID); ok {
		out.YourBoard = ownBoardView(g, board, viewerID)
	}

	if opponent, ok := g.Opponent(viewerID); ok {
		out.OpponentID = opponent.ID
		out.OpponentName = opponent.Username
		if oppBoard, ok := g.BoardFor(opponent.ID); ok {
			out.OpponentBoardLocked = oppBoard.Locked()
		}
	}

	out.ShotsAgainstYou = shotDtos(g.ShotsAgainst(viewerID))
	if opponent, ok := g.Opponent(viewerID); ok {
		out.YourShots = shotDtos(g.ShotsAgainst(opponent.ID))
	}

	return out
}

// ownBoardView renders board from its owner's perspective: every placed
// ship cell is visible, overlaid with HIT/SUNK where shots landed.
func ownBoardView(g *model.Game, board *model.Board, ownerID string) BoardDto {
	shotAt := make(map[model.Coordinate]model.ShotResult)
	for _, s := range g.ShotsAgainst(ownerID) {
		shotAt[s.Coordinate] = s.Result
	}

	grid := make([]CellState, 0, board.Width*board.Height)
	for c := range board.Cells() {
		cell := CellEmpty
		if _, placed := board.PlacementAt(c); placed {
			cell = CellShip
		}
		switch shotAt[c] {
		case model.ResultHit:
			cell = CellHit
		case model.ResultSunk:
			cell = CellSunk
		case model.ResultMiss:
			cell = CellMiss
		}
		grid = append(grid, cell)
	}

	return BoardDto{Width: board.Width, Height: board.Height, Locked: board.Locked(), Grid: grid}
}

// BoardStateDto is the response of the reroll endpoint: just the rerolled
// board, from its owner's point of view.
type BoardStateDto struct {
	Board BoardDto `json:"board"`
}

// NewBoardStateDto builds a BoardStateDto for ownerID's own board.
func NewBoardStateDto(g *model.Game, ownerID string) BoardStateDto {
	board, ok := g.BoardFor(ownerID)
	if !ok {
		return BoardStateDto{}
	}
	return BoardStateDto{Board: ownBoardView(g, board, ownerID)}
}

// ShotResultDto is the response of POST /api/games/{code}/shots.
type ShotResultDto struct {
	Result              string `json:"result"`
	X                   int    `json:"x"`
	Y                   int    `json:"y"`
	CurrentTurnPlayerID string `json:"currentTurnPlayerId"`
	WinnerPlayerID      string `json:"winnerPlayerId,omitempty"`
}

// NewShotResultDto builds the response for a resolved shot.
func NewShotResultDto(g *model.Game, x, y int, result model.ShotResult) ShotResultDto {
	return ShotResultDto{
		Result:              result.String(),
		X:                   x,
		Y:                   y,
		CurrentTurnPlayerID: g.CurrentTurnPlayerID,
		WinnerPlayerID:      g.WinnerPlayerID,
	}
}

// GameResumeResponseDto is the response of POST /api/games/resume. A resume
// mints a fresh session token since the caller's original one may be long
// gone after a browser refresh.
type GameResumeResponseDto struct {
	HandshakeComplete bool          `json:"handshakeComplete"`
	SessionToken      string        `json:"sessionToken"`
	Game              GamePublicDto `json:"game"`
}

// ChatMessageDto is one entry of GET /api/games/{code}/chat/messages.
type ChatMessageDto struct {
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Text       string    `json:"text"`
	At         time.Time `json:"at"`
}

// NewChatMessageDtos converts a game's chat log to its wire shape.
func NewChatMessageDtos(messages []model.ChatMessage) []ChatMessageDto {
	out := make([]ChatMessageDto, 0, len(messages))
	for _, m := range messages {
		out = append(out, ChatMessageDto{SenderID: m.SenderID, SenderName: m.SenderName, Text: m.Text, At: m.At})
	}
	return out
}

func shotDtos(shots []model.Shot) []ShotDto {
	out := make([]ShotDto, 0, len(shots))
	for _, s := range shots {
		out = append(out, ShotDto{X: s.Coordinate.X, Y: s.Coordinate.Y, Result: s.Result.String(), At: s.At})
	}
	return out
}
