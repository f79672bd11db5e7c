// Package api contains the http handlers for spec §6's external interface.
package api

import (
	"errors"
	"net/http"

	"github.com/callegarimattia/battleship-core/internal/apierr"
	"github.com/callegarimattia/battleship-core/internal/dto"
	"github.com/callegarimattia/battleship-core/internal/model"
	"github.com/callegarimattia/battleship-core/internal/service"
	"github.com/labstack/echo/v4"
)

// errorPayload is the stable machine-readable body every failed request
// gets, per spec §7.
type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Handler holds the http handlers for the game API, wired over a single
// Service, mirroring the teacher's EchoHandler{ctrl *controller.AppController}
// shape.
type Handler struct {
	svc       *service.Service
	jwtSecret string
}

// NewHandler creates an api Handler.
func NewHandler(svc *service.Service, jwtSecret string) *Handler {
	return &Handler{svc: svc, jwtSecret: jwtSecret}
}

// httpError maps a domain error to its spec §7 status and payload.
func httpError(err error) error {
	kind, ok := apierr.KindOf(err)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, errorPayload{Code: "INTERNAL", Message: err.Error()})
	}
	return echo.NewHTTPError(kind.Status(), errorPayload{Code: kind.Code(), Message: err.Error()})
}

// AutoJoin handles POST /api/lobbies/auto-join.
func (h *Handler) AutoJoin(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON")
	}

	result, err := h.svc.AutoJoin(c.Request().Context(), req.Username)
	if err != nil {
		return httpError(err)
	}

	token, err := mintSessionToken(h.jwtSecret, result.Player.ID, result.Player.Username)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not mint session token")
	}

	return c.JSON(http.StatusOK, dto.NewLobbyDto(result, token))
}

// ConfirmBoard handles POST /api/games/{code}/boards/{boardId}/confirm.
func (h *Handler) ConfirmBoard(c echo.Context) error {
	code := c.Param("code")
	boardID := c.Param("boardId")

	var req struct {
		PlayerID string `json:"playerId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON")
	}
	if err := requireMatchingPlayer(c, req.PlayerID); err != nil {
		return err
	}

	game, err := h.svc.ConfirmBoard(c.Request().Context(), code, boardID, req.PlayerID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.NewGamePublicDto(game, req.PlayerID))
}

// RerollBoard handles POST /api/games/{code}/boards/{boardId}/reroll.
func (h *Handler) RerollBoard(c echo.Context) error {
	code := c.Param("code")
	boardID := c.Param("boardId")

	var req struct {
		PlayerID string `json:"playerId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON")
	}
	if err := requireMatchingPlayer(c, req.PlayerID); err != nil {
		return err
	}

	game, err := h.svc.RerollBoard(c.Request().Context(), code, boardID, req.PlayerID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.NewBoardStateDto(game, req.PlayerID))
}

// FireShot handles POST /api/games/{code}/shots.
func (h *Handler) FireShot(c echo.Context) error {
	code := c.Param("code")

	var req struct {
		ShooterID string `json:"shooterId"`
		X         int    `json:"x"`
		Y         int    `json:"y"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON")
	}
	if err := requireMatchingPlayer(c, req.ShooterID); err != nil {
		return err
	}

	result, game, err := h.svc.FireShot(c.Request().Context(), code, req.ShooterID, req.X, req.Y)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.NewShotResultDto(game, req.X, req.Y, result))
}

// Pause handles POST /api/games/{code}/pause.
func (h *Handler) Pause(c echo.Context) error {
	code := c.Param("code")

	var req struct {
		PlayerID string `json:"playerId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON")
	}
	if err := requireMatchingPlayer(c, req.PlayerID); err != nil {
		return err
	}

	game, err := h.svc.Pause(c.Request().Context(), code, req.PlayerID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.NewGamePublicDto(game, req.PlayerID))
}

// Forfeit handles POST /api/games/{code}/forfeit.
func (h *Handler) Forfeit(c echo.Context) error {
	code := c.Param("code")

	var req struct {
		PlayerID string `json:"playerId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON")
	}
	if err := requireMatchingPlayer(c, req.PlayerID); err != nil {
		return err
	}

	game, err := h.svc.Forfeit(c.Request().Context(), code, req.PlayerID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.NewGamePublicDto(game, req.PlayerID))
}

// Resume handles POST /api/games/resume. Deliberately outside the JWT-
// required route group: the resume token itself is the credential (spec
// §4.F/§4.H), so a client that lost its session JWT can still recover.
func (h *Handler) Resume(c echo.Context) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON")
	}

	result, err := h.svc.RequestResume(c.Request().Context(), req.Token)
	if err != nil {
		return httpError(err)
	}

	player, _ := result.Game.PlayerByID(result.PlayerID)
	token, err := mintSessionToken(h.jwtSecret, player.ID, player.Username)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not mint session token")
	}

	return c.JSON(http.StatusOK, dto.GameResumeResponseDto{
		HandshakeComplete: result.HandshakeComplete,
		SessionToken:      token,
		Game:              dto.NewGamePublicDto(result.Game, result.PlayerID),
	})
}

// ChatMessages handles GET /api/games/{code}/chat/messages.
func (h *Handler) ChatMessages(c echo.Context) error {
	code := c.Param("code")
	sessionPlayerID, _ := c.Get("player_id").(string)
	if sessionPlayerID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}

	messages, err := h.svc.ChatMessages(c.Request().Context(), code)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.NewChatMessageDtos(messages))
}

// PostChatMessage is a supplemented endpoint (SPEC_FULL.md §4) for sending a
// chat message; GET-only chat was the distilled spec's sole chat operation.
func (h *Handler) PostChatMessage(c echo.Context) error {
	code := c.Param("code")

	var req struct {
		PlayerID string `json:"playerId"`
		Text     string `json:"text"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON")
	}
	if err := requireMatchingPlayer(c, req.PlayerID); err != nil {
		return err
	}

	msg, err := h.svc.PostChatMessage(c.Request().Context(), code, req.PlayerID, req.Text)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.NewChatMessageDtos([]model.ChatMessage{msg}))
}

// requireMatchingPlayer fails with Forbidden unless the JWT's player id
// matches bodyPlayerID, per SPEC_FULL.md's auth cross-check.
func requireMatchingPlayer(c echo.Context, bodyPlayerID string) error {
	sessionPlayerID, _ := c.Get("player_id").(string)
	if sessionPlayerID == "" || sessionPlayerID != bodyPlayerID {
		return httpError(apierr.New(apierr.KindForbidden, errors.New("session does not match acting player")))
	}
	return nil
}
