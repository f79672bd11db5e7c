package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/callegarimattia/battleship-core/internal/connection"
	"github.com/callegarimattia/battleship-core/internal/dto"
	"github.com/callegarimattia/battleship-core/internal/events"
	"github.com/callegarimattia/battleship-core/internal/lobby"
	"github.com/callegarimattia/battleship-core/internal/model"
	"github.com/callegarimattia/battleship-core/internal/resume"
	"github.com/callegarimattia/battleship-core/internal/service"
	"github.com/callegarimattia/battleship-core/internal/store"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "handlers-test-secret"

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	games := store.NewGameStore()
	lobbies := store.NewLobbyStore()
	resumeStore := store.NewResumeStore()
	connections := store.NewConnectionStore()
	bus := events.NewMemoryBus()

	registry := resume.NewRegistry(resumeStore)
	config := model.GameConfiguration{BoardWidth: 10, BoardHeight: 10, ShipMargin: 2, FleetDefinition: "1x2"}
	matchmaker := lobby.NewMatchmaker(lobbies, games, registry, bus, config)

	pause := func(ctx context.Context, gameCode, playerID string) ([]events.Event, error) {
		return games.WithLock(ctx, gameCode, func(g *model.Game) ([]events.Event, error) {
			return g.Pause(playerID, time.Now())
		})
	}
	status := func(ctx context.Context, gameCode string) (string, error) {
		g, err := games.Snapshot(ctx, gameCode)
		if err != nil {
			return "", err
		}
		return g.Status.String(), nil
	}
	tracker := connection.New(connections, bus, pause, status, time.Hour, nil)

	svc := service.New(games, matchmaker, registry, tracker, bus)
	return NewHandler(svc, testJWTSecret)
}

// request builds an echo.Context over a request with body marshaled to
// JSON, stashing sessionPlayerID under "player_id" as requirePlayerID
// would, and path params bound from params.
func request(method, path string, body any, sessionPlayerID string, params map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()

	var bodyReader *strings.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		bodyReader = strings.NewReader(string(b))
	} else {
		bodyReader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if sessionPlayerID != "" {
		c.Set("player_id", sessionPlayerID)
	}
	if len(params) > 0 {
		names := make([]string, 0, len(params))
		values := make([]string, 0, len(params))
		for k, v := range params {
			names = append(names, k)
			values = append(values, v)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}

	return c, rec
}

func httpErrorStatus(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected an *echo.HTTPError, got %T: %v", err, err)
	return he.Code
}

func TestHandler_AutoJoin(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)

	c, rec := request(http.MethodPost, "/api/lobbies/auto-join", map[string]string{"username": "Alice"}, "", nil)
	require.NoError(t, h.AutoJoin(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var lobbyDto dto.LobbyDto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lobbyDto))
	assert.NotEmpty(t, lobbyDto.PlayerID)
	assert.NotEmpty(t, lobbyDto.SessionToken)
	assert.NotEmpty(t, lobbyDto.ResumeToken)
}

func TestHandler_AutoJoin_RejectsEmptyUsername(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)

	c, _ := request(http.MethodPost, "/api/lobbies/auto-join", map[string]string{"username": ""}, "", nil)
	err := h.AutoJoin(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httpErrorStatus(t, err))
}

func TestHandler_AutoJoin_RejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/lobbies/auto-join", strings.NewReader("{not-json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.AutoJoin(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httpErrorStatus(t, err))
}

// joinTwoPlayers drives two auto-joins into the same game through the
// handler layer and returns their ids and the shared game code.
func joinTwoPlayers(t *testing.T, h *Handler) (gameCode, p1, p2 string) {
	t.Helper()

	c1, rec1 := request(http.MethodPost, "/api/lobbies/auto-join", map[string]string{"username": "Alice"}, "", nil)
	require.NoError(t, h.AutoJoin(c1))
	var l1 dto.LobbyDto
	require.NoError(t, json.Unmarshal(rec1.Body.Bytes(), &l1))

	c2, rec2 := request(http.MethodPost, "/api/lobbies/auto-join", map[string]string{"username": "Bob"}, "", nil)
	require.NoError(t, h.AutoJoin(c2))
	var l2 dto.LobbyDto
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &l2))

	require.Equal(t, l1.GameCode, l2.GameCode)
	return l1.GameCode, l1.PlayerID, l2.PlayerID
}

func TestHandler_ConfirmBoard_RejectsMismatchedSessionPlayer(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	gameCode, p1, _ := joinTwoPlayers(t, h)

	params := map[string]string{"code": gameCode, "boardId": p1}
	c, _ := request(http.MethodPost, "/api/games/"+gameCode+"/boards/"+p1+"/confirm", map[string]string{"playerId": p1}, "someone-else", params)

	err := h.ConfirmBoard(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, httpErrorStatus(t, err))
}

func TestHandler_ConfirmBoard_StartsGameOnceBothLocked(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	gameCode, p1, p2 := joinTwoPlayers(t, h)

	params1 := map[string]string{"code": gameCode, "boardId": p1}
	c1, rec1 := request(http.MethodPost, "/api/games/"+gameCode+"/boards/"+p1+"/confirm", map[string]string{"playerId": p1}, p1, params1)
	require.NoError(t, h.ConfirmBoard(c1))
	assert.Equal(t, http.StatusOK, rec1.Code)

	params2 := map[string]string{"code": gameCode, "boardId": p2}
	c2, rec2 := request(http.MethodPost, "/api/games/"+gameCode+"/boards/"+p2+"/confirm", map[string]string{"playerId": p2}, p2, params2)
	require.NoError(t, h.ConfirmBoard(c2))
	assert.Equal(t, http.StatusOK, rec2.Code)

	var game dto.GamePublicDto
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &game))
	assert.Equal(t, "RUNNING", game.Status)
	assert.NotEmpty(t, game.CurrentTurnPlayerID)
}

func TestHandler_FireShot_RejectsOutOfTurnShooter(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	gameCode, p1, p2 := joinTwoPlayers(t, h)

	for _, p := range []string{p1, p2} {
		params := map[string]string{"code": gameCode, "boardId": p}
		c, _ := request(http.MethodPost, "/api/games/"+gameCode+"/boards/"+p+"/confirm", map[string]string{"playerId": p}, p, params)
		require.NoError(t, h.ConfirmBoard(c))
	}

	// The first joiner (p1) starts; p2 firing first is out of turn.
	shotParams := map[string]string{"code": gameCode}
	c, _ := request(http.MethodPost, "/api/games/"+gameCode+"/shots", map[string]interface{}{"shooterId": p2, "x": 0, "y": 0}, p2, shotParams)
	err := h.FireShot(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httpErrorStatus(t, err))
}

func TestHandler_ChatMessages_RequiresSession(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	gameCode, _, _ := joinTwoPlayers(t, h)

	c, _ := request(http.MethodGet, "/api/games/"+gameCode+"/chat/messages", nil, "", map[string]string{"code": gameCode})
	err := h.ChatMessages(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, httpErrorStatus(t, err))
}

func TestHandler_PostChatMessage_AppearsInChatMessages(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	gameCode, p1, _ := joinTwoPlayers(t, h)

	params := map[string]string{"code": gameCode}
	c, rec := request(http.MethodPost, "/api/games/"+gameCode+"/chat/messages", map[string]string{"playerId": p1, "text": "gl hf"}, p1, params)
	require.NoError(t, h.PostChatMessage(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c2, rec2 := request(http.MethodGet, "/api/games/"+gameCode+"/chat/messages", nil, p1, params)
	require.NoError(t, h.ChatMessages(c2))

	var messages []dto.ChatMessageDto
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, "gl hf", messages[0].Text)
}
