package api

import (
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RegisterRoutes mounts every spec §6 HTTP route, plus the ambient-stack
// /ws upgrade endpoint, on e.
func RegisterRoutes(e *echo.Echo, h *Handler, wsHandler *WebSocketHandler, jwtSecret string, ratePerSecond int) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(requestRateLimiter(ratePerSecond))

	jwtConfig := echojwt.Config{SigningKey: []byte(jwtSecret)}

	public := e.Group("/api")
	public.POST("/lobbies/auto-join", h.AutoJoin)
	public.POST("/games/resume", h.Resume)

	authed := e.Group("/api/games", echojwt.WithConfig(jwtConfig), requirePlayerID)
	authed.POST("/:code/boards/:boardId/confirm", h.ConfirmBoard)
	authed.POST("/:code/boards/:boardId/reroll", h.RerollBoard)
	authed.POST("/:code/shots", h.FireShot)
	authed.POST("/:code/pause", h.Pause)
	authed.POST("/:code/forfeit", h.Forfeit)
	authed.GET("/:code/chat/messages", h.ChatMessages)
	authed.POST("/:code/chat/messages", h.PostChatMessage)

	e.GET("/ws", wsHandler.Serve)
}
