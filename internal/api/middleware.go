package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// sessionTokenTTL matches the teacher's identity.go issuance window.
const sessionTokenTTL = 24 * time.Hour

// mintSessionToken signs a session JWT carrying playerID as sub, the same
// shape the teacher's identity service issues.
func mintSessionToken(secret, playerID, username string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  playerID,
		"name": username,
		"exp":  time.Now().Add(sessionTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// requirePlayerID extracts the player id from the JWT echo-jwt already
// parsed and stashed under "user", mirroring the teacher's
// server.RequirePlayerID.
func requirePlayerID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := c.Get("user").(*jwt.Token)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing token")
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
		}
		id, ok := claims["sub"].(string)
		if !ok || id == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid player id in token")
		}
		c.Set("player_id", id)
		return next(c)
	}
}

// requestRateLimiter returns an echo middleware capping requests per second
// per client, per the teacher's RATE_LIMIT env var (wired there but never
// actually consumed — SPEC_FULL.md's ambient stack wires it here).
func requestRateLimiter(ratePerSecond int) echo.MiddlewareFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			mu.Lock()
			limiter, ok := limiters[ip]
			if !ok {
				limiter = rate.NewLimiter(rate.Limit(ratePerSecond), ratePerSecond)
				limiters[ip] = limiter
			}
			mu.Unlock()
			if !limiter.Allow() {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
