package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"melodist/config"
	"melodist/internal/auth"
	"melodist/internal/policy"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var pingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// UpgradeAdmin serves the admin live feed. The token comes from the query string since
// browsers cannot set headers on websocket requests.
func UpgradeAdmin(cfg *config.JWTConfig, engine *policy.Engine, hub *Hub, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required", "redirect": "/admin/login"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "redirect": "/admin/login"})
			return
		}
		subject := policy.Subject{ID: claims.UserID, Email: claims.Email, EmailVerified: claims.EmailVerified}
		isAdmin, err := engine.IsAdmin(c.Request.Context(), subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authorization failed"})
			return
		}
		if !isAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required", "redirect": "/dashboard"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		client := NewClient(claims.UserID, claims.Email, claims.EmailVerified)
		if claims.ExpiresAt != nil {
			client.Expires = claims.ExpiresAt.Time
		}
		hub.Register(client)
		defer client.Close()
		logger.Info("admin feed connected", slog.Uint64("user_id", uint64(claims.UserID)))

		go writePump(client, conn)
		readPump(conn)
		logger.Info("admin feed disconnected", slog.Uint64("user_id", uint64(claims.UserID)))
	}
}

// RevokeFeeds re-checks every open feed against the current allow-list and closes
// those that no longer pass.
func RevokeFeeds(ctx context.Context, hub *Hub, engine *policy.Engine, logger *slog.Logger) []uint {
	revoked := hub.Revalidate(func(c *Client) bool {
		ok, err := engine.IsAdmin(ctx, policy.Subject{ID: c.UserID, Email: c.Email, EmailVerified: c.EmailVerified})
		if err != nil {
			logger.Warn("admin feed re-check failed", slog.Uint64("user_id", uint64(c.UserID)), slog.Any("error", err))
			return false
		}
		return ok
	})
	for _, id := range revoked {
		logger.Info("admin feed revoked", slog.Uint64("user_id", uint64(id)))
	}
	return revoked
}

// writePump copies messages from client.Send to the connection. It closes the
// connection on exit so that readPump returns too.
func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer conn.Close()
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case now := <-ticker.C:
			if c.expired(now) {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "token expired"))
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames until the connection closes.
func readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
