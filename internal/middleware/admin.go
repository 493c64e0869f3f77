package middleware

import (
	"log/slog"
	"net/http"

	"melodist/internal/policy"

	"github.com/gin-gonic/gin"
)

// AdminRequired asks the policy engine on every request, so removing an email from the
// allow-list takes effect without waiting for token expiry. Use after AuthRequired.
func AdminRequired(engine *policy.Engine, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "redirect": AdminLoginPath})
			return
		}
		ok, err := engine.IsAdmin(c.Request.Context(), Subject(c))
		if err != nil {
			logger.Error("admin policy evaluation failed", slog.Any("error", err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authorization failed"})
			return
		}
		if !ok {
			logger.Warn("admin access refused",
				slog.Uint64("user_id", uint64(GetUserID(c))),
				slog.Bool("email_verified", c.GetBool(ctxVerified)),
				slog.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required", "redirect": DashboardPath})
			return
		}
		c.Set(ctxAdmin, true)
		c.Next()
	}
}
