package middleware

import (
	"net/http"
	"strings"

	"melodist/config"
	"melodist/internal/auth"
	"melodist/internal/policy"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID   = "user_id"
	ctxEmail    = "email"
	ctxVerified = "email_verified"
	ctxAdmin    = "is_admin"
)

// Redirect hints returned with auth failures. The client decides whether to follow them.
const (
	LoginPath      = "/login"
	AdminLoginPath = "/admin/login"
	DashboardPath  = "/dashboard"
)

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthRequired validates the access token and sets user_id, email and email_verified in context.
// loginPath is echoed back as the redirect hint on 401.
func AuthRequired(cfg *config.JWTConfig, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header", "redirect": loginPath})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token", "redirect": loginPath})
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxVerified, claims.EmailVerified)
		c.Next()
	}
}

// GetUserID returns the authenticated user ID from context (must be used after AuthRequired).
func GetUserID(c *gin.Context) uint {
	v, _ := c.Get(ctxUserID)
	if v == nil {
		return 0
	}
	return v.(uint)
}

func GetEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

// Subject is the authenticated caller as the policy engine sees it.
func Subject(c *gin.Context) policy.Subject {
	return policy.Subject{ID: GetUserID(c), Email: GetEmail(c), EmailVerified: c.GetBool(ctxVerified)}
}

// IsAdmin reports whether AdminRequired admitted the request.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ctxAdmin)
}
