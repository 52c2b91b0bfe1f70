package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"petmarket/internal/auth"
	"petmarket/internal/models"
	"petmarket/internal/service"
	"petmarket/internal/util"

	"github.com/gin-gonic/gin"
)

const userContextKey = "user"

// AuthMiddleware verifies bearer tokens and loads the account behind them
type AuthMiddleware struct {
	tokens *auth.Manager
	users  service.UserStore
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokens *auth.Manager, users service.UserStore) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// RequireAuth rejects requests without a valid session token and places the
// authenticated user in the request context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Missing or malformed Authorization header",
			})
			return
		}

		claims, err := m.tokens.VerifySession(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Token invalid or expired, please log in again",
			})
			return
		}

		user, err := m.users.GetUserByID(c.Request.Context(), claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Token invalid or expired, please log in again",
			})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireAdmin rejects authenticated requests from non-admin accounts.
// Must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || user.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"status":  "error",
				"message": "Admin privileges required",
			})
			return
		}
		c.Next()
	}
}

// currentUser returns the authenticated user placed by RequireAuth, or nil
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
