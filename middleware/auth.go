// Package middleware holds the gin middleware shared by every API route.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"buildtrack/services"
	"buildtrack/utils"

	"github.com/gin-gonic/gin"
)

const callerKey = "caller"

// CallerResolver loads the principal behind a verified token subject.
type CallerResolver interface {
	CallerFor(ctx context.Context, userID string) (services.Caller, error)
}

// Authenticate requires a valid bearer token belonging to an active user and
// stores the resolved Caller on the context.
func Authenticate(secret string, users CallerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" || token == header {
			abortUnauthenticated(c)
			return
		}

		claims, err := utils.ValidateJWT(secret, token)
		if err != nil {
			abortUnauthenticated(c)
			return
		}

		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()
		caller, err := users.CallerFor(ctx, claims.UserID)
		if errors.Is(err, services.ErrUnauthorized) {
			abortUnauthenticated(c)
			return
		}
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		caller.IPAddress = c.ClientIP()
		c.Set(callerKey, caller)
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Please authenticate."})
}

// CallerFrom returns the Caller stored by Authenticate.
func CallerFrom(c *gin.Context) (services.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return services.Caller{}, false
	}
	caller, ok := v.(services.Caller)
	return caller, ok
}

// SetCaller stores caller on the context. Used by tests and internal routes.
func SetCaller(c *gin.Context, caller services.Caller) {
	c.Set(callerKey, caller)
}
