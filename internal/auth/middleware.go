package auth

import (
	"context"
	"net/http"
	"strings"

	"go-yamdb/internal/access"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// ActorResolver loads the current actor for a verified token subject. It fails
// when the account no longer exists.
type ActorResolver func(ctx context.Context, userID uint) (access.Actor, error)

// AuthMiddleware resolves the request actor. Requests without an Authorization
// header continue as anonymous; a malformed or invalid bearer token is rejected.
func AuthMiddleware(secret string, resolve ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(actorKey, access.Anonymous)
			c.Next()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Missing or invalid Authorization header"}})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := ParseJWT(secret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Invalid or expired token"}})
			return
		}
		actor, err := resolve(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "User not found"}})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the actor placed by AuthMiddleware, or Anonymous.
func ActorFrom(c *gin.Context) access.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(access.Actor); ok {
			return a
		}
	}
	return access.Anonymous
}

// WithActor sets the actor directly; used by tests and internal callers.
func WithActor(a access.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(actorKey, a)
		c.Next()
	}
}
