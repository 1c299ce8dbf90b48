package middleware

import (
	"context"
	"ctchen222/TaskManager/internal/api/models"
	"ctchen222/TaskManager/internal/api/response"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Resolver maps an Authorization header value to a user.
type Resolver interface {
	Resolve(ctx context.Context, header string) (*models.User, error)
}

// Authenticate rejects requests without a valid bearer access token and
// stores the resolved user for Identity.
func Authenticate(resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := resolver.Resolve(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			response.Abort(c, err)
			return
		}
		c.Set(identityKey, user)
		c.Next()
	}
}

// Identity returns the user stored by Authenticate, or nil.
func Identity(c *gin.Context) *models.User {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
