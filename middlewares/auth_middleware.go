package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yummyfi/yummyfi-backend/services"
	"github.com/yummyfi/yummyfi-backend/utils"
)

const (
	identityKey = "identity"
	tokenKey    = "token"
)

// bearerToken reads the Authorization header, falling back to the token
// query parameter for WebSocket handshakes, which cannot set headers.
func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return c.Query("token")
}

func AuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, utils.ErrInvalidToken)
			return
		}

		id, err := auth.Authenticate(token)
		if err != nil {
			utils.AbortWithError(c, http.StatusUnauthorized, utils.ErrInvalidToken)
			return
		}

		c.Set(identityKey, id)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok {
			utils.AbortWithError(c, http.StatusUnauthorized, utils.ErrInvalidToken)
			return
		}
		if !id.Admin {
			utils.AbortWithError(c, http.StatusForbidden, services.ErrForbidden)
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity AuthMiddleware stored on c.
func CurrentIdentity(c *gin.Context) (services.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return services.Identity{}, false
	}
	id, ok := v.(services.Identity)
	return id, ok
}

// CurrentToken returns the raw bearer token of the request.
func CurrentToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}
