package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionKeyFunc extracts the session key from a request.
type SessionKeyFunc func(c *gin.Context) string

// Middleware aborts requests whose session has no usable token with 401 and a
// redirect to the landing route.
func (g *Guard) Middleware(keyFn SessionKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no session", "redirect": LandingRoute})
			return
		}

		decision, err := g.Check(c.Request.Context(), key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !decision.Allowed {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": decision.Reason, "redirect": decision.Redirect})
			return
		}

		c.Next()
	}
}
