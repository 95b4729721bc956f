package httpapi

import (
	"net/http"
	"strings"

	"github.com/fortislabs/fortis/internal/common"
	"github.com/fortislabs/fortis/internal/server/services"
	"github.com/gin-gonic/gin"
)

const identityKey = "fortis.identity"

// resolveIdentity inspects the Authorization header and, when it carries a
// valid bearer token, attaches the resolved identity to the request.
// Requests without a usable token pass through anonymously; rejecting them
// is the job of requireAuth on protected routes.
func (s *Server) resolveIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeader)
		if !strings.HasPrefix(header, common.BearerPrefix) {
			c.Next()
			return
		}

		token := strings.TrimPrefix(header, common.BearerPrefix)
		identity, err := s.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// requireAuth rejects requests that did not resolve to an enabled account.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := currentIdentity(c)
		if identity == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !identity.Enabled {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}

// rateLimited guards a route with the per-IP fixed-window limiter.
func (s *Server) rateLimited() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.limiter.Allow(c.ClientIP()); err != nil {
			s.abortWithError(c, err)
			return
		}
		c.Next()
	}
}

func currentIdentity(c *gin.Context) *services.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, ok := v.(*services.Identity)
	if !ok {
		return nil
	}
	return identity
}
