package httpapi

import (
	"errors"
	"net/http"

	"github.com/fortislabs/fortis/internal/common"
	"github.com/gin-gonic/gin"
)

// abortWithError translates a service error into an HTTP response. Token
// lifecycle failures are client errors; anything unrecognized becomes a
// generic 500 so internal details never leak.
func (s *Server) abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, common.ErrorUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, common.ErrorForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, common.ErrorNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrTokenExpired):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "token expired"})
	case errors.Is(err, common.ErrTokenUsed):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "token already used"})
	case errors.Is(err, common.ErrTokenRevoked):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "token revoked"})
	case errors.Is(err, common.ErrInvalidToken):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid token"})
	case errors.Is(err, common.ErrRateLimitExceeded):
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, please try again later"})
	default:
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err.Error())
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
