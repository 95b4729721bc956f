// Package httpapi exposes the Fortis services over HTTP. Routing and
// request/response shapes live here; all business decisions stay in the
// services package.
package httpapi

import (
	"net/http"
	"time"

	"github.com/fortislabs/fortis/internal/logging"
	"github.com/fortislabs/fortis/internal/server/config"
	"github.com/fortislabs/fortis/internal/server/ratelimit"
	"github.com/fortislabs/fortis/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Server struct {
	auth    *services.AuthService
	tasks   *services.TaskService
	limiter *ratelimit.Limiter
	logger  logging.Logger

	frontendURL string
}

func NewServer(auth *services.AuthService, tasks *services.TaskService, limiter *ratelimit.Limiter, logger logging.Logger, cfg *config.Config) *Server {
	return &Server{
		auth:        auth,
		tasks:       tasks,
		limiter:     limiter,
		logger:      logger.With("module", "httpapi"),
		frontendURL: cfg.FrontendURL,
	}
}

// Handler builds the routing tree. Sensitive credential endpoints sit
// behind the per-IP limiter; everything under the protected group requires
// a resolved, enabled identity.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{s.frontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(s.resolveIdentity())

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", s.register)
		authGroup.POST("/login", s.rateLimited(), s.login)
		authGroup.GET("/verify", s.verifyEmail)
		authGroup.POST("/refresh", s.rateLimited(), s.refresh)
		authGroup.POST("/logout", s.logout)
		authGroup.POST("/forgot-password", s.rateLimited(), s.forgotPassword)
		authGroup.GET("/reset-password/validate", s.validateResetToken)
		authGroup.POST("/reset-password", s.resetPassword)
	}

	protected := r.Group("/api", s.requireAuth())
	{
		protected.GET("/user/profile", s.profile)

		protected.POST("/tasks", s.createTask)
		protected.GET("/tasks", s.listTasks)
		protected.GET("/tasks/:id", s.getTask)
		protected.PUT("/tasks/:id", s.updateTask)
		protected.DELETE("/tasks/:id", s.deleteTask)
	}

	return r
}
