package httpapi

import (
	"net/http"
	"time"

	"github.com/fortislabs/fortis/internal/server/models"
	"github.com/gin-gonic/gin"
)

type taskRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description" binding:"max=2000"`
	Completed   bool   `json:"completed"`
}

type taskResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toTaskResponse(t *models.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
	}
}

func (s *Server) createTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	identity := currentIdentity(c)
	task, err := s.tasks.Create(c.Request.Context(), identity.ID, req.Title, req.Description)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toTaskResponse(task))
}

func (s *Server) listTasks(c *gin.Context) {
	identity := currentIdentity(c)

	items, err := s.tasks.List(c.Request.Context(), identity.ID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	out := make([]taskResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toTaskResponse(item))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getTask(c *gin.Context) {
	identity := currentIdentity(c)

	task, err := s.tasks.Get(c.Request.Context(), identity.ID, c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTaskResponse(task))
}

func (s *Server) updateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	identity := currentIdentity(c)
	task, err := s.tasks.Update(c.Request.Context(), identity.ID, c.Param("id"), req.Title, req.Description, req.Completed)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTaskResponse(task))
}

func (s *Server) deleteTask(c *gin.Context) {
	identity := currentIdentity(c)

	if err := s.tasks.Delete(c.Request.Context(), identity.ID, c.Param("id")); err != nil {
		s.abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) profile(c *gin.Context) {
	identity := currentIdentity(c)

	c.JSON(http.StatusOK, gin.H{
		"id":       identity.ID,
		"username": identity.Username,
		"email":    identity.Email,
		"role":     identity.Role,
		"enabled":  identity.Enabled,
	})
}
