package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dicomdesk/internal/shared/version"
)

// HealthHandler serves liveness probes.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": version.Version,
	})
}
