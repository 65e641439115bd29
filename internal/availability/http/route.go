package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the availability lookup under resources.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	g.GET("/resources/:id/availability", authMiddleware, h.Get)
}
