package http

import (
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/pet-booking-backend/internal/auth"
)

// RegisterRoutes registers resource-related routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/resources")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", auth.RequireRole("owner", "admin"), h.List)
		group.GET("/:id", h.Get)
		group.POST("", auth.RequireRole("owner"), h.Create)
	}
}
