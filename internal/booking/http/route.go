package http

import (
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/pet-booking-backend/internal/auth"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/bookings")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("", auth.RequireRole("customer"), h.Create)
		group.POST("/:id/transitions", h.Transition)
	}
}
