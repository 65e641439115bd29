package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/owners/:ownerId")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("/analytics", h.Snapshot)
		group.GET("/finance", h.Finance)
	}
}
