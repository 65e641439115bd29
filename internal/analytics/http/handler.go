package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/pet-booking-backend/internal/analytics"
	"github.com/nekogravitycat/pet-booking-backend/internal/auth"
	"github.com/nekogravitycat/pet-booking-backend/internal/booking"
	"github.com/nekogravitycat/pet-booking-backend/internal/pkg/response"
)

type Handler struct {
	service analytics.Service
	now     func() time.Time
}

func NewHandler(service analytics.Service) *Handler {
	return &Handler{
		service: service,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// canView allows owners to read their own reports and admins any report.
func canView(c *gin.Context, ownerID string) bool {
	switch booking.Role(auth.GetRole(c)) {
	case booking.RoleAdmin:
		return true
	case booking.RoleOwner:
		return auth.GetUserID(c) == ownerID
	}
	return false
}

func (h *Handler) Snapshot(c *gin.Context) {
	ownerID := c.Param("ownerId")
	if !canView(c, ownerID) {
		response.Error(c, booking.ErrPermissionDenied)
		return
	}

	snap, err := h.service.Snapshot(c.Request.Context(), ownerID, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSnapshotResponse(snap))
}

func (h *Handler) Finance(c *gin.Context) {
	ownerID := c.Param("ownerId")
	if !canView(c, ownerID) {
		response.Error(c, booking.ErrPermissionDenied)
		return
	}

	fin, err := h.service.Finance(c.Request.Context(), ownerID, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewFinanceResponse(fin))
}
