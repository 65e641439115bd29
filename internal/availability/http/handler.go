package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/pet-booking-backend/internal/availability"
	"github.com/nekogravitycat/pet-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/pet-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/pet-booking-backend/internal/resource"
)

type Handler struct {
	index      *availability.Index
	resService resource.Service
	now        func() time.Time
}

func NewHandler(index *availability.Index, resService resource.Service) *Handler {
	return &Handler{
		index:      index,
		resService: resService,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Get lists occupied and free windows of a resource. The range defaults
// to the next 30 days.
func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	var req AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	from := h.now()
	if req.From != nil {
		from = req.From.UTC()
	}
	to := from.Add(30 * 24 * time.Hour)
	if req.To != nil {
		to = req.To.UTC()
	}
	if !to.After(from) {
		response.BadRequest(c, "to must be after from", nil)
		return
	}
	if to.Sub(from) > maxRange {
		response.BadRequest(c, "range must not exceed 366 days", nil)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.resService.GetByID(ctx, uri.ID); err != nil {
		response.Error(c, err)
		return
	}

	rec, free, err := h.index.Free(ctx, uri.ID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAvailabilityResponse(rec, from, to, free))
}
