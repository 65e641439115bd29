package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/pet-booking-backend/internal/auth"
	"github.com/nekogravitycat/pet-booking-backend/internal/booking"
	"github.com/nekogravitycat/pet-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/pet-booking-backend/internal/pkg/response"
)

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

// actor resolves the caller. The system role is reserved for the sweeper
// and is never accepted from a token.
func actor(c *gin.Context) (booking.Actor, bool) {
	role, err := booking.ParseRole(auth.GetRole(c))
	if err != nil || role == booking.RoleSystem {
		return booking.Actor{}, false
	}
	id := auth.GetUserID(c)
	if id == "" {
		return booking.Actor{}, false
	}
	return booking.Actor{ID: id, Role: role}, true
}

// canAccess allows the customer, the resource owner and admins.
func canAccess(a booking.Actor, b *booking.Booking) bool {
	switch a.Role {
	case booking.RoleAdmin:
		return true
	case booking.RoleOwner:
		return a.ID == b.ResourceOwnerID
	case booking.RoleCustomer:
		return a.ID == b.CustomerID
	}
	return false
}

func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(c, err)
		return
	}
	req.Normalize()

	a, ok := actor(c)
	if !ok {
		response.Error(c, booking.ErrPermissionDenied)
		return
	}

	filter := booking.Filter{
		ResourceID: req.ResourceID,
		StartTime:  req.StartTimeFrom,
		EndTime:    req.StartTimeTo,
		Page:       req.Page,
		PageSize:   req.PageSize,
		SortBy:     req.SortBy,
		SortOrder:  strings.ToUpper(req.SortOrder),
	}
	if req.Status != "" {
		status, err := booking.ParseStatus(req.Status)
		if err != nil {
			response.BadRequest(c, "invalid query parameters", err)
			return
		}
		filter.Status = status
	}

	// Customers see their own bookings, owners the bookings on their
	// resources. Admins can filter by either.
	switch a.Role {
	case booking.RoleCustomer:
		filter.CustomerID = a.ID
	case booking.RoleOwner:
		filter.OwnerID = a.ID
	case booking.RoleAdmin:
		filter.CustomerID = req.CustomerID
		filter.OwnerID = req.OwnerID
	}

	bookings, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

// Create books a resource for the calling customer. The booking starts
// PENDING until the resource owner confirms it.
func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	discount := decimal.Zero
	if body.Discount != nil {
		discount = *body.Discount
	}

	b, err := h.service.Create(c.Request.Context(), booking.CreateRequest{
		ResourceID:  body.ResourceID,
		CustomerID:  auth.GetUserID(c),
		WindowStart: body.WindowStart.UTC(),
		WindowEnd:   body.WindowEnd.UTC(),
		BasePrice:   *body.BasePrice,
		Discount:    discount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	b, ok := h.load(c, req.ID)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Transition applies one lifecycle event on behalf of the caller.
func (h *Handler) Transition(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	var body TransitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	event, err := booking.ParseEvent(body.Event)
	if err != nil {
		response.BadRequest(c, "invalid event", err)
		return
	}

	if _, ok := h.load(c, req.ID); !ok {
		return
	}
	a, _ := actor(c)

	b, err := h.service.Transition(c.Request.Context(), booking.TransitionRequest{
		BookingID: req.ID,
		Event:     event,
		Actor:     a,
		Reason:    body.Reason,
		Note:      body.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// load fetches a booking and checks the caller may see it, writing the
// error response when not.
func (h *Handler) load(c *gin.Context, id string) (*booking.Booking, bool) {
	a, ok := actor(c)
	if !ok {
		response.Error(c, booking.ErrPermissionDenied)
		return nil, false
	}

	b, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if !canAccess(a, b) {
		response.Error(c, booking.ErrPermissionDenied)
		return nil, false
	}
	return b, true
}
