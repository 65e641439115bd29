package http

import (
	"time"

	"github.com/nekogravitycat/pet-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/pet-booking-backend/internal/resource"
)

type ResourceResponse struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	CategoryLabel string    `json:"category_label"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewResponse(r *resource.Resource) ResourceResponse {
	return ResourceResponse{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		Name:          r.Name,
		Category:      string(r.Category),
		CategoryLabel: r.Category.Label(),
		CreatedAt:     r.CreatedAt,
	}
}

type CreateRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category" binding:"required,oneof=PET_ONLY PET_WITH_ACCO PACKAGE SERVICE"`
}

// ListResourcesRequest defines query parameters for listing resources.
// Admins may list any owner's resources; owners always see their own.
type ListResourcesRequest struct {
	request.ListParams
	OwnerID   string `form:"owner_id" binding:"omitempty,uuid"`
	Category  string `form:"category" binding:"omitempty,oneof=PET_ONLY PET_WITH_ACCO PACKAGE SERVICE"`
	SortBy    string `form:"sort_by" binding:"omitempty,oneof=name category created_at"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
}
