package resource

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/pet-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.New(http.StatusNotFound, "resource not found")
	ErrEmptyName       = apperror.New(http.StatusBadRequest, "name cannot be empty")
	ErrInvalidOwner    = apperror.New(http.StatusBadRequest, "invalid owner_id")
	ErrInvalidCategory = apperror.New(http.StatusBadRequest, "invalid category")
)

// Category classifies a bookable unit. Hotels book rooms, sitters book
// service slots.
type Category string

const (
	CategoryPetOnly     Category = "PET_ONLY"
	CategoryPetWithAcco Category = "PET_WITH_ACCO"
	CategoryPackage     Category = "PACKAGE"
	CategoryService     Category = "SERVICE"
)

// CategoryLabel pairs a category with its display label.
type CategoryLabel struct {
	Category Category
	Label    string
}

// Fixed label sets per vertical, in display order.
var (
	HotelCategories = []CategoryLabel{
		{CategoryPetOnly, "Pet only"},
		{CategoryPetWithAcco, "Pet with accommodation"},
	}
	SitterCategories = []CategoryLabel{
		{CategoryPackage, "Package"},
		{CategoryService, "Service"},
	}
)

func (c Category) IsValid() bool {
	_, ok := c.vertical()
	return ok
}

// Label returns the display label, or the raw key for unknown categories.
func (c Category) Label() string {
	for _, set := range [][]CategoryLabel{HotelCategories, SitterCategories} {
		for _, l := range set {
			if l.Category == c {
				return l.Label
			}
		}
	}
	return string(c)
}

func (c Category) vertical() ([]CategoryLabel, bool) {
	switch c {
	case CategoryPetOnly, CategoryPetWithAcco:
		return HotelCategories, true
	case CategoryPackage, CategoryService:
		return SitterCategories, true
	}
	return nil, false
}

// Resource represents a bookable unit (e.g. a hotel room or a sitter slot).
type Resource struct {
	ID        string
	OwnerID   string
	Name      string
	Category  Category
	CreatedAt time.Time
}

// Filter defines parameters for listing resources.
type Filter struct {
	OwnerID   string
	Category  Category
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
