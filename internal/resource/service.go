package resource

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type CreateRequest struct {
	OwnerID  string
	Name     string
	Category Category
}

// Service is the resource catalog consulted by bookings and analytics.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Resource, error)
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Resource, error)
	// Count returns the number of resources an owner has.
	Count(ctx context.Context, ownerID string) (int, error)
	// Categories returns the fixed label sets of every vertical the owner
	// has resources in, hotel first. Owners without resources get the
	// hotel set.
	Categories(ctx context.Context, ownerID string) ([]CategoryLabel, error)
	// CategoryIndex maps each of the owner's resource ids to its category.
	CategoryIndex(ctx context.Context, ownerID string) (map[string]Category, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Resource, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if uuid.Validate(req.OwnerID) != nil {
		return nil, ErrInvalidOwner
	}
	cat := Category(strings.ToUpper(strings.TrimSpace(string(req.Category))))
	if !cat.IsValid() {
		return nil, ErrInvalidCategory
	}

	res := &Resource{
		OwnerID:  req.OwnerID,
		Name:     name,
		Category: cat,
	}
	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Resource, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) ListByOwner(ctx context.Context, ownerID string) ([]*Resource, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *service) Count(ctx context.Context, ownerID string) (int, error) {
	list, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

func (s *service) Categories(ctx context.Context, ownerID string) ([]CategoryLabel, error) {
	list, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var hotel, sitter bool
	for _, res := range list {
		switch res.Category {
		case CategoryPetOnly, CategoryPetWithAcco:
			hotel = true
		case CategoryPackage, CategoryService:
			sitter = true
		}
	}

	var labels []CategoryLabel
	if hotel || !sitter {
		labels = append(labels, HotelCategories...)
	}
	if sitter {
		labels = append(labels, SitterCategories...)
	}
	return labels, nil
}

func (s *service) CategoryIndex(ctx context.Context, ownerID string) (map[string]Category, error) {
	list, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]Category, len(list))
	for _, res := range list {
		idx[res.ID] = res.Category
	}
	return idx, nil
}
