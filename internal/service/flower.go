package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atinyakov/flowerdaily/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrFlowerNotFound is returned when no flower has the ID.
	ErrFlowerNotFound = errors.New("flower not found")
	// ErrInvalidFlower is returned when a flower has no name.
	ErrInvalidFlower = errors.New("flower name is required")
	// ErrFlowerExists is returned when the ID is already used.
	ErrFlowerExists = errors.New("flower already exists")
)

// FlowerStore defines the catalogue persistence operations.
type FlowerStore interface {
	ListFlowers(ctx context.Context) ([]models.Flower, error)
	GetFlower(ctx context.Context, id string) (*models.Flower, error)
	CreateFlower(ctx context.Context, f models.Flower) error
	UpdateFlower(ctx context.Context, f models.Flower) error
	DeleteFlower(ctx context.Context, id string) error
}

// FlowerService manages the flower catalogue.
type FlowerService struct {
	store FlowerStore
	now   func() time.Time
}

// NewFlowerService constructs a FlowerService.
func NewFlowerService(store FlowerStore) *FlowerService {
	return &FlowerService{store: store, now: time.Now}
}

// List returns the whole catalogue ordered by name.
func (s *FlowerService) List(ctx context.Context) ([]models.Flower, error) {
	return s.store.ListFlowers(ctx)
}

// Get returns one flower.
func (s *FlowerService) Get(ctx context.Context, id string) (models.Flower, error) {
	f, err := s.store.GetFlower(ctx, id)
	if err != nil {
		return models.Flower{}, notFound(err, ErrFlowerNotFound)
	}
	return *f, nil
}

// Create adds a flower. A missing ID is generated.
func (s *FlowerService) Create(ctx context.Context, f models.Flower) (models.Flower, error) {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return models.Flower{}, ErrInvalidFlower
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := s.now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now
	if err := s.store.CreateFlower(ctx, f); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return models.Flower{}, ErrFlowerExists
		}
		return models.Flower{}, err
	}
	return f, nil
}

// Update overwrites the editable fields of the flower with f.ID.
func (s *FlowerService) Update(ctx context.Context, f models.Flower) (models.Flower, error) {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return models.Flower{}, ErrInvalidFlower
	}
	f.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateFlower(ctx, f); err != nil {
		return models.Flower{}, notFound(err, ErrFlowerNotFound)
	}
	return s.Get(ctx, f.ID)
}

// Delete removes a flower.
func (s *FlowerService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteFlower(ctx, id); err != nil {
		return notFound(err, ErrFlowerNotFound)
	}
	return nil
}

// notFound swaps the repository ErrNotFound for a service sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, models.ErrNotFound) {
		return sentinel
	}
	return err
}
