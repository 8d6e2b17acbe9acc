// Package service contains the application logic between the HTTP layer and
// the repositories.
package service

import (
	"context"

	"github.com/discfinder/discfinder/internal/domain/model"
)

// StoreRepository is the repository surface StoreService depends on.
type StoreRepository interface {
	Create(ctx context.Context, req *model.CreateStoreRequest) (*model.Store, error)
	GetByID(ctx context.Context, id string) (*model.Store, error)
	ListWithOptions(ctx context.Context, opts model.StoresListOptions) ([]*model.Store, error)
	Update(ctx context.Context, id string, req model.UpdateStoreRequest) (*model.Store, error)
	Verify(ctx context.Context, id string) (*model.Store, error)
	Delete(ctx context.Context, id string) (bool, error)
	Counts(ctx context.Context) (*model.StoreCounts, error)
	EmailCandidateIDs(ctx context.Context) ([]string, error)
}

// StoreService handles store CRUD.
type StoreService struct {
	stores StoreRepository
}

// NewStoreService constructs a new StoreService.
func NewStoreService(stores StoreRepository) *StoreService {
	return &StoreService{stores: stores}
}

// Create creates a store.
func (s *StoreService) Create(ctx context.Context, req *model.CreateStoreRequest) (*model.Store, error) {
	return s.stores.Create(ctx, req)
}

// GetByID retrieves a store by ID.
func (s *StoreService) GetByID(ctx context.Context, id string) (*model.Store, error) {
	return s.stores.GetByID(ctx, id)
}

// List returns stores matching the filters, paged.
func (s *StoreService) List(ctx context.Context, opts model.StoresListOptions) ([]*model.Store, error) {
	return s.stores.ListWithOptions(ctx, normalizeStoresListOptions(opts))
}

// Update applies a partial update to a store.
func (s *StoreService) Update(ctx context.Context, id string, req model.UpdateStoreRequest) (*model.Store, error) {
	return s.stores.Update(ctx, id, req)
}

// Verify marks a store as verified.
func (s *StoreService) Verify(ctx context.Context, id string) (*model.Store, error) {
	return s.stores.Verify(ctx, id)
}

// Delete deletes a store.
func (s *StoreService) Delete(ctx context.Context, id string) (bool, error) {
	return s.stores.Delete(ctx, id)
}

func normalizeStoresListOptions(opts model.StoresListOptions) model.StoresListOptions {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	if opts.Limit > 500 {
		opts.Limit = 500
	}
	if opts.Skip < 0 {
		opts.Skip = 0
	}
	return opts
}
