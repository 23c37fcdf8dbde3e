package services

import (
	"context"
	"errors"
	"strings"

	"github.com/wicaksono/laundry-pos/internal/model"
	"github.com/wicaksono/laundry-pos/internal/repository"
)

type ServiceRepository interface {
	Create(ctx context.Context, svc *model.Service) (*model.Service, error)
	Get(ctx context.Context, id int64) (*model.Service, error)
	List(ctx context.Context, f model.ServiceFilter) ([]*model.Service, int64, error) // results, totalCount
	Update(ctx context.Context, svc *model.Service) (*model.Service, error)
	Delete(ctx context.Context, id int64) error
}

// CatalogService manages the priced service offerings. Writes are limited
// to non-restricted roles, cashiers only read the catalog.
type CatalogService struct {
	serviceRepo ServiceRepository
}

func NewCatalogService(serviceRepo ServiceRepository) *CatalogService {
	return &CatalogService{
		serviceRepo: serviceRepo,
	}
}

func (s *CatalogService) Create(ctx context.Context, actor model.Actor, p model.ServiceCreateRequest) (*model.Service, error) {
	if actor.Role.Restricted() {
		return nil, ErrUnauthorized
	}
	if err := p.Validate(); err != nil {
		return nil, invalidArg(err.Error())
	}

	svc := &model.Service{
		Name:         strings.TrimSpace(p.Name),
		Type:         p.Type,
		PricePerUnit: p.PricePerUnit,
		Unit:         strings.TrimSpace(p.Unit),
		Description:  strings.TrimSpace(p.Description),
		IsActive:     true,
	}

	return s.serviceRepo.Create(ctx, svc)
}

func (s *CatalogService) Get(ctx context.Context, actor model.Actor, id int64) (*model.Service, error) {
	svc, err := s.serviceRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return svc, nil
}

func (s *CatalogService) List(ctx context.Context, actor model.Actor, f model.ServiceFilter) ([]*model.Service, int64, error) {
	return s.serviceRepo.List(ctx, f)
}

func (s *CatalogService) Update(ctx context.Context, actor model.Actor, id int64, p model.ServiceUpdateRequest) (*model.Service, error) {
	if actor.Role.Restricted() {
		return nil, ErrUnauthorized
	}

	existing, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		existing.Name = strings.TrimSpace(*p.Name)
	}
	if p.Type != nil {
		if !p.Type.Valid() {
			return nil, invalidArg("invalid service type")
		}
		existing.Type = *p.Type
	}
	if p.PricePerUnit != nil {
		if p.PricePerUnit.IsNegative() {
			return nil, invalidArg("price_per_unit must not be negative")
		}
		existing.PricePerUnit = *p.PricePerUnit
	}
	if p.Unit != nil {
		existing.Unit = strings.TrimSpace(*p.Unit)
	}
	if p.Description != nil {
		existing.Description = strings.TrimSpace(*p.Description)
	}
	if p.IsActive != nil {
		existing.IsActive = *p.IsActive
	}

	if existing.Name == "" || existing.Unit == "" {
		return nil, invalidArg("name and unit are required")
	}

	updated, err := s.serviceRepo.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes the catalog row. History is unaffected because items
// snapshot the service name and price at registration time.
func (s *CatalogService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	if actor.Role.Restricted() {
		return ErrUnauthorized
	}

	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}

	if err := s.serviceRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			return ErrServiceNotFound
		}
		return err
	}
	return nil
}
