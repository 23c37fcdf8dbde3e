package repository

import (
	"context"
	"errors"

	"github.com/wicaksono/laundry-pos/internal/model"
	"github.com/wicaksono/laundry-pos/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrServiceNotFound = errors.New("service not found")
)

type ServiceRepository struct {
	*pg.DB
}

func NewServiceRepository(db *pg.DB) *ServiceRepository {
	return &ServiceRepository{
		db,
	}
}

func (r *ServiceRepository) Create(ctx context.Context, svc *model.Service) (*model.Service, error) {
	entity := toServiceEntity(svc)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toServiceModel(entity), nil
}

func (r *ServiceRepository) Get(ctx context.Context, id int64) (*model.Service, error) {
	var entity ServiceEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	return toServiceModel(&entity), nil
}

func (r *ServiceRepository) List(ctx context.Context, f model.ServiceFilter) ([]*model.Service, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&ServiceEntity{})

	if f.Type != nil {
		q = q.Where("type = ?", string(*f.Type))
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if f.Search != "" {
		q = q.Where("name LIKE ?", "%"+f.Search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*ServiceEntity
	if err := q.Order("name ASC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toServiceModels(entities), total, nil
}

func (r *ServiceRepository) Update(ctx context.Context, svc *model.Service) (*model.Service, error) {
	entity := toServiceEntity(svc)

	result := r.Write(ctx).WithContext(ctx).
		Model(&ServiceEntity{}).
		Where("id = ?", entity.ID).
		Updates(map[string]interface{}{
			"name":           entity.Name,
			"type":           entity.Type,
			"price_per_unit": entity.PricePerUnit,
			"unit":           entity.Unit,
			"description":    entity.Description,
			"is_active":      entity.IsActive,
		})

	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrServiceNotFound
	}

	return r.Get(ctx, entity.ID)
}

func (r *ServiceRepository) Delete(ctx context.Context, id int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&ServiceEntity{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrServiceNotFound
	}
	return nil
}
