package repository

import (
	"github.com/shopspring/decimal"
	"github.com/wicaksono/laundry-pos/internal/model"
	"github.com/wicaksono/laundry-pos/pkg/pg"
)

type ServiceEntity struct {
	ID           int64           `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	Name         string          `db:"name"           gorm:"column:name;not null"`
	Type         string          `db:"type"           gorm:"column:type;not null"`
	PricePerUnit decimal.Decimal `db:"price_per_unit" gorm:"column:price_per_unit;type:numeric(12,2);not null"`
	Unit         string          `db:"unit"           gorm:"column:unit;not null"`
	Description  string          `db:"description"    gorm:"column:description"`
	IsActive     bool            `db:"is_active"      gorm:"column:is_active;not null"`
	pg.Timestamps
}

func (ServiceEntity) TableName() string {
	return "services"
}

func toServiceEntity(m *model.Service) *ServiceEntity {
	if m == nil {
		return nil
	}
	return &ServiceEntity{
		ID:           m.ID,
		Name:         m.Name,
		Type:         string(m.Type),
		PricePerUnit: m.PricePerUnit,
		Unit:         m.Unit,
		Description:  m.Description,
		IsActive:     m.IsActive,
		Timestamps: pg.Timestamps{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
	}
}

func toServiceModel(e *ServiceEntity) *model.Service {
	if e == nil {
		return nil
	}
	return &model.Service{
		ID:           e.ID,
		Name:         e.Name,
		Type:         model.ServiceType(e.Type),
		PricePerUnit: e.PricePerUnit,
		Unit:         e.Unit,
		Description:  e.Description,
		IsActive:     e.IsActive,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func toServiceModels(entities []*ServiceEntity) []*model.Service {
	if entities == nil {
		return nil
	}
	models := make([]*model.Service, len(entities))
	for i, e := range entities {
		models[i] = toServiceModel(e)
	}
	return models
}
