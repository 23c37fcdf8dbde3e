package repository

import (
	"github.com/wicaksono/laundry-pos/internal/model"
	"github.com/wicaksono/laundry-pos/pkg/pg"
)

type CustomerEntity struct {
	ID      int64  `db:"id"      gorm:"primaryKey;autoIncrement;column:id"`
	Name    string `db:"name"    gorm:"column:name;not null"`
	Phone   string `db:"phone"   gorm:"column:phone;not null;unique"`
	Address string `db:"address" gorm:"column:address"`
	Email   string `db:"email"   gorm:"column:email"`
	pg.Timestamps
}

func (CustomerEntity) TableName() string {
	return "customers"
}

func toCustomerEntity(m *model.Customer) *CustomerEntity {
	if m == nil {
		return nil
	}
	return &CustomerEntity{
		ID:      m.ID,
		Name:    m.Name,
		Phone:   m.Phone,
		Address: m.Address,
		Email:   m.Email,
		Timestamps: pg.Timestamps{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
	}
}

func toCustomerModel(e *CustomerEntity) *model.Customer {
	if e == nil {
		return nil
	}
	return &model.Customer{
		ID:        e.ID,
		Name:      e.Name,
		Phone:     e.Phone,
		Address:   e.Address,
		Email:     e.Email,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func toCustomerModels(entities []*CustomerEntity) []*model.Customer {
	if entities == nil {
		return nil
	}
	models := make([]*model.Customer, len(entities))
	for i, e := range entities {
		models[i] = toCustomerModel(e)
	}
	return models
}
