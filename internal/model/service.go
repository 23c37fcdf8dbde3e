package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ServiceType says how a service is measured and billed.
type ServiceType string

const (
	ServiceTypeWeight ServiceType = "weight" // billed per kg, fractional quantities
	ServiceTypeCount  ServiceType = "count"  // billed per piece, whole quantities
)

func (t ServiceType) Valid() bool {
	return t == ServiceTypeWeight || t == ServiceTypeCount
}

type Service struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Type         ServiceType     `json:"type"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Unit         string          `json:"unit"` // "kg", "pcs"
	Description  string          `json:"description,omitempty"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type ServiceCreateRequest struct {
	Name         string          `json:"name"`
	Type         ServiceType     `json:"type"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Unit         string          `json:"unit"`
	Description  string          `json:"description"`
}

func (p ServiceCreateRequest) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if !p.Type.Valid() {
		return errors.New("type must be weight or count")
	}
	if p.PricePerUnit.IsNegative() {
		return errors.New("price_per_unit must not be negative")
	}
	if p.Unit == "" {
		return errors.New("unit is required")
	}
	return nil
}

type ServiceUpdateRequest struct {
	Name         *string          `json:"name"`
	Type         *ServiceType     `json:"type"`
	PricePerUnit *decimal.Decimal `json:"price_per_unit"`
	Unit         *string          `json:"unit"`
	Description  *string          `json:"description"`
	IsActive     *bool            `json:"is_active"`
}

// ServiceFilter controls List queries.
type ServiceFilter struct {
	Type     *ServiceType
	IsActive *bool
	Search   string
	Limit    int
	Offset   int
}
