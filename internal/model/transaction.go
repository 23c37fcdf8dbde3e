package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a laundry order. Any status may be set
// directly, but entering StatusDone or StatusPickedUp has timestamp side
// effects handled by the transaction service.
type Status string

const (
	StatusReceived Status = "received"
	StatusWashing  Status = "washing"
	StatusIroning  Status = "ironing"
	StatusDone     Status = "done"
	StatusPickedUp Status = "picked_up"
)

func (s Status) Valid() bool {
	switch s {
	case StatusReceived, StatusWashing, StatusIroning, StatusDone, StatusPickedUp:
		return true
	}
	return false
}

// PendingStatuses are the pre-completion states counted as "pending" on the
// dashboard. "Active" is everything except StatusPickedUp.
var PendingStatuses = []Status{StatusReceived, StatusWashing, StatusIroning}

type Transaction struct {
	ID            int64  `json:"id"`
	InvoiceNumber string `json:"invoice_number"` // immutable once assigned
	CustomerID    int64  `json:"customer_id"`
	CashierID     *int64 `json:"cashier_id"` // nullable, staff account may be removed

	TotalAmount decimal.Decimal `json:"total_amount"` // sum of item subtotals
	Discount    decimal.Decimal `json:"discount"`
	FinalAmount decimal.Decimal `json:"final_amount"` // total_amount - discount
	PaidAmount  decimal.Decimal `json:"paid_amount"`

	Status              Status     `json:"status"`
	ReceivedAt          time.Time  `json:"received_at"`
	EstimatedCompletion *time.Time `json:"estimated_completion,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	TakenAt             *time.Time `json:"taken_at,omitempty"`

	Notes string `json:"notes,omitempty"`

	CustomerName  string `json:"customer_name,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	CashierName   string `json:"cashier_name,omitempty"`

	Items []*TransactionItem `json:"items,omitempty"`
}

type TransactionItem struct {
	ID            int64           `json:"id"`
	TransactionID int64           `json:"transaction_id"`
	ServiceID     int64           `json:"service_id"`
	ServiceName   string          `json:"service_name"` // snapshot
	Unit          string          `json:"unit"`         // snapshot
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"` // snapshot of service price
	Subtotal      decimal.Decimal `json:"subtotal"`   // quantity * unit_price, derived
	Notes         string          `json:"notes,omitempty"`
}

type TransactionItemRequest struct {
	ServiceID int64           `json:"service_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Notes     string          `json:"notes"`
}

func (p TransactionItemRequest) Validate() error {
	if p.ServiceID == 0 {
		return errors.New("service_id is required")
	}
	if !p.Quantity.IsPositive() {
		return errors.New("quantity must be positive")
	}
	return nil
}

type TransactionCreateRequest struct {
	CustomerID          int64                    `json:"customer_id"`
	Items               []TransactionItemRequest `json:"items"`
	Discount            decimal.Decimal          `json:"discount"`
	PaidAmount          decimal.Decimal          `json:"paid_amount"`
	EstimatedCompletion *time.Time               `json:"estimated_completion"`
	Notes               string                   `json:"notes"`
}

func (p TransactionCreateRequest) Validate() error {
	if p.CustomerID == 0 {
		return errors.New("customer_id is required")
	}
	if len(p.Items) == 0 {
		return errors.New("at least one item is required")
	}
	for _, it := range p.Items {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	if p.Discount.IsNegative() {
		return errors.New("discount must not be negative")
	}
	if p.PaidAmount.IsNegative() {
		return errors.New("paid_amount must not be negative")
	}
	return nil
}

type TransactionUpdateRequest struct {
	Discount            *decimal.Decimal `json:"discount"`
	PaidAmount          *decimal.Decimal `json:"paid_amount"`
	EstimatedCompletion *time.Time       `json:"estimated_completion"`
	Notes               *string          `json:"notes"`
}

// TransactionFilter controls List queries.
type TransactionFilter struct {
	CashierID  *int64 // set by the service for restricted roles
	CustomerID *int64
	Status     *Status
	Search     string // invoice number, customer name or phone
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
