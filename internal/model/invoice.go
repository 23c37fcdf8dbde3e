package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceSnapshot is the fully resolved input handed to the receipt
// renderer. It carries everything the artifact needs so the renderer never
// reads storage.
type InvoiceSnapshot struct {
	InvoiceNumber string          `json:"invoice_number"`
	ReceivedAt    time.Time       `json:"received_at"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	CashierName   string          `json:"cashier_name"` // "-" when the account is gone
	Lines         []InvoiceLine   `json:"lines"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Discount      decimal.Decimal `json:"discount"`
	FinalAmount   decimal.Decimal `json:"final_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Status        Status          `json:"status"`

	EstimatedCompletion *time.Time `json:"estimated_completion,omitempty"`
	Notes               string     `json:"notes,omitempty"`
}

type InvoiceLine struct {
	ServiceName string          `json:"service_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Change is the cash returned to the customer; only meaningful when
// positive.
func (s *InvoiceSnapshot) Change() decimal.Decimal {
	return s.PaidAmount.Sub(s.FinalAmount)
}
