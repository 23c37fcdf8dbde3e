package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wicaksono/laundry-pos/internal/model"
	"github.com/wicaksono/laundry-pos/pkg/pg"
)

type TransactionEntity struct {
	ID            int64  `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	InvoiceNumber string `db:"invoice_number" gorm:"column:invoice_number;not null;unique"`
	CustomerID    int64  `db:"customer_id"    gorm:"column:customer_id;not null;index"`
	CashierID     *int64 `db:"cashier_id"     gorm:"column:cashier_id;index"`

	TotalAmount decimal.Decimal `db:"total_amount" gorm:"column:total_amount;type:numeric(12,2);not null"`
	Discount    decimal.Decimal `db:"discount"     gorm:"column:discount;type:numeric(12,2);not null"`
	FinalAmount decimal.Decimal `db:"final_amount" gorm:"column:final_amount;type:numeric(12,2);not null"`
	PaidAmount  decimal.Decimal `db:"paid_amount"  gorm:"column:paid_amount;type:numeric(12,2);not null"`

	Status              string     `db:"status"               gorm:"column:status;not null;index"`
	ReceivedAt          time.Time  `db:"received_at"          gorm:"column:received_at;not null;index"`
	EstimatedCompletion *time.Time `db:"estimated_completion" gorm:"column:estimated_completion"`
	CompletedAt         *time.Time `db:"completed_at"         gorm:"column:completed_at"`
	TakenAt             *time.Time `db:"taken_at"             gorm:"column:taken_at"`

	Notes string `db:"notes" gorm:"column:notes"`

	Items []*TransactionItemEntity `gorm:"foreignKey:TransactionID"`
	pg.Timestamps
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

type TransactionItemEntity struct {
	ID            int64           `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	TransactionID int64           `db:"transaction_id" gorm:"column:transaction_id;not null;index"`
	ServiceID     int64           `db:"service_id"     gorm:"column:service_id;not null"`
	ServiceName   string          `db:"service_name"   gorm:"column:service_name;not null"`
	Unit          string          `db:"unit"           gorm:"column:unit;not null"`
	Quantity      decimal.Decimal `db:"quantity"       gorm:"column:quantity;type:numeric(10,2);not null"`
	UnitPrice     decimal.Decimal `db:"unit_price"     gorm:"column:unit_price;type:numeric(12,2);not null"`
	Subtotal      decimal.Decimal `db:"subtotal"       gorm:"column:subtotal;type:numeric(12,2);not null"`
	Notes         string          `db:"notes"          gorm:"column:notes"`
}

func (TransactionItemEntity) TableName() string {
	return "transaction_items"
}

func toTransactionEntity(m *model.Transaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	return &TransactionEntity{
		ID:                  m.ID,
		InvoiceNumber:       m.InvoiceNumber,
		CustomerID:          m.CustomerID,
		CashierID:           m.CashierID,
		TotalAmount:         m.TotalAmount,
		Discount:            m.Discount,
		FinalAmount:         m.FinalAmount,
		PaidAmount:          m.PaidAmount,
		Status:              string(m.Status),
		ReceivedAt:          m.ReceivedAt,
		EstimatedCompletion: m.EstimatedCompletion,
		CompletedAt:         m.CompletedAt,
		TakenAt:             m.TakenAt,
		Notes:               m.Notes,
	}
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	return &model.Transaction{
		ID:                  e.ID,
		InvoiceNumber:       e.InvoiceNumber,
		CustomerID:          e.CustomerID,
		CashierID:           e.CashierID,
		TotalAmount:         e.TotalAmount,
		Discount:            e.Discount,
		FinalAmount:         e.FinalAmount,
		PaidAmount:          e.PaidAmount,
		Status:              model.Status(e.Status),
		ReceivedAt:          e.ReceivedAt,
		EstimatedCompletion: e.EstimatedCompletion,
		CompletedAt:         e.CompletedAt,
		TakenAt:             e.TakenAt,
		Notes:               e.Notes,
		Items:               toTransactionItemModels(e.Items),
	}
}

func toTransactionItemEntity(m *model.TransactionItem) *TransactionItemEntity {
	if m == nil {
		return nil
	}
	return &TransactionItemEntity{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		ServiceID:     m.ServiceID,
		ServiceName:   m.ServiceName,
		Unit:          m.Unit,
		Quantity:      m.Quantity,
		UnitPrice:     m.UnitPrice,
		Subtotal:      m.Subtotal,
		Notes:         m.Notes,
	}
}

func toTransactionItemModel(e *TransactionItemEntity) *model.TransactionItem {
	if e == nil {
		return nil
	}
	return &model.TransactionItem{
		ID:            e.ID,
		TransactionID: e.TransactionID,
		ServiceID:     e.ServiceID,
		ServiceName:   e.ServiceName,
		Unit:          e.Unit,
		Quantity:      e.Quantity,
		UnitPrice:     e.UnitPrice,
		Subtotal:      e.Subtotal,
		Notes:         e.Notes,
	}
}

func toTransactionItemModels(entities []*TransactionItemEntity) []*model.TransactionItem {
	if entities == nil {
		return nil
	}
	models := make([]*model.TransactionItem, len(entities))
	for i, e := range entities {
		models[i] = toTransactionItemModel(e)
	}
	return models
}

// TransactionRow is the joined shape used by Get and List so the customer
// and cashier display fields come back in one query.
type TransactionRow struct {
	ID            int64  `gorm:"column:id"`
	InvoiceNumber string `gorm:"column:invoice_number"`
	CustomerID    int64  `gorm:"column:customer_id"`
	CashierID     *int64 `gorm:"column:cashier_id"`

	TotalAmount decimal.Decimal `gorm:"column:total_amount"`
	Discount    decimal.Decimal `gorm:"column:discount"`
	FinalAmount decimal.Decimal `gorm:"column:final_amount"`
	PaidAmount  decimal.Decimal `gorm:"column:paid_amount"`

	Status              string     `gorm:"column:status"`
	ReceivedAt          time.Time  `gorm:"column:received_at"`
	EstimatedCompletion *time.Time `gorm:"column:estimated_completion"`
	CompletedAt         *time.Time `gorm:"column:completed_at"`
	TakenAt             *time.Time `gorm:"column:taken_at"`

	Notes string `gorm:"column:notes"`

	CustomerName  string `gorm:"column:customer_name"`
	CustomerPhone string `gorm:"column:customer_phone"`
	CashierName   string `gorm:"column:cashier_name"`
}

func toTransactionRowModel(row *TransactionRow) *model.Transaction {
	if row == nil {
		return nil
	}
	return &model.Transaction{
		ID:                  row.ID,
		InvoiceNumber:       row.InvoiceNumber,
		CustomerID:          row.CustomerID,
		CashierID:           row.CashierID,
		TotalAmount:         row.TotalAmount,
		Discount:            row.Discount,
		FinalAmount:         row.FinalAmount,
		PaidAmount:          row.PaidAmount,
		Status:              model.Status(row.Status),
		ReceivedAt:          row.ReceivedAt,
		EstimatedCompletion: row.EstimatedCompletion,
		CompletedAt:         row.CompletedAt,
		TakenAt:             row.TakenAt,
		Notes:               row.Notes,
		CustomerName:        row.CustomerName,
		CustomerPhone:       row.CustomerPhone,
		CashierName:         row.CashierName,
	}
}
