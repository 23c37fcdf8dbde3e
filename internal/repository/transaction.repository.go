package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wicaksono/laundry-pos/internal/model"
	"github.com/wicaksono/laundry-pos/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrItemNotFound        = errors.New("transaction item not found")
	ErrDuplicateInvoice    = errors.New("invoice number already exists")
)

type TransactionRepository struct {
	*pg.DB
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{
		db,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
	entity := toTransactionEntity(tx)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateInvoice
		}
		return nil, err
	}

	return toTransactionModel(entity), nil
}

func (r *TransactionRepository) Get(ctx context.Context, id int64) (*model.Transaction, error) {
	return r.getOne(ctx, "t.id = ?", id)
}

func (r *TransactionRepository) GetByInvoice(ctx context.Context, invoiceNumber string) (*model.Transaction, error) {
	return r.getOne(ctx, "t.invoice_number = ?", invoiceNumber)
}

func (r *TransactionRepository) getOne(ctx context.Context, cond string, arg interface{}) (*model.Transaction, error) {
	var row TransactionRow
	err := r.buildJoinedQuery(ctx).
		Where(cond, arg).
		Take(&row).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	m := toTransactionRowModel(&row)

	items, err := r.ListItems(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	m.Items = items

	return m, nil
}

func (r *TransactionRepository) List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	q := r.buildJoinedQuery(ctx)

	if f.CashierID != nil {
		q = q.Where("t.cashier_id = ?", *f.CashierID)
	}
	if f.CustomerID != nil {
		q = q.Where("t.customer_id = ?", *f.CustomerID)
	}
	if f.Status != nil {
		q = q.Where("t.status = ?", string(*f.Status))
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("t.invoice_number LIKE ? OR c.name LIKE ? OR c.phone LIKE ?", like, like, like)
	}
	if f.From != nil {
		q = q.Where("t.received_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("t.received_at < ?", *f.To)
	}

	// Count before pagination
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

	var rows []*TransactionRow
	if err := q.Order("t.received_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	models := make([]*model.Transaction, len(rows))
	for i, row := range rows {
		models[i] = toTransactionRowModel(row)
	}
	return models, total, nil
}

func (r *TransactionRepository) buildJoinedQuery(ctx context.Context) *gorm.DB {
	return r.Read(ctx).WithContext(ctx).
		Table("transactions AS t").
		Select(`
            t.*,
            c.name                  AS customer_name,
            c.phone                 AS customer_phone,
            COALESCE(u.name, '-')   AS cashier_name
        `).
		Joins("LEFT JOIN customers AS c ON c.id = t.customer_id").
		Joins("LEFT JOIN users AS u ON u.id = t.cashier_id")
}

// Update rewrites every mutable column. The invoice number, customer and
// cashier are fixed for the lifetime of the row.
func (r *TransactionRepository) Update(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
	entity := toTransactionEntity(tx)

	result := r.Write(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Where("id = ?", entity.ID).
		Updates(map[string]interface{}{
			"total_amount":         entity.TotalAmount,
			"discount":             entity.Discount,
			"final_amount":         entity.FinalAmount,
			"paid_amount":          entity.PaidAmount,
			"status":               entity.Status,
			"estimated_completion": entity.EstimatedCompletion,
			"completed_at":         entity.CompletedAt,
			"taken_at":             entity.TakenAt,
			"notes":                entity.Notes,
		})

	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrTransactionNotFound
	}

	return r.Get(ctx, entity.ID)
}

func (r *TransactionRepository) Delete(ctx context.Context, id int64) error {
	err := r.Write(ctx).WithContext(ctx).
		Where("transaction_id = ?", id).
		Delete(&TransactionItemEntity{}).
		Error
	if err != nil {
		return err
	}

	result := r.Write(ctx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&TransactionEntity{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) CreateItem(ctx context.Context, item *model.TransactionItem) (*model.TransactionItem, error) {
	entity := toTransactionItemEntity(item)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toTransactionItemModel(entity), nil
}

func (r *TransactionRepository) GetItem(ctx context.Context, id int64) (*model.TransactionItem, error) {
	var entity TransactionItemEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	return toTransactionItemModel(&entity), nil
}

func (r *TransactionRepository) UpdateItem(ctx context.Context, item *model.TransactionItem) (*model.TransactionItem, error) {
	entity := toTransactionItemEntity(item)

	result := r.Write(ctx).WithContext(ctx).
		Model(&TransactionItemEntity{}).
		Where("id = ?", entity.ID).
		Updates(map[string]interface{}{
			"quantity": entity.Quantity,
			"subtotal": entity.Subtotal,
			"notes":    entity.Notes,
		})

	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrItemNotFound
	}

	return r.GetItem(ctx, entity.ID)
}

func (r *TransactionRepository) DeleteItem(ctx context.Context, id int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&TransactionItemEntity{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *TransactionRepository) ListItems(ctx context.Context, transactionID int64) ([]*model.TransactionItem, error) {
	var entities []*TransactionItemEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("id ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toTransactionItemModels(entities), nil
}

// SumSubtotals returns the current item total for a transaction, zero when
// the transaction has no items.
func (r *TransactionRepository) SumSubtotals(ctx context.Context, transactionID int64) (decimal.Decimal, error) {
	var out struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	err := r.Read(ctx).WithContext(ctx).
		Model(&TransactionItemEntity{}).
		Select("COALESCE(SUM(subtotal), 0) AS total").
		Where("transaction_id = ?", transactionID).
		Scan(&out).
		Error
	if err != nil {
		return decimal.Zero, err
	}
	return out.Total, nil
}

// MaxInvoiceSuffix returns the highest numeric suffix among invoice numbers
// starting with prefix, zero when none exist or the latest one does not end
// in a number.
func (r *TransactionRepository) MaxInvoiceSuffix(ctx context.Context, prefix string) (int64, error) {
	var entity TransactionEntity
	err := r.Read(ctx).WithContext(ctx).
		Select("invoice_number").
		Where("invoice_number LIKE ?", prefix+"%").
		Order("invoice_number DESC").
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}

	parts := strings.Split(entity.InvoiceNumber, "-")
	suffix, err := strconv.ParseInt(parts[len(parts)-1], 10, 64)
	if err != nil {
		return 0, nil
	}
	return suffix, nil
}

// AggregateResult is a count plus revenue totals over a window. Sums come
// back zero, never null, on an empty window.
type AggregateResult struct {
	Count        int64           `gorm:"column:cnt"`
	TotalRevenue decimal.Decimal `gorm:"column:total_revenue"`
	TotalPaid    decimal.Decimal `gorm:"column:total_paid"`
}

func (r *TransactionRepository) Aggregate(ctx context.Context, cashierID *int64, from, to *time.Time) (*AggregateResult, error) {
	q := r.Read(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Select(`
            COUNT(*)                        AS cnt,
            COALESCE(SUM(final_amount), 0)  AS total_revenue,
            COALESCE(SUM(paid_amount), 0)   AS total_paid
        `)

	if cashierID != nil {
		q = q.Where("cashier_id = ?", *cashierID)
	}
	if from != nil {
		q = q.Where("received_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("received_at < ?", *to)
	}

	var out AggregateResult
	if err := q.Scan(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// CountActive counts orders still in the shop, meaning anything not yet
// picked up.
func (r *TransactionRepository) CountActive(ctx context.Context, cashierID *int64) (int64, error) {
	q := r.Read(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Where("status <> ?", string(model.StatusPickedUp))
	if cashierID != nil {
		q = q.Where("cashier_id = ?", *cashierID)
	}

	var total int64
	err := q.Count(&total).Error
	return total, err
}

// CountPending counts orders that have not finished processing yet.
func (r *TransactionRepository) CountPending(ctx context.Context, cashierID *int64) (int64, error) {
	statuses := make([]string, len(model.PendingStatuses))
	for i, s := range model.PendingStatuses {
		statuses[i] = string(s)
	}

	q := r.Read(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Where("status IN ?", statuses)
	if cashierID != nil {
		q = q.Where("cashier_id = ?", *cashierID)
	}

	var total int64
	err := q.Count(&total).Error
	return total, err
}

func (r *TransactionRepository) CountByCustomer(ctx context.Context, customerID int64) (int64, error) {
	var total int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Where("customer_id = ?", customerID).
		Count(&total).
		Error
	return total, err
}
