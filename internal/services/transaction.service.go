package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wicaksono/laundry-pos/internal/invoice"
	"github.com/wicaksono/laundry-pos/internal/model"
	"github.com/wicaksono/laundry-pos/internal/queue"
	"github.com/wicaksono/laundry-pos/internal/repository"
	"github.com/wicaksono/laundry-pos/pkg/logger"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *model.Transaction) (*model.Transaction, error)
	Get(ctx context.Context, id int64) (*model.Transaction, error)
	GetByInvoice(ctx context.Context, invoiceNumber string) (*model.Transaction, error)
	List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) // results, totalCount
	Update(ctx context.Context, tx *model.Transaction) (*model.Transaction, error)
	Delete(ctx context.Context, id int64) error

	CreateItem(ctx context.Context, item *model.TransactionItem) (*model.TransactionItem, error)
	GetItem(ctx context.Context, id int64) (*model.TransactionItem, error)
	UpdateItem(ctx context.Context, item *model.TransactionItem) (*model.TransactionItem, error)
	DeleteItem(ctx context.Context, id int64) error
	SumSubtotals(ctx context.Context, transactionID int64) (decimal.Decimal, error)

	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type CustomerGetter interface {
	Get(ctx context.Context, id int64) (*model.Customer, error)
}

type ServiceGetter interface {
	Get(ctx context.Context, id int64) (*model.Service, error)
}

type TransactionService struct {
	txRepo       TransactionRepository
	customerRepo CustomerGetter
	serviceRepo  ServiceGetter
	sequencer    invoice.Sequencer
	renderQueue  *queue.Queue
	now          func() time.Time
}

func NewTransactionService(txRepo TransactionRepository, customerRepo CustomerGetter, serviceRepo ServiceGetter, sequencer invoice.Sequencer, renderQueue *queue.Queue) *TransactionService {
	return &TransactionService{
		txRepo:       txRepo,
		customerRepo: customerRepo,
		serviceRepo:  serviceRepo,
		sequencer:    sequencer,
		renderQueue:  renderQueue,
		now:          time.Now,
	}
}

// Create registers an order: it prices every requested item against the
// catalog, allocates the next invoice number for the day and persists the
// order and its items atomically. The storage unique index on the invoice
// number is the final authority, a collision restarts the whole unit with a
// freshly allocated number.
func (s *TransactionService) Create(ctx context.Context, actor model.Actor, p model.TransactionCreateRequest) (*model.Transaction, error) {
	if err := p.Validate(); err != nil {
		return nil, invalidArg(err.Error())
	}

	if _, err := s.customerRepo.Get(ctx, p.CustomerID); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	items, total, err := s.priceItems(ctx, p.Items)
	if err != nil {
		return nil, err
	}

	if p.Discount.GreaterThan(total) {
		return nil, ErrDiscountExceedsTotal
	}

	receivedAt := s.now()
	cashierID := actor.UserID

	const maxRetries = 3
	const baseDelay = 2 * time.Millisecond

	var created *model.Transaction
	for attempt := 0; attempt <= maxRetries; attempt++ {
		number, err := s.sequencer.Next(ctx, receivedAt)
		if err != nil {
			return nil, fmt.Errorf("allocate invoice number: %w", err)
		}

		tx := &model.Transaction{
			InvoiceNumber:       number,
			CustomerID:          p.CustomerID,
			CashierID:           &cashierID,
			TotalAmount:         total,
			Discount:            p.Discount,
			FinalAmount:         total.Sub(p.Discount),
			PaidAmount:          p.PaidAmount,
			Status:              model.StatusReceived,
			ReceivedAt:          receivedAt,
			EstimatedCompletion: p.EstimatedCompletion,
			Notes:               strings.TrimSpace(p.Notes),
		}

		err = s.txRepo.WithinTransaction(ctx, func(ctx context.Context) error {
			saved, err := s.txRepo.Create(ctx, tx)
			if err != nil {
				return err
			}
			for _, item := range items {
				item.TransactionID = saved.ID
				if _, err := s.txRepo.CreateItem(ctx, item); err != nil {
					return fmt.Errorf("create item: %w", err)
				}
			}
			created = saved
			return nil
		})

		if err == nil {
			break
		}

		if !errors.Is(err, repository.ErrDuplicateInvoice) {
			return nil, err
		}

		// Another register won the number, back off and take a new one.
		if attempt < maxRetries {
			delay := baseDelay * time.Duration(1<<attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
				continue
			}
		}

		return nil, ErrInvoiceConflict
	}

	s.publishRender(ctx, created.ID)

	return s.txRepo.Get(ctx, created.ID)
}

// priceItems resolves every request line against the catalog and snapshots
// the current prices. The returned total is the sum of line subtotals.
func (s *TransactionService) priceItems(ctx context.Context, reqs []model.TransactionItemRequest) ([]*model.TransactionItem, decimal.Decimal, error) {
	items := make([]*model.TransactionItem, 0, len(reqs))
	total := decimal.Zero

	for _, req := range reqs {
		item, err := s.priceItem(ctx, req)
		if err != nil {
			return nil, decimal.Zero, err
		}
		items = append(items, item)
		total = total.Add(item.Subtotal)
	}

	return items, total, nil
}

func (s *TransactionService) priceItem(ctx context.Context, req model.TransactionItemRequest) (*model.TransactionItem, error) {
	svc, err := s.serviceRepo.Get(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	if !svc.IsActive {
		return nil, ErrServiceInactive
	}
	// Piece-rate services take whole quantities only.
	if svc.Type == model.ServiceTypeCount && !req.Quantity.Equal(req.Quantity.Truncate(0)) {
		return nil, ErrInvalidQuantity
	}

	return &model.TransactionItem{
		ServiceID:   svc.ID,
		ServiceName: svc.Name,
		Unit:        svc.Unit,
		Quantity:    req.Quantity,
		UnitPrice:   svc.PricePerUnit,
		Subtotal:    req.Quantity.Mul(svc.PricePerUnit),
		Notes:       strings.TrimSpace(req.Notes),
	}, nil
}

// visible says whether the actor may see the order. Restricted roles only
// see orders recorded at their own register; scope misses read as not found
// so the response does not confirm the invoice exists.
func (s *TransactionService) visible(actor model.Actor, tx *model.Transaction) bool {
	if !actor.Role.Restricted() {
		return true
	}
	return tx.CashierID != nil && *tx.CashierID == actor.UserID
}

func (s *TransactionService) Get(ctx context.Context, actor model.Actor, id int64) (*model.Transaction, error) {
	tx, err := s.txRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if !s.visible(actor, tx) {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}

func (s *TransactionService) GetByInvoice(ctx context.Context, actor model.Actor, invoiceNumber string) (*model.Transaction, error) {
	tx, err := s.txRepo.GetByInvoice(ctx, invoiceNumber)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if !s.visible(actor, tx) {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}

// List scopes restricted roles to their own registers before querying.
func (s *TransactionService) List(ctx context.Context, actor model.Actor, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	if actor.Role.Restricted() {
		id := actor.UserID
		f.CashierID = &id
	}
	return s.txRepo.List(ctx, f)
}

func (s *TransactionService) Update(ctx context.Context, actor model.Actor, id int64, p model.TransactionUpdateRequest) (*model.Transaction, error) {
	tx, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if p.Discount != nil {
		if p.Discount.IsNegative() {
			return nil, invalidArg("discount must not be negative")
		}
		if p.Discount.GreaterThan(tx.TotalAmount) {
			return nil, ErrDiscountExceedsTotal
		}
		tx.Discount = *p.Discount
	}
	if p.PaidAmount != nil {
		if p.PaidAmount.IsNegative() {
			return nil, invalidArg("paid_amount must not be negative")
		}
		tx.PaidAmount = *p.PaidAmount
	}
	if p.EstimatedCompletion != nil {
		tx.EstimatedCompletion = p.EstimatedCompletion
	}
	if p.Notes != nil {
		tx.Notes = strings.TrimSpace(*p.Notes)
	}

	tx.FinalAmount = tx.TotalAmount.Sub(tx.Discount)

	return s.txRepo.Update(ctx, tx)
}

// UpdateStatus moves the order through its lifecycle. Entering done stamps
// completed_at once, entering picked_up stamps taken_at once. Stamps are
// never cleared or overwritten by later updates.
func (s *TransactionService) UpdateStatus(ctx context.Context, actor model.Actor, id int64, status model.Status) (*model.Transaction, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	tx, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	tx.Status = status
	now := s.now()
	switch status {
	case model.StatusDone:
		if tx.CompletedAt == nil {
			tx.CompletedAt = &now
		}
	case model.StatusPickedUp:
		if tx.TakenAt == nil {
			tx.TakenAt = &now
		}
	}

	return s.txRepo.Update(ctx, tx)
}

func (s *TransactionService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	if actor.Role.Restricted() {
		return ErrUnauthorized
	}

	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}

	if err := s.txRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return ErrTransactionNotFound
		}
		return err
	}
	return nil
}

// AddItem prices a new line against the catalog and folds it into the
// order's totals in one storage transaction.
func (s *TransactionService) AddItem(ctx context.Context, actor model.Actor, transactionID int64, req model.TransactionItemRequest) (*model.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, invalidArg(err.Error())
	}

	tx, err := s.Get(ctx, actor, transactionID)
	if err != nil {
		return nil, err
	}

	item, err := s.priceItem(ctx, req)
	if err != nil {
		return nil, err
	}
	item.TransactionID = tx.ID

	err = s.txRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.txRepo.CreateItem(ctx, item); err != nil {
			return err
		}
		return s.recomputeTotals(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	return s.txRepo.Get(ctx, tx.ID)
}

// UpdateItemQuantity changes a line's quantity. The subtotal is recomputed
// from the stored unit price, never from the current catalog price.
func (s *TransactionService) UpdateItemQuantity(ctx context.Context, actor model.Actor, transactionID, itemID int64, quantity decimal.Decimal) (*model.Transaction, error) {
	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}

	tx, err := s.Get(ctx, actor, transactionID)
	if err != nil {
		return nil, err
	}

	item, err := s.getOwnedItem(ctx, tx.ID, itemID)
	if err != nil {
		return nil, err
	}

	// The whole-quantity rule for piece-rate services holds on edits too.
	// A line whose service has since left the catalog keeps its snapshot
	// and skips the check.
	if !quantity.Equal(quantity.Truncate(0)) {
		svc, err := s.serviceRepo.Get(ctx, item.ServiceID)
		if err != nil && !errors.Is(err, repository.ErrServiceNotFound) {
			return nil, err
		}
		if err == nil && svc.Type == model.ServiceTypeCount {
			return nil, ErrInvalidQuantity
		}
	}

	item.Quantity = quantity
	item.Subtotal = quantity.Mul(item.UnitPrice)

	err = s.txRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.txRepo.UpdateItem(ctx, item); err != nil {
			return err
		}
		return s.recomputeTotals(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	return s.txRepo.Get(ctx, tx.ID)
}

func (s *TransactionService) RemoveItem(ctx context.Context, actor model.Actor, transactionID, itemID int64) (*model.Transaction, error) {
	tx, err := s.Get(ctx, actor, transactionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.getOwnedItem(ctx, tx.ID, itemID); err != nil {
		return nil, err
	}

	err = s.txRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.txRepo.DeleteItem(ctx, itemID); err != nil {
			return err
		}
		return s.recomputeTotals(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	return s.txRepo.Get(ctx, tx.ID)
}

func (s *TransactionService) getOwnedItem(ctx context.Context, transactionID, itemID int64) (*model.TransactionItem, error) {
	item, err := s.txRepo.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	if item.TransactionID != transactionID {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// recomputeTotals re-derives total and final from the stored items after
// any item mutation. The discount is kept as-is even when it now exceeds
// the total, matching how paper corrections work at the counter.
func (s *TransactionService) recomputeTotals(ctx context.Context, tx *model.Transaction) error {
	total, err := s.txRepo.SumSubtotals(ctx, tx.ID)
	if err != nil {
		return err
	}

	tx.TotalAmount = total
	tx.FinalAmount = total.Sub(tx.Discount)

	_, err = s.txRepo.Update(ctx, tx)
	return err
}

// Snapshot resolves everything the receipt needs into one value.
func (s *TransactionService) Snapshot(ctx context.Context, actor model.Actor, id int64) (*model.InvoiceSnapshot, error) {
	tx, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return snapshotOf(tx), nil
}

func snapshotOf(tx *model.Transaction) *model.InvoiceSnapshot {
	lines := make([]model.InvoiceLine, len(tx.Items))
	for i, item := range tx.Items {
		lines[i] = model.InvoiceLine{
			ServiceName: item.ServiceName,
			Quantity:    item.Quantity,
			Unit:        item.Unit,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		}
	}

	cashierName := tx.CashierName
	if cashierName == "" {
		cashierName = "-"
	}

	return &model.InvoiceSnapshot{
		InvoiceNumber:       tx.InvoiceNumber,
		ReceivedAt:          tx.ReceivedAt,
		CustomerName:        tx.CustomerName,
		CustomerPhone:       tx.CustomerPhone,
		CashierName:         cashierName,
		Lines:               lines,
		TotalAmount:         tx.TotalAmount,
		Discount:            tx.Discount,
		FinalAmount:         tx.FinalAmount,
		PaidAmount:          tx.PaidAmount,
		Status:              tx.Status,
		EstimatedCompletion: tx.EstimatedCompletion,
		Notes:               tx.Notes,
	}
}

// publishRender hands the freshly registered order to the receipt pipeline.
// Registration never fails on queue trouble, the receipt can be re-rendered
// on demand.
func (s *TransactionService) publishRender(ctx context.Context, transactionID int64) {
	if s.renderQueue == nil {
		return
	}

	tx, err := s.txRepo.Get(ctx, transactionID)
	if err != nil {
		logger.Error("failed to load transaction for render", "id", transactionID, "error", err)
		return
	}

	_, err = s.renderQueue.PublishJSON(ctx, snapshotOf(tx), map[string]string{
		"job_id":  uuid.NewString(),
		"invoice": tx.InvoiceNumber,
	})
	if err != nil {
		logger.Error("failed to publish render job", "invoice", tx.InvoiceNumber, "error", err)
	}
}
