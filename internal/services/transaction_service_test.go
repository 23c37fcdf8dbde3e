package services

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wicaksono/laundry-pos/internal/invoice"
	"github.com/wicaksono/laundry-pos/internal/model"
	"github.com/wicaksono/laundry-pos/internal/repository"
)

// fakeTxRepo is an in-memory TransactionRepository that enforces the same
// contracts as the real one: unique invoice numbers, repository sentinels
// and derived sums.
type fakeTxRepo struct {
	mu         sync.Mutex
	nextID     int64
	nextItemID int64
	txs        map[int64]*model.Transaction
	items      map[int64]*model.TransactionItem
}

func newFakeTxRepo() *fakeTxRepo {
	return &fakeTxRepo{
		txs:   make(map[int64]*model.Transaction),
		items: make(map[int64]*model.TransactionItem),
	}
}

func (f *fakeTxRepo) Create(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.txs {
		if existing.InvoiceNumber == tx.InvoiceNumber {
			return nil, repository.ErrDuplicateInvoice
		}
	}
	f.nextID++
	cp := *tx
	cp.ID = f.nextID
	f.txs[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeTxRepo) Get(ctx context.Context, id int64) (*model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[id]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	out := *tx
	out.Items = f.itemsOf(id)
	return &out, nil
}

func (f *fakeTxRepo) GetByInvoice(ctx context.Context, invoiceNumber string) (*model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, tx := range f.txs {
		if tx.InvoiceNumber == invoiceNumber {
			out := *tx
			out.Items = f.itemsOf(id)
			return &out, nil
		}
	}
	return nil, repository.ErrTransactionNotFound
}

func (f *fakeTxRepo) List(ctx context.Context, filter model.TransactionFilter) ([]*model.Transaction, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Transaction
	for _, tx := range f.txs {
		if filter.CashierID != nil && (tx.CashierID == nil || *tx.CashierID != *filter.CashierID) {
			continue
		}
		if filter.Status != nil && tx.Status != *filter.Status {
			continue
		}
		cp := *tx
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.After(out[j].ReceivedAt) })
	return out, int64(len(out)), nil
}

func (f *fakeTxRepo) Update(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.txs[tx.ID]; !ok {
		return nil, repository.ErrTransactionNotFound
	}
	cp := *tx
	cp.Items = nil
	f.txs[tx.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeTxRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.txs[id]; !ok {
		return repository.ErrTransactionNotFound
	}
	delete(f.txs, id)
	for itemID, item := range f.items {
		if item.TransactionID == id {
			delete(f.items, itemID)
		}
	}
	return nil
}

func (f *fakeTxRepo) CreateItem(ctx context.Context, item *model.TransactionItem) (*model.TransactionItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextItemID++
	cp := *item
	cp.ID = f.nextItemID
	f.items[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeTxRepo) GetItem(ctx context.Context, id int64) (*model.TransactionItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	out := *item
	return &out, nil
}

func (f *fakeTxRepo) UpdateItem(ctx context.Context, item *model.TransactionItem) (*model.TransactionItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[item.ID]; !ok {
		return nil, repository.ErrItemNotFound
	}
	cp := *item
	f.items[item.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeTxRepo) DeleteItem(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return repository.ErrItemNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeTxRepo) SumSubtotals(ctx context.Context, transactionID int64) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := decimal.Zero
	for _, item := range f.items {
		if item.TransactionID == transactionID {
			sum = sum.Add(item.Subtotal)
		}
	}
	return sum, nil
}

func (f *fakeTxRepo) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeTxRepo) MaxInvoiceSuffix(ctx context.Context, prefix string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var max int64
	for _, tx := range f.txs {
		if !strings.HasPrefix(tx.InvoiceNumber, prefix) {
			continue
		}
		parts := strings.Split(tx.InvoiceNumber, "-")
		n, err := strconv.ParseInt(parts[len(parts)-1], 10, 64)
		if err == nil && n > max {
			max = n
		}
	}
	return max, nil
}

func (f *fakeTxRepo) itemsOf(transactionID int64) []*model.TransactionItem {
	var out []*model.TransactionItem
	for _, item := range f.items {
		if item.TransactionID == transactionID {
			cp := *item
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type stubCustomerGetter struct {
	customers map[int64]*model.Customer
}

func (s *stubCustomerGetter) Get(ctx context.Context, id int64) (*model.Customer, error) {
	c, ok := s.customers[id]
	if !ok {
		return nil, repository.ErrCustomerNotFound
	}
	return c, nil
}

type stubServiceGetter struct {
	services map[int64]*model.Service
}

func (s *stubServiceGetter) Get(ctx context.Context, id int64) (*model.Service, error) {
	svc, ok := s.services[id]
	if !ok {
		return nil, repository.ErrServiceNotFound
	}
	cp := *svc
	return &cp, nil
}

type stubSequencer struct {
	numbers []string
	idx     int
}

func (s *stubSequencer) Next(ctx context.Context, day time.Time) (string, error) {
	if s.idx >= len(s.numbers) {
		return s.numbers[len(s.numbers)-1], nil
	}
	n := s.numbers[s.idx]
	s.idx++
	return n, nil
}

var (
	adminActor   = model.Actor{UserID: 1, Role: model.RoleAdmin}
	cashierActor = model.Actor{UserID: 2, Role: model.RoleCashier}
	otherCashier = model.Actor{UserID: 3, Role: model.RoleCashier}
)

func newTestService(repo *fakeTxRepo) *TransactionService {
	customers := &stubCustomerGetter{customers: map[int64]*model.Customer{
		1: {ID: 1, Name: "Budi", Phone: "0811111111"},
	}}
	catalog := &stubServiceGetter{services: map[int64]*model.Service{
		1: {ID: 1, Name: "Cuci Kering", Type: model.ServiceTypeWeight, PricePerUnit: decimal.NewFromInt(5000), Unit: "kg", IsActive: true},
		2: {ID: 2, Name: "Bed Cover", Type: model.ServiceTypeCount, PricePerUnit: decimal.NewFromInt(8000), Unit: "pcs", IsActive: true},
		3: {ID: 3, Name: "Dry Clean", Type: model.ServiceTypeCount, PricePerUnit: decimal.NewFromInt(20000), Unit: "pcs", IsActive: false},
	}}
	svc := NewTransactionService(repo, customers, catalog, invoice.NewStoreSequencer(repo), nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestTransactionService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("prices items and derives totals", func(t *testing.T) {
		svc := newTestService(newFakeTxRepo())

		created, err := svc.Create(ctx, cashierActor, model.TransactionCreateRequest{
			CustomerID: 1,
			Items: []model.TransactionItemRequest{
				{ServiceID: 1, Quantity: decimal.NewFromFloat(2.5)},
				{ServiceID: 2, Quantity: decimal.NewFromInt(1)},
			},
			PaidAmount: decimal.NewFromInt(20500),
		})
		require.NoError(t, err)

		assert.Equal(t, "INV-20240601-0001", created.InvoiceNumber)
		assert.True(t, created.TotalAmount.Equal(decimal.NewFromInt(20500)), "got %s", created.TotalAmount)
		assert.True(t, created.FinalAmount.Equal(decimal.NewFromInt(20500)))
		assert.Equal(t, model.StatusReceived, created.Status)
		require.Len(t, created.Items, 2)
		assert.True(t, created.Items[0].Subtotal.Equal(decimal.NewFromInt(12500)))
		assert.True(t, created.Items[0].UnitPrice.Equal(decimal.NewFromInt(5000)))
		require.NotNil(t, created.CashierID)
		assert.Equal(t, cashierActor.UserID, *created.CashierID)
	})

	t.Run("numbers increase within the day", func(t *testing.T) {
		svc := newTestService(newFakeTxRepo())

		req := model.TransactionCreateRequest{
			CustomerID: 1,
			Items:      []model.TransactionItemRequest{{ServiceID: 1, Quantity: decimal.NewFromInt(1)}},
		}

		first, err := svc.Create(ctx, adminActor, req)
		require.NoError(t, err)
		second, err := svc.Create(ctx, adminActor, req)
		require.NoError(t, err)

		assert.Equal(t, "INV-20240601-0001", first.InvoiceNumber)
		assert.Equal(t, "INV-20240601-0002", second.InvoiceNumber)
	})

	t.Run("discount reduces final amount", func(t *testing.T) {
		svc := newTestService(newFakeTxRepo())

		created, err := svc.Create(ctx, adminActor, model.TransactionCreateRequest{
			CustomerID: 1,
			Items:      []model.TransactionItemRequest{{ServiceID: 1, Quantity: decimal.NewFromInt(4)}},
			Discount:   decimal.NewFromInt(500),
		})
		require.NoError(t, err)
		assert.True(t, created.TotalAmount.Equal(decimal.NewFromInt(20000)))
		assert.True(t, created.FinalAmount.Equal(decimal.NewFromInt(19500)))
	})

	t.Run("discount above total is rejected", func(t *testing.T) {
		svc := newTestService(newFakeTxRepo())

		_, err := svc.Create(ctx, adminActor, model.TransactionCreateRequest{
			CustomerID: 1,
			Items:      []model.TransactionItemRequest{{ServiceID: 1, Quantity: decimal.NewFromInt(1)}},
			Discount:   decimal.NewFromInt(99999),
		})
		assert.ErrorIs(t, err, ErrDiscountExceedsTotal)
	})

	t.Run("unknown customer", func(t *testing.T) {
		svc := newTestService(newFakeTxRepo())

		_, err := svc.Create(ctx, adminActor, model.TransactionCreateRequest{
			CustomerID: 999,
			Items:      []model.TransactionItemRequest{{ServiceID: 1, Quantity: decimal.NewFromInt(1)}},
		})
		assert.ErrorIs(t, err, ErrCustomerNotFound)
	})

	t.Run("unknown service", func(t *testing.T) {
		svc := newTestService(newFakeTxRepo())

		_, err := svc.Create(ctx, adminActor, model.TransactionCreateRequest{
			CustomerID: 1,
			Items:      []model.TransactionItemRequest{{ServiceID: 999, Quantity: decimal.NewFromInt(1)}},
		})
		assert.ErrorIs(t, err, ErrServiceNotFound)
	})

	t.Run("inactive service", func(t *testing.T) {
		svc := newTestService(newFakeTxRepo())

		_, err := svc.Create(ctx, adminActor, model.TransactionCreateRequest{
			CustomerID: 1,
			Items:      []model.TransactionItemRequest{{ServiceID: 3, Quantity: decimal.NewFromInt(1)}},
		})
		assert.ErrorIs(t, err, ErrServiceInactive)
	})

	t.Run("fractional quantity on piece-rate service", func(t *testing.T) {
		svc := newTestService(newFakeTxRepo())

		_, err := svc.Create(ctx, adminActor, model.TransactionCreateRequest{
			CustomerID: 1,
			Items:      []model.TransactionItemRequest{{ServiceID: 2, Quantity: decimal.NewFromFloat(1.5)}},
		})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("retries on invoice collision", func(t *testing.T) {
		repo := newFakeTxRepo()
		svc := newTestService(repo)
		seq := &stubSequencer{numbers: []string{
			"INV-20240601-0001",
			"INV-20240601-0001", // collides with the first register
			"INV-20240601-0002",
		}}
		svc.sequencer = seq

		req := model.TransactionCreateRequest{
			CustomerID: 1,
			Items:      []model.TransactionItemRequest{{ServiceID: 1, Quantity: decimal.NewFromInt(1)}},
		}

		first, err := svc.Create(ctx, adminActor, req)
		require.NoError(t, err)
		second, err := svc.Create(ctx, adminActor, req)
		require.NoError(t, err)

		assert.Equal(t, "INV-20240601-0001", first.InvoiceNumber)
		assert.Equal(t, "INV-20240601-0002", second.InvoiceNumber)
	})

	t.Run("gives up after repeated collisions", func(t *testing.T) {
		repo := newFakeTxRepo()
		svc := newTestService(repo)
		svc.sequencer = &stubSequencer{numbers: []string{"INV-20240601-0001"}}

		req := model.TransactionCreateRequest{
			CustomerID: 1,
			Items:      []model.TransactionItemRequest{{ServiceID: 1, Quantity: decimal.NewFromInt(1)}},
		}

		_, err := svc.Create(ctx, adminActor, req)
		require.NoError(t, err)
		_, err = svc.Create(ctx, adminActor, req)
		assert.ErrorIs(t, err, ErrInvoiceConflict)
	})
}

func TestTransactionService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	register := func(t *testing.T, svc *TransactionService) *model.Transaction {
		t.Helper()
		created, err := svc.Create(ctx, adminActor, model.TransactionCreateRequest{
			CustomerID: 1,
			Items:      []model.TransactionItemRequest{{ServiceID: 1, Quantity: decimal.NewFromInt(1)}},
		})
		require.NoError(t, err)
		return created
	}

	t.Run("done stamps completion once", func(t *testing.T) {
		svc := newTestService(newFakeTxRepo())
		tx := register(t, svc)

		updated, err := svc.UpdateStatus(ctx, adminActor, tx.ID, model.StatusDone)
		require.NoError(t, err)
		require.NotNil(t, updated.CompletedAt)
		stamped := *updated.CompletedAt

		// A later pass through done must not move the stamp.
		svc.now = func() time.Time { return stamped.Add(2 * time.Hour) }
		again, err := svc.UpdateStatus(ctx, adminActor, tx.ID, model.StatusDone)
		require.NoError(t, err)
		require.NotNil(t, again.CompletedAt)
		assert.True(t, again.CompletedAt.Equal(stamped))
	})

	t.Run("picked up stamps taken_at but not completed_at", func(t *testing.T) {
		svc := newTestService(newFakeTxRepo())
		tx := register(t, svc)

		updated, err := svc.UpdateStatus(ctx, adminActor, tx.ID, model.StatusPickedUp)
		require.NoError(t, err)
		require.NotNil(t, updated.TakenAt)
		assert.Nil(t, updated.CompletedAt)
	})

	t.Run("taken stamp survives status churn", func(t *testing.T) {
		svc := newTestService(newFakeTxRepo())
		tx := register(t, svc)

		first, err := svc.UpdateStatus(ctx, adminActor, tx.ID, model.StatusPickedUp)
		require.NoError(t, err)
		stamped := *first.TakenAt

		_, err = svc.UpdateStatus(ctx, adminActor, tx.ID, model.StatusDone)
		require.NoError(t, err)

		svc.now = func() time.Time { return stamped.Add(time.Hour) }
		again, err := svc.UpdateStatus(ctx, adminActor, tx.ID, model.StatusPickedUp)
		require.NoError(t, err)
		assert.True(t, again.TakenAt.Equal(stamped))
	})

	t.Run("invalid status", func(t *testing.T) {
		svc := newTestService(newFakeTxRepo())
		tx := register(t, svc)

		_, err := svc.UpdateStatus(ctx, adminActor, tx.ID, model.Status("shredded"))
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestTransactionService_Items(t *testing.T) {
	ctx := context.Background()

	register := func(t *testing.T, svc *TransactionService) *model.Transaction {
		t.Helper()
		created, err := svc.Create(ctx, adminActor, model.TransactionCreateRequest{
			CustomerID: 1,
			Items:      []model.TransactionItemRequest{{ServiceID: 1, Quantity: decimal.NewFromFloat(2.5)}},
			Discount:   decimal.NewFromInt(500),
		})
		require.NoError(t, err)
		return created
	}

	t.Run("add item recomputes totals", func(t *testing.T) {
		svc := newTestService(newFakeTxRepo())
		tx := register(t, svc)

		updated, err := svc.AddItem(ctx, adminActor, tx.ID, model.TransactionItemRequest{
			ServiceID: 2,
			Quantity:  decimal.NewFromInt(1),
		})
		require.NoError(t, err)
		assert.True(t, updated.TotalAmount.Equal(decimal.NewFromInt(20500)), "got %s", updated.TotalAmount)
		assert.True(t, updated.FinalAmount.Equal(decimal.NewFromInt(20000)))
		require.Len(t, updated.Items, 2)
	})

	t.Run("quantity change uses stored unit price", func(t *testing.T) {
		repo := newFakeTxRepo()
		svc := newTestService(repo)
		tx := register(t, svc)

		// Reprice the catalog after registration, the order must not care.
		catalog := svc.serviceRepo.(*stubServiceGetter)
		catalog.services[1].PricePerUnit = decimal.NewFromInt(9999)

		updated, err := svc.UpdateItemQuantity(ctx, adminActor, tx.ID, tx.Items[0].ID, decimal.NewFromInt(4))
		require.NoError(t, err)
		assert.True(t, updated.TotalAmount.Equal(decimal.NewFromInt(20000)), "got %s", updated.TotalAmount)
		assert.True(t, updated.Items[0].UnitPrice.Equal(decimal.NewFromInt(5000)))
	})

	t.Run("remove item recomputes totals", func(t *testing.T) {
		svc := newTestService(newFakeTxRepo())
		tx := register(t, svc)

		withExtra, err := svc.AddItem(ctx, adminActor, tx.ID, model.TransactionItemRequest{
			ServiceID: 2,
			Quantity:  decimal.NewFromInt(1),
		})
		require.NoError(t, err)

		updated, err := svc.RemoveItem(ctx, adminActor, tx.ID, withExtra.Items[1].ID)
		require.NoError(t, err)
		assert.True(t, updated.TotalAmount.Equal(decimal.NewFromInt(12500)))
		assert.True(t, updated.FinalAmount.Equal(decimal.NewFromInt(12000)))
		require.Len(t, updated.Items, 1)
	})

	t.Run("piece-rate line rejects fractional quantity on edit", func(t *testing.T) {
		svc := newTestService(newFakeTxRepo())
		tx := register(t, svc)

		withExtra, err := svc.AddItem(ctx, adminActor, tx.ID, model.TransactionItemRequest{
			ServiceID: 2,
			Quantity:  decimal.NewFromInt(1),
		})
		require.NoError(t, err)

		_, err = svc.UpdateItemQuantity(ctx, adminActor, tx.ID, withExtra.Items[1].ID, decimal.NewFromFloat(1.5))
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		// The weight-based line on the same order still takes fractions.
		updated, err := svc.UpdateItemQuantity(ctx, adminActor, tx.ID, withExtra.Items[0].ID, decimal.NewFromFloat(3.5))
		require.NoError(t, err)
		assert.True(t, updated.Items[0].Quantity.Equal(decimal.NewFromFloat(3.5)))
	})

	t.Run("item from another transaction is invisible", func(t *testing.T) {
		svc := newTestService(newFakeTxRepo())
		first := register(t, svc)
		second := register(t, svc)

		_, err := svc.UpdateItemQuantity(ctx, adminActor, first.ID, second.Items[0].ID, decimal.NewFromInt(2))
		assert.ErrorIs(t, err, ErrItemNotFound)
	})
}

func TestTransactionService_Scoping(t *testing.T) {
	ctx := context.Background()

	svc := newTestService(newFakeTxRepo())

	mine, err := svc.Create(ctx, cashierActor, model.TransactionCreateRequest{
		CustomerID: 1,
		Items:      []model.TransactionItemRequest{{ServiceID: 1, Quantity: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)

	theirs, err := svc.Create(ctx, otherCashier, model.TransactionCreateRequest{
		CustomerID: 1,
		Items:      []model.TransactionItemRequest{{ServiceID: 1, Quantity: decimal.NewFromInt(2)}},
	})
	require.NoError(t, err)

	t.Run("cashier sees own transaction", func(t *testing.T) {
		got, err := svc.Get(ctx, cashierActor, mine.ID)
		require.NoError(t, err)
		assert.Equal(t, mine.ID, got.ID)
	})

	t.Run("cashier cannot see another register", func(t *testing.T) {
		_, err := svc.Get(ctx, cashierActor, theirs.ID)
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})

	t.Run("admin sees everything", func(t *testing.T) {
		list, total, err := svc.List(ctx, adminActor, model.TransactionFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, list, 2)
	})

	t.Run("cashier list is scoped", func(t *testing.T) {
		list, total, err := svc.List(ctx, cashierActor, model.TransactionFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, list, 1)
		assert.Equal(t, mine.ID, list[0].ID)
	})

	t.Run("cashier cannot delete", func(t *testing.T) {
		err := svc.Delete(ctx, cashierActor, mine.ID)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("admin can delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, adminActor, theirs.ID))
		_, err := svc.Get(ctx, adminActor, theirs.ID)
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})
}

func TestTransactionService_Snapshot(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeTxRepo())

	created, err := svc.Create(ctx, adminActor, model.TransactionCreateRequest{
		CustomerID: 1,
		Items: []model.TransactionItemRequest{
			{ServiceID: 1, Quantity: decimal.NewFromFloat(2.5)},
		},
		Discount:   decimal.NewFromInt(500),
		PaidAmount: decimal.NewFromInt(15000),
	})
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx, adminActor, created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.InvoiceNumber, snap.InvoiceNumber)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "Cuci Kering", snap.Lines[0].ServiceName)
	assert.True(t, snap.FinalAmount.Equal(decimal.NewFromInt(12000)))
	assert.True(t, snap.Change().Equal(decimal.NewFromInt(3000)))
	// The fake does not join names, the renderer still needs a value.
	assert.Equal(t, "-", snap.CashierName)
}
