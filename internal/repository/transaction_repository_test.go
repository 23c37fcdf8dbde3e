package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wicaksono/laundry-pos/internal/model"
)

func seedCustomer(t *testing.T, repo *CustomerRepository, name, phone string) *model.Customer {
	t.Helper()
	c, err := repo.Create(context.Background(), &model.Customer{Name: name, Phone: phone})
	require.NoError(t, err)
	return c
}

func seedCashier(t *testing.T, repo *UserRepository, username, name string) *model.User {
	t.Helper()
	u, err := repo.Create(context.Background(), &model.User{
		Username: username,
		Password: "x",
		Name:     name,
		Role:     model.RoleCashier,
		IsActive: true,
	})
	require.NoError(t, err)
	return u
}

func newTestTransaction(invoice string, customerID int64, cashierID *int64, status model.Status, receivedAt time.Time, final, paid int64) *model.Transaction {
	return &model.Transaction{
		InvoiceNumber: invoice,
		CustomerID:    customerID,
		CashierID:     cashierID,
		TotalAmount:   decimal.NewFromInt(final),
		Discount:      decimal.Zero,
		FinalAmount:   decimal.NewFromInt(final),
		PaidAmount:    decimal.NewFromInt(paid),
		Status:        status,
		ReceivedAt:    receivedAt,
	}
}

func TestTransactionRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	customers := NewCustomerRepository(db)
	ctx := context.Background()

	customer := seedCustomer(t, customers, "Budi", "0811111111")

	t.Run("successful create", func(t *testing.T) {
		created, err := repo.Create(ctx, newTestTransaction("INV-20240601-0001", customer.ID, nil, model.StatusReceived, time.Now(), 12500, 15000))
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, "INV-20240601-0001", created.InvoiceNumber)
	})

	t.Run("duplicate invoice number", func(t *testing.T) {
		_, err := repo.Create(ctx, newTestTransaction("INV-20240601-0001", customer.ID, nil, model.StatusReceived, time.Now(), 8000, 8000))
		assert.ErrorIs(t, err, ErrDuplicateInvoice)
	})
}

func TestTransactionRepository_Get(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	customers := NewCustomerRepository(db)
	users := NewUserRepository(db)
	ctx := context.Background()

	customer := seedCustomer(t, customers, "Budi", "0811111111")
	cashier := seedCashier(t, users, "sari", "Sari")

	created, err := repo.Create(ctx, newTestTransaction("INV-20240601-0001", customer.ID, &cashier.ID, model.StatusReceived, time.Now(), 20500, 20500))
	require.NoError(t, err)

	_, err = repo.CreateItem(ctx, &model.TransactionItem{
		TransactionID: created.ID,
		ServiceID:     1,
		ServiceName:   "Cuci Kering",
		Unit:          "kg",
		Quantity:      decimal.NewFromFloat(2.5),
		UnitPrice:     decimal.NewFromInt(5000),
		Subtotal:      decimal.NewFromInt(12500),
	})
	require.NoError(t, err)

	t.Run("joins customer and cashier", func(t *testing.T) {
		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Budi", got.CustomerName)
		assert.Equal(t, "0811111111", got.CustomerPhone)
		assert.Equal(t, "Sari", got.CashierName)
		require.Len(t, got.Items, 1)
		assert.True(t, got.Items[0].Subtotal.Equal(decimal.NewFromInt(12500)))
	})

	t.Run("by invoice number", func(t *testing.T) {
		got, err := repo.GetByInvoice(ctx, "INV-20240601-0001")
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("missing cashier becomes dash", func(t *testing.T) {
		orphan, err := repo.Create(ctx, newTestTransaction("INV-20240601-0002", customer.ID, nil, model.StatusReceived, time.Now(), 5000, 5000))
		require.NoError(t, err)

		got, err := repo.Get(ctx, orphan.ID)
		require.NoError(t, err)
		assert.Equal(t, "-", got.CashierName)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.Get(ctx, 999)
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})
}

func TestTransactionRepository_List(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	customers := NewCustomerRepository(db)
	users := NewUserRepository(db)
	ctx := context.Background()

	budi := seedCustomer(t, customers, "Budi", "0811111111")
	siti := seedCustomer(t, customers, "Siti", "0822222222")
	sari := seedCashier(t, users, "sari", "Sari")
	rina := seedCashier(t, users, "rina", "Rina")

	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	seed := []*model.Transaction{
		newTestTransaction("INV-20240601-0001", budi.ID, &sari.ID, model.StatusReceived, base, 12500, 15000),
		newTestTransaction("INV-20240601-0002", siti.ID, &rina.ID, model.StatusWashing, base.Add(time.Hour), 8000, 8000),
		newTestTransaction("INV-20240602-0001", budi.ID, &sari.ID, model.StatusPickedUp, base.Add(24*time.Hour), 20000, 20000),
	}
	for _, tx := range seed {
		_, err := repo.Create(ctx, tx)
		require.NoError(t, err)
	}

	t.Run("newest first", func(t *testing.T) {
		list, total, err := repo.List(ctx, model.TransactionFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, list, 3)
		assert.Equal(t, "INV-20240602-0001", list[0].InvoiceNumber)
	})

	t.Run("by cashier", func(t *testing.T) {
		list, total, err := repo.List(ctx, model.TransactionFilter{CashierID: &rina.ID})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, list, 1)
		assert.Equal(t, "INV-20240601-0002", list[0].InvoiceNumber)
	})

	t.Run("by status", func(t *testing.T) {
		status := model.StatusWashing
		list, _, err := repo.List(ctx, model.TransactionFilter{Status: &status})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, model.StatusWashing, list[0].Status)
	})

	t.Run("search matches customer name", func(t *testing.T) {
		list, _, err := repo.List(ctx, model.TransactionFilter{Search: "Siti"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, siti.ID, list[0].CustomerID)
	})

	t.Run("date window excludes upper bound", func(t *testing.T) {
		from := base
		to := base.Add(24 * time.Hour)
		list, _, err := repo.List(ctx, model.TransactionFilter{From: &from, To: &to})
		require.NoError(t, err)
		require.Len(t, list, 2)
	})
}

func TestTransactionRepository_Items(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	customers := NewCustomerRepository(db)
	ctx := context.Background()

	customer := seedCustomer(t, customers, "Budi", "0811111111")
	tx, err := repo.Create(ctx, newTestTransaction("INV-20240601-0001", customer.ID, nil, model.StatusReceived, time.Now(), 0, 0))
	require.NoError(t, err)

	t.Run("sum of subtotals", func(t *testing.T) {
		_, err := repo.CreateItem(ctx, &model.TransactionItem{
			TransactionID: tx.ID,
			ServiceID:     1,
			ServiceName:   "Cuci Kering",
			Unit:          "kg",
			Quantity:      decimal.NewFromFloat(2.5),
			UnitPrice:     decimal.NewFromInt(5000),
			Subtotal:      decimal.NewFromInt(12500),
		})
		require.NoError(t, err)

		item2, err := repo.CreateItem(ctx, &model.TransactionItem{
			TransactionID: tx.ID,
			ServiceID:     2,
			ServiceName:   "Setrika",
			Unit:          "kg",
			Quantity:      decimal.NewFromInt(1),
			UnitPrice:     decimal.NewFromInt(8000),
			Subtotal:      decimal.NewFromInt(8000),
		})
		require.NoError(t, err)

		sum, err := repo.SumSubtotals(ctx, tx.ID)
		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(20500)), "got %s", sum)

		require.NoError(t, repo.DeleteItem(ctx, item2.ID))

		sum, err = repo.SumSubtotals(ctx, tx.ID)
		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(12500)), "got %s", sum)
	})

	t.Run("empty transaction sums to zero", func(t *testing.T) {
		sum, err := repo.SumSubtotals(ctx, 999)
		require.NoError(t, err)
		assert.True(t, sum.IsZero())
	})

	t.Run("update recomputes stored row", func(t *testing.T) {
		items, err := repo.ListItems(ctx, tx.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)

		item := items[0]
		item.Quantity = decimal.NewFromInt(4)
		item.Subtotal = decimal.NewFromInt(20000)
		updated, err := repo.UpdateItem(ctx, item)
		require.NoError(t, err)
		assert.True(t, updated.Subtotal.Equal(decimal.NewFromInt(20000)))
	})

	t.Run("item not found", func(t *testing.T) {
		_, err := repo.GetItem(ctx, 999)
		assert.ErrorIs(t, err, ErrItemNotFound)
		assert.ErrorIs(t, repo.DeleteItem(ctx, 999), ErrItemNotFound)
	})
}

func TestTransactionRepository_MaxInvoiceSuffix(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	customers := NewCustomerRepository(db)
	ctx := context.Background()

	customer := seedCustomer(t, customers, "Budi", "0811111111")

	t.Run("no invoices yet", func(t *testing.T) {
		suffix, err := repo.MaxInvoiceSuffix(ctx, "INV-20240601-")
		require.NoError(t, err)
		assert.EqualValues(t, 0, suffix)
	})

	t.Run("returns highest suffix for the day", func(t *testing.T) {
		for _, inv := range []string{"INV-20240601-0001", "INV-20240601-0002", "INV-20240602-0005"} {
			_, err := repo.Create(ctx, newTestTransaction(inv, customer.ID, nil, model.StatusReceived, time.Now(), 1000, 1000))
			require.NoError(t, err)
		}

		suffix, err := repo.MaxInvoiceSuffix(ctx, "INV-20240601-")
		require.NoError(t, err)
		assert.EqualValues(t, 2, suffix)

		suffix, err = repo.MaxInvoiceSuffix(ctx, "INV-20240602-")
		require.NoError(t, err)
		assert.EqualValues(t, 5, suffix)
	})

	t.Run("unparseable suffix falls back to zero", func(t *testing.T) {
		_, err := repo.Create(ctx, newTestTransaction("INV-20240603-LEGACY", customer.ID, nil, model.StatusReceived, time.Now(), 1000, 1000))
		require.NoError(t, err)

		suffix, err := repo.MaxInvoiceSuffix(ctx, "INV-20240603-")
		require.NoError(t, err)
		assert.EqualValues(t, 0, suffix)
	})
}

func TestTransactionRepository_Aggregate(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	customers := NewCustomerRepository(db)
	ctx := context.Background()

	customer := seedCustomer(t, customers, "Budi", "0811111111")

	t.Run("empty window sums to zero", func(t *testing.T) {
		from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		to := from.Add(24 * time.Hour)
		agg, err := repo.Aggregate(ctx, nil, &from, &to)
		require.NoError(t, err)
		assert.EqualValues(t, 0, agg.Count)
		assert.True(t, agg.TotalRevenue.IsZero())
		assert.True(t, agg.TotalPaid.IsZero())
	})

	t.Run("sums within window", func(t *testing.T) {
		base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
		seed := []*model.Transaction{
			newTestTransaction("INV-20240601-0001", customer.ID, nil, model.StatusReceived, base, 12500, 15000),
			newTestTransaction("INV-20240601-0002", customer.ID, nil, model.StatusDone, base.Add(time.Hour), 8000, 8000),
			newTestTransaction("INV-20240602-0001", customer.ID, nil, model.StatusReceived, base.Add(24*time.Hour), 99999, 99999),
		}
		for _, tx := range seed {
			_, err := repo.Create(ctx, tx)
			require.NoError(t, err)
		}

		from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		to := from.Add(24 * time.Hour)
		agg, err := repo.Aggregate(ctx, nil, &from, &to)
		require.NoError(t, err)
		assert.EqualValues(t, 2, agg.Count)
		assert.True(t, agg.TotalRevenue.Equal(decimal.NewFromInt(20500)), "got %s", agg.TotalRevenue)
		assert.True(t, agg.TotalPaid.Equal(decimal.NewFromInt(23000)), "got %s", agg.TotalPaid)
	})

	t.Run("scoped to a cashier", func(t *testing.T) {
		users := NewUserRepository(db)
		cashier := seedCashier(t, users, "sari", "Sari")

		_, err := repo.Create(ctx, newTestTransaction("INV-20240605-0001", customer.ID, &cashier.ID, model.StatusReceived,
			time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC), 7000, 7000))
		require.NoError(t, err)

		agg, err := repo.Aggregate(ctx, &cashier.ID, nil, nil)
		require.NoError(t, err)
		assert.EqualValues(t, 1, agg.Count)
		assert.True(t, agg.TotalRevenue.Equal(decimal.NewFromInt(7000)))
	})
}

func TestTransactionRepository_Counts(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	customers := NewCustomerRepository(db)
	ctx := context.Background()

	budi := seedCustomer(t, customers, "Budi", "0811111111")
	siti := seedCustomer(t, customers, "Siti", "0822222222")

	seed := []*model.Transaction{
		newTestTransaction("INV-20240601-0001", budi.ID, nil, model.StatusReceived, time.Now(), 1000, 1000),
		newTestTransaction("INV-20240601-0002", budi.ID, nil, model.StatusIroning, time.Now(), 1000, 1000),
		newTestTransaction("INV-20240601-0003", siti.ID, nil, model.StatusDone, time.Now(), 1000, 1000),
		newTestTransaction("INV-20240601-0004", siti.ID, nil, model.StatusPickedUp, time.Now(), 1000, 1000),
	}
	for _, tx := range seed {
		_, err := repo.Create(ctx, tx)
		require.NoError(t, err)
	}

	active, err := repo.CountActive(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, active)

	pending, err := repo.CountPending(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, pending)

	byCustomer, err := repo.CountByCustomer(ctx, budi.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, byCustomer)

	t.Run("scoped to a cashier", func(t *testing.T) {
		users := NewUserRepository(db)
		cashier := seedCashier(t, users, "sari", "Sari")

		_, err := repo.Create(ctx, newTestTransaction("INV-20240601-0005", budi.ID, &cashier.ID, model.StatusWashing, time.Now(), 1000, 1000))
		require.NoError(t, err)

		active, err := repo.CountActive(ctx, &cashier.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, active)

		pending, err := repo.CountPending(ctx, &cashier.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, pending)
	})
}

func TestTransactionRepository_Update(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	customers := NewCustomerRepository(db)
	ctx := context.Background()

	customer := seedCustomer(t, customers, "Budi", "0811111111")
	created, err := repo.Create(ctx, newTestTransaction("INV-20240601-0001", customer.ID, nil, model.StatusReceived, time.Now(), 20500, 20500))
	require.NoError(t, err)

	t.Run("status and timestamps", func(t *testing.T) {
		now := time.Now()
		created.Status = model.StatusDone
		created.CompletedAt = &now
		updated, err := repo.Update(ctx, created)
		require.NoError(t, err)
		assert.Equal(t, model.StatusDone, updated.Status)
		require.NotNil(t, updated.CompletedAt)
	})

	t.Run("money fields", func(t *testing.T) {
		created.Discount = decimal.NewFromInt(500)
		created.FinalAmount = decimal.NewFromInt(20000)
		updated, err := repo.Update(ctx, created)
		require.NoError(t, err)
		assert.True(t, updated.FinalAmount.Equal(decimal.NewFromInt(20000)))
	})

	t.Run("not found", func(t *testing.T) {
		missing := newTestTransaction("INV-X", customer.ID, nil, model.StatusReceived, time.Now(), 0, 0)
		missing.ID = 999
		_, err := repo.Update(ctx, missing)
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})
}

func TestTransactionRepository_Delete(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	customers := NewCustomerRepository(db)
	ctx := context.Background()

	customer := seedCustomer(t, customers, "Budi", "0811111111")
	created, err := repo.Create(ctx, newTestTransaction("INV-20240601-0001", customer.ID, nil, model.StatusReceived, time.Now(), 1000, 1000))
	require.NoError(t, err)

	_, err = repo.CreateItem(ctx, &model.TransactionItem{
		TransactionID: created.ID,
		ServiceID:     1,
		ServiceName:   "Cuci Kering",
		Unit:          "kg",
		Quantity:      decimal.NewFromInt(1),
		UnitPrice:     decimal.NewFromInt(1000),
		Subtotal:      decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrTransactionNotFound)

	items, err := repo.ListItems(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.ErrorIs(t, repo.Delete(ctx, created.ID), ErrTransactionNotFound)
}
