package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wicaksono/laundry-pos/internal/model"
	"github.com/wicaksono/laundry-pos/internal/repository"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *model.Customer) (*model.Customer, error) {
	args := m.Called(ctx, customer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Get(ctx context.Context, id int64) (*model.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *MockCustomerRepository) List(ctx context.Context, f model.CustomerFilter) ([]*model.Customer, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *model.Customer) (*model.Customer, error) {
	args := m.Called(ctx, customer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockTransactionCounter struct {
	mock.Mock
}

func (m *MockTransactionCounter) CountByCustomer(ctx context.Context, customerID int64) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func TestCustomerService_Create(t *testing.T) {
	ctx := context.Background()
	actor := model.Actor{UserID: 1, Role: model.RoleCashier}

	t.Run("trims and creates", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		counter := new(MockTransactionCounter)
		svc := NewCustomerService(repo, counter)

		repo.On("Create", ctx, mock.MatchedBy(func(c *model.Customer) bool {
			return c.Name == "Budi" && c.Phone == "0811111111"
		})).Return(&model.Customer{ID: 1, Name: "Budi", Phone: "0811111111"}, nil)

		created, err := svc.Create(ctx, actor, model.CustomerCreateRequest{
			Name:  "  Budi  ",
			Phone: " 0811111111 ",
		})
		require.NoError(t, err)
		assert.EqualValues(t, 1, created.ID)

		repo.AssertExpectations(t)
	})

	t.Run("missing phone", func(t *testing.T) {
		svc := NewCustomerService(new(MockCustomerRepository), new(MockTransactionCounter))

		_, err := svc.Create(ctx, actor, model.CustomerCreateRequest{Name: "Budi"})
		assert.Error(t, err)
	})

	t.Run("duplicate phone maps to service error", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		svc := NewCustomerService(repo, new(MockTransactionCounter))

		repo.On("Create", ctx, mock.Anything).Return(nil, repository.ErrDuplicatePhone)

		_, err := svc.Create(ctx, actor, model.CustomerCreateRequest{Name: "Budi", Phone: "0811111111"})
		assert.ErrorIs(t, err, ErrDuplicatePhone)
	})
}

func TestCustomerService_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	actor := model.Actor{UserID: 1, Role: model.RoleCashier}

	t.Run("returns existing by phone", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		svc := NewCustomerService(repo, new(MockTransactionCounter))

		repo.On("GetByPhone", ctx, "0811111111").
			Return(&model.Customer{ID: 7, Name: "Budi", Phone: "0811111111"}, nil)

		c, err := svc.GetOrCreate(ctx, actor, model.CustomerCreateRequest{Name: "Someone Else", Phone: " 0811111111 "})
		require.NoError(t, err)
		assert.EqualValues(t, 7, c.ID)
		assert.Equal(t, "Budi", c.Name)

		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("registers a new walk-in", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		svc := NewCustomerService(repo, new(MockTransactionCounter))

		repo.On("GetByPhone", ctx, "0822222222").Return(nil, repository.ErrCustomerNotFound)
		repo.On("Create", ctx, mock.MatchedBy(func(c *model.Customer) bool {
			return c.Name == "Sari" && c.Phone == "0822222222"
		})).Return(&model.Customer{ID: 8, Name: "Sari", Phone: "0822222222"}, nil)

		c, err := svc.GetOrCreate(ctx, actor, model.CustomerCreateRequest{Name: "Sari", Phone: "0822222222"})
		require.NoError(t, err)
		assert.EqualValues(t, 8, c.ID)

		repo.AssertExpectations(t)
	})

	t.Run("concurrent registration falls back to lookup", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		svc := NewCustomerService(repo, new(MockTransactionCounter))

		repo.On("GetByPhone", ctx, "0833333333").Return(nil, repository.ErrCustomerNotFound).Once()
		repo.On("Create", ctx, mock.Anything).Return(nil, repository.ErrDuplicatePhone)
		repo.On("GetByPhone", ctx, "0833333333").
			Return(&model.Customer{ID: 9, Name: "Andi", Phone: "0833333333"}, nil).Once()

		c, err := svc.GetOrCreate(ctx, actor, model.CustomerCreateRequest{Name: "Andi", Phone: "0833333333"})
		require.NoError(t, err)
		assert.EqualValues(t, 9, c.ID)
	})

	t.Run("missing phone", func(t *testing.T) {
		svc := NewCustomerService(new(MockCustomerRepository), new(MockTransactionCounter))

		_, err := svc.GetOrCreate(ctx, actor, model.CustomerCreateRequest{Name: "Budi"})
		assert.Error(t, err)
	})
}

func TestCustomerService_Delete(t *testing.T) {
	ctx := context.Background()
	owner := model.Actor{UserID: 1, Role: model.RoleOwner}
	cashier := model.Actor{UserID: 2, Role: model.RoleCashier}

	t.Run("cashier cannot delete", func(t *testing.T) {
		svc := NewCustomerService(new(MockCustomerRepository), new(MockTransactionCounter))

		err := svc.Delete(ctx, cashier, 1)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("refuses when history exists", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		counter := new(MockTransactionCounter)
		svc := NewCustomerService(repo, counter)

		repo.On("Get", ctx, int64(1)).Return(&model.Customer{ID: 1, Name: "Budi", Phone: "0811111111"}, nil)
		counter.On("CountByCustomer", ctx, int64(1)).Return(int64(3), nil)

		err := svc.Delete(ctx, owner, 1)
		assert.ErrorIs(t, err, ErrCustomerHasTransactions)
	})

	t.Run("deletes when clean", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		counter := new(MockTransactionCounter)
		svc := NewCustomerService(repo, counter)

		repo.On("Get", ctx, int64(1)).Return(&model.Customer{ID: 1, Name: "Budi", Phone: "0811111111"}, nil)
		counter.On("CountByCustomer", ctx, int64(1)).Return(int64(0), nil)
		repo.On("Delete", ctx, int64(1)).Return(nil)

		require.NoError(t, svc.Delete(ctx, owner, 1))
		repo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		svc := NewCustomerService(repo, new(MockTransactionCounter))

		repo.On("Get", ctx, int64(99)).Return(nil, repository.ErrCustomerNotFound)

		err := svc.Delete(ctx, owner, 99)
		assert.ErrorIs(t, err, ErrCustomerNotFound)
	})
}

func TestCustomerService_Update(t *testing.T) {
	ctx := context.Background()
	actor := model.Actor{UserID: 1, Role: model.RoleAdmin}

	t.Run("partial update keeps other fields", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		svc := NewCustomerService(repo, new(MockTransactionCounter))

		repo.On("Get", ctx, int64(1)).
			Return(&model.Customer{ID: 1, Name: "Budi", Phone: "0811111111", Address: "Jl. Melati"}, nil)
		repo.On("Update", ctx, mock.MatchedBy(func(c *model.Customer) bool {
			return c.Name == "Budi Santoso" && c.Phone == "0811111111" && c.Address == "Jl. Melati"
		})).Return(&model.Customer{ID: 1, Name: "Budi Santoso", Phone: "0811111111", Address: "Jl. Melati"}, nil)

		name := "Budi Santoso"
		updated, err := svc.Update(ctx, actor, 1, model.CustomerUpdateRequest{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Budi Santoso", updated.Name)

		repo.AssertExpectations(t)
	})

	t.Run("cannot blank required fields", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		svc := NewCustomerService(repo, new(MockTransactionCounter))

		repo.On("Get", ctx, int64(1)).
			Return(&model.Customer{ID: 1, Name: "Budi", Phone: "0811111111"}, nil)

		empty := "  "
		_, err := svc.Update(ctx, actor, 1, model.CustomerUpdateRequest{Phone: &empty})
		assert.Error(t, err)
	})
}
