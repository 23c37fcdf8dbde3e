package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wicaksono/laundry-pos/internal/model"
	"github.com/wicaksono/laundry-pos/internal/repository"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) (*model.Customer, error)
	Get(ctx context.Context, id int64) (*model.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*model.Customer, error)
	List(ctx context.Context, f model.CustomerFilter) ([]*model.Customer, int64, error) // results, totalCount
	Update(ctx context.Context, customer *model.Customer) (*model.Customer, error)
	Delete(ctx context.Context, id int64) error
}

// CustomerTransactionCounter guards deletion: a customer with history must
// stay so old invoices keep resolving.
type CustomerTransactionCounter interface {
	CountByCustomer(ctx context.Context, customerID int64) (int64, error)
}

type CustomerService struct {
	customerRepo CustomerRepository
	txCounter    CustomerTransactionCounter
}

func NewCustomerService(customerRepo CustomerRepository, txCounter CustomerTransactionCounter) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		txCounter:    txCounter,
	}
}

func (s *CustomerService) Create(ctx context.Context, actor model.Actor, p model.CustomerCreateRequest) (*model.Customer, error) {
	if err := p.Validate(); err != nil {
		return nil, invalidArg(err.Error())
	}

	c := &model.Customer{
		Name:    strings.TrimSpace(p.Name),
		Phone:   strings.TrimSpace(p.Phone),
		Address: strings.TrimSpace(p.Address),
		Email:   strings.TrimSpace(p.Email),
	}

	created, err := s.customerRepo.Create(ctx, c)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicatePhone) {
			return nil, ErrDuplicatePhone
		}
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return created, nil
}

// GetOrCreate resolves a customer by phone, registering a new one when the
// walk-in has no record yet. The phone is the natural key; name and the
// optional fields only apply on first registration.
func (s *CustomerService) GetOrCreate(ctx context.Context, actor model.Actor, p model.CustomerCreateRequest) (*model.Customer, error) {
	phone := strings.TrimSpace(p.Phone)
	if phone == "" {
		return nil, invalidArg("phone is required")
	}

	existing, err := s.customerRepo.GetByPhone(ctx, phone)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrCustomerNotFound) {
		return nil, err
	}

	created, err := s.Create(ctx, actor, p)
	if errors.Is(err, ErrDuplicatePhone) {
		// Lost a race against a concurrent registration of the same phone.
		return s.customerRepo.GetByPhone(ctx, phone)
	}
	return created, err
}

func (s *CustomerService) Get(ctx context.Context, actor model.Actor, id int64) (*model.Customer, error) {
	c, err := s.customerRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *CustomerService) List(ctx context.Context, actor model.Actor, f model.CustomerFilter) ([]*model.Customer, int64, error) {
	return s.customerRepo.List(ctx, f)
}

func (s *CustomerService) Update(ctx context.Context, actor model.Actor, id int64, p model.CustomerUpdateRequest) (*model.Customer, error) {
	existing, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		existing.Name = strings.TrimSpace(*p.Name)
	}
	if p.Phone != nil {
		existing.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Address != nil {
		existing.Address = strings.TrimSpace(*p.Address)
	}
	if p.Email != nil {
		existing.Email = strings.TrimSpace(*p.Email)
	}

	if existing.Name == "" || existing.Phone == "" {
		return nil, invalidArg("name and phone are required")
	}

	updated, err := s.customerRepo.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicatePhone) {
			return nil, ErrDuplicatePhone
		}
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete refuses both for restricted roles and for customers that still own
// transactions.
func (s *CustomerService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	if actor.Role.Restricted() {
		return ErrUnauthorized
	}

	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}

	count, err := s.txCounter.CountByCustomer(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCustomerHasTransactions
	}

	if err := s.customerRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return ErrCustomerNotFound
		}
		return err
	}
	return nil
}
