package services

import (
	"context"
	"time"

	"github.com/wicaksono/laundry-pos/internal/model"
	"github.com/wicaksono/laundry-pos/internal/repository"
)

// reportListCap bounds the transaction detail attached to a report, the
// aggregates always cover the whole window.
const reportListCap = 100

type ReportRepository interface {
	List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) // results, totalCount
	Aggregate(ctx context.Context, cashierID *int64, from, to *time.Time) (*repository.AggregateResult, error)
	CountActive(ctx context.Context, cashierID *int64) (int64, error)
	CountPending(ctx context.Context, cashierID *int64) (int64, error)
}

type ReportService struct {
	txRepo ReportRepository
	now    func() time.Time
}

func NewReportService(txRepo ReportRepository) *ReportService {
	return &ReportService{
		txRepo: txRepo,
		now:    time.Now,
	}
}

// Report summarizes revenue over a named period or an explicit range. An
// explicit range wins over the period name.
func (s *ReportService) Report(ctx context.Context, actor model.Actor, q model.ReportQuery) (*model.ReportSummary, error) {
	var from, to time.Time
	switch {
	case q.From != nil && q.To != nil:
		from, to = *q.From, *q.To
	default:
		if !q.Period.Valid() {
			return nil, invalidArg("invalid report period")
		}
		from, to = periodWindow(s.now(), q.Period)
	}
	if !to.After(from) {
		return nil, invalidArg("report range is empty")
	}

	scope := scopeFor(actor)

	agg, err := s.txRepo.Aggregate(ctx, scope, &from, &to)
	if err != nil {
		return nil, err
	}

	transactions, _, err := s.txRepo.List(ctx, model.TransactionFilter{
		CashierID: scope,
		From:      &from,
		To:        &to,
		Limit:     reportListCap,
	})
	if err != nil {
		return nil, err
	}

	return &model.ReportSummary{
		Period:            q.Period,
		TotalTransactions: agg.Count,
		TotalRevenue:      agg.TotalRevenue,
		TotalPaid:         agg.TotalPaid,
		Transactions:      transactions,
	}, nil
}

// Dashboard collects the shop-wide counters shown on the landing screen.
func (s *ReportService) Dashboard(ctx context.Context, actor model.Actor) (*model.DashboardStats, error) {
	now := s.now()
	dayFrom, dayTo := periodWindow(now, model.PeriodDaily)
	monthFrom, monthTo := periodWindow(now, model.PeriodMonthly)
	scope := scopeFor(actor)

	allTime, err := s.txRepo.Aggregate(ctx, scope, nil, nil)
	if err != nil {
		return nil, err
	}
	today, err := s.txRepo.Aggregate(ctx, scope, &dayFrom, &dayTo)
	if err != nil {
		return nil, err
	}
	month, err := s.txRepo.Aggregate(ctx, scope, &monthFrom, &monthTo)
	if err != nil {
		return nil, err
	}

	active, err := s.txRepo.CountActive(ctx, scope)
	if err != nil {
		return nil, err
	}
	pending, err := s.txRepo.CountPending(ctx, scope)
	if err != nil {
		return nil, err
	}

	return &model.DashboardStats{
		TotalTransactions:   allTime.Count,
		TotalRevenue:        allTime.TotalRevenue,
		TodayTransactions:   today.Count,
		TodayRevenue:        today.TotalRevenue,
		MonthlyTransactions: month.Count,
		MonthlyRevenue:      month.TotalRevenue,
		ActiveOrders:        active,
		PendingOrders:       pending,
	}, nil
}

// scopeFor narrows reporting to the actor's own registers when the role is
// restricted.
func scopeFor(actor model.Actor) *int64 {
	if actor.Role.Restricted() {
		id := actor.UserID
		return &id
	}
	return nil
}

// periodWindow returns the half-open [from, to) range for a named period.
// Weeks start on Monday.
func periodWindow(now time.Time, p model.Period) (time.Time, time.Time) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch p {
	case model.PeriodWeekly:
		offset := (int(now.Weekday()) + 6) % 7
		from := day.AddDate(0, 0, -offset)
		return from, from.AddDate(0, 0, 7)
	case model.PeriodMonthly:
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return from, from.AddDate(0, 1, 0)
	default:
		return day, day.AddDate(0, 0, 1)
	}
}
