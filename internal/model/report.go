package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period is a named reporting window anchored at the current time.
type Period string

const (
	PeriodDaily   Period = "daily"   // current calendar day
	PeriodWeekly  Period = "weekly"  // since the most recent Monday
	PeriodMonthly Period = "monthly" // current calendar month
)

func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// ReportQuery selects transactions for a revenue report. An explicit
// From/To range wins over Period.
type ReportQuery struct {
	Period Period
	From   *time.Time
	To     *time.Time
}

// ReportSummary is the aggregate shape returned for a reporting window.
// Sums are zero, never null, when nothing matches.
type ReportSummary struct {
	Period            Period          `json:"period"`
	TotalTransactions int64           `json:"total_transactions"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	Transactions      []*Transaction  `json:"transactions"`
}

type DashboardStats struct {
	TotalTransactions   int64           `json:"total_transactions"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	TodayTransactions   int64           `json:"today_transactions"`
	TodayRevenue        decimal.Decimal `json:"today_revenue"`
	MonthlyTransactions int64           `json:"monthly_transactions"`
	MonthlyRevenue      decimal.Decimal `json:"monthly_revenue"`
	ActiveOrders        int64           `json:"active_orders"`
	PendingOrders       int64           `json:"pending_orders"`
}
