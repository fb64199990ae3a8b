package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CustomerType string

const (
	CustomerTypeFirstTime CustomerType = "first-time"
	CustomerTypeRepeat    CustomerType = "repeat"
	CustomerTypeVIP       CustomerType = "vip"
)

func (t CustomerType) Valid() bool {
	switch t {
	case CustomerTypeFirstTime, CustomerTypeRepeat, CustomerTypeVIP:
		return true
	default:
		return false
	}
}

// Source names the code path that produced a classification.
type Source string

const (
	SourceAuthoritative Source = "authoritative"
	SourceHeuristic     Source = "heuristic"
	SourceGuest         Source = "guest"
)

// CustomerSnapshot is the authoritative customer record returned by the
// customer-data lookup.
type CustomerSnapshot struct {
	NumberOfOrders int
	AmountSpent    decimal.Decimal
	Currency       string
	CreatedAt      time.Time
	FirstName      string
	LastName       string
	Email          string
}

// Result is the outcome of classifying one customer for one order.
type Result struct {
	Type                CustomerType
	Source              Source
	OrderCount          int
	LifetimeSpend       decimal.Decimal
	DaysSinceFirstOrder *int
	// Assumed is set when OrderCount and LifetimeSpend are placeholders
	// rather than known values.
	Assumed bool
}
