package service

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/orderpulse/internal/classification/domain"
	"github.com/smallbiznis/orderpulse/internal/clock"
	"github.com/smallbiznis/orderpulse/internal/config"
	orderdomain "github.com/smallbiznis/orderpulse/internal/order/domain"
	"go.uber.org/fx"
)

// heuristicOrderCount is assumed for returning customers when no
// authoritative count is available.
const heuristicOrderCount = 2

type Params struct {
	fx.In

	Clock  clock.Clock
	Tuning *config.ClassificationHolder
}

type Classifier struct {
	clock  clock.Clock
	tuning *config.ClassificationHolder
}

func New(p Params) *Classifier {
	c := p.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Classifier{clock: c, tuning: p.Tuning}
}

// FromSnapshot applies the three-tier rule to an authoritative snapshot.
// The first-time check runs before the vip check.
func (c *Classifier) FromSnapshot(snapshot domain.CustomerSnapshot) domain.Result {
	cfg := c.tuning.Get()
	result := domain.Result{
		Source:        domain.SourceAuthoritative,
		OrderCount:    snapshot.NumberOfOrders,
		LifetimeSpend: snapshot.AmountSpent,
	}
	if !snapshot.CreatedAt.IsZero() {
		days := wholeDaysBetween(snapshot.CreatedAt, c.clock.Now())
		result.DaysSinceFirstOrder = &days
	}

	switch {
	case snapshot.NumberOfOrders <= 1:
		result.Type = domain.CustomerTypeFirstTime
	case snapshot.NumberOfOrders >= cfg.VIPOrderCount,
		snapshot.AmountSpent.GreaterThanOrEqual(decimal.NewFromFloat(cfg.VIPLifetimeSpend)):
		result.Type = domain.CustomerTypeVIP
	default:
		result.Type = domain.CustomerTypeRepeat
	}
	return result
}

// FromWebhookCustomer infers first-time status from the gap between the
// customer's account creation and the order's creation.
func (c *Classifier) FromWebhookCustomer(customer *orderdomain.WebhookCustomer, orderCreatedAt time.Time) domain.Result {
	if customer == nil {
		return c.Guest()
	}
	cfg := c.tuning.Get()

	if customer.CreatedAt != nil && !orderCreatedAt.IsZero() {
		gap := orderCreatedAt.Sub(*customer.CreatedAt)
		if gap < 0 {
			gap = -gap
		}
		if gap < cfg.FirstTimeWindow {
			days := 0
			return domain.Result{
				Type:                domain.CustomerTypeFirstTime,
				Source:              domain.SourceHeuristic,
				OrderCount:          1,
				LifetimeSpend:       decimal.Zero,
				DaysSinceFirstOrder: &days,
			}
		}
	}

	result := domain.Result{
		Type:          domain.CustomerTypeRepeat,
		Source:        domain.SourceHeuristic,
		OrderCount:    heuristicOrderCount,
		LifetimeSpend: decimal.Zero,
		Assumed:       true,
	}
	if customer.CreatedAt != nil {
		days := wholeDaysBetween(*customer.CreatedAt, c.clock.Now())
		result.DaysSinceFirstOrder = &days
	}
	return result
}

// Guest classifies an order without a linked customer.
func (c *Classifier) Guest() domain.Result {
	return domain.Result{
		Type:          domain.CustomerTypeFirstTime,
		Source:        domain.SourceGuest,
		OrderCount:    0,
		LifetimeSpend: decimal.Zero,
	}
}

func wholeDaysBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from) / (24 * time.Hour))
}
