package prompt

import (
	"testing"

	"github.com/shopspring/decimal"
	classificationdomain "github.com/smallbiznis/orderpulse/internal/classification/domain"
	orderdomain "github.com/smallbiznis/orderpulse/internal/order/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInput(kind classificationdomain.CustomerType) Input {
	days := 12
	return Input{
		Order: orderdomain.NormalizedOrder{
			ID:       "5501",
			Name:     "#1001",
			Total:    decimal.RequireFromString("85"),
			Currency: "USD",
			Items: []orderdomain.NormalizedItem{
				{Title: "Mug", Quantity: 1, Price: decimal.RequireFromString("35")},
				{Title: "Poster", Quantity: 2, Price: decimal.RequireFromString("25")},
			},
			ItemCount:    3,
			DiscountUsed: true,
			Discounts:    []string{"WELCOME10"},
		},
		Classification: classificationdomain.Result{
			Type:                kind,
			OrderCount:          4,
			LifetimeSpend:       decimal.RequireFromString("523.5"),
			DaysSinceFirstOrder: &days,
		},
		CustomerName: "Ada Lovelace",
	}
}

func TestBuildOmitsNameByDefault(t *testing.T) {
	got, err := NewBuilder(Options{}).Build(sampleInput(classificationdomain.CustomerTypeVIP))
	require.NoError(t, err)

	assert.NotContains(t, got.User, "Ada")
	assert.Contains(t, got.User, "Name: "+CustomerPlaceholder)
	assert.Contains(t, got.User, "Total: 85.00 USD")
	assert.Contains(t, got.User, "2 x Poster @ 25.00 USD")
	assert.Contains(t, got.User, "Discount used: yes (WELCOME10)")
	assert.Contains(t, got.User, "Lifetime spend: 523.50")
	assert.Contains(t, got.User, "Days since first order: 12")
	assert.Contains(t, got.User, guidance[classificationdomain.CustomerTypeVIP])
	assert.Equal(t, systemPrompt, got.System)
}

func TestBuildUsesCurrencyPrecision(t *testing.T) {
	in := sampleInput(classificationdomain.CustomerTypeRepeat)
	in.Order.Currency = "JPY"
	in.Order.Total = decimal.RequireFromString("1500")
	in.Order.Items = []orderdomain.NormalizedItem{{Title: "Tea set", Quantity: 1, Price: decimal.RequireFromString("1500")}}
	in.Classification.LifetimeSpend = decimal.RequireFromString("42000")

	got, err := NewBuilder(Options{}).Build(in)
	require.NoError(t, err)

	assert.Contains(t, got.User, "Total: 1500 JPY")
	assert.Contains(t, got.User, "1 x Tea set @ 1500 JPY")
	assert.Contains(t, got.User, "Lifetime spend: 42000")
	assert.NotContains(t, got.User, "1500.00")
}

func TestBuildIncludesNameWhenEnabled(t *testing.T) {
	got, err := NewBuilder(Options{IncludeCustomerName: true}).Build(sampleInput(classificationdomain.CustomerTypeRepeat))
	require.NoError(t, err)
	assert.Contains(t, got.User, "Name: Ada Lovelace")

	in := sampleInput(classificationdomain.CustomerTypeRepeat)
	in.CustomerName = "  "
	got, err = NewBuilder(Options{IncludeCustomerName: true}).Build(in)
	require.NoError(t, err)
	assert.Contains(t, got.User, "Name: "+CustomerPlaceholder)
}

func TestBuildGuidancePerType(t *testing.T) {
	b := NewBuilder(Options{})
	seen := map[string]bool{}
	for _, kind := range []classificationdomain.CustomerType{
		classificationdomain.CustomerTypeFirstTime,
		classificationdomain.CustomerTypeRepeat,
		classificationdomain.CustomerTypeVIP,
	} {
		got, err := b.Build(sampleInput(kind))
		require.NoError(t, err)
		assert.Contains(t, got.User, "Segment: "+string(kind))
		seen[got.User] = true
	}
	assert.Len(t, seen, 3)
}

func TestBuildIsDeterministic(t *testing.T) {
	b := NewBuilder(Options{})
	first, err := b.Build(sampleInput(classificationdomain.CustomerTypeFirstTime))
	require.NoError(t, err)
	second, err := b.Build(sampleInput(classificationdomain.CustomerTypeFirstTime))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildMarksAssumedCounts(t *testing.T) {
	in := sampleInput(classificationdomain.CustomerTypeRepeat)
	in.Classification.Assumed = true
	in.Classification.DaysSinceFirstOrder = nil
	in.Order.DiscountUsed = false

	got, err := NewBuilder(Options{}).Build(in)
	require.NoError(t, err)
	assert.Contains(t, got.User, "(estimated)")
	assert.Contains(t, got.User, "Discount used: no")
	assert.NotContains(t, got.User, "Days since first order")
}

func TestBuildRejectsUnknownType(t *testing.T) {
	_, err := NewBuilder(Options{}).Build(sampleInput("gold"))
	assert.Error(t, err)
}
