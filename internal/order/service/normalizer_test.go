package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/orderpulse/internal/order/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	order := domain.Order{
		ID:         "5501",
		Name:       "#1001",
		TotalPrice: "85.00",
		Currency:   "usd",
		LineItems: []domain.LineItem{
			{Title: "Mug", Quantity: 1, Price: "35.00"},
			{Title: " Poster ", Quantity: 2, Price: "25"},
		},
		CreatedAt: created,
	}

	got, err := Normalize(order)
	require.NoError(t, err)

	assert.Equal(t, "5501", got.ID)
	assert.Equal(t, "#1001", got.Name)
	assert.Equal(t, "USD", got.Currency)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("85")))
	assert.Equal(t, 3, got.ItemCount)
	assert.False(t, got.DiscountUsed)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Poster", got.Items[1].Title)
	assert.True(t, got.Items[1].Price.Equal(decimal.RequireFromString("25.00")))
	assert.Equal(t, created, got.CreatedAt)
}

func TestNormalizeDiscounts(t *testing.T) {
	got, err := Normalize(domain.Order{
		ID:            "1",
		TotalPrice:    "10",
		DiscountCodes: []domain.DiscountCode{{Code: ""}, {Code: "WELCOME10"}},
	})
	require.NoError(t, err)
	assert.True(t, got.DiscountUsed)
	assert.Equal(t, []string{"WELCOME10"}, got.Discounts)
	assert.Equal(t, "USD", got.Currency)
}

func TestNormalizeRejectsMalformedAmounts(t *testing.T) {
	_, err := Normalize(domain.Order{ID: "1", TotalPrice: "12,50"})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = Normalize(domain.Order{ID: "1", TotalPrice: "-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = Normalize(domain.Order{
		ID:         "1",
		TotalPrice: "1",
		LineItems:  []domain.LineItem{{Title: "x", Quantity: 1, Price: "abc"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestNormalizeRejectsZeroQuantity(t *testing.T) {
	_, err := Normalize(domain.Order{
		ID:         "1",
		TotalPrice: "1",
		LineItems:  []domain.LineItem{{Title: "x", Quantity: 0, Price: "1"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestNormalizeCurrencyPrecision(t *testing.T) {
	got, err := Normalize(domain.Order{ID: "1", TotalPrice: "1200.4", Currency: "JPY"})
	require.NoError(t, err)
	assert.Equal(t, "1200", got.Total.String())
}

func TestOrderIDAcceptsNumbers(t *testing.T) {
	var order domain.Order
	require.NoError(t, json.Unmarshal([]byte(`{"id":820982911946154508,"customer":{"id":"gid://shopify/Customer/7"}}`), &order))
	assert.Equal(t, "820982911946154508", order.Identifier())
	assert.Equal(t, "gid://shopify/Customer/7", order.Customer.ID.String())

	require.NoError(t, json.Unmarshal([]byte(`{"id":null,"admin_graphql_api_id":"gid://shopify/Order/9"}`), &order))
	assert.Equal(t, "gid://shopify/Order/9", order.Identifier())
}
