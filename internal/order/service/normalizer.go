package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/orderpulse/internal/order/domain"
)

const defaultCurrency = "USD"

// zeroDecimalCurrencies carry no minor unit.
var zeroDecimalCurrencies = map[string]struct{}{
	"JPY": {},
	"KRW": {},
	"VND": {},
	"CLP": {},
	"ISK": {},
}

// Normalize converts a raw order into its prompt-ready shape.
func Normalize(order domain.Order) (domain.NormalizedOrder, error) {
	currency := strings.ToUpper(strings.TrimSpace(order.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	total, err := parseAmount(order.TotalPrice)
	if err != nil {
		return domain.NormalizedOrder{}, fmt.Errorf("total_price: %w", err)
	}

	items := make([]domain.NormalizedItem, 0, len(order.LineItems))
	itemCount := 0
	for i, item := range order.LineItems {
		if item.Quantity < 1 {
			return domain.NormalizedOrder{}, fmt.Errorf("line_items[%d].quantity: %w", i, domain.ErrInvalidQuantity)
		}
		price, err := parseAmount(item.Price)
		if err != nil {
			return domain.NormalizedOrder{}, fmt.Errorf("line_items[%d].price: %w", i, err)
		}
		items = append(items, domain.NormalizedItem{
			Title:    strings.TrimSpace(item.Title),
			Quantity: item.Quantity,
			Price:    Round(price, currency),
		})
		itemCount += item.Quantity
	}

	discounts := make([]string, 0, len(order.DiscountCodes))
	for _, code := range order.DiscountCodes {
		if c := strings.TrimSpace(code.Code); c != "" {
			discounts = append(discounts, c)
		}
	}

	return domain.NormalizedOrder{
		ID:           order.Identifier(),
		Name:         strings.TrimSpace(order.Name),
		Total:        Round(total, currency),
		Currency:     currency,
		Items:        items,
		ItemCount:    itemCount,
		DiscountUsed: len(discounts) > 0,
		Discounts:    discounts,
		CreatedAt:    order.CreatedAt,
	}, nil
}

// Round applies the currency's minor-unit precision.
func Round(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.Round(Precision(currency))
}

// Precision returns the number of decimal places used by currency.
func Precision(currency string) int32 {
	if _, ok := zeroDecimalCurrencies[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return 0
	}
	return 2
}

func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, raw)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q is negative", domain.ErrInvalidAmount, raw)
	}
	return amount, nil
}
