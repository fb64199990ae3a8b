package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ID accepts both numeric and string identifiers from the partner payload.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Order is the order payload as delivered by the partner event bus.
type Order struct {
	ID                ID               `json:"id"`
	AdminGraphQLAPIID string           `json:"admin_graphql_api_id"`
	Name              string           `json:"name"`
	TotalPrice        string           `json:"total_price"`
	Currency          string           `json:"currency"`
	LineItems         []LineItem       `json:"line_items"`
	DiscountCodes     []DiscountCode   `json:"discount_codes"`
	Customer          *WebhookCustomer `json:"customer"`
	CreatedAt         time.Time        `json:"created_at"`
}

type LineItem struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

type DiscountCode struct {
	Code   string `json:"code"`
	Amount string `json:"amount"`
	Type   string `json:"type"`
}

// WebhookCustomer is the customer block embedded in the order payload. Its
// order count and spend are not authoritative.
type WebhookCustomer struct {
	ID          ID         `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	CreatedAt   *time.Time `json:"created_at"`
	OrdersCount *int       `json:"orders_count"`
	TotalSpent  string     `json:"total_spent"`
}

// DisplayName joins the customer's name parts.
func (c *WebhookCustomer) DisplayName() string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// Identifier returns the order id, falling back to the admin API id.
func (o Order) Identifier() string {
	if id := strings.TrimSpace(o.ID.String()); id != "" {
		return id
	}
	return strings.TrimSpace(o.AdminGraphQLAPIID)
}

// NormalizedOrder is the prompt-ready shape of an order.
type NormalizedOrder struct {
	ID           string
	Name         string
	Total        decimal.Decimal
	Currency     string
	Items        []NormalizedItem
	ItemCount    int
	DiscountUsed bool
	Discounts    []string
	CreatedAt    time.Time
}

type NormalizedItem struct {
	Title    string
	Quantity int
	Price    decimal.Decimal
}
