package delivery

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type InsightStatus string

const (
	StatusPending   InsightStatus = "pending"
	StatusCompleted InsightStatus = "completed"
	StatusError     InsightStatus = "error"
)

// InsightPayload is the body of an insight delivery. Shop, OrderID,
// OrderName and InsightText are always sent.
type InsightPayload struct {
	Shop            string        `json:"shop"`
	OrderID         string        `json:"orderId"`
	OrderName       string        `json:"orderName"`
	InsightText     string        `json:"insightText"`
	FollowUpSubject string        `json:"followUpSubject,omitempty"`
	FollowUpBody    string        `json:"followUpBody,omitempty"`
	CustomerType    string        `json:"customerType,omitempty"`
	OrderValue      *float64      `json:"orderValue,omitempty"`
	Status          InsightStatus `json:"status"`
	ErrorMessage    *string       `json:"errorMessage,omitempty"`
}

// DeliveryReceipt is the ingestion service's answer to a successful delivery.
type DeliveryReceipt struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

type lookupRequest struct {
	Shop       string `json:"shop"`
	CustomerID string `json:"customerId"`
}

type lookupResponse struct {
	Success  bool          `json:"success"`
	Customer *customerBody `json:"customer"`
	Error    string        `json:"error"`
}

type customerBody struct {
	NumberOfOrders orderCount      `json:"numberOfOrders"`
	AmountSpent    decimal.Decimal `json:"amountSpent"`
	Currency       string          `json:"currency"`
	CreatedAt      time.Time       `json:"createdAt"`
	FirstName      string          `json:"firstName"`
	LastName       string          `json:"lastName"`
	Email          string          `json:"email"`
}

type errorBody struct {
	Error string `json:"error"`
}

// orderCount accepts the count as a JSON number or a numeric string.
type orderCount int

func (n *orderCount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(s))
	}
	v, err := strconv.Atoi(string(data))
	if err != nil {
		return err
	}
	*n = orderCount(v)
	return nil
}
