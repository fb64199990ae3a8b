package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/orderpulse/pkg/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "shpss_test"

// signedServer fails the test when a request arrives with a bad signature.
func signedServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body []byte)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.NoError(t, signature.VerifyHeaders(body, r.Header, testSecret))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		handler(w, r, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLookupCustomer(t *testing.T) {
	created := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	srv := signedServer(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		assert.Equal(t, customerDataPath, r.URL.Path)
		assert.JSONEq(t, `{"shop":"demo.myshopify.com","customerId":"115310627314723954"}`, string(body))
		_, _ = w.Write([]byte(`{"success":true,"customer":{"numberOfOrders":4,"amountSpent":"523.50","currency":"USD","createdAt":"2024-01-10T00:00:00Z","firstName":"Jane"}}`))
	})

	c := NewClient(srv.URL+"/", testSecret, srv.Client(), nil)
	snapshot, err := c.LookupCustomer(context.Background(), "demo.myshopify.com", "115310627314723954")
	require.NoError(t, err)
	assert.Equal(t, 4, snapshot.NumberOfOrders)
	assert.True(t, decimal.RequireFromString("523.5").Equal(snapshot.AmountSpent))
	assert.Equal(t, created, snapshot.CreatedAt.UTC())
	assert.Equal(t, "Jane", snapshot.FirstName)
}

func TestLookupCustomerAcceptsStringCounts(t *testing.T) {
	srv := signedServer(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		_, _ = w.Write([]byte(`{"success":true,"customer":{"numberOfOrders":"7","amountSpent":"80.00","currency":"USD","createdAt":"2024-01-10T00:00:00Z"}}`))
	})

	snapshot, err := NewClient(srv.URL, testSecret, srv.Client(), nil).LookupCustomer(context.Background(), "demo.myshopify.com", "1")
	require.NoError(t, err)
	assert.Equal(t, 7, snapshot.NumberOfOrders)
}

func TestLookupCustomerFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"success":false,"error":"Customer not found"}`},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`},
		{name: "unsuccessful", status: http.StatusOK, body: `{"success":false,"error":"nope"}`},
		{name: "garbage", status: http.StatusOK, body: `<html>`},
		{name: "non-numeric count", status: http.StatusOK, body: `{"success":true,"customer":{"numberOfOrders":"many"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := signedServer(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := NewClient(srv.URL, testSecret, srv.Client(), nil).LookupCustomer(context.Background(), "s", "1")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLookupFailed)
		})
	}
}

func TestLookupCustomerNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, testSecret, nil, nil).LookupCustomer(context.Background(), "s", "1")
	assert.ErrorIs(t, err, ErrLookupFailed)
}

func TestDeliverInsight(t *testing.T) {
	value := 85.0
	srv := signedServer(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		assert.Equal(t, ingestPath, r.URL.Path)
		var got map[string]any
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "first-time", got["customerType"])
		assert.Equal(t, 85.0, got["orderValue"])
		assert.Equal(t, "completed", got["status"])
		assert.NotContains(t, got, "errorMessage")
		_, _ = w.Write([]byte(`{"success":true,"id":"1790001","message":"Insight saved successfully"}`))
	})

	receipt, err := NewClient(srv.URL, testSecret, srv.Client(), nil).DeliverInsight(context.Background(), InsightPayload{
		Shop:         "demo.myshopify.com",
		OrderID:      "1001",
		OrderName:    "#1001",
		InsightText:  "First order from a new customer.",
		CustomerType: "first-time",
		OrderValue:   &value,
		Status:       StatusCompleted,
	})
	require.NoError(t, err)
	assert.True(t, receipt.Success)
	assert.Equal(t, "1790001", receipt.ID)
}

func TestDeliverInsightRejected(t *testing.T) {
	srv := signedServer(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid signature"}`))
	})

	_, err := NewClient(srv.URL, testSecret, srv.Client(), nil).DeliverInsight(context.Background(), InsightPayload{Shop: "s", OrderID: "1", OrderName: "#1", InsightText: "x", Status: StatusCompleted})
	require.ErrorIs(t, err, ErrDeliveryFailed)

	var statusErr *ResponseError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, "Invalid signature", statusErr.Message)
}

func TestDeliverWithoutSecret(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:0", "", nil, nil).DeliverInsight(context.Background(), InsightPayload{})
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.ErrorIs(t, err, signature.ErrMissingSecret)
}
