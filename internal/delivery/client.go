// Package delivery talks to the ingestion service: the signed customer-data
// lookup and the signed insight delivery.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	classificationdomain "github.com/smallbiznis/orderpulse/internal/classification/domain"
	"github.com/smallbiznis/orderpulse/internal/config"
	obstracing "github.com/smallbiznis/orderpulse/internal/observability/tracing"
	"github.com/smallbiznis/orderpulse/pkg/signature"
	"github.com/smallbiznis/orderpulse/pkg/telemetry/correlation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	customerDataPath = "/api/customer-data"
	ingestPath       = "/api/ai-insights/ingest"

	defaultTimeout  = 10 * time.Second
	maxResponseBody = 1 << 20
)

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
	log        *zap.Logger
}

func New(p Params) *Client {
	timeout := p.Config.HTTPClientTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewClient(p.Config.AppURL, p.Config.SharedSecret,
		obstracing.WrapHTTPClient(&http.Client{Timeout: timeout}), p.Log)
}

func NewClient(baseURL, secret string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		secret:     secret,
		httpClient: httpClient,
		log:        log.Named("delivery.client"),
	}
}

// LookupCustomer fetches the authoritative snapshot for a customer. Every
// failure is reported as ErrLookupFailed.
func (c *Client) LookupCustomer(ctx context.Context, shop, customerID string) (*classificationdomain.CustomerSnapshot, error) {
	ctx, span := otel.Tracer("orderpulse/delivery").Start(ctx, "delivery.lookup_customer")
	defer span.End()

	status, body, err := c.post(ctx, customerDataPath, lookupRequest{Shop: shop, CustomerID: customerID})
	if err != nil {
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", status))

	var resp lookupResponse
	if err := json.Unmarshal(body, &resp); err != nil && isSuccess(status) {
		span.SetStatus(codes.Error, "decode failed")
		return nil, fmt.Errorf("%w: decode response: %v", ErrLookupFailed, err)
	}
	if !isSuccess(status) {
		span.SetStatus(codes.Error, "non-2xx")
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, &ResponseError{StatusCode: status, Message: resp.Error})
	}
	if !resp.Success || resp.Customer == nil {
		span.SetStatus(codes.Error, "unsuccessful")
		return nil, fmt.Errorf("%w: %s", ErrLookupFailed, nonEmpty(resp.Error, "customer not returned"))
	}

	return &classificationdomain.CustomerSnapshot{
		NumberOfOrders: int(resp.Customer.NumberOfOrders),
		AmountSpent:    resp.Customer.AmountSpent,
		Currency:       resp.Customer.Currency,
		CreatedAt:      resp.Customer.CreatedAt,
		FirstName:      resp.Customer.FirstName,
		LastName:       resp.Customer.LastName,
		Email:          resp.Customer.Email,
	}, nil
}

// DeliverInsight posts one insight record. Non-2xx answers are reported as
// ErrDeliveryFailed wrapping a *ResponseError.
func (c *Client) DeliverInsight(ctx context.Context, payload InsightPayload) (*DeliveryReceipt, error) {
	ctx, span := otel.Tracer("orderpulse/delivery").Start(ctx, "delivery.deliver_insight")
	defer span.End()
	span.SetAttributes(attribute.String("insight.status", string(payload.Status)))

	status, body, err := c.post(ctx, ingestPath, payload)
	if err != nil {
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", status))

	if !isSuccess(status) {
		var failure errorBody
		_ = json.Unmarshal(body, &failure)
		span.SetStatus(codes.Error, "non-2xx")
		return nil, fmt.Errorf("%w: %w", ErrDeliveryFailed, &ResponseError{StatusCode: status, Message: failure.Error})
	}

	var receipt DeliveryReceipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		span.SetStatus(codes.Error, "decode failed")
		return nil, fmt.Errorf("%w: decode response: %v", ErrDeliveryFailed, err)
	}
	return &receipt, nil
}

// post marshals v once and signs exactly the bytes that are sent.
func (c *Client) post(ctx context.Context, path string, v any) (int, []byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := signature.SignRequest(req, body, c.secret); err != nil {
		return 0, nil, err
	}
	correlation.InjectIntoRequest(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	c.log.Debug("ingestion call",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Int("request_bytes", len(body)),
	)
	return resp.StatusCode, respBody, nil
}

func isSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

func nonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
