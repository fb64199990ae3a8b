package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	classificationdomain "github.com/smallbiznis/orderpulse/internal/classification/domain"
	classificationservice "github.com/smallbiznis/orderpulse/internal/classification/service"
	"github.com/smallbiznis/orderpulse/internal/clock"
	"github.com/smallbiznis/orderpulse/internal/config"
	"github.com/smallbiznis/orderpulse/internal/delivery"
	"github.com/smallbiznis/orderpulse/internal/eventhandler"
	ingestdomain "github.com/smallbiznis/orderpulse/internal/ingest/domain"
	ingestrepository "github.com/smallbiznis/orderpulse/internal/ingest/repository"
	ingestservice "github.com/smallbiznis/orderpulse/internal/ingest/service"
	insightdomain "github.com/smallbiznis/orderpulse/internal/insight/domain"
	insightservice "github.com/smallbiznis/orderpulse/internal/insight/service"
	"github.com/smallbiznis/orderpulse/internal/observability"
	obsmetrics "github.com/smallbiznis/orderpulse/internal/observability/metrics"
	"github.com/smallbiznis/orderpulse/internal/prompt"
	"github.com/smallbiznis/orderpulse/pkg/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testSecret = "shpss_test"

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type recordingDownstream struct {
	delivered []delivery.InsightPayload
}

func (r *recordingDownstream) LookupCustomer(context.Context, string, string) (*classificationdomain.CustomerSnapshot, error) {
	return nil, delivery.ErrLookupFailed
}

func (r *recordingDownstream) DeliverInsight(_ context.Context, payload delivery.InsightPayload) (*delivery.DeliveryReceipt, error) {
	r.delivered = append(r.delivered, payload)
	return &delivery.DeliveryReceipt{Success: true, ID: "1"}, nil
}

type completionFunc func(ctx context.Context, req insightdomain.CompletionRequest) (string, error)

func (f completionFunc) Complete(ctx context.Context, req insightdomain.CompletionRequest) (string, error) {
	return f(ctx, req)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestPipeline() *obsmetrics.Pipeline {
	return obsmetrics.NewPipeline(obsmetrics.Config{ServiceName: "orderpulse", Environment: "test"})
}

func newIngestService(t *testing.T) ingestdomain.Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&ingestdomain.InsightRecord{}, &ingestdomain.CustomerSnapshot{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	validator, err := ingestdomain.NewValidator()
	require.NoError(t, err)

	return ingestservice.New(ingestservice.Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Repo:      ingestrepository.Provide(),
		Validator: validator,
		Config:    config.Config{SharedSecret: testSecret},
		Clock:     clock.NewFakeClock(now),
	})
}

func newEventHandler(downstream eventhandler.Downstream) *eventhandler.Handler {
	completion := completionFunc(func(context.Context, insightdomain.CompletionRequest) (string, error) {
		return `{"insight":"Say thanks.","followUpSubject":"Thanks","followUpBody":"Hello again."}`, nil
	})
	return eventhandler.New(eventhandler.Params{
		Config: config.Config{},
		Log:    zap.NewNop(),
		Classifier: classificationservice.New(classificationservice.Params{
			Clock:  clock.NewFakeClock(now),
			Tuning: config.NewStaticClassificationHolder(config.DefaultClassificationConfig()),
		}),
		Builder:    prompt.NewBuilder(prompt.Options{}),
		Generator:  insightservice.New(insightservice.Params{Client: completion}),
		Downstream: downstream,
	})
}

func newTestServer(t *testing.T, events *eventhandler.Handler, ingestSvc ingestdomain.Service) (*gin.Engine, *obsmetrics.Pipeline) {
	t.Helper()
	pipeline := newTestPipeline()
	engine := NewEngine(observability.Config{Environment: "test"}, pipeline)
	NewServer(ServerParams{
		Gin:       engine,
		Log:       zap.NewNop(),
		Events:    events,
		IngestSvc: ingestSvc,
	})
	return engine, pipeline
}

func do(engine *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func signedHeaders(body string) map[string]string {
	return map[string]string{signature.Header: signature.Sign([]byte(body), testSecret)}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	engine, _ := newTestServer(t, nil, nil)

	w := do(engine, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	engine, _ := newTestServer(t, nil, nil)
	do(engine, http.MethodGet, "/health", "", nil)

	w := do(engine, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `orderpulse_http_requests_total{env="test",route="/health",service="orderpulse",status_class="2xx"} 1`)
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	engine, _ := newTestServer(t, nil, nil)

	w := do(engine, http.MethodGet, "/nope", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "not_found", errBody["type"])
}

func TestRoutesFollowInjectedComponents(t *testing.T) {
	engine, _ := newTestServer(t, nil, newIngestService(t))

	w := do(engine, http.MethodPost, "/events", `{}`, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleEventDeliversInsight(t *testing.T) {
	downstream := &recordingDownstream{}
	engine, _ := newTestServer(t, newEventHandler(downstream), nil)

	body := `{"source":"aws.partner/shopify.com/123/orders","detail-type":"shopifyWebhook","detail":{"metadata":{"X-Shopify-Shop-Domain":"demo.myshopify.com"},"payload":{"id":1001,"name":"#1001","total_price":"20.00","currency":"USD","line_items":[{"title":"Mug","quantity":1,"price":"20.00"}]}}}`
	w := do(engine, http.MethodPost, "/events", body, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, "1001", out["orderId"])
	assert.Equal(t, "first-time", out["customerType"])
	require.Len(t, downstream.delivered, 1)
	assert.Equal(t, delivery.StatusCompleted, downstream.delivered[0].Status)
}

func TestHandleEventIgnoresForeignSource(t *testing.T) {
	downstream := &recordingDownstream{}
	engine, _ := newTestServer(t, newEventHandler(downstream), nil)

	w := do(engine, http.MethodPost, "/events", `{"source":"aws.events","detail":{"payload":{"id":1}}}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["ignored"])
	assert.Empty(t, downstream.delivered)
}

func TestHandleEventRejectsMissingShop(t *testing.T) {
	downstream := &recordingDownstream{}
	engine, _ := newTestServer(t, newEventHandler(downstream), nil)

	w := do(engine, http.MethodPost, "/events", `{"source":"aws.partner/shopify.com/1/orders","detail":{"metadata":{},"payload":{"id":1}}}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decode(t, w)["error"])
	assert.Empty(t, downstream.delivered)
}

func TestHandleEventRejectsOversizedBody(t *testing.T) {
	downstream := &recordingDownstream{}
	engine, _ := newTestServer(t, newEventHandler(downstream), nil)

	body := `{"source":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	w := do(engine, http.MethodPost, "/events", body, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	errBody, ok := decode(t, w)["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "validation_error", errBody["type"])
	assert.Empty(t, downstream.delivered)
}

func TestIngestInsightRoute(t *testing.T) {
	engine, _ := newTestServer(t, nil, newIngestService(t))
	body := `{"shop":"demo.myshopify.com","orderId":"1001","orderName":"#1001","insightText":"Say thanks.","customerType":"first-time","orderValue":20}`

	first := do(engine, http.MethodPost, "/api/ai-insights/ingest", body, signedHeaders(body))
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	out := decode(t, first)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "Insight saved successfully", out["message"])
	id, ok := out["id"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, id)

	second := do(engine, http.MethodPost, "/api/ai-insights/ingest", body, signedHeaders(body))
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, id, decode(t, second)["id"])
}

func TestIngestInsightRejections(t *testing.T) {
	engine, _ := newTestServer(t, nil, newIngestService(t))
	valid := `{"shop":"demo.myshopify.com","orderId":"1001","orderName":"#1001","insightText":"x"}`

	tests := []struct {
		name    string
		body    string
		headers map[string]string
		status  int
		errPart string
	}{
		{name: "missing signature", body: valid, headers: nil, status: http.StatusUnauthorized, errPart: "Invalid signature"},
		{name: "wrong signature", body: valid, headers: map[string]string{signature.Header: strings.Repeat("0", 64)}, status: http.StatusUnauthorized, errPart: "Invalid signature"},
		{name: "malformed json", body: `{"shop":`, headers: signedHeaders(`{"shop":`), status: http.StatusBadRequest},
		{name: "unknown status", body: `{"shop":"s","orderId":"1","orderName":"#1","insightText":"x","status":"done"}`, status: http.StatusBadRequest, errPart: "status"},
		{name: "unknown customer type", body: `{"shop":"s","orderId":"1","orderName":"#1","insightText":"x","customerType":"whale"}`, status: http.StatusBadRequest, errPart: "customerType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := tt.headers
			if headers == nil && tt.status == http.StatusBadRequest {
				headers = signedHeaders(tt.body)
			}
			w := do(engine, http.MethodPost, "/api/ai-insights/ingest", tt.body, headers)

			assert.Equal(t, tt.status, w.Code)
			out := decode(t, w)
			msg, ok := out["error"].(string)
			require.True(t, ok)
			assert.Contains(t, msg, tt.errPart)
		})
	}
}

func TestCustomerDataRoutes(t *testing.T) {
	engine, _ := newTestServer(t, nil, newIngestService(t))

	lookup := `{"shop":"demo.myshopify.com","customerId":"gid://shopify/Customer/42"}`
	w := do(engine, http.MethodPost, "/api/customer-data", lookup, signedHeaders(lookup))
	assert.Equal(t, http.StatusNotFound, w.Code)
	out := decode(t, w)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Customer not found", out["error"])

	snapshot := `{"shop":"demo.myshopify.com","customerId":42,"numberOfOrders":3,"amountSpent":"120.50","currency":"USD","createdAt":"2023-01-02T03:04:05Z"}`
	w = do(engine, http.MethodPut, "/api/customer-data", snapshot, signedHeaders(snapshot))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(engine, http.MethodPost, "/api/customer-data", lookup, signedHeaders(lookup))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out = decode(t, w)
	assert.Equal(t, true, out["success"])
	customer, ok := out["customer"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, customer["numberOfOrders"])
	assert.Equal(t, "120.5", customer["amountSpent"])
	assert.Equal(t, "USD", customer["currency"])

	w = do(engine, http.MethodPost, "/api/customer-data", lookup, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
