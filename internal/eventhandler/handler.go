// Package eventhandler runs one order event through normalization,
// classification, prompt construction, generation and delivery.
package eventhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	classificationdomain "github.com/smallbiznis/orderpulse/internal/classification/domain"
	classificationservice "github.com/smallbiznis/orderpulse/internal/classification/service"
	"github.com/smallbiznis/orderpulse/internal/config"
	"github.com/smallbiznis/orderpulse/internal/delivery"
	insightdomain "github.com/smallbiznis/orderpulse/internal/insight/domain"
	obscontext "github.com/smallbiznis/orderpulse/internal/observability/context"
	"github.com/smallbiznis/orderpulse/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/orderpulse/internal/order/domain"
	orderservice "github.com/smallbiznis/orderpulse/internal/order/service"
	"github.com/smallbiznis/orderpulse/internal/prompt"
	"github.com/smallbiznis/orderpulse/pkg/log/ctxlogger"
	"github.com/smallbiznis/orderpulse/pkg/telemetry/correlation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// errorInsightText fills the mandatory insight text of an error record.
const errorInsightText = "Insight could not be generated for this order."

// Downstream is the ingestion service as seen by the handler.
type Downstream interface {
	LookupCustomer(ctx context.Context, shop, customerID string) (*classificationdomain.CustomerSnapshot, error)
	DeliverInsight(ctx context.Context, payload delivery.InsightPayload) (*delivery.DeliveryReceipt, error)
}

// Generator produces an insight from a prompt.
type Generator interface {
	Generate(ctx context.Context, p prompt.Prompt) (insightdomain.Insight, error)
}

type Params struct {
	fx.In

	Config     config.Config
	Log        *zap.Logger
	Classifier *classificationservice.Classifier
	Builder    *prompt.Builder
	Generator  Generator
	Downstream Downstream
	Metrics    *metrics.Metrics  `optional:"true"`
	Pipeline   *metrics.Pipeline `optional:"true"`
}

type Handler struct {
	fallbackShop string
	log          *zap.Logger
	classifier   *classificationservice.Classifier
	builder      *prompt.Builder
	generator    Generator
	downstream   Downstream
	metrics      *metrics.Metrics
	pipeline     *metrics.Pipeline
}

func New(p Params) *Handler {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		fallbackShop: strings.TrimSpace(p.Config.FallbackShopDomain),
		log:          log.Named("eventhandler"),
		classifier:   p.Classifier,
		builder:      p.Builder,
		generator:    p.Generator,
		downstream:   p.Downstream,
		metrics:      p.Metrics,
		pipeline:     p.Pipeline,
	}
}

// HandleRaw decodes an envelope and handles it.
func (h *Handler) HandleRaw(ctx context.Context, raw []byte) Outcome {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.metrics.RecordEvent(ctx, "rejected")
		return rejected(fmt.Errorf("%w: %v", ErrInvalidEnvelope, err))
	}
	return h.Handle(ctx, env)
}

// Handle runs the pipeline for one envelope. Boundary rejects make no
// outbound calls. Once the order is identified exactly one record, success
// or error, is offered to the ingestion service.
func (h *Handler) Handle(ctx context.Context, env Envelope) Outcome {
	start := time.Now()
	ctx, _ = correlation.EnsureCorrelationID(ctx)

	if !env.recognized() {
		h.log.Debug("ignoring event", zap.String("source", env.Source))
		h.metrics.RecordEvent(ctx, "ignored")
		return ignored()
	}

	order, err := identifyOrder(env.Detail.Payload)
	if err != nil {
		h.metrics.RecordEvent(ctx, "rejected")
		return rejected(err)
	}
	orderID := order.Identifier()
	if orderID == "" {
		h.metrics.RecordEvent(ctx, "rejected")
		return rejected(ErrMissingOrderID)
	}
	shop := env.metadata(MetadataShopDomain)
	if shop == "" {
		shop = h.fallbackShop
	}
	if shop == "" {
		h.metrics.RecordEvent(ctx, "rejected")
		return rejected(ErrMissingShopDomain)
	}

	topic := env.metadata(MetadataTopic)
	ctx = obscontext.WithShop(ctx, shop)
	ctx = obscontext.WithOrderID(ctx, orderID)
	ctx = ctxlogger.ContextWithTopic(ctx, topic)
	log := ctxlogger.WithContext(ctx, h.log).With(
		zap.String("shop", shop),
		zap.String("order_id", orderID),
	)

	ctx, span := otel.Tracer("orderpulse/eventhandler").Start(ctx, "eventhandler.handle")
	defer span.End()
	span.SetAttributes(attribute.String("shop", shop), attribute.String("topic", topic))

	var (
		payload delivery.InsightPayload
		result  classificationdomain.Result
	)
	full, err := decodeOrder(env.Detail.Payload)
	if err == nil {
		order = full
		payload, result, err = h.process(ctx, log, shop, order)
	}
	if err == nil {
		var receipt *delivery.DeliveryReceipt
		stageStart := time.Now()
		receipt, err = h.downstream.DeliverInsight(ctx, payload)
		h.pipeline.ObserveStage(metrics.StageDeliver, err, time.Since(stageStart))
		if err == nil {
			h.metrics.RecordDelivery(ctx, string(payload.Status), "ok")
			h.metrics.RecordEvent(ctx, "succeeded")
			h.pipeline.ObserveStage(metrics.StageTotal, nil, time.Since(start))
			log.Info("insight delivered",
				zap.String("customer_type", string(result.Type)),
				zap.String("classification_source", string(result.Source)),
				zap.String("insight_id", receipt.ID),
			)
			return Outcome{
				Status:       http.StatusOK,
				OrderID:      orderID,
				CustomerType: string(result.Type),
				InsightID:    receipt.ID,
			}
		}
		h.metrics.RecordDelivery(ctx, string(payload.Status), "failed")
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "pipeline failed")
	log.Error("event processing failed", zap.String("customer_type", string(result.Type)), zap.Error(err))
	h.deliverError(ctx, log, shop, order, result, err)
	h.metrics.RecordEvent(ctx, "failed")
	h.pipeline.ObserveStage(metrics.StageTotal, err, time.Since(start))
	return failed(orderID, err)
}

// process produces the payload to deliver. The classification is returned
// even on failure so the error record can carry it.
func (h *Handler) process(ctx context.Context, log *zap.Logger, shop string, order orderdomain.Order) (delivery.InsightPayload, classificationdomain.Result, error) {
	normalized, err := orderservice.Normalize(order)
	if err != nil {
		return delivery.InsightPayload{}, classificationdomain.Result{}, fmt.Errorf("normalize order: %w", err)
	}

	result, name := h.classify(ctx, log, shop, order)
	h.metrics.RecordClassification(ctx, string(result.Type), string(result.Source))

	p, err := h.builder.Build(prompt.Input{
		Order:          normalized,
		Classification: result,
		CustomerName:   name,
	})
	if err != nil {
		return delivery.InsightPayload{}, result, fmt.Errorf("build prompt: %w", err)
	}

	stageStart := time.Now()
	insight, err := h.generator.Generate(ctx, p)
	h.pipeline.ObserveStage(metrics.StageGenerate, err, time.Since(stageStart))
	if err != nil {
		return delivery.InsightPayload{}, result, err
	}

	value := normalized.Total.InexactFloat64()
	return delivery.InsightPayload{
		Shop:            shop,
		OrderID:         normalized.ID,
		OrderName:       orderName(normalized.Name, normalized.ID),
		InsightText:     insight.Text,
		FollowUpSubject: insight.FollowUpSubject,
		FollowUpBody:    insight.FollowUpBody,
		CustomerType:    string(result.Type),
		OrderValue:      &value,
		Status:          delivery.StatusCompleted,
	}, result, nil
}

// classify picks the guest, authoritative or heuristic path. Lookup
// failures never fail the run.
func (h *Handler) classify(ctx context.Context, log *zap.Logger, shop string, order orderdomain.Order) (classificationdomain.Result, string) {
	customer := order.Customer
	if customer == nil {
		return h.classifier.Guest(), ""
	}

	customerID := customer.ID.String()
	if customerID != "" {
		stageStart := time.Now()
		snapshot, err := h.downstream.LookupCustomer(ctx, shop, customerID)
		h.pipeline.ObserveStage(metrics.StageLookup, err, time.Since(stageStart))
		if err == nil {
			name := strings.TrimSpace(snapshot.FirstName + " " + snapshot.LastName)
			if name == "" {
				name = customer.DisplayName()
			}
			return h.classifier.FromSnapshot(*snapshot), name
		}
		log.Warn("customer lookup failed, using heuristic classification", zap.Error(err))
	}

	if customer.OrdersCount != nil {
		log.Debug("webhook customer counters present but not authoritative", zap.Int("orders_count", *customer.OrdersCount))
	}
	return h.classifier.FromWebhookCustomer(customer, order.CreatedAt), customer.DisplayName()
}

// deliverError offers an error record. Its failure is only logged.
func (h *Handler) deliverError(ctx context.Context, log *zap.Logger, shop string, order orderdomain.Order, result classificationdomain.Result, cause error) {
	message := cause.Error()
	payload := delivery.InsightPayload{
		Shop:         shop,
		OrderID:      order.Identifier(),
		OrderName:    orderName(order.Name, order.Identifier()),
		InsightText:  errorInsightText,
		CustomerType: string(result.Type),
		Status:       delivery.StatusError,
		ErrorMessage: &message,
	}
	if _, err := h.downstream.DeliverInsight(ctx, payload); err != nil {
		h.metrics.RecordDelivery(ctx, string(delivery.StatusError), "failed")
		log.Error("error record delivery failed", zap.Error(err), zap.NamedError("cause", cause))
		return
	}
	h.metrics.RecordDelivery(ctx, string(delivery.StatusError), "ok")
}

// identifyOrder reads only the identifying fields so a payload with an
// unrelated malformed field still yields an order to report against.
func identifyOrder(raw json.RawMessage) (orderdomain.Order, error) {
	var order orderdomain.Order
	if len(raw) == 0 || string(raw) == "null" {
		return order, ErrMissingOrderID
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return order, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if v, ok := fields["id"]; ok {
		_ = json.Unmarshal(v, &order.ID)
	}
	if v, ok := fields["admin_graphql_api_id"]; ok {
		_ = json.Unmarshal(v, &order.AdminGraphQLAPIID)
	}
	if v, ok := fields["name"]; ok {
		_ = json.Unmarshal(v, &order.Name)
	}
	return order, nil
}

func decodeOrder(raw json.RawMessage) (orderdomain.Order, error) {
	var order orderdomain.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return orderdomain.Order{}, fmt.Errorf("decode order: %w", err)
	}
	return order, nil
}

func orderName(name, id string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return "#" + id
}
