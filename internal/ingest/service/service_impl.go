package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderpulse/internal/clock"
	"github.com/smallbiznis/orderpulse/internal/config"
	"github.com/smallbiznis/orderpulse/internal/ingest/domain"
	"github.com/smallbiznis/orderpulse/internal/observability/metrics"
	"github.com/smallbiznis/orderpulse/pkg/signature"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Validator *domain.Validator
	Config    config.Config
	Clock     clock.Clock
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	validator *domain.Validator
	secret    string
	clock     clock.Clock
	metrics   *metrics.Metrics
}

func New(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("ingest.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		validator: p.Validator,
		secret:    p.Config.SharedSecret,
		clock:     c,
		metrics:   p.Metrics,
	}
}

func (s *Service) IngestInsight(ctx context.Context, body []byte, sig string) (domain.IngestResult, error) {
	if err := s.verify(body, sig); err != nil {
		s.metrics.RecordIngest(ctx, "insight", "unauthorized")
		return domain.IngestResult{}, err
	}

	var in domain.InsightInput
	switch res := s.validator.ValidateInsight(body).(type) {
	case domain.Valid[domain.InsightInput]:
		in = res.Payload
	case domain.Invalid:
		s.metrics.RecordIngest(ctx, "insight", "invalid")
		return domain.IngestResult{}, fmt.Errorf("%w: %w", domain.ErrInvalidPayload, res)
	}

	now := s.clock.Now()
	record := &domain.InsightRecord{
		ID:              s.genID.Generate(),
		Shop:            strings.TrimSpace(in.Shop),
		OrderID:         in.OrderID.String(),
		OrderName:       strings.TrimSpace(in.OrderName),
		InsightText:     in.InsightText,
		FollowUpSubject: in.FollowUpSubject,
		FollowUpBody:    in.FollowUpBody,
		CustomerType:    in.CustomerType,
		OrderValue:      in.OrderValue,
		Status:          in.Status,
		ErrorMessage:    in.ErrorMessage,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	stored, err := s.repo.UpsertInsight(ctx, s.db, record)
	if err != nil {
		s.metrics.RecordIngest(ctx, "insight", "error")
		return domain.IngestResult{}, err
	}

	created := stored.ID == record.ID
	s.metrics.RecordIngest(ctx, "insight", "ok")
	s.log.Info("insight stored",
		zap.String("shop", stored.Shop),
		zap.String("order_id", stored.OrderID),
		zap.String("status", string(stored.Status)),
		zap.Bool("created", created),
	)
	return domain.IngestResult{ID: stored.ID, Created: created}, nil
}

func (s *Service) LookupCustomer(ctx context.Context, body []byte, sig string) (*domain.CustomerSnapshot, error) {
	if err := s.verify(body, sig); err != nil {
		s.metrics.RecordIngest(ctx, "customer_lookup", "unauthorized")
		return nil, err
	}

	var in domain.LookupInput
	switch res := s.validator.ValidateLookup(body).(type) {
	case domain.Valid[domain.LookupInput]:
		in = res.Payload
	case domain.Invalid:
		s.metrics.RecordIngest(ctx, "customer_lookup", "invalid")
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidPayload, res)
	}

	snapshot, err := s.repo.FindCustomer(ctx, s.db, strings.TrimSpace(in.Shop), domain.NormalizeCustomerID(in.CustomerID.String()))
	if err != nil {
		s.metrics.RecordIngest(ctx, "customer_lookup", "error")
		return nil, err
	}
	if snapshot == nil {
		s.metrics.RecordIngest(ctx, "customer_lookup", "not_found")
		return nil, domain.ErrNotFound
	}
	s.metrics.RecordIngest(ctx, "customer_lookup", "ok")
	return snapshot, nil
}

func (s *Service) UpsertCustomer(ctx context.Context, body []byte, sig string) (*domain.CustomerSnapshot, error) {
	if err := s.verify(body, sig); err != nil {
		s.metrics.RecordIngest(ctx, "customer_upsert", "unauthorized")
		return nil, err
	}

	var in domain.SnapshotInput
	switch res := s.validator.ValidateSnapshot(body).(type) {
	case domain.Valid[domain.SnapshotInput]:
		in = res.Payload
	case domain.Invalid:
		s.metrics.RecordIngest(ctx, "customer_upsert", "invalid")
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidPayload, res)
	}

	now := s.clock.Now()
	stored, err := s.repo.UpsertCustomer(ctx, s.db, &domain.CustomerSnapshot{
		ID:                s.genID.Generate(),
		Shop:              strings.TrimSpace(in.Shop),
		CustomerID:        domain.NormalizeCustomerID(in.CustomerID.String()),
		NumberOfOrders:    in.NumberOfOrders,
		AmountSpent:       in.AmountSpent.Round(4),
		Currency:          strings.ToUpper(in.Currency),
		CustomerCreatedAt: in.CreatedAt.UTC(),
		FirstName:         deref(in.FirstName),
		LastName:          deref(in.LastName),
		Email:             deref(in.Email),
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		s.metrics.RecordIngest(ctx, "customer_upsert", "error")
		return nil, err
	}
	s.metrics.RecordIngest(ctx, "customer_upsert", "ok")
	return stored, nil
}

func (s *Service) verify(body []byte, sig string) error {
	if !signature.Verify(body, sig, s.secret) {
		return domain.ErrInvalidSignature
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
