package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smallbiznis/orderpulse/internal/insight/domain"
	"github.com/smallbiznis/orderpulse/internal/prompt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	fieldInsight         = "insight"
	fieldFollowUpSubject = "followUpSubject"
	fieldFollowUpBody    = "followUpBody"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	Client domain.CompletionClient
}

type Generator struct {
	log    *zap.Logger
	client domain.CompletionClient
}

func New(p Params) *Generator {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		log:    log.Named("insight.generator"),
		client: p.Client,
	}
}

// Generate calls the provider once and validates the structure of its reply.
func (g *Generator) Generate(ctx context.Context, p prompt.Prompt) (domain.Insight, error) {
	ctx, span := otel.Tracer("orderpulse/insight").Start(ctx, "insight.generate")
	defer span.End()

	content, err := g.client.Complete(ctx, domain.CompletionRequest{System: p.System, User: p.User})
	if err != nil {
		span.SetStatus(codes.Error, "completion failed")
		return domain.Insight{}, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}

	insight, err := Parse(content)
	if err != nil {
		span.SetStatus(codes.Error, "invalid completion")
		g.log.Warn("invalid completion content", zap.Error(err), zap.Int("content_length", len(content)))
		return domain.Insight{}, err
	}
	return insight, nil
}

// Parse validates raw completion content.
func Parse(content string) (domain.Insight, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Insight{}, domain.ErrEmptyResponse
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return domain.Insight{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if fields == nil {
		return domain.Insight{}, fmt.Errorf("%w: not an object", domain.ErrMalformedResponse)
	}

	text, err := requiredString(fields, fieldInsight)
	if err != nil {
		return domain.Insight{}, err
	}
	subject, err := requiredString(fields, fieldFollowUpSubject)
	if err != nil {
		return domain.Insight{}, err
	}
	body, err := requiredString(fields, fieldFollowUpBody)
	if err != nil {
		return domain.Insight{}, err
	}

	return domain.Insight{
		Text:            text,
		FollowUpSubject: subject,
		FollowUpBody:    body,
	}, nil
}

func requiredString(fields map[string]any, key string) (string, error) {
	raw, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", domain.ErrIncompleteResponse, key)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", domain.ErrIncompleteResponse, key)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: %s is empty", domain.ErrIncompleteResponse, key)
	}
	return value, nil
}
