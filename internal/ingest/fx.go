package ingest

import (
	"github.com/smallbiznis/orderpulse/internal/ingest/domain"
	"github.com/smallbiznis/orderpulse/internal/ingest/repository"
	"github.com/smallbiznis/orderpulse/internal/ingest/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ingest.service",
	fx.Provide(domain.NewValidator),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
