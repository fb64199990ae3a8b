package insight

import (
	"github.com/smallbiznis/orderpulse/internal/insight/service"
	"github.com/smallbiznis/orderpulse/internal/providers/openai"
	"go.uber.org/fx"
)

var Module = fx.Module("insight.service",
	openai.Module,
	fx.Provide(service.New),
)
