package classification

import (
	"github.com/smallbiznis/orderpulse/internal/classification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("classification.service",
	fx.Provide(service.New),
)
