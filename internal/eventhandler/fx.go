package eventhandler

import (
	"github.com/smallbiznis/orderpulse/internal/delivery"
	insightservice "github.com/smallbiznis/orderpulse/internal/insight/service"
	"go.uber.org/fx"
)

var Module = fx.Module("eventhandler",
	fx.Provide(
		func(c *delivery.Client) Downstream { return c },
		func(g *insightservice.Generator) Generator { return g },
		New,
	),
)
