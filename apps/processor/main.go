package main

import (
	"github.com/smallbiznis/orderpulse/internal/classification"
	"github.com/smallbiznis/orderpulse/internal/clock"
	"github.com/smallbiznis/orderpulse/internal/config"
	"github.com/smallbiznis/orderpulse/internal/delivery"
	"github.com/smallbiznis/orderpulse/internal/eventhandler"
	"github.com/smallbiznis/orderpulse/internal/insight"
	"github.com/smallbiznis/orderpulse/internal/metricspush"
	"github.com/smallbiznis/orderpulse/internal/observability"
	"github.com/smallbiznis/orderpulse/internal/prompt"
	"github.com/smallbiznis/orderpulse/internal/server"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		fx.Invoke(func(cfg config.Config) error {
			return cfg.ValidateProcessor()
		}),
		observability.Module,
		metricspush.Module,
		clock.Module,

		// Event pipeline
		classification.Module,
		prompt.Module,
		insight.Module,
		delivery.Module,
		eventhandler.Module,

		server.Module,
	)
	app.Run()
}
