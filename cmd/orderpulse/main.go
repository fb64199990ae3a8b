package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderpulse/internal/classification"
	"github.com/smallbiznis/orderpulse/internal/clock"
	"github.com/smallbiznis/orderpulse/internal/config"
	"github.com/smallbiznis/orderpulse/internal/delivery"
	"github.com/smallbiznis/orderpulse/internal/eventhandler"
	"github.com/smallbiznis/orderpulse/internal/ingest"
	"github.com/smallbiznis/orderpulse/internal/insight"
	"github.com/smallbiznis/orderpulse/internal/metricspush"
	"github.com/smallbiznis/orderpulse/internal/migration"
	"github.com/smallbiznis/orderpulse/internal/observability"
	"github.com/smallbiznis/orderpulse/internal/prompt"
	"github.com/smallbiznis/orderpulse/internal/server"
	"github.com/smallbiznis/orderpulse/pkg/db"
	"go.uber.org/fx"
)

// The monolith serves the event route and the ingestion routes from one
// process. APP_URL may point back at this process.
func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		fx.Invoke(func(cfg config.Config) error {
			if err := cfg.ValidateIngest(); err != nil {
				return err
			}
			return cfg.ValidateProcessor()
		}),
		observability.Module,
		metricspush.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,

		// Functional Domains
		classification.Module,
		prompt.Module,
		insight.Module,
		delivery.Module,
		eventhandler.Module,
		ingest.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
