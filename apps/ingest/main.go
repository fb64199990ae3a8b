package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderpulse/internal/clock"
	"github.com/smallbiznis/orderpulse/internal/config"
	"github.com/smallbiznis/orderpulse/internal/ingest"
	"github.com/smallbiznis/orderpulse/internal/metricspush"
	"github.com/smallbiznis/orderpulse/internal/migration"
	"github.com/smallbiznis/orderpulse/internal/observability"
	"github.com/smallbiznis/orderpulse/internal/server"
	"github.com/smallbiznis/orderpulse/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		fx.Invoke(func(cfg config.Config) error {
			return cfg.ValidateIngest()
		}),
		observability.Module,
		metricspush.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,

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
