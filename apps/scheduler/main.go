package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paylane/internal/clock"
	"github.com/smallbiznis/paylane/internal/config"
	"github.com/smallbiznis/paylane/internal/events"
	"github.com/smallbiznis/paylane/internal/gateway"
	"github.com/smallbiznis/paylane/internal/observability"
	"github.com/smallbiznis/paylane/internal/ratelimit"
	"github.com/smallbiznis/paylane/internal/scheduler"
	"github.com/smallbiznis/paylane/internal/subscription"
	"github.com/smallbiznis/paylane/pkg/db"
	"github.com/smallbiznis/paylane/pkg/redisclient"
	"go.uber.org/fx"
)

// Runs the renewal sweep without the HTTP API. Migrations are applied by
// cmd/paylane.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		redisclient.Module,

		// Domain services required by scheduler
		gateway.Module,
		events.Module,
		ratelimit.Module,
		subscription.Module,

		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
