package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paylane/internal/application"
	"github.com/smallbiznis/paylane/internal/clock"
	"github.com/smallbiznis/paylane/internal/config"
	"github.com/smallbiznis/paylane/internal/events"
	"github.com/smallbiznis/paylane/internal/gateway"
	"github.com/smallbiznis/paylane/internal/migration"
	"github.com/smallbiznis/paylane/internal/observability"
	"github.com/smallbiznis/paylane/internal/payment"
	"github.com/smallbiznis/paylane/internal/ratelimit"
	"github.com/smallbiznis/paylane/internal/scheduler"
	"github.com/smallbiznis/paylane/internal/server"
	"github.com/smallbiznis/paylane/internal/subscription"
	"github.com/smallbiznis/paylane/pkg/db"
	"github.com/smallbiznis/paylane/pkg/redisclient"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		redisclient.Module,

		// Collaborators
		gateway.Module,
		events.Module,
		ratelimit.Module,

		// Functional Domains
		application.Module,
		subscription.Module,
		payment.Module,

		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
