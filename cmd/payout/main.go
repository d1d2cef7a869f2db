package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"cliprank-platform/pkg/config"
	"cliprank-platform/pkg/db"
	"cliprank-platform/pkg/health"
	"cliprank-platform/pkg/logger"
	"cliprank-platform/pkg/redis"
	"cliprank-platform/pkg/sequence"
	"cliprank-platform/pkg/server"
	"cliprank-platform/pkg/task"
	"cliprank-platform/services/campaign"
	"cliprank-platform/services/clipmetrics"
	"cliprank-platform/services/payout"
	"cliprank-platform/services/ranking"
	"cliprank-platform/services/submission"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		task.Client,
		sequence.Module,
		health.Module,
		fx.Provide(
			provideSnowflakeNode,
		),
		campaign.Module,
		campaign.Routes,
		submission.Module,
		submission.Routes,
		clipmetrics.Module,
		ranking.Module,
		ranking.Routes,
		payout.Module,
		payout.Routes,
		server.ProvideHTTPServer,
		fx.Invoke(registerHealthRoutes),
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func registerHealthRoutes(router *gin.Engine, svc health.HealthService) {
	router.GET("/healthz", svc.Liveness)
	router.GET("/readyz", svc.Readiness)
}
