package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"cliprank-platform/pkg/config"
	"cliprank-platform/pkg/db"
	"cliprank-platform/pkg/logger"
	"cliprank-platform/pkg/redis"
	"cliprank-platform/pkg/sequence"
	"cliprank-platform/pkg/task"
	"cliprank-platform/services/campaign"
	"cliprank-platform/services/clipmetrics"
	"cliprank-platform/services/payout"
	"cliprank-platform/services/ranking"
	"cliprank-platform/services/submission"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		sequence.Module,
		fx.Provide(
			provideSnowflakeNode,
		),
		campaign.Module,
		submission.Module,
		clipmetrics.Module,
		clipmetrics.TaskModule,
		ranking.Module,
		payout.Module,
		payout.TaskModule,
		task.Server,
		fx.Invoke(registerHandlers),
		fxLogger,
	)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func registerHandlers(mux *asynq.ServeMux, metrics *clipmetrics.Task, payouts *payout.Task) {
	mux.HandleFunc(clipmetrics.TaskIngestMetrics, metrics.HandleIngestMetrics)
	mux.HandleFunc(payout.TaskRunBatchPayout, payouts.HandleRunBatchPayout)
}
