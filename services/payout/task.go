package payout

import (
	"context"
	"encoding/json"
	"fmt"

	"cliprank-platform/pkg/period"
	"cliprank-platform/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const TaskRunBatchPayout = taskname.PayoutRunBatch

var TaskModule = fx.Module("task.payout",
	fx.Provide(NewTask),
)

// BatchPayoutPayload schedules one campaign period for payment.
type BatchPayoutPayload struct {
	CampaignID string      `json:"campaign_id"`
	PeriodType period.Type `json:"period_type"`
	PeriodDate string      `json:"period_date"`
	Notes      string      `json:"notes,omitempty"`
	TraceID    string      `json:"trace_id,omitempty"`
}

type Task struct {
	service *Service
}

type TaskParams struct {
	fx.In

	Service *Service
}

func NewTask(p TaskParams) *Task {
	return &Task{service: p.Service}
}

func (t *Task) HandleRunBatchPayout(ctx context.Context, task *asynq.Task) error {
	var payload BatchPayoutPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	zapLog := zap.L().With(
		zap.String("task_type", task.Type()),
		zap.String("campaign_id", payload.CampaignID),
		zap.String("period_type", string(payload.PeriodType)),
		zap.String("period_date", payload.PeriodDate),
		zap.String("trace_id", payload.TraceID),
	)
	zapLog.Info("start batch payout task")

	results, err := t.service.PayAllPending(ctx, payload.CampaignID, payload.PeriodType, payload.PeriodDate, payload.Notes)
	if err != nil {
		zapLog.Error("batch payout failed to start", zap.Error(err))
		return err
	}

	var paid, skipped, failed int
	for _, result := range results {
		switch {
		case result.Success && result.AlreadyPaid:
			skipped++
		case result.Success:
			paid++
		default:
			failed++
			zapLog.Warn("creator payment failed",
				zap.String("user_id", result.UserID),
				zap.String("error", result.Error),
			)
		}
	}

	zapLog.Info("batch payout task finished",
		zap.Int("paid", paid),
		zap.Int("already_paid", skipped),
		zap.Int("failed", failed),
	)
	return nil
}
