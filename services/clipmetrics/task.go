package clipmetrics

import (
	"context"
	"encoding/json"
	"fmt"

	"cliprank-platform/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const TaskIngestMetrics = taskname.MetricsIngest

var TaskModule = fx.Module("task.clipmetrics",
	fx.Provide(NewTask),
)

// IngestPayload carries one scraper batch. Rows is the source-shaped
// JSON; the platform tag selects the adapter.
type IngestPayload struct {
	SourceTable string          `json:"source_table"`
	Platform    Platform        `json:"platform"`
	Rows        json.RawMessage `json:"rows"`
	TraceID     string          `json:"trace_id,omitempty"`
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

func (t *Task) HandleIngestMetrics(ctx context.Context, task *asynq.Task) error {
	var payload IngestPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	zapLog := zap.L().With(
		zap.String("task_type", task.Type()),
		zap.String("source_table", payload.SourceTable),
		zap.String("platform", string(payload.Platform)),
		zap.String("trace_id", payload.TraceID),
	)

	records, err := adaptRows(payload)
	if err != nil {
		zapLog.Error("failed to adapt scraper rows", zap.Error(err))
		return err
	}

	if err := t.service.StoreBatch(ctx, records); err != nil {
		zapLog.Error("failed to store scraper batch", zap.Error(err))
		return err
	}

	zapLog.Info("scraper batch ingested", zap.Int("records", len(records)))
	return nil
}

func adaptRows(payload IngestPayload) ([]ExternalMetricRecord, error) {
	switch payload.Platform {
	case PlatformTikTok:
		var rows []TikTokRow
		if err := json.Unmarshal(payload.Rows, &rows); err != nil {
			return nil, fmt.Errorf("tiktok rows: %w", err)
		}
		records := make([]ExternalMetricRecord, 0, len(rows))
		for _, row := range rows {
			records = append(records, FromTikTokRow(payload.SourceTable, row))
		}
		return records, nil

	case PlatformInstagram:
		var rows []InstagramRow
		if err := json.Unmarshal(payload.Rows, &rows); err != nil {
			return nil, fmt.Errorf("instagram rows: %w", err)
		}
		records := make([]ExternalMetricRecord, 0, len(rows))
		for _, row := range rows {
			records = append(records, FromInstagramRow(payload.SourceTable, row))
		}
		return records, nil

	case PlatformYouTube:
		var rows []YouTubeRow
		if err := json.Unmarshal(payload.Rows, &rows); err != nil {
			return nil, fmt.Errorf("youtube rows: %w", err)
		}
		records := make([]ExternalMetricRecord, 0, len(rows))
		for _, row := range rows {
			records = append(records, FromYouTubeRow(payload.SourceTable, row))
		}
		return records, nil

	default:
		return nil, fmt.Errorf("unsupported platform %q", payload.Platform)
	}
}
