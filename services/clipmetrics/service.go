package clipmetrics

import (
	"context"
	"time"

	"cliprank-platform/pkg/db/option"
	"cliprank-platform/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("clipmetrics.module",
	fx.Provide(NewService),
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node

	records repository.Repository[ExternalMetricRecord]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,

		records: repository.ProvideStore[ExternalMetricRecord](p.DB),
	}
}

// StoreBatch persists a batch of adapted scraper rows. IDs are assigned
// here so adapters stay pure.
func (s *Service) StoreBatch(ctx context.Context, records []ExternalMetricRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := make([]*ExternalMetricRecord, 0, len(records))
	for i := range records {
		record := records[i]
		if record.ID == "" {
			record.ID = s.node.Generate().String()
		}
		if record.ScrapedAt.IsZero() {
			record.ScrapedAt = time.Now().UTC()
		}
		batch = append(batch, &record)
	}

	if err := s.records.BatchCreate(ctx, batch); err != nil {
		zap.L().Error("failed to store metric records", zap.Int("count", len(batch)), zap.Error(err))
		return err
	}

	return nil
}

// RecordsInWindow returns all scraped records inside [start, end),
// oldest first so BuildIndex's last-write-wins resolves to the most
// recent scrape.
func (s *Service) RecordsInWindow(ctx context.Context, start, end time.Time) ([]ExternalMetricRecord, error) {
	rows, err := s.records.Find(ctx, &ExternalMetricRecord{},
		option.ApplyOperator(option.Condition{Field: "scraped_at", Operator: option.GTE, Value: start}),
		option.ApplyOperator(option.Condition{Field: "scraped_at", Operator: option.LT, Value: end}),
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "scraped_at",
			OrderBy: "asc",
			Allow: map[string]bool{
				"scraped_at": true,
			},
		}),
	)
	if err != nil {
		return nil, err
	}

	records := make([]ExternalMetricRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, *row)
	}

	return records, nil
}

// IndexForWindow builds the reconciliation lookup for a period window.
func (s *Service) IndexForWindow(ctx context.Context, start, end time.Time) (Index, error) {
	records, err := s.RecordsInWindow(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return BuildIndex(records), nil
}
