package ranking

import (
	"context"

	"cliprank-platform/pkg/errutil"
	"cliprank-platform/pkg/period"
	"cliprank-platform/services/campaign"
	"cliprank-platform/services/clipmetrics"
	"cliprank-platform/services/submission"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("ranking.module",
	fx.Provide(NewService),
)

type Service struct {
	campaigns   *campaign.Service
	submissions *submission.Service
	metrics     *clipmetrics.Service
}

type ServiceParams struct {
	fx.In

	Campaigns   *campaign.Service
	Submissions *submission.Service
	Metrics     *clipmetrics.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		campaigns:   p.Campaigns,
		submissions: p.Submissions,
		metrics:     p.Metrics,
	}
}

// CreatorRanking recomputes the campaign ranking for one period on
// demand: verified submissions in the window are reconciled against the
// freshest scraped metrics and aggregated per creator. An empty rankBy
// falls back to the campaign's configured metric.
func (s *Service) CreatorRanking(ctx context.Context, campaignID string, periodType period.Type, periodDate string, rankBy campaign.RankBy) ([]CreatorPeriodTotals, error) {
	if !periodType.Valid() {
		return nil, errutil.BadRequest("period_type must be daily or monthly", nil)
	}
	if rankBy != "" && rankBy != campaign.RankByViews && rankBy != campaign.RankByVideos {
		return nil, errutil.BadRequest("rank_by must be views or videos", nil)
	}

	c, err := s.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	start, end, err := period.Window(periodType, periodDate)
	if err != nil {
		return nil, errutil.BadRequest("invalid period_date", err)
	}

	subs, err := s.submissions.ListVerifiedInWindow(ctx, campaignID, start, end)
	if err != nil {
		zap.L().Error("failed to load submissions for ranking",
			zap.String("campaign_id", campaignID),
			zap.Error(err),
		)
		return nil, err
	}

	index, err := s.metrics.IndexForWindow(ctx, start, end)
	if err != nil {
		zap.L().Error("failed to build metrics index",
			zap.String("campaign_id", campaignID),
			zap.Error(err),
		)
		return nil, err
	}

	videos := ReconcileAll(subs, index)
	if rankBy == "" {
		rankBy = c.RankBy
	}
	return Aggregate(videos, rankBy), nil
}
