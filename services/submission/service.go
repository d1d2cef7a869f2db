package submission

import (
	"context"
	"time"

	"cliprank-platform/pkg/db/option"
	"cliprank-platform/pkg/errutil"
	"cliprank-platform/pkg/repository"
	"cliprank-platform/services/clipmetrics"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("submission.module",
	fx.Provide(NewService),
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node

	submissions repository.Repository[Submission]
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

		submissions: repository.ProvideStore[Submission](p.DB),
	}
}

type SubmitRequest struct {
	CampaignID string `json:"campaign_id"`
	CreatorID  string `json:"creator_id"`
	VideoLink  string `json:"video_link" binding:"required"`
}

// Submit registers a video link for a campaign. Links that normalize to a
// known platform identity are guarded against duplicate entries within
// the campaign; links that do not normalize are still accepted, they just
// can never match scraped metrics.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Submission, error) {
	if req.CampaignID == "" {
		return nil, errutil.BadRequest("campaign_id is required", nil)
	}
	if req.VideoLink == "" {
		return nil, errutil.BadRequest("video_link is required", nil)
	}

	sub := &Submission{
		ID:          s.node.Generate().String(),
		CampaignID:  req.CampaignID,
		VideoLink:   req.VideoLink,
		SubmittedAt: time.Now().UTC(),
	}
	if req.CreatorID != "" {
		sub.CreatorID = &req.CreatorID
	}

	if key, ok := clipmetrics.Normalize(req.VideoLink); ok {
		sub.Platform = key.Platform
		sub.NormalizedKey = key.String()

		exist, err := s.submissions.FindOne(ctx, &Submission{
			CampaignID:    req.CampaignID,
			NormalizedKey: sub.NormalizedKey,
		})
		if err != nil {
			return nil, err
		}
		if exist != nil {
			zap.L().Warn("duplicate submission for video",
				zap.String("campaign_id", req.CampaignID),
				zap.String("normalized_key", sub.NormalizedKey),
			)
			return nil, errutil.Conflict("video already submitted to this campaign", nil)
		}
	}

	if err := s.submissions.Create(ctx, sub); err != nil {
		zap.L().Error("failed to create submission", zap.Error(err))
		return nil, err
	}

	return sub, nil
}

// Verify approves a submission so it becomes eligible for ranking and
// payment.
func (s *Service) Verify(ctx context.Context, submissionID string) (*Submission, error) {
	sub, err := s.submissions.FindOne(ctx, &Submission{ID: submissionID})
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, errutil.NotFound("submission not found", nil)
	}

	if !sub.Verified {
		now := time.Now().UTC()
		if err := s.submissions.Update(ctx, sub.ID, map[string]any{
			"verified":    true,
			"verified_at": now,
			"updated_at":  now,
		}); err != nil {
			return nil, err
		}
		sub.Verified = true
		sub.VerifiedAt = &now
	}

	return sub, nil
}

// ListVerifiedInWindow returns verified submissions for a campaign whose
// submitted_at falls inside [start, end), in submission order. The order
// matters: it is the tie-break for equal ranking scores downstream.
func (s *Service) ListVerifiedInWindow(ctx context.Context, campaignID string, start, end time.Time) ([]Submission, error) {
	rows, err := s.submissions.Find(ctx, &Submission{CampaignID: campaignID, Verified: true},
		option.ApplyOperator(option.Condition{Field: "submitted_at", Operator: option.GTE, Value: start}),
		option.ApplyOperator(option.Condition{Field: "submitted_at", Operator: option.LT, Value: end}),
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "submitted_at",
			OrderBy: "asc",
			Allow: map[string]bool{
				"submitted_at": true,
			},
		}),
	)
	if err != nil {
		return nil, err
	}

	subs := make([]Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, *row)
	}

	return subs, nil
}

// List returns all submissions for a campaign, newest first.
func (s *Service) List(ctx context.Context, campaignID string) ([]Submission, error) {
	rows, err := s.submissions.Find(ctx, &Submission{CampaignID: campaignID},
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "submitted_at",
			OrderBy: "desc",
			Allow: map[string]bool{
				"submitted_at": true,
			},
		}),
	)
	if err != nil {
		return nil, err
	}

	subs := make([]Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, *row)
	}

	return subs, nil
}
