package campaign

import (
	"context"
	"time"

	"cliprank-platform/pkg/errutil"
	"cliprank-platform/pkg/sequence"
	"cliprank-platform/services/earnings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ========================================================
// Service Definition
// ========================================================

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	seq  sequence.Generator
}

type ServiceParams struct {
	fx.In

	DB   *gorm.DB
	Node *snowflake.Node
	Seq  sequence.Generator
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		seq:  p.Seq,
	}
}

type CreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	RankBy      RankBy `json:"rank_by"`

	PricingType     earnings.PricingType `json:"pricing_type" binding:"required"`
	RatePerThousand decimal.Decimal      `json:"rate_per_thousand"`
	MinViews        int64                `json:"min_views"`
	MaxPaidViews    int64                `json:"max_paid_views"`
	RatePerVideo    decimal.Decimal      `json:"rate_per_video"`
	PrizeTable      datatypes.JSON       `json:"prize_table"`

	StartAt *time.Time `json:"start_at"`
	EndAt   *time.Time `json:"end_at"`
}

func (s *Service) CreateCampaign(ctx context.Context, req CreateRequest) (*Campaign, error) {
	campaignCode, err := s.seq.NextCampaignCode(ctx)
	if err != nil {
		return nil, err
	}

	c := Campaign{
		CampaignID:  s.node.Generate().String(),
		Code:        campaignCode,
		Slug:        slug.Make(req.Name),
		Name:        req.Name,
		Description: req.Description,
		Status:      CampaignStatusDraft,
		RankBy:      req.RankBy,

		PricingType:     req.PricingType,
		RatePerThousand: req.RatePerThousand,
		MinViews:        req.MinViews,
		MaxPaidViews:    req.MaxPaidViews,
		RatePerVideo:    req.RatePerVideo,
		PrizeTable:      req.PrizeTable,

		StartAt: req.StartAt,
		EndAt:   req.EndAt,
	}

	if c.RankBy == "" {
		c.RankBy = RankByViews
	}
	if c.RankBy != RankByViews && c.RankBy != RankByVideos {
		return nil, errutil.ValidationFailed("rank_by must be views or videos", nil)
	}

	// reject broken pricing config up front, before any submission exists
	strategy, err := c.Strategy()
	if err != nil {
		return nil, err
	}
	if err := strategy.Validate(); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		zap.L().Error("failed to create campaign", zap.Error(err))
		return nil, err
	}

	return &c, nil
}

// ========================================================

func (s *Service) GetCampaign(ctx context.Context, campaignID string) (*Campaign, error) {
	var c Campaign
	if err := s.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		First(&c).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errutil.NotFound("campaign not found", nil)
		}
		return nil, err
	}
	return &c, nil
}

// ========================================================

func (s *Service) ListCampaigns(ctx context.Context, onlyActive bool) ([]Campaign, error) {
	var campaigns []Campaign
	q := s.db.WithContext(ctx)

	if onlyActive {
		now := time.Now()
		q = q.Where("status = ?", CampaignStatusActive).
			Where("(start_at IS NULL OR start_at <= ?) AND (end_at IS NULL OR end_at >= ?)", now, now)
	}

	if err := q.Order("created_at DESC").Find(&campaigns).Error; err != nil {
		return nil, err
	}

	return campaigns, nil
}

// ========================================================

func (s *Service) ActivateCampaign(ctx context.Context, campaignID string) (*Campaign, error) {
	c, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	if c.Status == CampaignStatusExpired {
		return nil, errutil.Conflict("campaign already expired", nil)
	}

	if err := s.db.WithContext(ctx).
		Model(&Campaign{}).
		Where("campaign_id = ?", campaignID).
		Updates(map[string]any{
			"status":     CampaignStatusActive,
			"updated_at": time.Now(),
		}).Error; err != nil {
		zap.L().Error("failed to activate campaign", zap.Error(err))
		return nil, err
	}

	c.Status = CampaignStatusActive
	return c, nil
}
