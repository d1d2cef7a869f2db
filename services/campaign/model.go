package campaign

import (
	"encoding/json"
	"strconv"
	"time"

	"cliprank-platform/pkg/errutil"
	"cliprank-platform/services/earnings"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type CampaignStatus string

type RankBy string

const (
	CampaignStatusDraft    CampaignStatus = "DRAFT"
	CampaignStatusActive   CampaignStatus = "ACTIVE"
	CampaignStatusInactive CampaignStatus = "INACTIVE"
	CampaignStatusExpired  CampaignStatus = "EXPIRED"

	RankByViews  RankBy = "views"
	RankByVideos RankBy = "videos"
)

// Campaign represents a clipping competition definition, including the
// pricing configuration the earnings calculator runs on.
type Campaign struct {
	CampaignID  string         `gorm:"column:campaign_id;primaryKey" json:"campaign_id"`
	Code        string         `gorm:"column:code" json:"code"`
	Slug        string         `gorm:"column:slug;index" json:"slug"`
	Name        string         `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Description string         `gorm:"column:description;type:text" json:"description"`
	Status      CampaignStatus `gorm:"column:status;type:varchar(50);not null;default:'DRAFT'" json:"status"`
	RankBy      RankBy         `gorm:"column:rank_by;type:varchar(20);not null;default:'views'" json:"rank_by"`

	PricingType     earnings.PricingType `gorm:"column:pricing_type;type:varchar(50);not null" json:"pricing_type"`
	RatePerThousand decimal.Decimal      `gorm:"column:rate_per_thousand;type:decimal(18,4);not null;default:0" json:"rate_per_thousand"`
	MinViews        int64                `gorm:"column:min_views;not null;default:0" json:"min_views"`
	MaxPaidViews    int64                `gorm:"column:max_paid_views;not null;default:0" json:"max_paid_views"`
	RatePerVideo    decimal.Decimal      `gorm:"column:rate_per_video;type:decimal(18,4);not null;default:0" json:"rate_per_video"`
	PrizeTable      datatypes.JSON       `gorm:"column:prize_table;type:jsonb" json:"prize_table"`

	StartAt   *time.Time     `gorm:"column:start_at" json:"start_at"`
	EndAt     *time.Time     `gorm:"column:end_at" json:"end_at"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

// ========================================================
// Helper methods
// ========================================================

// IsActive checks if campaign is currently active based on time range & status.
func (c *Campaign) IsActive(now time.Time) bool {
	if c.Status != CampaignStatusActive {
		return false
	}
	if c.StartAt != nil && now.Before(*c.StartAt) {
		return false
	}
	if c.EndAt != nil && now.After(*c.EndAt) {
		return false
	}
	return true
}

// Strategy materializes the pricing configuration into the calculator's
// explicit strategy value. The stored prize table maps 1-based rank to a
// decimal amount encoded as a JSON string, e.g. {"1":"500","2":"300"}.
func (c *Campaign) Strategy() (earnings.Strategy, error) {
	strategy := earnings.Strategy{
		Type:            c.PricingType,
		RatePerThousand: c.RatePerThousand,
		MinViews:        c.MinViews,
		MaxPaidViews:    c.MaxPaidViews,
		RatePerVideo:    c.RatePerVideo,
	}

	if len(c.PrizeTable) > 0 {
		raw := make(map[string]string)
		if err := json.Unmarshal(c.PrizeTable, &raw); err != nil {
			return earnings.Strategy{}, errutil.ValidationFailed("invalid prize table", err)
		}

		table := make(map[int]decimal.Decimal, len(raw))
		for positionKey, amount := range raw {
			position, err := strconv.Atoi(positionKey)
			if err != nil {
				return earnings.Strategy{}, errutil.ValidationFailed("invalid prize table position "+positionKey, err)
			}
			prize, err := decimal.NewFromString(amount)
			if err != nil {
				return earnings.Strategy{}, errutil.ValidationFailed("invalid prize amount for position "+positionKey, err)
			}
			table[position] = prize
		}
		strategy.PrizeTable = table
	}

	return strategy, nil
}
