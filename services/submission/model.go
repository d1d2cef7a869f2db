package submission

import (
	"time"

	"cliprank-platform/services/clipmetrics"
)

// Submission is a campaign video entry. Verified flips on admin approval
// and the row is never mutated afterwards except for metric refresh.
type Submission struct {
	ID            string                `gorm:"column:id;primaryKey"`
	CampaignID    string                `gorm:"column:campaign_id;index;not null"`
	CreatorID     *string               `gorm:"column:creator_id;index"`
	VideoLink     string                `gorm:"column:video_link;type:text;not null"`
	Platform      clipmetrics.Platform  `gorm:"column:platform;type:varchar(20)"`
	NormalizedKey string                `gorm:"column:normalized_key;index"`
	Verified      bool                  `gorm:"column:verified;not null;default:false"`
	SubmittedAt   time.Time             `gorm:"column:submitted_at;index;not null"`
	VerifiedAt    *time.Time            `gorm:"column:verified_at"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Submission) TableName() string {
	return "submissions"
}
