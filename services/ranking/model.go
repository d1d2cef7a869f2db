package ranking

// ReconciledVideo is a submission joined with its best-matching scraped
// metrics. A transient value, recomputed on every pass, never persisted.
type ReconciledVideo struct {
	SubmissionID string `json:"submission_id"`
	CreatorID    string `json:"creator_id"`
	CampaignID   string `json:"campaign_id"`
	Views        int64  `json:"views"`
	Likes        int64  `json:"likes"`
	Comments     int64  `json:"comments"`
	Shares       int64  `json:"shares"`
}

// CreatorPeriodTotals is the per-creator aggregate for one campaign
// period, with its 1-based rank position.
type CreatorPeriodTotals struct {
	CreatorID    string `json:"creator_id"`
	CampaignID   string `json:"campaign_id"`
	TotalViews   int64  `json:"total_views"`
	TotalVideos  int64  `json:"total_videos"`
	TotalLikes   int64  `json:"total_likes"`
	RankPosition int    `json:"rank_position"`
}
