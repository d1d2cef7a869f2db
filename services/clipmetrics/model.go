package clipmetrics

import (
	"time"
)

type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
)

// NormalizedKey is the platform-scoped canonical identity of a video.
// Two links with the same key are the same video regardless of query
// string, trailing slash, or host variant.
type NormalizedKey struct {
	Platform Platform
	ID       string
}

func (k NormalizedKey) String() string {
	return string(k.Platform) + ":" + k.ID
}

// ExternalMetricRecord is one scraped snapshot from a platform source.
// Records are immutable per scrape; a newer scrape supersedes an older
// one, it never mutates it.
type ExternalMetricRecord struct {
	ID          string    `gorm:"column:id;primaryKey"`
	SourceTable string    `gorm:"column:source_table;type:varchar(100);index"`
	Platform    Platform  `gorm:"column:platform;type:varchar(20);index;not null"`
	RawLink     string    `gorm:"column:raw_link;type:text;not null"`
	Views       int64     `gorm:"column:views;not null;default:0"`
	Likes       int64     `gorm:"column:likes;not null;default:0"`
	Comments    int64     `gorm:"column:comments;not null;default:0"`
	Shares      int64     `gorm:"column:shares;not null;default:0"`
	ScrapedAt   time.Time `gorm:"column:scraped_at;index;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ExternalMetricRecord) TableName() string {
	return "external_metric_records"
}

// ========================================================
// Source adapters
// ========================================================
//
// Each scraper source returns a differently-shaped row. The adapters map
// them into the single ExternalMetricRecord shape at the boundary so the
// index builder and everything behind it stays free of platform
// conditionals.

type TikTokRow struct {
	VideoURL     string    `json:"video_url"`
	PlayCount    int64     `json:"play_count"`
	DiggCount    int64     `json:"digg_count"`
	CommentCount int64     `json:"comment_count"`
	ShareCount   int64     `json:"share_count"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

type InstagramRow struct {
	PostURL        string    `json:"post_url"`
	VideoPlayCount int64     `json:"video_play_count"`
	LikeCount      int64     `json:"like_count"`
	CommentCount   int64     `json:"comment_count"`
	ReshareCount   int64     `json:"reshare_count"`
	ScrapedAt      time.Time `json:"scraped_at"`
}

type YouTubeRow struct {
	VideoURL     string    `json:"video_url"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

func FromTikTokRow(sourceTable string, row TikTokRow) ExternalMetricRecord {
	return ExternalMetricRecord{
		SourceTable: sourceTable,
		Platform:    PlatformTikTok,
		RawLink:     row.VideoURL,
		Views:       row.PlayCount,
		Likes:       row.DiggCount,
		Comments:    row.CommentCount,
		Shares:      row.ShareCount,
		ScrapedAt:   row.ScrapedAt,
	}
}

func FromInstagramRow(sourceTable string, row InstagramRow) ExternalMetricRecord {
	return ExternalMetricRecord{
		SourceTable: sourceTable,
		Platform:    PlatformInstagram,
		RawLink:     row.PostURL,
		Views:       row.VideoPlayCount,
		Likes:       row.LikeCount,
		Comments:    row.CommentCount,
		Shares:      row.ReshareCount,
		ScrapedAt:   row.ScrapedAt,
	}
}

func FromYouTubeRow(sourceTable string, row YouTubeRow) ExternalMetricRecord {
	return ExternalMetricRecord{
		SourceTable: sourceTable,
		Platform:    PlatformYouTube,
		RawLink:     row.VideoURL,
		Views:       row.ViewCount,
		Likes:       row.LikeCount,
		Comments:    row.CommentCount,
		ScrapedAt:   row.ScrapedAt,
	}
}
