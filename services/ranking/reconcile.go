package ranking

import (
	"cliprank-platform/services/clipmetrics"
	"cliprank-platform/services/submission"
)

// Reconcile joins one submission against the metrics index. A link that
// does not normalize or has no scraped record yields zero metrics; that
// is a valid state for freshly submitted videos, not an error.
func Reconcile(sub submission.Submission, index clipmetrics.Index) ReconciledVideo {
	video := ReconciledVideo{
		SubmissionID: sub.ID,
		CampaignID:   sub.CampaignID,
	}
	if sub.CreatorID != nil {
		video.CreatorID = *sub.CreatorID
	}

	record, ok := index.Lookup(sub.VideoLink)
	if !ok {
		return video
	}

	video.Views = record.Views
	video.Likes = record.Likes
	video.Comments = record.Comments
	video.Shares = record.Shares
	return video
}

// ReconcileAll reconciles a batch in input order. Each submission is
// independent of the others; the index is only read.
func ReconcileAll(subs []submission.Submission, index clipmetrics.Index) []ReconciledVideo {
	videos := make([]ReconciledVideo, 0, len(subs))
	for _, sub := range subs {
		videos = append(videos, Reconcile(sub, index))
	}
	return videos
}
