package ranking

import (
	"sort"

	"cliprank-platform/services/campaign"
)

// Aggregate groups reconciled videos by creator and assigns 1-based rank
// positions. Submissions without a creator are excluded, they cannot be
// paid. Ties keep the order creators first appeared in the input; the
// stable sort makes that an explicit policy, so re-running on the same
// input always yields the same ranking.
func Aggregate(videos []ReconciledVideo, rankBy campaign.RankBy) []CreatorPeriodTotals {
	totals := make([]CreatorPeriodTotals, 0)
	byCreator := make(map[string]int)

	for _, video := range videos {
		if video.CreatorID == "" {
			continue
		}

		i, ok := byCreator[video.CreatorID]
		if !ok {
			i = len(totals)
			byCreator[video.CreatorID] = i
			totals = append(totals, CreatorPeriodTotals{
				CreatorID:  video.CreatorID,
				CampaignID: video.CampaignID,
			})
		}

		totals[i].TotalViews += video.Views
		totals[i].TotalVideos++
		totals[i].TotalLikes += video.Likes
	}

	sort.SliceStable(totals, func(a, b int) bool {
		if rankBy == campaign.RankByVideos {
			return totals[a].TotalVideos > totals[b].TotalVideos
		}
		return totals[a].TotalViews > totals[b].TotalViews
	})

	for i := range totals {
		totals[i].RankPosition = i + 1
	}

	return totals
}
