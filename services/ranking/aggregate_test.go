package ranking

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cliprank-platform/services/campaign"
)

func TestAggregateTieBreakKeepsFirstAppearance(t *testing.T) {
	videos := []ReconciledVideo{
		{CreatorID: "A", CampaignID: "cmp", Views: 100},
		{CreatorID: "B", CampaignID: "cmp", Views: 100},
		{CreatorID: "C", CampaignID: "cmp", Views: 50},
	}

	totals := Aggregate(videos, campaign.RankByViews)
	require.Len(t, totals, 3)
	require.Equal(t, "A", totals[0].CreatorID)
	require.Equal(t, 1, totals[0].RankPosition)
	require.Equal(t, "B", totals[1].CreatorID)
	require.Equal(t, 2, totals[1].RankPosition)
	require.Equal(t, "C", totals[2].CreatorID)
	require.Equal(t, 3, totals[2].RankPosition)
}

func TestAggregateSumsPerCreator(t *testing.T) {
	videos := []ReconciledVideo{
		{CreatorID: "A", Views: 1000, Likes: 10},
		{CreatorID: "B", Views: 300, Likes: 5},
		{CreatorID: "A", Views: 500, Likes: 20},
	}

	totals := Aggregate(videos, campaign.RankByViews)
	require.Len(t, totals, 2)
	require.Equal(t, "A", totals[0].CreatorID)
	require.Equal(t, int64(1500), totals[0].TotalViews)
	require.Equal(t, int64(2), totals[0].TotalVideos)
	require.Equal(t, int64(30), totals[0].TotalLikes)
}

func TestAggregateRankByVideos(t *testing.T) {
	videos := []ReconciledVideo{
		{CreatorID: "A", Views: 9000},
		{CreatorID: "B", Views: 10},
		{CreatorID: "B", Views: 10},
		{CreatorID: "B", Views: 10},
	}

	totals := Aggregate(videos, campaign.RankByVideos)
	require.Equal(t, "B", totals[0].CreatorID)
	require.Equal(t, 1, totals[0].RankPosition)
	require.Equal(t, "A", totals[1].CreatorID)
}

func TestAggregateExcludesAnonymousSubmissions(t *testing.T) {
	videos := []ReconciledVideo{
		{CreatorID: "", Views: 99999},
		{CreatorID: "A", Views: 10},
	}

	totals := Aggregate(videos, campaign.RankByViews)
	require.Len(t, totals, 1)
	require.Equal(t, "A", totals[0].CreatorID)
}

func TestAggregateIsDeterministic(t *testing.T) {
	videos := []ReconciledVideo{
		{CreatorID: "A", Views: 100},
		{CreatorID: "B", Views: 100},
		{CreatorID: "C", Views: 100},
		{CreatorID: "D", Views: 200},
	}

	first := Aggregate(videos, campaign.RankByViews)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Aggregate(videos, campaign.RankByViews))
	}
}
