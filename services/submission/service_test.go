package submission

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cliprank-platform/pkg/errutil"
	"cliprank-platform/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &Submission{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node})
}

func TestSubmitNormalizesLink(t *testing.T) {
	svc := newTestService(t)

	sub, err := svc.Submit(context.Background(), SubmitRequest{
		CampaignID: "cmp-1",
		CreatorID:  "user-1",
		VideoLink:  "https://www.tiktok.com/@a/video/123456789?lang=en",
	})
	require.NoError(t, err)
	require.Equal(t, "tiktok:123456789", sub.NormalizedKey)
	require.NotNil(t, sub.CreatorID)
	require.False(t, sub.Verified)
}

func TestSubmitRejectsDuplicateVideo(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitRequest{
		CampaignID: "cmp-1",
		CreatorID:  "user-1",
		VideoLink:  "https://www.tiktok.com/@a/video/123456789",
	})
	require.NoError(t, err)

	// same video, different link shape
	_, err = svc.Submit(ctx, SubmitRequest{
		CampaignID: "cmp-1",
		CreatorID:  "user-2",
		VideoLink:  "https://www.tiktok.com/@a/video/123456789/?lang=id",
	})
	require.Error(t, err)

	var be errutil.BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, errutil.StatusConflict, be.Code)

	// same video in a different campaign is fine
	_, err = svc.Submit(ctx, SubmitRequest{
		CampaignID: "cmp-2",
		CreatorID:  "user-1",
		VideoLink:  "https://www.tiktok.com/@a/video/123456789",
	})
	require.NoError(t, err)
}

func TestSubmitAcceptsUnmatchableLink(t *testing.T) {
	svc := newTestService(t)

	sub, err := svc.Submit(context.Background(), SubmitRequest{
		CampaignID: "cmp-1",
		CreatorID:  "user-1",
		VideoLink:  "https://example.com/some/video",
	})
	require.NoError(t, err)
	require.Empty(t, sub.NormalizedKey)
}

func TestVerifyIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Submit(ctx, SubmitRequest{
		CampaignID: "cmp-1",
		CreatorID:  "user-1",
		VideoLink:  "https://youtu.be/dqw4w9wgxcq",
	})
	require.NoError(t, err)

	verified, err := svc.Verify(ctx, sub.ID)
	require.NoError(t, err)
	require.True(t, verified.Verified)
	firstVerifiedAt := verified.VerifiedAt

	again, err := svc.Verify(ctx, sub.ID)
	require.NoError(t, err)
	require.True(t, again.Verified)
	require.WithinDuration(t, *firstVerifiedAt, *again.VerifiedAt, time.Second)
}

func TestVerifyNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Verify(context.Background(), "missing")
	require.Error(t, err)

	var be errutil.BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, errutil.StatusNotFound, be.Code)
}

func TestListVerifiedInWindow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, SubmitRequest{CampaignID: "cmp-1", CreatorID: "user-1", VideoLink: "https://youtu.be/aaaaaaaaaaa"})
	require.NoError(t, err)
	second, err := svc.Submit(ctx, SubmitRequest{CampaignID: "cmp-1", CreatorID: "user-2", VideoLink: "https://youtu.be/bbbbbbbbbbb"})
	require.NoError(t, err)

	// only the first gets verified
	_, err = svc.Verify(ctx, first.ID)
	require.NoError(t, err)

	start := time.Now().UTC().Add(-time.Hour)
	end := time.Now().UTC().Add(time.Hour)

	subs, err := svc.ListVerifiedInWindow(ctx, "cmp-1", start, end)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, first.ID, subs[0].ID)

	_, err = svc.Verify(ctx, second.ID)
	require.NoError(t, err)

	subs, err = svc.ListVerifiedInWindow(ctx, "cmp-1", start, end)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	require.Equal(t, first.ID, subs[0].ID)
}
