package payout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cliprank-platform/pkg/config"
	"cliprank-platform/pkg/db/pagination"
	"cliprank-platform/pkg/period"
	"cliprank-platform/services/campaign"
	"cliprank-platform/services/clipmetrics"
	"cliprank-platform/services/earnings"
	"cliprank-platform/services/ranking"
	"cliprank-platform/services/submission"
	"cliprank-platform/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type seqMock struct {
	mu sync.Mutex
	n  int
}

func (m *seqMock) NextCampaignCode(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	return fmt.Sprintf("CMP%04d", m.n), nil
}

func (m *seqMock) NextPaymentCode(ctx context.Context, campaignID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	return fmt.Sprintf("PAY%04d", m.n), nil
}

func (m *seqMock) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.n
}

type testEnv struct {
	db          *gorm.DB
	svc         *Service
	seq         *seqMock
	campaigns   *campaign.Service
	submissions *submission.Service
	metrics     *clipmetrics.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t,
		&campaign.Campaign{},
		&submission.Submission{},
		&clipmetrics.ExternalMetricRecord{},
		&PaymentRecord{},
		&Wallet{},
		&WalletTransaction{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	seq := &seqMock{}
	cfg := &config.Config{}
	cfg.Payout.BatchConcurrency = 2
	cfg.Payout.PaidBy = "system"

	campaigns := campaign.NewService(campaign.ServiceParams{DB: db, Node: node, Seq: seq})
	submissions := submission.NewService(submission.ServiceParams{DB: db, Node: node})
	metrics := clipmetrics.NewService(clipmetrics.ServiceParams{DB: db, Node: node})
	rankings := ranking.NewService(ranking.ServiceParams{
		Campaigns:   campaigns,
		Submissions: submissions,
		Metrics:     metrics,
	})

	svc := NewService(ServiceParams{
		DB:        db,
		Node:      node,
		Seq:       seq,
		Config:    cfg,
		Campaigns: campaigns,
		Ranking:   rankings,
	})

	return &testEnv{
		db:          db,
		svc:         svc,
		seq:         seq,
		campaigns:   campaigns,
		submissions: submissions,
		metrics:     metrics,
	}
}

func testKey() PaymentKey {
	return PaymentKey{
		CampaignID: "cmp-1",
		UserID:     "user-1",
		PeriodType: period.Daily,
		PeriodDate: "2025-03-17",
	}
}

func (env *testEnv) countRecords(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.db.Model(model).Count(&n).Error)
	return n
}

func TestRecordPaymentIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	amount := decimal.NewFromInt(10)

	first, err := env.svc.RecordPayment(ctx, testKey(), amount, PaymentMeta{ViewsCount: 2000, VideosCount: 2})
	require.NoError(t, err)
	require.False(t, first.AlreadyPaid)
	require.Equal(t, PaymentStatusPaid, first.Record.Status)
	require.NotNil(t, first.Record.PaidAt)

	second, err := env.svc.RecordPayment(ctx, testKey(), amount, PaymentMeta{})
	require.NoError(t, err)
	require.True(t, second.AlreadyPaid)

	require.Equal(t, int64(1), env.countRecords(t, &PaymentRecord{}))
	require.Equal(t, int64(1), env.countRecords(t, &WalletTransaction{}))

	wallet, err := env.svc.GetWallet(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, wallet.AvailableBalance.Equal(amount), "balance %s", wallet.AvailableBalance)
	require.True(t, wallet.TotalEarned.Equal(amount))
}

func TestRecordPaymentMonthlyCanonicalKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	amount := decimal.NewFromInt(25)

	key := testKey()
	key.PeriodType = period.Monthly
	key.PeriodDate = "2025-03-17"

	first, err := env.svc.RecordPayment(ctx, key, amount, PaymentMeta{})
	require.NoError(t, err)
	require.False(t, first.AlreadyPaid)
	require.Equal(t, "2025-03-01", first.Record.PeriodDate)

	// any other day of the same month is the same ledger row
	replay := key
	replay.PeriodDate = "2025-03-01"
	second, err := env.svc.RecordPayment(ctx, replay, amount, PaymentMeta{})
	require.NoError(t, err)
	require.True(t, second.AlreadyPaid)

	other := key
	other.PeriodDate = "2025-03-31"
	third, err := env.svc.RecordPayment(ctx, other, amount, PaymentMeta{})
	require.NoError(t, err)
	require.True(t, third.AlreadyPaid)

	require.Equal(t, int64(1), env.countRecords(t, &PaymentRecord{}))
	require.Equal(t, int64(1), env.countRecords(t, &WalletTransaction{}))

	wallet, err := env.svc.GetWallet(ctx, key.UserID)
	require.NoError(t, err)
	require.True(t, wallet.AvailableBalance.Equal(amount), "balance %s", wallet.AvailableBalance)

	// the next month is a fresh period
	next := key
	next.PeriodDate = "2025-04-05"
	fresh, err := env.svc.RecordPayment(ctx, next, amount, PaymentMeta{})
	require.NoError(t, err)
	require.False(t, fresh.AlreadyPaid)
	require.Equal(t, "2025-04-01", fresh.Record.PeriodDate)
}

func TestRecordPaymentReplaySkipsCodeGeneration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	amount := decimal.NewFromInt(10)

	_, err := env.svc.RecordPayment(ctx, testKey(), amount, PaymentMeta{})
	require.NoError(t, err)
	require.Equal(t, 1, env.seq.calls())

	// a replay must not consume a payment code
	outcome, err := env.svc.RecordPayment(ctx, testKey(), amount, PaymentMeta{})
	require.NoError(t, err)
	require.True(t, outcome.AlreadyPaid)
	require.Equal(t, 1, env.seq.calls())
}

func TestRecordPaymentConcurrentDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	amount := decimal.NewFromInt(25)

	outcomes := make([]*PaymentOutcome, 2)
	errs := make([]error, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i], errs[i] = env.svc.RecordPayment(ctx, testKey(), amount, PaymentMeta{})
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	var fresh int
	for _, outcome := range outcomes {
		if !outcome.AlreadyPaid {
			fresh++
		}
	}
	require.Equal(t, 1, fresh, "exactly one caller wins the race")

	require.Equal(t, int64(1), env.countRecords(t, &PaymentRecord{}))
	require.Equal(t, int64(1), env.countRecords(t, &WalletTransaction{}))

	wallet, err := env.svc.GetWallet(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, wallet.AvailableBalance.Equal(amount), "balance %s", wallet.AvailableBalance)
}

func TestRecordPaymentPromotesPendingRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	key := testKey()

	require.NoError(t, env.db.Create(&PaymentRecord{
		ID:         "pre-existing",
		CampaignID: key.CampaignID,
		UserID:     key.UserID,
		PeriodType: key.PeriodType,
		PeriodDate: key.PeriodDate,
		Status:     PaymentStatusPending,
	}).Error)

	outcome, err := env.svc.RecordPayment(ctx, key, decimal.NewFromInt(15), PaymentMeta{Position: 2})
	require.NoError(t, err)
	require.False(t, outcome.AlreadyPaid)
	require.Equal(t, "pre-existing", outcome.Record.ID)
	require.Equal(t, PaymentStatusPaid, outcome.Record.Status)
	require.Equal(t, 2, outcome.Record.Position)

	wallet, err := env.svc.GetWallet(ctx, key.UserID)
	require.NoError(t, err)
	require.True(t, wallet.AvailableBalance.Equal(decimal.NewFromInt(15)))

	require.Equal(t, int64(1), env.countRecords(t, &PaymentRecord{}))
}

func TestRecordPaymentRejectsNegativeAmount(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.RecordPayment(context.Background(), testKey(), decimal.NewFromInt(-5), PaymentMeta{})
	require.Error(t, err)
	require.Equal(t, int64(0), env.countRecords(t, &PaymentRecord{}))
}

func TestRecordPaymentLedgerInconsistency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// wallet credit cannot possibly succeed without the audit table
	require.NoError(t, env.db.Migrator().DropTable(&WalletTransaction{}))

	_, err := env.svc.RecordPayment(ctx, testKey(), decimal.NewFromInt(10), PaymentMeta{})
	require.Error(t, err)

	var inconsistency *LedgerInconsistencyError
	require.ErrorAs(t, err, &inconsistency)
	require.Equal(t, "user-1", inconsistency.UserID)

	// the paid record is left behind for manual reconciliation
	record, ferr := env.svc.findRecord(ctx, testKey())
	require.NoError(t, ferr)
	require.NotNil(t, record)
	require.Equal(t, PaymentStatusPaid, record.Status)
}

func TestWithRetryTransient(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), 3, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)

	attempts = 0
	err = withRetry(context.Background(), 3, func() error {
		attempts++
		return errors.New("permanent")
	})
	require.Error(t, err)
	require.Equal(t, 3, attempts)
}

// seedCampaign sets up the end-to-end scenario: a pay-per-view campaign
// with verified submissions and scraped metrics.
func (env *testEnv) seedCampaign(t *testing.T, rate int64, entries map[string][]string, views map[string]int64) (*campaign.Campaign, string) {
	t.Helper()
	ctx := context.Background()

	c, err := env.campaigns.CreateCampaign(ctx, campaign.CreateRequest{
		Name:            "E2E",
		PricingType:     earnings.PayPerView,
		RatePerThousand: decimal.NewFromInt(rate),
	})
	require.NoError(t, err)

	for creator, links := range entries {
		for _, link := range links {
			sub, err := env.submissions.Submit(ctx, submission.SubmitRequest{
				CampaignID: c.CampaignID,
				CreatorID:  creator,
				VideoLink:  link,
			})
			require.NoError(t, err)
			_, err = env.submissions.Verify(ctx, sub.ID)
			require.NoError(t, err)
		}
	}

	now := time.Now().UTC()
	records := make([]clipmetrics.ExternalMetricRecord, 0, len(views))
	for link, count := range views {
		records = append(records, clipmetrics.ExternalMetricRecord{
			Platform:  clipmetrics.PlatformTikTok,
			RawLink:   link,
			Views:     count,
			ScrapedAt: now,
		})
	}
	require.NoError(t, env.metrics.StoreBatch(ctx, records))

	return c, period.Normalize(period.Daily, now)
}

func TestPayOneEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	l1 := "https://www.tiktok.com/@u1/video/111"
	l2 := "https://example.com/not-scrapeable"

	c, periodDate := env.seedCampaign(t, 5,
		map[string][]string{"U1": {l1, l2}},
		map[string]int64{l1: 2000},
	)

	preview, err := env.svc.GetEarningsPreview(ctx, c.CampaignID, period.Daily, periodDate)
	require.NoError(t, err)
	require.Len(t, preview, 1)
	require.Equal(t, "U1", preview[0].CreatorID)
	require.Equal(t, int64(2000), preview[0].TotalViews)
	require.Equal(t, int64(2), preview[0].TotalVideos)
	require.True(t, preview[0].Amount.Equal(decimal.NewFromInt(10)), "amount %s", preview[0].Amount)
	require.Equal(t, PaymentStatusUnpaid, preview[0].PaymentStatus)

	key := PaymentKey{CampaignID: c.CampaignID, UserID: "U1", PeriodType: period.Daily, PeriodDate: periodDate}
	result, err := env.svc.PayOne(ctx, key, "march payout")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.False(t, result.AlreadyPaid)
	require.True(t, result.Amount.Equal(decimal.NewFromInt(10)))

	wallet, err := env.svc.GetWallet(ctx, "U1")
	require.NoError(t, err)
	require.True(t, wallet.AvailableBalance.Equal(decimal.NewFromInt(10)), "balance %s", wallet.AvailableBalance)

	// replaying the payment is a visible no-op
	again, err := env.svc.PayOne(ctx, key, "march payout")
	require.NoError(t, err)
	require.True(t, again.Success)
	require.True(t, again.AlreadyPaid)

	wallet, err = env.svc.GetWallet(ctx, "U1")
	require.NoError(t, err)
	require.True(t, wallet.AvailableBalance.Equal(decimal.NewFromInt(10)))

	// the preview now reports the record as paid
	preview, err = env.svc.GetEarningsPreview(ctx, c.CampaignID, period.Daily, periodDate)
	require.NoError(t, err)
	require.Equal(t, PaymentStatusPaid, preview[0].PaymentStatus)
}

func TestPayOneUnknownCreator(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c, periodDate := env.seedCampaign(t, 5, map[string][]string{}, map[string]int64{})

	result, err := env.svc.PayOne(ctx, PaymentKey{
		CampaignID: c.CampaignID,
		UserID:     "ghost",
		PeriodType: period.Daily,
		PeriodDate: periodDate,
	}, "")
	require.NoError(t, err)
	require.False(t, result.Success)
	require.NotEmpty(t, result.Error)
}

func TestPayAllPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	l1 := "https://www.tiktok.com/@u1/video/111"
	l2 := "https://www.tiktok.com/@u2/video/222"
	l3 := "https://www.tiktok.com/@u3/video/333"

	c, periodDate := env.seedCampaign(t, 10,
		map[string][]string{"U1": {l1}, "U2": {l2}, "U3": {l3}},
		map[string]int64{l1: 3000, l2: 1000, l3: 0},
	)

	results, err := env.svc.PayAllPending(ctx, c.CampaignID, period.Daily, periodDate, "batch")
	require.NoError(t, err)
	// U3 has zero views so earns nothing and is not in the batch
	require.Len(t, results, 2)
	for _, result := range results {
		require.True(t, result.Success, "user %s: %s", result.UserID, result.Error)
		require.False(t, result.AlreadyPaid)
	}

	wallet, err := env.svc.GetWallet(ctx, "U1")
	require.NoError(t, err)
	require.True(t, wallet.AvailableBalance.Equal(decimal.NewFromInt(30)), "balance %s", wallet.AvailableBalance)

	// a second run finds nobody left to pay
	results, err = env.svc.PayAllPending(ctx, c.CampaignID, period.Daily, periodDate, "batch")
	require.NoError(t, err)
	require.Empty(t, results)

	require.Equal(t, int64(2), env.countRecords(t, &PaymentRecord{}))
	require.Equal(t, int64(2), env.countRecords(t, &WalletTransaction{}))
}

func TestGetWalletUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	wallet, err := env.svc.GetWallet(context.Background(), "nobody")
	require.NoError(t, err)
	require.Equal(t, "nobody", wallet.UserID)
	require.True(t, wallet.AvailableBalance.IsZero())
}

func TestListWalletTransactions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.RecordPayment(ctx, testKey(), decimal.NewFromInt(10), PaymentMeta{})
	require.NoError(t, err)

	transactions, pageInfo, err := env.svc.ListWalletTransactions(ctx, "user-1", pagination.Pagination{})
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	require.Equal(t, TransactionTypeEarning, transactions[0].Type)
	require.True(t, transactions[0].Amount.Equal(decimal.NewFromInt(10)))
	require.False(t, pageInfo.HasMore)
}

func TestListWalletTransactionsCursor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := testKey()
	_, err := env.svc.RecordPayment(ctx, first, decimal.NewFromInt(10), PaymentMeta{})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	second := first
	second.PeriodDate = "2026-02-02"
	_, err = env.svc.RecordPayment(ctx, second, decimal.NewFromInt(20), PaymentMeta{})
	require.NoError(t, err)

	page1, info1, err := env.svc.ListWalletTransactions(ctx, "user-1", pagination.Pagination{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page1, 1)
	require.True(t, page1[0].Amount.Equal(decimal.NewFromInt(20)))
	require.True(t, info1.HasMore)
	require.NotEmpty(t, info1.NextCursor)

	page2, info2, err := env.svc.ListWalletTransactions(ctx, "user-1", pagination.Pagination{Limit: 1, Cursor: info1.NextCursor})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	require.True(t, page2[0].Amount.Equal(decimal.NewFromInt(10)))
	require.False(t, info2.HasMore)

	_, _, err = env.svc.ListWalletTransactions(ctx, "user-1", pagination.Pagination{Cursor: "not-base64!"})
	require.Error(t, err)
}
