package payout

import (
	"context"
	"time"

	"cliprank-platform/pkg/config"
	"cliprank-platform/pkg/db/option"
	"cliprank-platform/pkg/db/pagination"
	"cliprank-platform/pkg/errutil"
	"cliprank-platform/pkg/period"
	"cliprank-platform/pkg/repository"
	"cliprank-platform/pkg/sequence"
	"cliprank-platform/services/campaign"
	"cliprank-platform/services/earnings"
	"cliprank-platform/services/ranking"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var Module = fx.Module("payout.module",
	fx.Provide(NewService),
)

const defaultBatchConcurrency = 4

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	seq  sequence.Generator
	cfg  *config.Config

	campaigns *campaign.Service
	ranking   *ranking.Service

	payments     repository.Repository[PaymentRecord]
	wallets      repository.Repository[Wallet]
	transactions repository.Repository[WalletTransaction]
}

type ServiceParams struct {
	fx.In

	DB     *gorm.DB
	Node   *snowflake.Node
	Seq    sequence.Generator
	Config *config.Config

	Campaigns *campaign.Service
	Ranking   *ranking.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		seq:  p.Seq,
		cfg:  p.Config,

		campaigns: p.Campaigns,
		ranking:   p.Ranking,

		payments:     repository.ProvideStore[PaymentRecord](p.DB),
		wallets:      repository.ProvideStore[Wallet](p.DB),
		transactions: repository.ProvideStore[WalletTransaction](p.DB),
	}
}

// PaymentMeta is the snapshot merged into the PaymentRecord at pay time.
type PaymentMeta struct {
	ViewsCount  int64
	VideosCount int64
	Position    int
	Notes       string
	PaidBy      string
}

// PaymentOutcome distinguishes a fresh payment from an already-paid
// no-op so callers can show "just paid" vs "already paid".
type PaymentOutcome struct {
	Record      *PaymentRecord
	AlreadyPaid bool
}

// withRetry applies the bounded-retry policy for transient storage
// failures. Business rejections never go through here.
func withRetry(ctx context.Context, attempts int, op func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = op(); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * 100 * time.Millisecond):
		}
	}
	return err
}

// canonicalDate maps a caller-supplied period date onto the canonical
// key every ledger row and preview query uses.
func (s *Service) canonicalDate(periodType period.Type, periodDate string) (string, error) {
	if !periodType.Valid() {
		return "", errutil.BadRequest("period_type must be daily or monthly", nil)
	}
	canonical, err := period.Canonical(periodType, periodDate)
	if err != nil {
		return "", errutil.BadRequest("invalid period_date", err)
	}
	return canonical, nil
}

// RecordPayment idempotently marks a (campaign, user, period) key paid
// and credits the creator's wallet exactly once. The storage unique
// index arbitrates concurrent callers: the loser observes the existing
// paid row and takes the no-op path.
func (s *Service) RecordPayment(ctx context.Context, key PaymentKey, amount decimal.Decimal, meta PaymentMeta) (*PaymentOutcome, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	if amount.IsNegative() {
		return nil, errutil.BadRequest("payment amount must not be negative", nil)
	}

	// the ledger key is the canonical period date, not whatever day the
	// caller happened to pass; any day in a monthly period resolves to
	// the same unique-index row
	canonical, err := s.canonicalDate(key.PeriodType, key.PeriodDate)
	if err != nil {
		return nil, err
	}
	key.PeriodDate = canonical

	opts := []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("campaign_id", key.CampaignID),
		zap.String("user_id", key.UserID),
		zap.String("period_type", string(key.PeriodType)),
		zap.String("period_date", key.PeriodDate),
	}

	// replays are the common path; spot them before spending a sequence
	// number so a no-op truly has no side effects
	if existing, err := s.findRecord(ctx, key); err != nil {
		return nil, err
	} else if existing != nil && existing.Status == PaymentStatusPaid {
		zap.L().With(opts...).Info("payment already recorded, skipping credit")
		return &PaymentOutcome{Record: existing, AlreadyPaid: true}, nil
	}

	code, err := s.seq.NextPaymentCode(ctx, key.CampaignID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &PaymentRecord{
		ID:          s.node.Generate().String(),
		Code:        code,
		CampaignID:  key.CampaignID,
		UserID:      key.UserID,
		PeriodType:  key.PeriodType,
		PeriodDate:  key.PeriodDate,
		Amount:      amount,
		ViewsCount:  meta.ViewsCount,
		VideosCount: meta.VideosCount,
		Position:    meta.Position,
		Status:      PaymentStatusPaid,
		PaidAt:      &now,
		PaidBy:      meta.PaidBy,
		Notes:       meta.Notes,
	}

	var inserted bool
	if err := withRetry(ctx, 3, func() error {
		res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "campaign_id"},
				{Name: "user_id"},
				{Name: "period_type"},
				{Name: "period_date"},
			},
			DoNothing: true,
		}).Create(record)
		if res.Error != nil {
			return res.Error
		}
		inserted = res.RowsAffected > 0
		return nil
	}); err != nil {
		zap.L().With(opts...).Error("failed to upsert payment record", zap.Error(err))
		return nil, err
	}

	if !inserted {
		outcome, err := s.promoteExisting(ctx, key, record, now)
		if err != nil {
			return nil, err
		}
		if outcome.AlreadyPaid {
			zap.L().With(opts...).Info("payment already recorded, skipping credit")
			return outcome, nil
		}
		record = outcome.Record
	}

	if err := s.creditWallet(ctx, record); err != nil {
		zap.L().With(opts...).Error("wallet credit failed after payment marked paid", zap.Error(err))
		return nil, &LedgerInconsistencyError{PaymentID: record.ID, UserID: record.UserID, Err: err}
	}

	zap.L().With(opts...).Info("payment recorded", zap.String("amount", record.Amount.String()))
	return &PaymentOutcome{Record: record}, nil
}

// promoteExisting handles the upsert's update path: a row for the key
// already exists. A paid row ends the operation; a pending or approved
// row is promoted with a guarded update so only one racing caller wins.
func (s *Service) promoteExisting(ctx context.Context, key PaymentKey, fresh *PaymentRecord, now time.Time) (*PaymentOutcome, error) {
	existing, err := s.findRecord(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errutil.Internal("payment record missing after upsert", nil)
	}

	if existing.Status == PaymentStatusPaid {
		return &PaymentOutcome{Record: existing, AlreadyPaid: true}, nil
	}

	var won bool
	if err := withRetry(ctx, 3, func() error {
		res := s.db.WithContext(ctx).
			Model(&PaymentRecord{}).
			Where("campaign_id = ? AND user_id = ? AND period_type = ? AND period_date = ? AND status <> ?",
				key.CampaignID, key.UserID, key.PeriodType, key.PeriodDate, PaymentStatusPaid).
			Updates(map[string]any{
				"amount":       fresh.Amount,
				"views_count":  fresh.ViewsCount,
				"videos_count": fresh.VideosCount,
				"position":     fresh.Position,
				"status":       PaymentStatusPaid,
				"paid_at":      now,
				"paid_by":      fresh.PaidBy,
				"notes":        fresh.Notes,
				"updated_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		won = res.RowsAffected > 0
		return nil
	}); err != nil {
		return nil, err
	}

	current, err := s.findRecord(ctx, key)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, errutil.Internal("payment record missing after update", nil)
	}

	if !won {
		// a concurrent caller promoted the row first
		return &PaymentOutcome{Record: current, AlreadyPaid: true}, nil
	}

	return &PaymentOutcome{Record: current}, nil
}

func (s *Service) findRecord(ctx context.Context, key PaymentKey) (*PaymentRecord, error) {
	return s.payments.FindOne(ctx, &PaymentRecord{
		CampaignID: key.CampaignID,
		UserID:     key.UserID,
		PeriodType: key.PeriodType,
		PeriodDate: key.PeriodDate,
	})
}

// creditWallet applies the wallet credit and audit row as one unit of
// work, retried on transient failure.
func (s *Service) creditWallet(ctx context.Context, record *PaymentRecord) error {
	return withRetry(ctx, 3, func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			walletTx := s.wallets.WithTrx(tx)

			wallet, err := walletTx.FindOne(ctx, &Wallet{UserID: record.UserID})
			if err != nil {
				return err
			}

			if wallet == nil {
				wallet = &Wallet{
					ID:               s.node.Generate().String(),
					UserID:           record.UserID,
					AvailableBalance: record.Amount,
					TotalEarned:      record.Amount,
				}
				if err := walletTx.Create(ctx, wallet); err != nil {
					return err
				}
			} else {
				// increments happen in SQL so concurrent credits from
				// other campaigns cannot lose an update
				if err := walletTx.Update(ctx, wallet.ID, map[string]any{
					"available_balance": gorm.Expr("available_balance + ?", record.Amount),
					"total_earned":      gorm.Expr("total_earned + ?", record.Amount),
					"updated_at":        time.Now(),
				}); err != nil {
					return err
				}
			}

			return s.transactions.WithTrx(tx).Create(ctx, &WalletTransaction{
				ID:          s.node.Generate().String(),
				UserID:      record.UserID,
				Amount:      record.Amount,
				Type:        TransactionTypeEarning,
				Description: "campaign earning " + record.CampaignID + " " + record.PeriodDate,
				ReferenceID: record.ID,
			})
		})
	})
}

// EarningsPreview is the calculator output joined with ledger status.
type EarningsPreview struct {
	CreatorID     string          `json:"creator_id"`
	Amount        decimal.Decimal `json:"calculated_amount"`
	RankPosition  int             `json:"rank_position"`
	TotalViews    int64           `json:"total_views"`
	TotalVideos   int64           `json:"total_videos"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
}

// PaymentStatusUnpaid is a display-only status for creators with no
// ledger row yet; it is never persisted.
const PaymentStatusUnpaid PaymentStatus = "unpaid"

// GetEarningsPreview computes what each ranked creator would earn right
// now, without mutating anything.
func (s *Service) GetEarningsPreview(ctx context.Context, campaignID string, periodType period.Type, periodDate string) ([]EarningsPreview, error) {
	periodDate, err := s.canonicalDate(periodType, periodDate)
	if err != nil {
		return nil, err
	}

	totals, strategy, err := s.snapshotTotals(ctx, campaignID, periodType, periodDate)
	if err != nil {
		return nil, err
	}

	statuses, err := s.recordedStatuses(ctx, campaignID, periodType, periodDate)
	if err != nil {
		return nil, err
	}

	previews := make([]EarningsPreview, 0, len(totals))
	for _, t := range totals {
		status, ok := statuses[t.CreatorID]
		if !ok {
			status = PaymentStatusUnpaid
		}

		previews = append(previews, EarningsPreview{
			CreatorID:    t.CreatorID,
			RankPosition: t.RankPosition,
			TotalViews:   t.TotalViews,
			TotalVideos:  t.TotalVideos,
			Amount: strategy.Calculate(earnings.Totals{
				Views:    t.TotalViews,
				Videos:   t.TotalVideos,
				Position: t.RankPosition,
			}),
			PaymentStatus: status,
		})
	}

	return previews, nil
}

// PayOne pays a single creator against the current ranking snapshot.
// Execution failures land in the result, not an error; only a broken
// request (unknown campaign, bad period, invalid pricing) errors out.
func (s *Service) PayOne(ctx context.Context, key PaymentKey, notes string) (PaymentResult, error) {
	canonical, err := s.canonicalDate(key.PeriodType, key.PeriodDate)
	if err != nil {
		return PaymentResult{}, err
	}
	key.PeriodDate = canonical

	totals, strategy, err := s.snapshotTotals(ctx, key.CampaignID, key.PeriodType, key.PeriodDate)
	if err != nil {
		return PaymentResult{}, err
	}

	for _, t := range totals {
		if t.CreatorID != key.UserID {
			continue
		}
		return s.payCreator(ctx, key, strategy, t, notes), nil
	}

	return PaymentResult{
		UserID: key.UserID,
		Error:  "creator has no ranked totals for this period",
	}, nil
}

// PayAllPending pays every creator with a positive amount who is not
// already paid. Totals are snapshotted once at batch start so every
// payment in the batch is priced against the same ranking. Partial
// failures never abort the batch.
func (s *Service) PayAllPending(ctx context.Context, campaignID string, periodType period.Type, periodDate string, notes string) ([]PaymentResult, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	periodDate, err := s.canonicalDate(periodType, periodDate)
	if err != nil {
		return nil, err
	}

	totals, strategy, err := s.snapshotTotals(ctx, campaignID, periodType, periodDate)
	if err != nil {
		return nil, err
	}

	statuses, err := s.recordedStatuses(ctx, campaignID, periodType, periodDate)
	if err != nil {
		return nil, err
	}

	eligible := make([]ranking.CreatorPeriodTotals, 0, len(totals))
	for _, t := range totals {
		if statuses[t.CreatorID] == PaymentStatusPaid {
			continue
		}
		amount := strategy.Calculate(earnings.Totals{Views: t.TotalViews, Videos: t.TotalVideos, Position: t.RankPosition})
		if !amount.IsPositive() {
			continue
		}
		eligible = append(eligible, t)
	}

	results := make([]PaymentResult, len(eligible))

	g, gctx := errgroup.WithContext(ctx)
	concurrency := s.cfg.Payout.BatchConcurrency
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}
	g.SetLimit(concurrency)

	for i, t := range eligible {
		g.Go(func() error {
			key := PaymentKey{
				CampaignID: campaignID,
				UserID:     t.CreatorID,
				PeriodType: periodType,
				PeriodDate: periodDate,
			}
			results[i] = s.payCreator(gctx, key, strategy, t, notes)
			return nil
		})
	}

	// workers never return errors, failures are per-creator results
	_ = g.Wait()

	zap.L().Info("batch payout finished",
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("campaign_id", campaignID),
		zap.String("period_date", periodDate),
		zap.Int("eligible", len(eligible)),
	)

	return results, nil
}

func (s *Service) payCreator(ctx context.Context, key PaymentKey, strategy earnings.Strategy, t ranking.CreatorPeriodTotals, notes string) PaymentResult {
	amount := strategy.Calculate(earnings.Totals{Views: t.TotalViews, Videos: t.TotalVideos, Position: t.RankPosition})

	result := PaymentResult{UserID: key.UserID, Amount: amount}
	if !amount.IsPositive() {
		result.Error = "calculated amount is zero"
		return result
	}

	outcome, err := s.RecordPayment(ctx, key, amount, PaymentMeta{
		ViewsCount:  t.TotalViews,
		VideosCount: t.TotalVideos,
		Position:    t.RankPosition,
		Notes:       notes,
		PaidBy:      s.cfg.Payout.PaidBy,
	})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.AlreadyPaid = outcome.AlreadyPaid
	return result
}

// snapshotTotals loads the campaign, validates its pricing and computes
// the ranking once.
func (s *Service) snapshotTotals(ctx context.Context, campaignID string, periodType period.Type, periodDate string) ([]ranking.CreatorPeriodTotals, earnings.Strategy, error) {
	c, err := s.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, earnings.Strategy{}, err
	}

	strategy, err := c.Strategy()
	if err != nil {
		return nil, earnings.Strategy{}, err
	}
	if err := strategy.Validate(); err != nil {
		return nil, earnings.Strategy{}, err
	}

	totals, err := s.ranking.CreatorRanking(ctx, campaignID, periodType, periodDate, "")
	if err != nil {
		return nil, earnings.Strategy{}, err
	}

	return totals, strategy, nil
}

func (s *Service) recordedStatuses(ctx context.Context, campaignID string, periodType period.Type, periodDate string) (map[string]PaymentStatus, error) {
	records, err := s.payments.Find(ctx, &PaymentRecord{
		CampaignID: campaignID,
		PeriodType: periodType,
		PeriodDate: periodDate,
	})
	if err != nil {
		return nil, err
	}

	statuses := make(map[string]PaymentStatus, len(records))
	for _, record := range records {
		statuses[record.UserID] = record.Status
	}

	return statuses, nil
}

// GetWallet returns a creator's balances. A creator who has never been
// paid gets a zero-balance wallet, not an error.
func (s *Service) GetWallet(ctx context.Context, userID string) (*Wallet, error) {
	wallet, err := s.wallets.FindOne(ctx, &Wallet{UserID: userID})
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return &Wallet{UserID: userID}, nil
	}
	return wallet, nil
}

// ListWalletTransactions returns a page of the audit trail for a
// creator, newest first. The cursor is an opaque token pointing past
// the last transaction of the previous page.
func (s *Service) ListWalletTransactions(ctx context.Context, userID string, page pagination.Pagination) ([]WalletTransaction, *pagination.PageInfo, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 10
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "desc",
			Allow: map[string]bool{
				"created_at": true,
			},
		}),
		option.WithLimit(limit + 1),
	}

	if page.Cursor != "" {
		cursor, err := pagination.DecodeCursor(page.Cursor)
		if err != nil {
			return nil, nil, errutil.ValidationFailed("cursor is not valid", err)
		}
		before, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, nil, errutil.ValidationFailed("cursor is not valid", err)
		}
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "created_at",
			Operator: option.LT,
			Value:    before,
		}))
	}

	rows, err := s.transactions.Find(ctx, &WalletTransaction{UserID: userID}, opts...)
	if err != nil {
		return nil, nil, err
	}

	pageInfo := pagination.BuildCursorPageInfo(rows, int32(limit), func(tx *WalletTransaction) string {
		cursor, _ := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: tx.CreatedAt.UTC().Format(time.RFC3339Nano),
			ID:        tx.ID,
		})
		return cursor
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}

	transactions := make([]WalletTransaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, *row)
	}

	return transactions, pageInfo, nil
}
