package payout

import (
	"fmt"
	"time"

	"cliprank-platform/pkg/period"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusPaid     PaymentStatus = "paid"
)

// PaymentRecord is the ledger's unit of idempotency. The unique index on
// (campaign_id, user_id, period_type, period_date) is the sole guard
// against double payment; the service interprets the upsert outcome, it
// never takes its own locks for this.
type PaymentRecord struct {
	ID          string          `gorm:"column:id;primaryKey" json:"id"`
	Code        string          `gorm:"column:code" json:"code"`
	CampaignID  string          `gorm:"column:campaign_id;uniqueIndex:idx_payment_period;not null" json:"campaign_id"`
	UserID      string          `gorm:"column:user_id;uniqueIndex:idx_payment_period;not null" json:"user_id"`
	PeriodType  period.Type     `gorm:"column:period_type;type:varchar(20);uniqueIndex:idx_payment_period;not null" json:"period_type"`
	PeriodDate  string          `gorm:"column:period_date;type:varchar(10);uniqueIndex:idx_payment_period;not null" json:"period_date"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(18,4);not null;default:0" json:"amount"`
	ViewsCount  int64           `gorm:"column:views_count;not null;default:0" json:"views_count"`
	VideosCount int64           `gorm:"column:videos_count;not null;default:0" json:"videos_count"`
	Position    int             `gorm:"column:position;not null;default:0" json:"position"`
	Status      PaymentStatus   `gorm:"column:status;type:varchar(20);not null;default:'pending'" json:"status"`
	PaidAt      *time.Time      `gorm:"column:paid_at" json:"paid_at"`
	PaidBy      string          `gorm:"column:paid_by" json:"paid_by"`
	Notes       string          `gorm:"column:notes;type:text" json:"notes"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (PaymentRecord) TableName() string {
	return "payment_records"
}

// Wallet holds a creator's balances. Created lazily on first payment and
// only ever credited here; withdrawal lives elsewhere.
type Wallet struct {
	ID               string          `gorm:"column:id;primaryKey" json:"id"`
	UserID           string          `gorm:"column:user_id;uniqueIndex;not null" json:"user_id"`
	AvailableBalance decimal.Decimal `gorm:"column:available_balance;type:decimal(18,4);not null;default:0" json:"available_balance"`
	TotalEarned      decimal.Decimal `gorm:"column:total_earned;type:decimal(18,4);not null;default:0" json:"total_earned"`
	PendingBalance   decimal.Decimal `gorm:"column:pending_balance;type:decimal(18,4);not null;default:0" json:"pending_balance"`
	TotalWithdrawn   decimal.Decimal `gorm:"column:total_withdrawn;type:decimal(18,4);not null;default:0" json:"total_withdrawn"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Wallet) TableName() string {
	return "wallets"
}

// WalletTransaction is the append-only audit row written with every
// wallet credit.
type WalletTransaction struct {
	ID          string          `gorm:"column:id;primaryKey" json:"id"`
	UserID      string          `gorm:"column:user_id;index;not null" json:"user_id"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(18,4);not null" json:"amount"`
	Type        string          `gorm:"column:type;type:varchar(20);not null" json:"type"`
	Description string          `gorm:"column:description;type:text" json:"description"`
	ReferenceID string          `gorm:"column:reference_id;index" json:"reference_id"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

const TransactionTypeEarning = "earning"

// PaymentKey identifies one payable (campaign, user, period) tuple.
type PaymentKey struct {
	CampaignID string
	UserID     string
	PeriodType period.Type
	PeriodDate string
}

// PaymentResult is the per-creator outcome of a pay operation. Batch
// callers receive one per creator and never an aborted batch.
type PaymentResult struct {
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	AlreadyPaid bool            `json:"already_paid"`
	Success     bool            `json:"success"`
	Error       string          `json:"error,omitempty"`
}

// LedgerInconsistencyError reports a paid PaymentRecord whose wallet
// credit could not be applied. It must reach the caller as a failure and
// be reconciled manually, never folded into a success flag.
type LedgerInconsistencyError struct {
	PaymentID string
	UserID    string
	Err       error
}

func (e *LedgerInconsistencyError) Error() string {
	return fmt.Sprintf("ledger inconsistency: payment %s for user %s is paid but wallet credit failed: %v", e.PaymentID, e.UserID, e.Err)
}

func (e *LedgerInconsistencyError) Unwrap() error {
	return e.Err
}
