package earnings

import (
	"fmt"

	"cliprank-platform/pkg/errutil"

	"github.com/shopspring/decimal"
)

type PricingType string

const (
	PayPerView    PricingType = "pay_per_view"
	FixedPerVideo PricingType = "fixed_per_video"
	Competition   PricingType = "competition"
)

func (t PricingType) Valid() bool {
	switch t {
	case PayPerView, FixedPerVideo, Competition:
		return true
	}
	return false
}

// Strategy is the campaign's pricing configuration, passed explicitly so
// the calculator stays a pure function of its inputs.
type Strategy struct {
	Type PricingType

	// pay_per_view
	RatePerThousand decimal.Decimal
	MinViews        int64
	MaxPaidViews    int64 // 0 means uncapped

	// fixed_per_video
	RatePerVideo decimal.Decimal

	// competition: sparse 1-based rank -> prize; ranks not present earn 0
	PrizeTable map[int]decimal.Decimal
}

// Totals is the aggregated input the calculator prices.
type Totals struct {
	Views    int64
	Videos   int64
	Position int
}

// Validate rejects broken configuration before any amount is computed.
// Missing configuration is not an error, it just prices to zero.
func (s Strategy) Validate() error {
	if !s.Type.Valid() {
		return errutil.ValidationFailed(fmt.Sprintf("unknown pricing type %q", s.Type), nil)
	}

	if s.RatePerThousand.IsNegative() {
		return errutil.ValidationFailed("rate_per_thousand must not be negative", nil)
	}
	if s.RatePerVideo.IsNegative() {
		return errutil.ValidationFailed("rate_per_video must not be negative", nil)
	}
	if s.MinViews < 0 {
		return errutil.ValidationFailed("min_views must not be negative", nil)
	}
	if s.MaxPaidViews < 0 {
		return errutil.ValidationFailed("max_paid_views must not be negative", nil)
	}
	for position, prize := range s.PrizeTable {
		if position < 1 {
			return errutil.ValidationFailed(fmt.Sprintf("prize position %d is not a valid rank", position), nil)
		}
		if prize.IsNegative() {
			return errutil.ValidationFailed(fmt.Sprintf("prize for position %d must not be negative", position), nil)
		}
	}

	return nil
}

// Calculate prices a creator's totals under this strategy. The result is
// never negative; absent configuration yields zero, never an error.
func (s Strategy) Calculate(totals Totals) decimal.Decimal {
	switch s.Type {
	case PayPerView:
		return s.calculatePayPerView(totals)
	case FixedPerVideo:
		return decimal.NewFromInt(totals.Videos).Mul(s.RatePerVideo)
	case Competition:
		if prize, ok := s.PrizeTable[totals.Position]; ok {
			return prize
		}
		return decimal.Zero
	default:
		return decimal.Zero
	}
}

func (s Strategy) calculatePayPerView(totals Totals) decimal.Decimal {
	// views below the floor earn nothing at all, no partial credit
	if totals.Views < s.MinViews {
		return decimal.Zero
	}

	paidViews := totals.Views
	if s.MaxPaidViews > 0 && paidViews > s.MaxPaidViews {
		paidViews = s.MaxPaidViews
	}

	return decimal.NewFromInt(paidViews).
		Div(decimal.NewFromInt(1000)).
		Mul(s.RatePerThousand)
}
