package earnings

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"cliprank-platform/pkg/errutil"
)

func TestCalculatePayPerView(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		totals   Totals
		want     string
	}{
		{
			name: "below floor earns nothing",
			strategy: Strategy{
				Type:            PayPerView,
				RatePerThousand: decimal.NewFromInt(10),
				MinViews:        1000,
			},
			totals: Totals{Views: 999},
			want:   "0",
		},
		{
			name: "at floor earns full rate",
			strategy: Strategy{
				Type:            PayPerView,
				RatePerThousand: decimal.NewFromInt(10),
				MinViews:        1000,
			},
			totals: Totals{Views: 1000},
			want:   "10",
		},
		{
			name: "cap limits paid views",
			strategy: Strategy{
				Type:            PayPerView,
				RatePerThousand: decimal.NewFromInt(10),
				MaxPaidViews:    5000,
			},
			totals: Totals{Views: 10000},
			want:   "50",
		},
		{
			name: "uncapped pays all views",
			strategy: Strategy{
				Type:            PayPerView,
				RatePerThousand: decimal.NewFromInt(5),
			},
			totals: Totals{Views: 2000},
			want:   "10",
		},
		{
			name: "fractional thousands",
			strategy: Strategy{
				Type:            PayPerView,
				RatePerThousand: decimal.NewFromInt(10),
			},
			totals: Totals{Views: 1500},
			want:   "15",
		},
		{
			name:     "zero config prices to zero",
			strategy: Strategy{Type: PayPerView},
			totals:   Totals{Views: 100000},
			want:     "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.strategy.Calculate(tt.totals)
			require.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s want %s", got, tt.want)
			require.False(t, got.IsNegative())
		})
	}
}

func TestCalculateFixedPerVideo(t *testing.T) {
	strategy := Strategy{
		Type:         FixedPerVideo,
		RatePerVideo: decimal.RequireFromString("2.50"),
		MinViews:     100000, // no view threshold applies to this type
	}

	got := strategy.Calculate(Totals{Videos: 4, Views: 10})
	require.True(t, got.Equal(decimal.NewFromInt(10)), "got %s", got)
}

func TestCalculateCompetition(t *testing.T) {
	strategy := Strategy{
		Type: Competition,
		PrizeTable: map[int]decimal.Decimal{
			1: decimal.NewFromInt(500),
			2: decimal.NewFromInt(300),
			3: decimal.NewFromInt(200),
		},
	}

	require.True(t, strategy.Calculate(Totals{Position: 1}).Equal(decimal.NewFromInt(500)))
	require.True(t, strategy.Calculate(Totals{Position: 3}).Equal(decimal.NewFromInt(200)))

	// rank not present in the table earns zero
	require.True(t, strategy.Calculate(Totals{Position: 4}).IsZero())
	require.True(t, Strategy{Type: Competition}.Calculate(Totals{Position: 1}).IsZero())
}

func TestValidate(t *testing.T) {
	valid := Strategy{Type: PayPerView, RatePerThousand: decimal.NewFromInt(10)}
	require.NoError(t, valid.Validate())

	cases := []Strategy{
		{Type: "per_click"},
		{Type: PayPerView, RatePerThousand: decimal.NewFromInt(-1)},
		{Type: FixedPerVideo, RatePerVideo: decimal.NewFromInt(-5)},
		{Type: PayPerView, MinViews: -1},
		{Type: PayPerView, MaxPaidViews: -1},
		{Type: Competition, PrizeTable: map[int]decimal.Decimal{0: decimal.NewFromInt(100)}},
		{Type: Competition, PrizeTable: map[int]decimal.Decimal{1: decimal.NewFromInt(-100)}},
	}

	for _, strategy := range cases {
		err := strategy.Validate()
		require.Error(t, err)

		var be errutil.BaseError
		require.ErrorAs(t, err, &be)
		require.Equal(t, errutil.StatusValidationFailed, be.Code)
	}
}
