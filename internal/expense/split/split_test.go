package split

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/tripsplit/pkg/apperr"
	"github.com/fkhayef/tripsplit/pkg/money"
)

func amt(s string) *money.Amount {
	a := money.MustParse(s)
	return &a
}

func pct(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func sumShares(shares []Share) money.Amount {
	var total money.Amount
	for _, s := range shares {
		total += s.Amount
	}
	return total
}

func TestEqualSplitSumsExactly(t *testing.T) {
	totals := []string{"100.00", "0.01", "0.03", "0.05", "0.13", "10.00", "99.99", "1234.57", "33.33"}
	counts := []int{1, 2, 3, 7, 13}
	strategy := &EqualStrategy{}

	for _, total := range totals {
		for _, n := range counts {
			ids := make([]int64, n)
			for i := range ids {
				ids[i] = int64(i + 1)
			}
			a := money.MustParse(total)
			shares, err := strategy.Calculate(a, 1, Members(ids...))

			// The first n-1 shares are rounded half up; only when they
			// already exceed the total is there nothing left for the last.
			cents := int64(a)
			rounded := (2*cents + int64(n)) / (2 * int64(n))
			if rounded*int64(n-1) > cents {
				require.ErrorIs(t, err, ErrTooSmallToSplit, "total=%s n=%d", total, n)
				continue
			}
			require.NoError(t, err, "total=%s n=%d", total, n)
			require.Len(t, shares, n)
			assert.Equal(t, a, sumShares(shares), "total=%s n=%d", total, n)
			for _, sh := range shares {
				assert.False(t, sh.Amount.IsNegative(), "total=%s n=%d", total, n)
			}
		}
	}
}

func TestEqualSplitTinyTotals(t *testing.T) {
	// Zero shares are allowed.
	shares, err := (&EqualStrategy{}).Calculate(money.MustParse("0.01"), 1, Members(1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, []money.Amount{0, 0, 1}, []money.Amount{shares[0].Amount, shares[1].Amount, shares[2].Amount})

	// 0.05 / 7 rounds each of the first six shares up to 0.01.
	_, err = (&EqualStrategy{}).Calculate(money.MustParse("0.05"), 1, Members(1, 2, 3, 4, 5, 6, 7))
	require.ErrorIs(t, err, ErrTooSmallToSplit)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestEqualSplitRemainderGoesToLastMember(t *testing.T) {
	shares, err := (&EqualStrategy{}).Calculate(money.MustParse("100.00"), 20, Members(30, 10, 20))
	require.NoError(t, err)

	assert.Equal(t, []Share{
		{UserID: 30, Amount: money.MustParse("33.33"), IsPaid: false},
		{UserID: 10, Amount: money.MustParse("33.33"), IsPaid: false},
		{UserID: 20, Amount: money.MustParse("33.34"), IsPaid: true},
	}, shares)
}

func TestEqualSplitRoundsHalfUp(t *testing.T) {
	// 0.05 / 2 = 0.025: first share rounds up, last absorbs the difference.
	shares, err := (&EqualStrategy{}).Calculate(money.MustParse("0.05"), 1, Members(1, 2))
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("0.03"), shares[0].Amount)
	assert.Equal(t, money.MustParse("0.02"), shares[1].Amount)
}

func TestEqualSplitPayerIsPaid(t *testing.T) {
	shares, err := (&EqualStrategy{}).Calculate(money.MustParse("100.00"), 1, Members(1, 2))
	require.NoError(t, err)
	assert.True(t, shares[0].IsPaid)
	assert.False(t, shares[1].IsPaid)
	assert.Equal(t, money.MustParse("50.00"), shares[0].Amount)
	assert.Equal(t, money.MustParse("50.00"), shares[1].Amount)
}

func TestEqualSplitTooSmall(t *testing.T) {
	// 0.02 over 4 rounds each of the first three up to 0.01, overshooting.
	_, err := (&EqualStrategy{}).Calculate(money.MustParse("0.02"), 1, Members(1, 2, 3, 4))
	require.ErrorIs(t, err, ErrTooSmallToSplit)
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		total    string
		members  []Input
		want     error
	}{
		{"no members", &EqualStrategy{}, "10.00", nil, ErrNoMembers},
		{"zero total", &EqualStrategy{}, "0", Members(1), ErrNonPositiveTotal},
		{"negative total", &ManualStrategy{}, "-5.00", []Input{{UserID: 1, Amount: amt("-5.00")}}, ErrNonPositiveTotal},
		{"duplicate", &EqualStrategy{}, "10.00", Members(1, 2, 1), ErrDuplicateMember},
		{"invalid id", &EqualStrategy{}, "10.00", Members(0), ErrInvalidMember},
		{"manual sum mismatch", &ManualStrategy{}, "100.00", []Input{
			{UserID: 1, Amount: amt("40.00")},
			{UserID: 2, Amount: amt("40.00")},
		}, ErrSumMismatch},
		{"manual missing amount", &ManualStrategy{}, "10.00", []Input{{UserID: 1}}, ErrMissingAmount},
		{"manual negative", &ManualStrategy{}, "10.00", []Input{
			{UserID: 1, Amount: amt("15.00")},
			{UserID: 2, Amount: amt("-5.00")},
		}, ErrNegativeAmount},
		{"percent missing", &PercentageStrategy{}, "10.00", []Input{{UserID: 1}}, ErrMissingPercentage},
		{"percent sum", &PercentageStrategy{}, "10.00", []Input{
			{UserID: 1, Percentage: pct("50")},
			{UserID: 2, Percentage: pct("40")},
		}, ErrInvalidPercentages},
		{"percent precision", &PercentageStrategy{}, "10.00", []Input{{UserID: 1, Percentage: pct("99.999")}}, ErrPercentageRange},
		{"percent range", &PercentageStrategy{}, "10.00", []Input{{UserID: 1, Percentage: pct("101")}}, ErrPercentageRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, err := money.Parse(tt.total)
			require.NoError(t, err)

			_, err = tt.strategy.Calculate(total, 1, tt.members)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestManualSumMismatchMessage(t *testing.T) {
	_, err := (&ManualStrategy{}).Calculate(money.MustParse("100.00"), 1, []Input{
		{UserID: 1, Amount: amt("40.00")},
		{UserID: 2, Amount: amt("40.00")},
	})
	require.Error(t, err)
	assert.Equal(t, "split amounts sum to 80.00 but the expense amount is 100.00", apperr.Message(err))
}

func TestManualSplit(t *testing.T) {
	shares, err := (&ManualStrategy{}).Calculate(money.MustParse("100.00"), 2, []Input{
		{UserID: 1, Amount: amt("70.00")},
		{UserID: 2, Amount: amt("30.00")},
	})
	require.NoError(t, err)
	assert.Equal(t, []Share{
		{UserID: 1, Amount: money.MustParse("70.00")},
		{UserID: 2, Amount: money.MustParse("30.00"), IsPaid: true},
	}, shares)
}

func TestPercentageSplit(t *testing.T) {
	shares, err := (&PercentageStrategy{}).Calculate(money.MustParse("100.00"), 1, []Input{
		{UserID: 1, Percentage: pct("33.33")},
		{UserID: 2, Percentage: pct("33.33")},
		{UserID: 3, Percentage: pct("33.34")},
	})
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("33.33"), shares[0].Amount)
	assert.Equal(t, money.MustParse("33.33"), shares[1].Amount)
	assert.Equal(t, money.MustParse("33.34"), shares[2].Amount)
	assert.True(t, shares[0].IsPaid)

	shares, err = (&PercentageStrategy{}).Calculate(money.MustParse("10.01"), 1, []Input{
		{UserID: 1, Percentage: pct("50")},
		{UserID: 2, Percentage: pct("50")},
	})
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("10.01"), sumShares(shares))
	assert.Equal(t, money.MustParse("5.01"), shares[0].Amount)
	assert.Equal(t, money.MustParse("5.00"), shares[1].Amount)
}

func TestFactory(t *testing.T) {
	f := NewFactory()
	for _, mode := range Modes {
		s, err := f.Create(mode)
		require.NoError(t, err)
		assert.Equal(t, mode, s.Mode())
	}

	s, err := f.CreateFromString("")
	require.NoError(t, err)
	assert.Equal(t, ModeEqual, s.Mode())

	s, err = f.CreateFromString(" Manual ")
	require.NoError(t, err)
	assert.Equal(t, ModeManual, s.Mode())

	_, err = f.CreateFromString("shares")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
