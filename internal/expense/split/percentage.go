package split

import (
	"github.com/shopspring/decimal"

	"github.com/fkhayef/tripsplit/pkg/money"
)

var hundred = decimal.NewFromInt(100)

// PercentageStrategy splits by member percentages that sum to exactly 100.
// Rounding follows EqualStrategy: the last member takes the remainder.
type PercentageStrategy struct{}

// Mode returns the split mode identifier
func (s *PercentageStrategy) Mode() Mode {
	return ModePercentage
}

// Validate checks percentages are present, in range, and sum to 100
func (s *PercentageStrategy) Validate(total money.Amount, members []Input) error {
	_, err := s.basisPoints(total, members)
	return err
}

// basisPoints converts percentages to hundredths of a percent.
func (s *PercentageStrategy) basisPoints(total money.Amount, members []Input) ([]int64, error) {
	if err := validateMembers(total, members); err != nil {
		return nil, err
	}

	points := make([]int64, len(members))
	var sum int64
	for i, m := range members {
		if m.Percentage == nil {
			return nil, ErrMissingPercentage
		}
		p := *m.Percentage
		if p.IsNegative() || p.GreaterThan(hundred) {
			return nil, ErrPercentageRange
		}
		bp := p.Shift(2)
		if !bp.IsInteger() {
			return nil, ErrPercentageRange
		}
		points[i] = bp.IntPart()
		sum += points[i]
	}

	if sum != 10000 {
		return nil, ErrInvalidPercentages
	}
	return points, nil
}

// Calculate computes each member's share from their percentage
func (s *PercentageStrategy) Calculate(total money.Amount, payerID int64, members []Input) ([]Share, error) {
	points, err := s.basisPoints(total, members)
	if err != nil {
		return nil, err
	}

	return withRemainder(total, payerID, members, func(i int) money.Amount {
		return total.Percent(points[i])
	})
}
