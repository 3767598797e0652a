package split

import "github.com/fkhayef/tripsplit/pkg/money"

// EqualStrategy divides the total evenly. The first N-1 shares are rounded
// half up to the cent and the last member in caller order absorbs the
// remainder, so the shares always add up to the total.
type EqualStrategy struct{}

// Mode returns the split mode identifier
func (s *EqualStrategy) Mode() Mode {
	return ModeEqual
}

// Validate checks if the inputs are valid for an equal split
func (s *EqualStrategy) Validate(total money.Amount, members []Input) error {
	return validateMembers(total, members)
}

// Calculate divides the total amount evenly among all members
func (s *EqualStrategy) Calculate(total money.Amount, payerID int64, members []Input) ([]Share, error) {
	if err := s.Validate(total, members); err != nil {
		return nil, err
	}

	share := total.DivRound(int64(len(members)))
	return withRemainder(total, payerID, members, func(int) money.Amount {
		return share
	})
}
