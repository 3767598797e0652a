package split

import (
	"fmt"

	"github.com/fkhayef/tripsplit/pkg/apperr"
	"github.com/fkhayef/tripsplit/pkg/money"
)

// ManualStrategy takes caller-supplied amounts that must add up to the
// total exactly.
type ManualStrategy struct{}

// Mode returns the split mode identifier
func (s *ManualStrategy) Mode() Mode {
	return ModeManual
}

// Validate checks every member has an amount and that they sum to total
func (s *ManualStrategy) Validate(total money.Amount, members []Input) error {
	if err := validateMembers(total, members); err != nil {
		return err
	}

	var sum money.Amount
	for _, m := range members {
		if m.Amount == nil {
			return ErrMissingAmount
		}
		if m.Amount.IsNegative() {
			return ErrNegativeAmount
		}
		sum += *m.Amount
	}

	if sum != total {
		msg := fmt.Sprintf("split amounts sum to %s but the expense amount is %s", sum, total)
		return apperr.Wrap(apperr.KindValidation, msg, ErrSumMismatch)
	}
	return nil
}

// Calculate returns the supplied amounts as shares
func (s *ManualStrategy) Calculate(total money.Amount, payerID int64, members []Input) ([]Share, error) {
	if err := s.Validate(total, members); err != nil {
		return nil, err
	}

	shares := make([]Share, len(members))
	for i, m := range members {
		shares[i] = Share{
			UserID: m.UserID,
			Amount: *m.Amount,
			IsPaid: m.UserID == payerID,
		}
	}
	return shares, nil
}
