package split

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/tripsplit/pkg/apperr"
	"github.com/fkhayef/tripsplit/pkg/money"
)

// Mode defines how an expense total is divided among its members
type Mode string

const (
	ModeEqual      Mode = "equal"
	ModeManual     Mode = "manual"
	ModePercentage Mode = "percentage"
)

// Modes lists every supported mode.
var Modes = []Mode{ModeEqual, ModeManual, ModePercentage}

// Input is one member taking part in a split, in caller order
type Input struct {
	UserID     int64            `json:"user_id"`
	Amount     *money.Amount    `json:"amount,omitempty"`     // manual mode
	Percentage *decimal.Decimal `json:"percentage,omitempty"` // percentage mode
}

// Share is the calculated portion of the total owed by one member
type Share struct {
	UserID int64        `json:"user_id"`
	Amount money.Amount `json:"amount"`
	IsPaid bool         `json:"is_paid"`
}

// Strategy is the interface that all split strategies must implement
type Strategy interface {
	// Calculate returns one share per member, in member order. Shares sum
	// to total exactly and the payer's share is already paid.
	Calculate(total money.Amount, payerID int64, members []Input) ([]Share, error)

	// Mode returns the identifier for this strategy
	Mode() Mode

	// Validate checks if the inputs are valid for this strategy
	Validate(total money.Amount, members []Input) error
}

// Factory creates split strategies based on the requested mode
type Factory struct{}

// NewFactory creates a new factory instance
func NewFactory() *Factory {
	return &Factory{}
}

// Create returns the strategy implementation for mode
func (f *Factory) Create(mode Mode) (Strategy, error) {
	switch mode {
	case ModeEqual:
		return &EqualStrategy{}, nil
	case ModeManual:
		return &ManualStrategy{}, nil
	case ModePercentage:
		return &PercentageStrategy{}, nil
	default:
		return nil, apperr.Validationf("unknown split mode %q", mode)
	}
}

// CreateFromString creates a strategy from a request value; empty means equal
func (f *Factory) CreateFromString(mode string) (Strategy, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		return f.Create(ModeEqual)
	}
	return f.Create(Mode(mode))
}

var (
	ErrNoMembers          = apperr.Validation("at least one member is required")
	ErrNonPositiveTotal   = apperr.Validation("amount must be greater than zero")
	ErrDuplicateMember    = apperr.Validation("members must be distinct")
	ErrInvalidMember      = apperr.Validation("member ids must be positive")
	ErrSumMismatch        = apperr.Validation("split amounts must sum to the expense amount")
	ErrMissingAmount      = apperr.Validation("amount required for every member in manual mode")
	ErrNegativeAmount     = apperr.Validation("split amounts cannot be negative")
	ErrMissingPercentage  = apperr.Validation("percentage required for every member in percentage mode")
	ErrInvalidPercentages = apperr.Validation("percentages must sum to 100")
	ErrPercentageRange    = apperr.Validation("percentage must be between 0 and 100 with at most two decimals")
	ErrTooSmallToSplit    = apperr.Validation("amount is too small to split among these members")
)

// validateMembers applies the checks shared by every mode.
func validateMembers(total money.Amount, members []Input) error {
	if len(members) == 0 {
		return ErrNoMembers
	}
	if !total.IsPositive() {
		return ErrNonPositiveTotal
	}
	seen := make(map[int64]struct{}, len(members))
	for _, m := range members {
		if m.UserID <= 0 {
			return ErrInvalidMember
		}
		if _, dup := seen[m.UserID]; dup {
			return apperr.Wrap(apperr.KindValidation, fmt.Sprintf("member %d listed twice", m.UserID), ErrDuplicateMember)
		}
		seen[m.UserID] = struct{}{}
	}
	return nil
}

// withRemainder builds shares from the first N-1 amounts and gives the last
// member whatever is left of total.
func withRemainder(total money.Amount, payerID int64, members []Input, first func(i int) money.Amount) ([]Share, error) {
	shares := make([]Share, len(members))
	var assigned money.Amount
	last := len(members) - 1
	for i := 0; i < last; i++ {
		amount := first(i)
		shares[i] = Share{UserID: members[i].UserID, Amount: amount, IsPaid: members[i].UserID == payerID}
		assigned += amount
	}
	remainder := total - assigned
	if remainder.IsNegative() {
		return nil, ErrTooSmallToSplit
	}
	shares[last] = Share{UserID: members[last].UserID, Amount: remainder, IsPaid: members[last].UserID == payerID}
	return shares, nil
}

// Members builds inputs for a plain list of user ids.
func Members(userIDs ...int64) []Input {
	inputs := make([]Input, len(userIDs))
	for i, id := range userIDs {
		inputs[i] = Input{UserID: id}
	}
	return inputs
}
