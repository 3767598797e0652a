package trip

import (
	"context"

	"github.com/fkhayef/tripsplit/pkg/apperr"
)

// Common errors
var (
	ErrTripNotFound = apperr.NotFound("trip not found")
	ErrNotMember    = apperr.Forbidden("you are not a member of this trip")
)

// Service answers membership questions for the other features
type Service struct {
	repo Reader
}

// NewService creates a new trip service
func NewService(repo Reader) *Service {
	return &Service{repo: repo}
}

// GetTrip retrieves a trip or ErrTripNotFound
func (s *Service) GetTrip(ctx context.Context, id int64) (*Trip, error) {
	trip, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, ErrTripNotFound
	}
	return trip, nil
}

// Members lists the members of an existing trip in join order
func (s *Service) Members(ctx context.Context, tripID int64) ([]*Member, error) {
	if _, err := s.GetTrip(ctx, tripID); err != nil {
		return nil, err
	}
	return s.repo.GetMembers(ctx, tripID)
}

// MemberIDs lists member user ids in join order
func (s *Service) MemberIDs(ctx context.Context, tripID int64) ([]int64, error) {
	members, err := s.Members(ctx, tripID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	return ids, nil
}

// RequireMember fails with ErrNotMember unless userID belongs to the trip.
// It returns the full member id list for callers that need it.
func (s *Service) RequireMember(ctx context.Context, tripID, userID int64) ([]int64, error) {
	ids, err := s.MemberIDs(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !Contains(ids, userID) {
		return nil, ErrNotMember
	}
	return ids, nil
}

// Contains reports whether userID is in ids.
func Contains(ids []int64, userID int64) bool {
	for _, id := range ids {
		if id == userID {
			return true
		}
	}
	return false
}
