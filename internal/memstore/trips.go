package memstore

import (
	"context"

	"github.com/fkhayef/tripsplit/internal/trip"
)

// AddTrip creates a trip with the given members in join order. The first
// member is the organizer.
func (s *Store) AddTrip(name string, userIDs ...int64) *trip.Trip {
	s.tripMu.Lock()
	defer s.tripMu.Unlock()

	s.tripSeq++
	t := trip.Trip{ID: s.tripSeq, Name: name, CreatedAt: s.now().UTC()}
	s.trips[t.ID] = t
	for i, userID := range userIDs {
		role := trip.MemberRoleMember
		if i == 0 {
			role = trip.MemberRoleOrganizer
		}
		s.addMemberLocked(t.ID, userID, role)
	}
	return &t
}

// AddMember appends a member to an existing trip.
func (s *Store) AddMember(tripID, userID int64) error {
	_, err := s.addMember(tripID, userID, trip.MemberRoleMember)
	return err
}

func (s *Store) addMember(tripID, userID int64, role trip.MemberRole) (*trip.Member, error) {
	s.tripMu.Lock()
	defer s.tripMu.Unlock()

	if _, ok := s.trips[tripID]; !ok {
		return nil, trip.ErrTripNotFound
	}
	for _, m := range s.members[tripID] {
		if m.UserID == userID {
			return nil, trip.ErrAlreadyMember
		}
	}
	m := s.addMemberLocked(tripID, userID, role)
	return &m, nil
}

func (s *Store) addMemberLocked(tripID, userID int64, role trip.MemberRole) trip.Member {
	if role == "" {
		role = trip.MemberRoleMember
	}
	s.membSeq++
	m := trip.Member{
		ID:       s.membSeq,
		TripID:   tripID,
		UserID:   userID,
		Role:     role,
		JoinedAt: s.now().UTC(),
	}
	s.members[tripID] = append(s.members[tripID], m)
	return m
}

type tripWriter struct {
	s *Store
}

var _ trip.Writer = tripWriter{}

func (w tripWriter) Create(ctx context.Context, name string, organizerID int64) (*trip.Trip, error) {
	return w.s.AddTrip(name, organizerID), nil
}

func (w tripWriter) AddMember(ctx context.Context, tripID, userID int64, role trip.MemberRole) (*trip.Member, error) {
	return w.s.addMember(tripID, userID, role)
}

type tripReader struct {
	s *Store
}

func (r tripReader) GetByID(ctx context.Context, id int64) (*trip.Trip, error) {
	r.s.tripMu.RLock()
	defer r.s.tripMu.RUnlock()

	t, ok := r.s.trips[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r tripReader) GetMembers(ctx context.Context, tripID int64) ([]*trip.Member, error) {
	r.s.tripMu.RLock()
	defer r.s.tripMu.RUnlock()

	members := r.s.members[tripID]
	out := make([]*trip.Member, len(members))
	for i := range members {
		m := members[i]
		out[i] = &m
	}
	return out, nil
}
