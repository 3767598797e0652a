package trip

import "time"

// MemberRole represents the role of a trip member
type MemberRole string

const (
	MemberRoleOrganizer MemberRole = "organizer"
	MemberRoleMember    MemberRole = "member"
)

// Trip is the scope every expense, split and settlement belongs to.
type Trip struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Member represents a user's membership in a trip
type Member struct {
	ID       int64      `json:"id"`
	TripID   int64      `json:"trip_id"`
	UserID   int64      `json:"user_id"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}

// MemberResponse represents a trip member in API responses
type MemberResponse struct {
	UserID   int64      `json:"user_id"`
	Role     MemberRole `json:"role"`
	JoinedAt string     `json:"joined_at"`
}

// ToResponse converts a Member model to a MemberResponse DTO
func (m *Member) ToResponse() *MemberResponse {
	return &MemberResponse{
		UserID:   m.UserID,
		Role:     m.Role,
		JoinedAt: m.JoinedAt.Format("2006-01-02T15:04:05Z"),
	}
}
