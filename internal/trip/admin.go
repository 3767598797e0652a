package trip

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fkhayef/tripsplit/internal/database"
	"github.com/fkhayef/tripsplit/pkg/apperr"
)

// ErrAlreadyMember is returned when a user joins a trip twice.
var ErrAlreadyMember = apperr.Conflict("user is already a member of this trip")

// Writer manages trips for operators. The HTTP API only reads them.
type Writer interface {
	Create(ctx context.Context, name string, organizerID int64) (*Trip, error)
	AddMember(ctx context.Context, tripID, userID int64, role MemberRole) (*Member, error)
}

var (
	_ Reader = (*Repository)(nil)
	_ Writer = (*Repository)(nil)
)

// Create inserts a trip and its organizer in one transaction
func (r *Repository) Create(ctx context.Context, name string, organizerID int64) (*Trip, error) {
	trip := &Trip{}
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO trips (name)
			VALUES ($1)
			RETURNING id, name, created_at
		`
		if err := tx.QueryRowContext(ctx, query, name).Scan(&trip.ID, &trip.Name, &trip.CreatedAt); err != nil {
			return fmt.Errorf("failed to create trip: %w", err)
		}
		_, err := insertMember(ctx, tx, trip.ID, organizerID, MemberRoleOrganizer)
		return err
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// AddMember adds a user to a trip
func (r *Repository) AddMember(ctx context.Context, tripID, userID int64, role MemberRole) (*Member, error) {
	return insertMember(ctx, r.db, tripID, userID, role)
}

func insertMember(ctx context.Context, q database.DBTX, tripID, userID int64, role MemberRole) (*Member, error) {
	if role == "" {
		role = MemberRoleMember
	}

	query := `
		INSERT INTO trip_members (trip_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, trip_id, user_id, role, joined_at
	`

	member := &Member{}
	err := q.QueryRowContext(ctx, query, tripID, userID, role).Scan(
		&member.ID,
		&member.TripID,
		&member.UserID,
		&member.Role,
		&member.JoinedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return member, nil
}

// Admin validates operator requests before they reach a Writer
type Admin struct {
	reader Reader
	writer Writer
}

// NewAdmin creates a trip admin
func NewAdmin(reader Reader, writer Writer) *Admin {
	return &Admin{reader: reader, writer: writer}
}

// CreateTrip creates a trip whose first member is its organizer
func (a *Admin) CreateTrip(ctx context.Context, name string, organizerID int64) (*Trip, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("trip name is required")
	}
	if organizerID <= 0 {
		return nil, apperr.Validation("organizer must be a user ID")
	}
	return a.writer.Create(ctx, name, organizerID)
}

// AddMember adds a user to an existing trip
func (a *Admin) AddMember(ctx context.Context, tripID, userID int64) (*Member, error) {
	if userID <= 0 {
		return nil, apperr.Validation("member must be a user ID")
	}
	t, err := a.reader.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTripNotFound
	}
	return a.writer.AddMember(ctx, tripID, userID, MemberRoleMember)
}
