package trip

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Reader is read access to trips and their membership. Trips themselves
// are managed by another service.
type Reader interface {
	GetByID(ctx context.Context, id int64) (*Trip, error)
	GetMembers(ctx context.Context, tripID int64) ([]*Member, error)
}

// Repository reads trips and members from Postgres
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new trip repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetByID retrieves a trip by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Trip, error) {
	query := `
		SELECT id, name, created_at
		FROM trips
		WHERE id = $1
	`

	trip := &Trip{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&trip.ID,
		&trip.Name,
		&trip.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	return trip, nil
}

// GetMembers retrieves all members of a trip in join order
func (r *Repository) GetMembers(ctx context.Context, tripID int64) ([]*Member, error) {
	query := `
		SELECT id, trip_id, user_id, role, joined_at
		FROM trip_members
		WHERE trip_id = $1
		ORDER BY joined_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		member := &Member{}
		if err := rows.Scan(
			&member.ID,
			&member.TripID,
			&member.UserID,
			&member.Role,
			&member.JoinedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}
