package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/shared-calendar/internal/apperror"
	"github.com/sakif/shared-calendar/internal/model"
	"github.com/sakif/shared-calendar/internal/repository"
)

// EventStore persists events. Start and end are stored in UTC; the driver
// cannot scan back a DATETIME written with a fixed offset zone.
type EventStore struct {
	q querier
}

var _ repository.EventRepository = (*EventStore)(nil)

func (s *EventStore) Create(ctx context.Context, e *model.Event) error {
	now := time.Now().UTC()
	e.ID = xid.New().String()
	e.Start = e.Start.UTC()
	e.End = e.End.UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO events (id, calendar_id, user_id, title, description, address,
		                     start_at, end_at, status, average_rating, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.CalendarID,
		e.UserID,
		e.Title,
		e.Description,
		e.Address,
		e.Start,
		e.End,
		string(e.Status),
		e.AverageRating,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting event in calendar %s: %w", e.CalendarID, err)
	}
	return nil
}

// GetByID returns apperror.ErrEventNotFound when no row matches.
func (s *EventStore) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := s.q.QueryRowContext(ctx,
		`SELECT id, calendar_id, user_id, title, description, address,
		        start_at, end_at, status, average_rating, created_at, updated_at
		 FROM events WHERE id = ?`,
		id,
	).Scan(
		&e.ID,
		&e.CalendarID,
		&e.UserID,
		&e.Title,
		&e.Description,
		&e.Address,
		&e.Start,
		&e.End,
		&e.Status,
		&e.AverageRating,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.EventNotFound(id)
		}
		return nil, fmt.Errorf("sqlite: getting event %s: %w", id, err)
	}
	return &e, nil
}

// Update overwrites the event in place. calendar_id and user_id never
// change.
func (s *EventStore) Update(ctx context.Context, e *model.Event) error {
	e.Start = e.Start.UTC()
	e.End = e.End.UTC()
	e.UpdatedAt = time.Now().UTC()

	result, err := s.q.ExecContext(ctx,
		`UPDATE events
		 SET title = ?, description = ?, address = ?, start_at = ?, end_at = ?,
		     status = ?, average_rating = ?, updated_at = ?
		 WHERE id = ?`,
		e.Title,
		e.Description,
		e.Address,
		e.Start,
		e.End,
		string(e.Status),
		e.AverageRating,
		e.UpdatedAt,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating event %s: %w", e.ID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected for event %s: %w", e.ID, err)
	}
	if n == 0 {
		return apperror.EventNotFound(e.ID)
	}
	return nil
}
