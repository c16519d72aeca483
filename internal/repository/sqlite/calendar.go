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

// CalendarStore persists calendars.
type CalendarStore struct {
	q querier
}

var _ repository.CalendarRepository = (*CalendarStore)(nil)

const calendarColumns = `id, name, tag, description, public, active, created_at, updated_at`

// Create inserts a calendar. A taken tag, in any lifecycle state,
// returns apperror.ErrDuplicateTag.
func (s *CalendarStore) Create(ctx context.Context, cal *model.Calendar) error {
	now := time.Now().UTC()
	cal.ID = xid.New().String()
	cal.CreatedAt = now
	cal.UpdatedAt = now

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO calendars (`+calendarColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cal.ID,
		cal.Name,
		cal.Tag,
		cal.Description,
		cal.Public,
		cal.Active,
		cal.CreatedAt,
		cal.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.DuplicateTag(cal.Tag)
		}
		return fmt.Errorf("sqlite: inserting calendar (tag=%s): %w", cal.Tag, err)
	}
	return nil
}

func (s *CalendarStore) GetByTag(ctx context.Context, tag string) (*model.Calendar, error) {
	var c model.Calendar
	err := s.q.QueryRowContext(ctx,
		`SELECT `+calendarColumns+` FROM calendars WHERE tag = ?`, tag,
	).Scan(calendarDest(&c)...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("calendar", tag)
		}
		return nil, fmt.Errorf("sqlite: getting calendar %s: %w", tag, err)
	}
	return &c, nil
}

// Update overwrites the calendar row identified by ID. The tag may change
// as long as it stays unique.
func (s *CalendarStore) Update(ctx context.Context, cal *model.Calendar) error {
	cal.UpdatedAt = time.Now().UTC()

	result, err := s.q.ExecContext(ctx,
		`UPDATE calendars
		 SET name = ?, tag = ?, description = ?, public = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		cal.Name,
		cal.Tag,
		cal.Description,
		cal.Public,
		cal.Active,
		cal.UpdatedAt,
		cal.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.DuplicateTag(cal.Tag)
		}
		return fmt.Errorf("sqlite: updating calendar %s: %w", cal.ID, err)
	}
	return requireAffected(result, "calendar", cal.ID)
}

// ListByPublic returns one page of calendars with the given visibility.
// Inactive calendars are included.
func (s *CalendarStore) ListByPublic(ctx context.Context, public bool, page repository.PageRequest) ([]model.Calendar, error) {
	page = page.Normalize()
	if !repository.ValidCalendarSort(page.SortBy) {
		return nil, apperror.BadRequest("sortBy", fmt.Sprintf("cannot sort calendars by %q", page.SortBy))
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT `+calendarColumns+` FROM calendars
		 WHERE public = ? `+orderClause("", page.SortBy)+`
		 LIMIT ? OFFSET ?`,
		public, page.Size, page.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing calendars: %w", err)
	}
	return scanCalendars(rows, page.Size)
}

func calendarDest(c *model.Calendar) []any {
	return []any{
		&c.ID,
		&c.Name,
		&c.Tag,
		&c.Description,
		&c.Public,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	}
}

// scanCalendars drains and closes rows.
func scanCalendars(rows *sql.Rows, capacity int) ([]model.Calendar, error) {
	defer rows.Close()

	cals := make([]model.Calendar, 0, capacity)
	for rows.Next() {
		var c model.Calendar
		if err := rows.Scan(calendarDest(&c)...); err != nil {
			return nil, fmt.Errorf("sqlite: scanning calendar row: %w", err)
		}
		cals = append(cals, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating calendars: %w", err)
	}
	return cals, nil
}
