package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/shared-calendar/internal/access"
	"github.com/sakif/shared-calendar/internal/apperror"
	"github.com/sakif/shared-calendar/internal/model"
	"github.com/sakif/shared-calendar/internal/repository"
)

// MembershipStore persists (user, calendar, role) rows.
type MembershipStore struct {
	q querier
}

var _ repository.MembershipRepository = (*MembershipStore)(nil)

// Get returns the row for the pair, including rows whose role is DELETED.
func (s *MembershipStore) Get(ctx context.Context, userID, calendarID string) (*model.Membership, error) {
	var m model.Membership
	err := s.q.QueryRowContext(ctx,
		`SELECT id, user_id, calendar_id, role, created_at, updated_at
		 FROM memberships WHERE user_id = ? AND calendar_id = ?`,
		userID, calendarID,
	).Scan(&m.ID, &m.UserID, &m.CalendarID, &m.Role, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("membership", userID+"/"+calendarID)
		}
		return nil, fmt.Errorf("sqlite: getting membership %s/%s: %w", userID, calendarID, err)
	}
	return &m, nil
}

// Create inserts a membership. A second row for the same pair returns
// apperror.ErrConflict.
func (s *MembershipStore) Create(ctx context.Context, m *model.Membership) error {
	now := time.Now().UTC()
	m.ID = xid.New().String()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO memberships (id, user_id, calendar_id, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.CalendarID, string(m.Role), m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("membership", m.UserID+"/"+m.CalendarID)
		}
		return fmt.Errorf("sqlite: inserting membership %s/%s: %w", m.UserID, m.CalendarID, err)
	}
	return nil
}

// Update changes the role on an existing row, keeping its ID.
func (s *MembershipStore) Update(ctx context.Context, m *model.Membership) error {
	m.UpdatedAt = time.Now().UTC()

	result, err := s.q.ExecContext(ctx,
		`UPDATE memberships SET role = ?, updated_at = ? WHERE id = ?`,
		string(m.Role), m.UpdatedAt, m.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating membership %s: %w", m.ID, err)
	}
	return requireAffected(result, "membership", m.ID)
}

func (s *MembershipStore) ListCalendarsForUser(ctx context.Context, userID string, roles []access.Role, page repository.PageRequest) ([]model.Calendar, error) {
	page = page.Normalize()
	if !repository.ValidCalendarSort(page.SortBy) {
		return nil, apperror.BadRequest("sortBy", fmt.Sprintf("cannot sort calendars by %q", page.SortBy))
	}
	if len(roles) == 0 {
		return []model.Calendar{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(roles)), ",")
	args := make([]any, 0, len(roles)+3)
	args = append(args, userID)
	for _, r := range roles {
		args = append(args, string(r))
	}
	args = append(args, page.Size, page.Offset())

	rows, err := s.q.QueryContext(ctx,
		`SELECT c.id, c.name, c.tag, c.description, c.public, c.active, c.created_at, c.updated_at
		 FROM calendars c
		 JOIN memberships m ON m.calendar_id = c.id
		 WHERE m.user_id = ? AND m.role IN (`+placeholders+`)
		 `+orderClause("c", page.SortBy)+`
		 LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing calendars of user %s: %w", userID, err)
	}
	return scanCalendars(rows, page.Size)
}
