// Package repository declares the storage contracts the services depend on.
//
// Each store is a narrow interface so services and tests can swap the
// SQLite implementation for a fake. Lookups that find nothing return an
// error wrapping apperror.ErrNotFound, except EventRepository, which
// reports apperror.ErrEventNotFound so the caller can surface it as is.
package repository

import (
	"context"
	"math"

	"github.com/sakif/shared-calendar/internal/access"
	"github.com/sakif/shared-calendar/internal/model"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// CalendarSortFields are the columns a calendar listing may be ordered by.
var CalendarSortFields = []string{"id", "name", "tag", "description", "public", "active"}

// PageRequest selects one slice of an ordered listing. Page is zero-based.
type PageRequest struct {
	Page   int
	Size   int
	SortBy string
}

// Normalize clamps the request to sane bounds and fills defaults.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if p.SortBy == "" {
		p.SortBy = "id"
	}
	return p
}

// Offset is the number of rows skipped before this page. It saturates at
// math.MaxInt instead of overflowing, so an absurd page is simply empty.
func (p PageRequest) Offset() int {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	if p.Page > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Page * p.Size
}

// ValidCalendarSort reports whether field is one of CalendarSortFields.
func ValidCalendarSort(field string) bool {
	for _, f := range CalendarSortFields {
		if f == field {
			return true
		}
	}
	return false
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByTg(ctx context.Context, tg string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type TokenRepository interface {
	Create(ctx context.Context, token *model.Token) error
	GetByValue(ctx context.Context, value string) (*model.Token, error)
	Revoke(ctx context.Context, id string) error
	// RevokeAllForUser revokes every unrevoked token of the user and
	// returns how many were changed.
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}

type CalendarRepository interface {
	Create(ctx context.Context, cal *model.Calendar) error
	GetByTag(ctx context.Context, tag string) (*model.Calendar, error)
	Update(ctx context.Context, cal *model.Calendar) error
	ListByPublic(ctx context.Context, public bool, page PageRequest) ([]model.Calendar, error)
}

type MembershipRepository interface {
	Get(ctx context.Context, userID, calendarID string) (*model.Membership, error)
	Create(ctx context.Context, m *model.Membership) error
	Update(ctx context.Context, m *model.Membership) error
	// ListCalendarsForUser returns the calendars on which the user holds one
	// of roles.
	ListCalendarsForUser(ctx context.Context, userID string, roles []access.Role, page PageRequest) ([]model.Calendar, error)
}

// EventRepository reports missing events with apperror.ErrEventNotFound
// rather than apperror.ErrNotFound.
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Update(ctx context.Context, event *model.Event) error
}

type ReactionRepository interface {
	Get(ctx context.Context, userID, eventID string) (*model.Reaction, error)
	Create(ctx context.Context, r *model.Reaction) error
	Update(ctx context.Context, r *model.Reaction) error
	ListByEvent(ctx context.Context, eventID string) ([]model.Reaction, error)
}

// Store bundles every repository over one connection or transaction.
type Store interface {
	Users() UserRepository
	Tokens() TokenRepository
	Calendars() CalendarRepository
	Memberships() MembershipRepository
	Events() EventRepository
	Reactions() ReactionRepository

	// InTx runs fn against a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Store) error) error
}
