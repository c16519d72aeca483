// Package membership computes a user's effective access on a calendar.
package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakif/shared-calendar/internal/access"
	"github.com/sakif/shared-calendar/internal/apperror"
	"github.com/sakif/shared-calendar/internal/model"
	"github.com/sakif/shared-calendar/internal/repository"
)

// Access is the outcome of resolving a user against a calendar.
//
// Role is the role to use for checks. For a public calendar the caller is
// not a member of it is access.Viewer while State reports non-membership, so
// callers can tell "invited viewer" apart from "passer-by".
type Access struct {
	Calendar *model.Calendar
	Role     access.Role
	State    access.State
}

// Member reports whether the user holds a live membership row.
func (a *Access) Member() bool {
	return a.State.IsMember()
}

// Resolver reads calendars and memberships through the given stores.
type Resolver struct {
	calendars   repository.CalendarRepository
	memberships repository.MembershipRepository
}

func NewResolver(calendars repository.CalendarRepository, memberships repository.MembershipRepository) *Resolver {
	return &Resolver{calendars: calendars, memberships: memberships}
}

// ForStore builds a Resolver bound to store. Services use it inside InTx
// so the lookup shares the transaction.
func ForStore(store repository.Store) *Resolver {
	return NewResolver(store.Calendars(), store.Memberships())
}

// Resolve runs the checks in a fixed order: the calendar must exist, then
// be active, then be visible to the user. The first failure wins, so an
// inactive private calendar reports CalendarInactive, never PrivateCalendar.
func (r *Resolver) Resolve(ctx context.Context, user *model.User, tag string) (*Access, error) {
	cal, err := r.calendars.GetByTag(ctx, tag)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidTag(tag)
		}
		return nil, fmt.Errorf("membership: loading calendar %s: %w", tag, err)
	}
	if !cal.Active {
		return nil, apperror.CalendarInactive(tag)
	}

	state, err := r.lookup(ctx, user.ID, cal.ID)
	if err != nil {
		return nil, err
	}

	if state.IsMember() {
		return &Access{Calendar: cal, Role: state.Role, State: state}, nil
	}
	if !cal.Public {
		return nil, apperror.PrivateCalendar()
	}
	return &Access{Calendar: cal, Role: access.Viewer, State: state}, nil
}

func (r *Resolver) lookup(ctx context.Context, userID, calendarID string) (access.State, error) {
	m, err := r.memberships.Get(ctx, userID, calendarID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return access.StateOf(access.None, false), nil
		}
		return access.State{}, fmt.Errorf("membership: loading membership: %w", err)
	}
	return access.StateOf(m.Role, true), nil
}
