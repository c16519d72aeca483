package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/shared-calendar/internal/access"
	"github.com/sakif/shared-calendar/internal/apperror"
	"github.com/sakif/shared-calendar/internal/membership"
	"github.com/sakif/shared-calendar/internal/model"
	"github.com/sakif/shared-calendar/internal/repository"
)

const (
	MaxCalendarNameLength = 100
	MaxTagLength          = 64
)

// Calendar listing filters.
const (
	FilterPublic  = "PUBLIC"
	FilterAllowed = "ALLOWED"
	FilterOwn     = "OWN"
)

const viewOnly = "you are not a member of this calendar, you can't %s, you can only view it"

// CalendarInput is the caller-supplied part of a new calendar.
type CalendarInput struct {
	Name        string
	Tag         string
	Description string
	Public      bool
}

// CalendarChanges lists the fields Manage may overwrite. Nil keeps the
// current value.
type CalendarChanges struct {
	Name        *string
	Description *string
	Public      *bool
	Active      *bool
}

// CalendarService enforces who may create, change, delete, staff and list
// calendars.
type CalendarService struct {
	store    repository.Store
	sessions Sessions
	logger   *slog.Logger
}

func NewCalendarService(store repository.Store, sessions Sessions, logger *slog.Logger) *CalendarService {
	return &CalendarService{
		store:    store,
		sessions: sessions,
		logger:   logger,
	}
}

// Create registers a new calendar and makes the caller its ADMINISTRATOR.
// Tags are unique across active and deleted calendars.
func (s *CalendarService) Create(ctx context.Context, token string, in CalendarInput) (*model.Calendar, error) {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Tag = strings.TrimSpace(in.Tag)
	if err := validateCalendarInput(in); err != nil {
		return nil, err
	}

	cal := &model.Calendar{
		Name:        in.Name,
		Tag:         in.Tag,
		Description: strings.TrimSpace(in.Description),
		Public:      in.Public,
		Active:      true,
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		_, err := tx.Calendars().GetByTag(ctx, cal.Tag)
		switch {
		case err == nil:
			return apperror.DuplicateTag(cal.Tag)
		case !errors.Is(err, apperror.ErrNotFound):
			return err
		}

		if err := tx.Calendars().Create(ctx, cal); err != nil {
			return err
		}
		return tx.Memberships().Create(ctx, &model.Membership{
			UserID:     user.ID,
			CalendarID: cal.ID,
			Role:       access.Administrator,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("creating calendar: %w", err)
	}

	s.logger.Info("calendar created",
		slog.String("id", cal.ID),
		slog.String("tag", cal.Tag),
		slog.String("owner", user.ID),
	)
	return cal, nil
}

// Manage changes a calendar's attributes in place. Members at MODERATOR or
// above may do this.
func (s *CalendarService) Manage(ctx context.Context, token, tag string, changes CalendarChanges) (*model.Calendar, error) {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	var cal *model.Calendar
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		acc, err := membership.ForStore(tx).Resolve(ctx, user, tag)
		if err != nil {
			return err
		}
		if !acc.Member() {
			return apperror.InsufficientRights(fmt.Sprintf(viewOnly, "manage this calendar"))
		}
		if !acc.Role.AtLeast(access.Moderator) {
			return apperror.InsufficientRights("you do not have access rights to change this calendar")
		}

		cal = acc.Calendar
		if changes.Name != nil {
			name := strings.TrimSpace(*changes.Name)
			if err := validateCalendarName(name); err != nil {
				return err
			}
			cal.Name = name
		}
		if changes.Description != nil {
			cal.Description = strings.TrimSpace(*changes.Description)
		}
		if changes.Public != nil {
			cal.Public = *changes.Public
		}
		if changes.Active != nil {
			cal.Active = *changes.Active
		}
		return tx.Calendars().Update(ctx, cal)
	})
	if err != nil {
		return nil, fmt.Errorf("managing calendar %s: %w", tag, err)
	}

	s.logger.Info("calendar updated",
		slog.String("tag", tag),
		slog.String("by", user.ID),
	)
	return cal, nil
}

// Delete deactivates a calendar. Only its ADMINISTRATOR may do this; the
// row and its tag stay reserved.
func (s *CalendarService) Delete(ctx context.Context, token, tag string) error {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return err
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		acc, err := membership.ForStore(tx).Resolve(ctx, user, tag)
		if err != nil {
			return err
		}
		if !acc.Member() {
			return apperror.InsufficientRights(fmt.Sprintf(viewOnly, "delete this calendar"))
		}
		if !acc.Role.Same(access.Administrator) {
			return apperror.InsufficientRights("you do not have access rights to delete this calendar")
		}

		acc.Calendar.Active = false
		return tx.Calendars().Update(ctx, acc.Calendar)
	})
	if err != nil {
		return fmt.Errorf("deleting calendar %s: %w", tag, err)
	}

	s.logger.Info("calendar deleted",
		slog.String("tag", tag),
		slog.String("by", user.ID),
	)
	return nil
}

// AssignRole grants targetTg the given role on the calendar, creating the
// membership if needed. Passing DELETED removes the target.
//
// Checks run in this order and the first failure wins:
//  1. calendar resolution for the caller
//  2. a public non-member caller can only view
//  3. the requested role must be a known role
//  4. the target must be an active user
//  5. the caller must be at least MODERATOR
//  6. the requested role must be below the caller's
//  7. two ADMINISTRATORs never change each other
//  8. the target's current role must be below the caller's
func (s *CalendarService) AssignRole(ctx context.Context, token, tag, targetTg, role string) (*model.Membership, error) {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	var (
		requested access.Role
		result    *model.Membership
	)
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		acc, err := membership.ForStore(tx).Resolve(ctx, user, tag)
		if err != nil {
			return err
		}
		if !acc.Member() {
			return apperror.InsufficientRights(fmt.Sprintf(viewOnly, "manage this calendar's users"))
		}

		requested, err = access.ParseRole(role)
		if err != nil {
			return apperror.BadRequest("role", fmt.Sprintf("unknown role %q", role))
		}

		target, err := tx.Users().GetByTg(ctx, targetTg)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return apperror.UserNotFound(targetTg)
			}
			return err
		}
		if !target.Active {
			return apperror.UserNotFound(targetTg)
		}

		caller := acc.Role
		if !caller.AtLeast(access.Moderator) {
			return apperror.InsufficientRights("you have no rights to manage users of this calendar")
		}
		if requested.AtLeast(caller) {
			return apperror.InsufficientRights("you can't grant a role equal to or higher than yours")
		}

		existing, err := tx.Memberships().Get(ctx, target.ID, acc.Calendar.ID)
		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		current := access.StateOf(access.None, false)
		if existing != nil {
			current = access.StateOf(existing.Role, true)
		}

		if caller.Same(access.Administrator) && current.Effective().Same(access.Administrator) {
			return apperror.InsufficientRights("you can't change access of another administrator")
		}
		if current.Effective().AtLeast(caller) {
			return apperror.InsufficientRights("you can't manage a user with access equal to or higher than yours")
		}

		if existing != nil {
			existing.Role = requested
			result = existing
			return tx.Memberships().Update(ctx, existing)
		}
		result = &model.Membership{
			UserID:     target.ID,
			CalendarID: acc.Calendar.ID,
			Role:       requested,
		}
		return tx.Memberships().Create(ctx, result)
	})
	if err != nil {
		return nil, fmt.Errorf("assigning role on %s: %w", tag, err)
	}

	s.logger.Info("role assigned",
		slog.String("tag", tag),
		slog.String("target", targetTg),
		slog.String("role", requested.String()),
		slog.String("by", user.ID),
	)
	return result, nil
}

// List returns one page of calendars selected by filter:
//
//	PUBLIC  - every public calendar
//	ALLOWED - calendars where the caller holds any live membership
//	OWN     - calendars the caller administers
func (s *CalendarService) List(ctx context.Context, token, filter string, page repository.PageRequest) ([]model.Calendar, error) {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	page = page.Normalize()
	if !repository.ValidCalendarSort(page.SortBy) {
		return nil, apperror.BadRequest("sortBy",
			fmt.Sprintf("cannot sort calendars by %q, use one of %s", page.SortBy, strings.Join(repository.CalendarSortFields, ", ")))
	}

	var cals []model.Calendar
	switch strings.ToUpper(strings.TrimSpace(filter)) {
	case FilterPublic:
		cals, err = s.store.Calendars().ListByPublic(ctx, true, page)
	case FilterAllowed:
		cals, err = s.store.Memberships().ListCalendarsForUser(ctx, user.ID,
			[]access.Role{access.Administrator, access.Organizer, access.Moderator, access.Viewer}, page)
	case FilterOwn:
		cals, err = s.store.Memberships().ListCalendarsForUser(ctx, user.ID,
			[]access.Role{access.Administrator}, page)
	default:
		return nil, apperror.BadRequest("type",
			fmt.Sprintf("unknown calendar filter %q, use PUBLIC, ALLOWED or OWN", filter))
	}
	if err != nil {
		s.logger.Error("failed to list calendars",
			slog.String("filter", filter),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing calendars: %w", err)
	}
	return cals, nil
}

func validateCalendarInput(in CalendarInput) error {
	if err := validateCalendarName(in.Name); err != nil {
		return err
	}
	if in.Tag == "" {
		return apperror.ValidationFailed("tag", "calendar tag is required")
	}
	if len(in.Tag) > MaxTagLength {
		return apperror.ValidationFailed("tag",
			fmt.Sprintf("calendar tag must be %d characters or less", MaxTagLength))
	}
	if strings.ContainsAny(in.Tag, " /?#") {
		return apperror.ValidationFailed("tag", "calendar tag must not contain spaces, '/', '?' or '#'")
	}
	return nil
}

func validateCalendarName(name string) error {
	if name == "" {
		return apperror.ValidationFailed("name", "calendar name is required")
	}
	if len(name) > MaxCalendarNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("calendar name must be %d characters or less", MaxCalendarNameLength))
	}
	return nil
}
