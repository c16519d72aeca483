package sqlite

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/shared-calendar/internal/access"
	"github.com/sakif/shared-calendar/internal/apperror"
	"github.com/sakif/shared-calendar/internal/model"
	"github.com/sakif/shared-calendar/internal/repository"
)

func TestCalendarCreate_DuplicateTagAnyState(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	cal := createTestCalendar(t, db, "team", true)
	cal.Active = false
	require.NoError(t, db.Calendars().Update(ctx, cal))

	err := db.Calendars().Create(ctx, &model.Calendar{Name: "again", Tag: "team", Active: true})
	assert.ErrorIs(t, err, apperror.ErrDuplicateTag)
}

func TestCalendarUpdate_KeepsID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	cal := createTestCalendar(t, db, "team", false)

	cal.Name = "Renamed"
	cal.Description = "new"
	cal.Public = true
	require.NoError(t, db.Calendars().Update(ctx, cal))

	got, err := db.Calendars().GetByTag(ctx, "team")
	require.NoError(t, err)
	assert.Equal(t, cal.ID, got.ID)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, "new", got.Description)
	assert.True(t, got.Public)
	assert.True(t, got.Active)
}

func TestCalendarGetByTag_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Calendars().GetByTag(context.Background(), "nope")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCalendarListByPublic(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createTestCalendar(t, db, "charlie", true)
	createTestCalendar(t, db, "alpha", true)
	createTestCalendar(t, db, "bravo", true)
	createTestCalendar(t, db, "hidden", false)

	t.Run("sorted by tag", func(t *testing.T) {
		got, err := db.Calendars().ListByPublic(ctx, true, repository.PageRequest{SortBy: "tag"})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"alpha", "bravo", "charlie"}, tags(got))
	})

	t.Run("paged", func(t *testing.T) {
		got, err := db.Calendars().ListByPublic(ctx, true, repository.PageRequest{Page: 1, Size: 2, SortBy: "tag"})
		require.NoError(t, err)
		assert.Equal(t, []string{"charlie"}, tags(got))
	})

	t.Run("page past the end", func(t *testing.T) {
		got, err := db.Calendars().ListByPublic(ctx, true, repository.PageRequest{Page: math.MaxInt / 50, Size: 100})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("private only", func(t *testing.T) {
		got, err := db.Calendars().ListByPublic(ctx, false, repository.PageRequest{})
		require.NoError(t, err)
		assert.Equal(t, []string{"hidden"}, tags(got))
	})

	t.Run("unknown sort field", func(t *testing.T) {
		_, err := db.Calendars().ListByPublic(ctx, true, repository.PageRequest{SortBy: "tag; DROP TABLE calendars"})
		assert.ErrorIs(t, err, apperror.ErrBadRequest)
	})
}

// =========================================================================
// MEMBERSHIP TESTS
// =========================================================================

func TestMembershipCreateGetUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")
	cal := createTestCalendar(t, db, "team", false)

	_, err := db.Memberships().Get(ctx, u.ID, cal.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	m := &model.Membership{UserID: u.ID, CalendarID: cal.ID, Role: access.Viewer}
	require.NoError(t, db.Memberships().Create(ctx, m))

	dup := &model.Membership{UserID: u.ID, CalendarID: cal.ID, Role: access.Moderator}
	assert.ErrorIs(t, db.Memberships().Create(ctx, dup), apperror.ErrConflict)

	m.Role = access.Deleted
	require.NoError(t, db.Memberships().Update(ctx, m))

	got, err := db.Memberships().Get(ctx, u.ID, cal.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, access.Deleted, got.Role)
}

func TestMembershipListCalendarsForUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")

	roles := map[string]access.Role{
		"admin-cal":  access.Administrator,
		"viewer-cal": access.Viewer,
		"gone-cal":   access.Deleted,
	}
	for tag, role := range roles {
		cal := createTestCalendar(t, db, tag, false)
		require.NoError(t, db.Memberships().Create(ctx, &model.Membership{UserID: u.ID, CalendarID: cal.ID, Role: role}))
	}
	createTestCalendar(t, db, "unrelated", true)

	allowed, err := db.Memberships().ListCalendarsForUser(ctx, u.ID,
		[]access.Role{access.Administrator, access.Organizer, access.Moderator, access.Viewer},
		repository.PageRequest{SortBy: "tag"})
	require.NoError(t, err)
	assert.Equal(t, []string{"admin-cal", "viewer-cal"}, tags(allowed))

	own, err := db.Memberships().ListCalendarsForUser(ctx, u.ID,
		[]access.Role{access.Administrator}, repository.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"admin-cal"}, tags(own))

	none, err := db.Memberships().ListCalendarsForUser(ctx, u.ID, nil, repository.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func tags(cals []model.Calendar) []string {
	out := make([]string, len(cals))
	for i, c := range cals {
		out[i] = c.Tag
	}
	return out
}
