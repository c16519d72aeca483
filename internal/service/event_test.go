package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/shared-calendar/internal/access"
	"github.com/sakif/shared-calendar/internal/apperror"
	"github.com/sakif/shared-calendar/internal/model"
)

var eventStart = time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC)

func validEvent(title string) EventInput {
	return EventInput{
		Title:   title,
		Address: "Main hall",
		Start:   eventStart,
		End:     eventStart.Add(90 * time.Minute),
	}
}

// =========================================================================
// CREATE EVENT
// =========================================================================

func TestCreateEvent_RoleGate(t *testing.T) {
	tests := []struct {
		role    access.Role
		public  bool
		wantErr error
		wantMsg string
	}{
		{role: access.None, public: true, wantErr: apperror.ErrInsufficientRights, wantMsg: "you can only view it"},
		{role: access.None, public: false, wantErr: apperror.ErrPrivateCalendar},
		{role: access.Viewer, wantErr: apperror.ErrInsufficientRights, wantMsg: "viewers can't"},
		{role: access.Moderator},
		{role: access.Organizer},
		{role: access.Administrator},
	}

	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			h := newHarness(t)
			owner := h.signup(t, "owner")
			caller := h.signup(t, "caller")
			cal := h.calendar(t, owner, "team", tt.public)
			if tt.role != access.None {
				h.grant(t, caller, cal, tt.role)
			}

			e, err := h.events.CreateEvent(context.Background(), caller.token, "team", validEvent("Party"))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.wantMsg != "" {
					assert.Contains(t, messageOf(t, err), tt.wantMsg)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, caller.user.ID, e.UserID)
			assert.Equal(t, cal.ID, e.CalendarID)
			assert.Equal(t, model.EventActive, e.Status)
			assert.Zero(t, e.AverageRating)
		})
	}
}

func TestCreateEvent_Validation(t *testing.T) {
	h := newHarness(t)
	owner := h.signup(t, "owner")
	h.calendar(t, owner, "team", false)

	backwards := validEvent("Backwards")
	backwards.End = backwards.Start.Add(-time.Minute)

	tests := []struct {
		name string
		in   EventInput
	}{
		{name: "no title", in: validEvent("   ")},
		{name: "no start", in: EventInput{Title: "x"}},
		{name: "ends before start", in: backwards},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.events.CreateEvent(context.Background(), owner.token, "team", tt.in)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestCreateEvent_OffsetTimesRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.signup(t, "owner")
	h.calendar(t, owner, "team", true)

	moscow := time.FixedZone("", 3*60*60)
	start := time.Date(2026, 5, 1, 19, 0, 0, 0, moscow)
	e, err := h.events.CreateEvent(ctx, owner.token, "team", EventInput{Title: "Party", Start: start})
	require.NoError(t, err)
	assert.True(t, e.Start.Equal(start))
	assert.Equal(t, time.UTC, e.Start.Location())

	avg, err := h.events.React(ctx, owner.token, "team", e.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5.0, avg)

	later := start.Add(time.Hour)
	updated, err := h.events.ManageEvent(ctx, owner.token, "team", e.ID, EventInput{
		Title: "Party", Start: later, End: later.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.True(t, updated.Start.Equal(later))
	assert.Equal(t, 5.0, updated.AverageRating)
}

// =========================================================================
// MANAGE EVENT
// =========================================================================

func TestManageEvent_OwnerKeepsIDAndRating(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.signup(t, "owner")
	fan := h.signup(t, "fan")
	h.calendar(t, owner, "team", true)

	e, err := h.events.CreateEvent(ctx, owner.token, "team", validEvent("Party"))
	require.NoError(t, err)
	_, err = h.events.React(ctx, fan.token, "team", e.ID, 4)
	require.NoError(t, err)

	in := validEvent("Bigger party")
	in.Status = model.EventCancelled
	got, err := h.events.ManageEvent(ctx, owner.token, "team", e.ID, in)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, "Bigger party", got.Title)
	assert.Equal(t, model.EventCancelled, got.Status)
	assert.Equal(t, 4.0, got.AverageRating)
}

func TestManageEvent_Rejects(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.signup(t, "owner")
	coadmin := h.signup(t, "coadmin")
	viewer := h.signup(t, "viewer")
	cal := h.calendar(t, owner, "team", false)
	h.calendar(t, owner, "other", false)
	h.grant(t, coadmin, cal, access.Organizer)
	h.grant(t, viewer, cal, access.Viewer)

	e, err := h.events.CreateEvent(ctx, owner.token, "team", validEvent("Party"))
	require.NoError(t, err)

	_, err = h.events.ManageEvent(ctx, coadmin.token, "team", e.ID, validEvent("Mine now"))
	assert.ErrorIs(t, err, apperror.ErrWrongUser, "rank does not replace ownership")

	_, err = h.events.ManageEvent(ctx, viewer.token, "team", e.ID, validEvent("x"))
	assert.ErrorIs(t, err, apperror.ErrInsufficientRights)

	_, err = h.events.ManageEvent(ctx, owner.token, "team", "missing", validEvent("x"))
	assert.ErrorIs(t, err, apperror.ErrEventNotFound)

	_, err = h.events.ManageEvent(ctx, owner.token, "other", e.ID, validEvent("x"))
	assert.ErrorIs(t, err, apperror.ErrEventNotFound, "event addressed through another calendar")
}

func TestManageEvent_OwnerDemotedToViewer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.signup(t, "owner")
	author := h.signup(t, "author")
	cal := h.calendar(t, owner, "team", false)
	h.grant(t, author, cal, access.Organizer)

	e, err := h.events.CreateEvent(ctx, author.token, "team", validEvent("Talk"))
	require.NoError(t, err)

	h.grant(t, author, cal, access.Viewer)
	_, err = h.events.ManageEvent(ctx, author.token, "team", e.ID, validEvent("Edited"))
	assert.ErrorIs(t, err, apperror.ErrInsufficientRights)
}

// =========================================================================
// REACT
// =========================================================================

func TestReact_AverageIsMeanOfAllReactions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.signup(t, "owner")
	a := h.signup(t, "a")
	b := h.signup(t, "b")
	h.calendar(t, owner, "team", true)

	e, err := h.events.CreateEvent(ctx, owner.token, "team", validEvent("Party"))
	require.NoError(t, err)

	_, err = h.events.React(ctx, a.token, "team", e.ID, 3.0)
	require.NoError(t, err)
	_, err = h.events.React(ctx, b.token, "team", e.ID, 5.0)
	require.NoError(t, err)

	got, err := h.events.React(ctx, owner.token, "team", e.ID, 4.0)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got, "React returns the submitted score")

	stored, err := h.db.Events().GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, stored.AverageRating, 1e-9)

	// b changes their mind: {3, 1, 4} -> 8/3
	_, err = h.events.React(ctx, b.token, "team", e.ID, 1.0)
	require.NoError(t, err)
	stored, _ = h.db.Events().GetByID(ctx, e.ID)
	assert.InDelta(t, 8.0/3.0, stored.AverageRating, 1e-9)
}

func TestReact_Idempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.signup(t, "owner")
	h.calendar(t, owner, "team", false)
	e, err := h.events.CreateEvent(ctx, owner.token, "team", validEvent("Party"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := h.events.React(ctx, owner.token, "team", e.ID, 2.5)
		require.NoError(t, err)
	}

	reactions, err := h.db.Reactions().ListByEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, reactions, 1)

	stored, _ := h.db.Events().GetByID(ctx, e.ID)
	assert.Equal(t, 2.5, stored.AverageRating)
}

func TestReact_Visibility(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.signup(t, "owner")
	stranger := h.signup(t, "stranger")
	h.calendar(t, owner, "open", true)
	h.calendar(t, owner, "closed", false)

	open, err := h.events.CreateEvent(ctx, owner.token, "open", validEvent("Open"))
	require.NoError(t, err)
	closed, err := h.events.CreateEvent(ctx, owner.token, "closed", validEvent("Closed"))
	require.NoError(t, err)

	_, err = h.events.React(ctx, stranger.token, "open", open.ID, 5)
	assert.NoError(t, err, "any visible calendar accepts reactions")

	_, err = h.events.React(ctx, stranger.token, "closed", closed.ID, 5)
	assert.ErrorIs(t, err, apperror.ErrPrivateCalendar)

	_, err = h.events.React(ctx, stranger.token, "open", "missing", 5)
	assert.ErrorIs(t, err, apperror.ErrEventNotFound)

	require.NoError(t, h.calendars.Delete(ctx, owner.token, "closed"))
	_, err = h.events.React(ctx, stranger.token, "closed", closed.ID, 5)
	assert.ErrorIs(t, err, apperror.ErrCalendarInactive, "inactive wins over private")
}

func TestReact_RejectsNonFiniteScore(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.signup(t, "owner")
	h.calendar(t, owner, "team", false)
	e, err := h.events.CreateEvent(ctx, owner.token, "team", validEvent("Party"))
	require.NoError(t, err)

	for _, score := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := h.events.React(ctx, owner.token, "team", e.ID, score)
		assert.ErrorIs(t, err, apperror.ErrBadRequest)
	}
}

func TestMeanScore(t *testing.T) {
	assert.Zero(t, meanScore(nil))
	assert.Equal(t, 4.0, meanScore([]model.Reaction{{Score: 3}, {Score: 5}, {Score: 4}}))
}
