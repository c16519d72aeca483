package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/shared-calendar/internal/access"
	"github.com/sakif/shared-calendar/internal/apperror"
	"github.com/sakif/shared-calendar/internal/auth"
	"github.com/sakif/shared-calendar/internal/model"
	"github.com/sakif/shared-calendar/internal/repository/sqlite"
)

// =========================================================================
// HARNESS
// =========================================================================
//
// Services are tested against a real in-memory SQLite store and the real
// token and password services. Logs are discarded.

type harness struct {
	db        *sqlite.DB
	users     *UserService
	calendars *CalendarService
	events    *EventService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("service-test-secret-0123456789", time.Hour)
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	sessions := auth.NewSessionResolver(db.Tokens(), db.Users(), tokens)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &harness{
		db:        db,
		users:     NewUserService(db, sessions, tokens, passwords, logger),
		calendars: NewCalendarService(db, sessions, logger),
		events:    NewEventService(db, sessions, logger),
	}
}

// account is a registered, logged-in user.
type account struct {
	user  *model.User
	token string
}

func (h *harness) signup(t *testing.T, tg string) account {
	t.Helper()
	ctx := context.Background()
	_, err := h.users.Register(ctx, RegisterInput{Tg: tg, Username: tg, Password: tg + "-pw"})
	require.NoError(t, err)
	res, err := h.users.Login(ctx, tg, tg, tg+"-pw")
	require.NoError(t, err)
	return account{user: res.User, token: res.Token}
}

func (h *harness) calendar(t *testing.T, owner account, tag string, public bool) *model.Calendar {
	t.Helper()
	cal, err := h.calendars.Create(context.Background(), owner.token, CalendarInput{
		Name: "Calendar " + tag, Tag: tag, Public: public,
	})
	require.NoError(t, err)
	return cal
}

// grant writes a membership directly, bypassing the role rules.
func (h *harness) grant(t *testing.T, who account, cal *model.Calendar, role access.Role) {
	t.Helper()
	ctx := context.Background()
	m, err := h.db.Memberships().Get(ctx, who.user.ID, cal.ID)
	if errors.Is(err, apperror.ErrNotFound) {
		require.NoError(t, h.db.Memberships().Create(ctx, &model.Membership{
			UserID: who.user.ID, CalendarID: cal.ID, Role: role,
		}))
		return
	}
	require.NoError(t, err)
	m.Role = role
	require.NoError(t, h.db.Memberships().Update(ctx, m))
}

func (h *harness) roleOf(t *testing.T, who account, cal *model.Calendar) (access.Role, bool) {
	t.Helper()
	m, err := h.db.Memberships().Get(context.Background(), who.user.ID, cal.ID)
	if errors.Is(err, apperror.ErrNotFound) {
		return access.None, false
	}
	require.NoError(t, err)
	return m.Role, true
}

// messageOf extracts the human-readable message from an AppError chain.
func messageOf(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected an AppError, got %v", err)
	return appErr.Message
}
