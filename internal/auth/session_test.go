package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/shared-calendar/internal/apperror"
	"github.com/sakif/shared-calendar/internal/model"
	"github.com/sakif/shared-calendar/internal/repository/sqlite"
)

type sessionFixture struct {
	db       *sqlite.DB
	signer   *TokenService
	resolver *SessionResolver
	user     *model.User
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	signer := newTestTokenService(t)
	user := &model.User{Tg: "alice", Username: "alice", PasswordHash: "x", Active: true}
	require.NoError(t, db.Users().Create(context.Background(), user))

	return &sessionFixture{
		db:       db,
		signer:   signer,
		resolver: NewSessionResolver(db.Tokens(), db.Users(), signer),
		user:     user,
	}
}

// issue signs a token for userID and stores it.
func (f *sessionFixture) issue(t *testing.T, userID string) *model.Token {
	t.Helper()
	issued, err := f.signer.Generate(userID)
	require.NoError(t, err)
	tok := &model.Token{ID: issued.ID, Value: issued.Value, UserID: userID}
	require.NoError(t, f.db.Tokens().Create(context.Background(), tok))
	return tok
}

func TestResolve_Valid(t *testing.T) {
	f := newSessionFixture(t)
	tok := f.issue(t, f.user.ID)

	got, err := f.resolver.Resolve(context.Background(), tok.Value)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, got.ID)
}

func TestResolve_UnknownValue(t *testing.T) {
	f := newSessionFixture(t)

	// correctly signed but never stored
	issued, err := f.signer.Generate(f.user.ID)
	require.NoError(t, err)

	for _, v := range []string{"", "garbage", issued.Value} {
		_, err := f.resolver.Resolve(context.Background(), v)
		assert.ErrorIs(t, err, apperror.ErrInvalidToken, "value %q", v)
	}
}

func TestResolve_Revoked(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	tok := f.issue(t, f.user.ID)
	require.NoError(t, f.db.Tokens().Revoke(ctx, tok.ID))

	_, err := f.resolver.Resolve(ctx, tok.Value)
	assert.ErrorIs(t, err, apperror.ErrRevokedToken)
	assert.NotErrorIs(t, err, apperror.ErrInvalidToken)
}

func TestResolve_ExpiredSignature(t *testing.T) {
	f := newSessionFixture(t)
	base := time.Now()
	f.signer.now = func() time.Time { return base }
	tok := f.issue(t, f.user.ID)

	f.signer.now = func() time.Time { return base.Add(48 * time.Hour) }
	_, err := f.resolver.Resolve(context.Background(), tok.Value)
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)
}

func TestResolve_RowDoesNotMatchClaims(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	// a stored row whose ID differs from the jti inside the value
	issued, err := f.signer.Generate(f.user.ID)
	require.NoError(t, err)
	require.NoError(t, f.db.Tokens().Create(ctx, &model.Token{ID: "other-id", Value: issued.Value, UserID: f.user.ID}))

	_, err = f.resolver.Resolve(ctx, issued.Value)
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)
}

func TestResolve_DeactivatedOwner(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	tok := f.issue(t, f.user.ID)

	f.user.Active = false
	require.NoError(t, f.db.Users().Update(ctx, f.user))

	_, err := f.resolver.Resolve(ctx, tok.Value)
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)
}
