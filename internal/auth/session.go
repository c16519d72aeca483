package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakif/shared-calendar/internal/apperror"
	"github.com/sakif/shared-calendar/internal/model"
	"github.com/sakif/shared-calendar/internal/repository"
)

// SessionResolver turns a presented token value into the acting user.
// It only reads; every request resolves again from scratch.
type SessionResolver struct {
	tokens repository.TokenRepository
	users  repository.UserRepository
	signer *TokenService
}

func NewSessionResolver(tokens repository.TokenRepository, users repository.UserRepository, signer *TokenService) *SessionResolver {
	return &SessionResolver{tokens: tokens, users: users, signer: signer}
}

// Resolve checks, in order: the token row exists, it is not revoked, the
// JWT verifies and names that row, and the owner is an active user.
// The first failing check decides the error.
func (r *SessionResolver) Resolve(ctx context.Context, value string) (*model.User, error) {
	if value == "" {
		return nil, apperror.InvalidToken("no token was presented")
	}

	rec, err := r.tokens.GetByValue(ctx, value)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidToken("user's token is invalid")
		}
		return nil, fmt.Errorf("auth: looking up token: %w", err)
	}
	if rec.Revoked {
		return nil, apperror.RevokedToken()
	}

	claims, err := r.signer.Validate(value)
	if err != nil {
		return nil, apperror.InvalidToken("user's token is invalid")
	}
	if claims.TokenID != rec.ID || claims.UserID != rec.UserID {
		return nil, apperror.InvalidToken("user's token is invalid")
	}

	user, err := r.users.GetByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidToken("token owner no longer exists")
		}
		return nil, fmt.Errorf("auth: looking up token owner: %w", err)
	}
	if !user.Active {
		return nil, apperror.InvalidToken("token owner is deactivated")
	}

	return user, nil
}
