package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/shared-calendar/internal/apperror"
	"github.com/sakif/shared-calendar/internal/auth"
	"github.com/sakif/shared-calendar/internal/model"
	"github.com/sakif/shared-calendar/internal/repository"
)

// RegisterInput is what a new account is created from.
type RegisterInput struct {
	Tg       string
	Username string
	Password string
	Email    string
	Phone    string
}

// ProfileChanges lists the fields UpdateProfile may overwrite. Nil keeps
// the current value.
type ProfileChanges struct {
	Username *string
	Password *string
	Email    *string
	Phone    *string
}

// LoginResult bundles the user and the session token issued for them.
type LoginResult struct {
	User  *model.User
	Token string
}

// UserService handles the account lifecycle: register, login, profile
// changes, logout and deactivation.
type UserService struct {
	store     repository.Store
	sessions  Sessions
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewUserService(
	store repository.Store,
	sessions Sessions,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		store:     store,
		sessions:  sessions,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates an active account. A taken tg is a conflict.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Tg = strings.TrimSpace(in.Tg)
	in.Username = strings.TrimSpace(in.Username)
	if in.Tg == "" {
		return nil, apperror.ValidationFailed("tg", "tg is required")
	}
	if in.Username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if in.Password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Tg:           in.Tg,
		Username:     in.Username,
		PasswordHash: hash,
		Email:        strings.TrimSpace(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		Active:       true,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("id", user.ID),
		slog.String("tg", user.Tg),
	)
	return user, nil
}

// Login checks the credentials and issues a fresh session. Every session
// the user held before is revoked, so one token is valid at a time.
func (s *UserService) Login(ctx context.Context, tg, username, password string) (*LoginResult, error) {
	tg = strings.TrimSpace(tg)

	user, err := s.store.Users().GetByTg(ctx, tg)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.UserNotFound(tg)
		}
		return nil, fmt.Errorf("logging in: %w", err)
	}
	if !user.Active {
		return nil, apperror.Forbidden("this account has been deleted")
	}
	if user.Username != strings.TrimSpace(username) {
		return nil, apperror.WrongUser("username does not match this tg")
	}
	if err := s.checkPassword(user, password); err != nil {
		return nil, err
	}

	issued, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Tokens().RevokeAllForUser(ctx, user.ID); err != nil {
			return err
		}
		return tx.Tokens().Create(ctx, &model.Token{
			ID:     issued.ID,
			Value:  issued.Value,
			UserID: user.ID,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	s.logger.Info("user logged in", slog.String("id", user.ID))
	return &LoginResult{User: user, Token: issued.Value}, nil
}

// UpdateProfile applies changes after confirming the current password.
func (s *UserService) UpdateProfile(ctx context.Context, token, currentPassword string, changes ProfileChanges) (*model.User, error) {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.checkPassword(user, currentPassword); err != nil {
		return nil, err
	}

	if changes.Username != nil {
		name := strings.TrimSpace(*changes.Username)
		if name == "" {
			return nil, apperror.ValidationFailed("username", "username cannot be empty")
		}
		user.Username = name
	}
	if changes.Password != nil {
		if *changes.Password == "" {
			return nil, apperror.ValidationFailed("password", "password cannot be empty")
		}
		hash, err := s.passwords.Hash(*changes.Password)
		if err != nil {
			return nil, apperror.ValidationFailed("password", err.Error())
		}
		user.PasswordHash = hash
	}
	if changes.Email != nil {
		user.Email = strings.TrimSpace(*changes.Email)
	}
	if changes.Phone != nil {
		user.Phone = strings.TrimSpace(*changes.Phone)
	}

	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	s.logger.Info("profile updated", slog.String("id", user.ID))
	return user, nil
}

// Logout revokes the presented token.
func (s *UserService) Logout(ctx context.Context, token string) error {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return err
	}

	rec, err := s.store.Tokens().GetByValue(ctx, token)
	if err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	if err := s.store.Tokens().Revoke(ctx, rec.ID); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}

	s.logger.Info("user logged out", slog.String("id", user.ID))
	return nil
}

// DeleteAccount deactivates the caller after confirming the password and
// revokes all of their sessions. Calendars, memberships and events they
// own are left untouched.
func (s *UserService) DeleteAccount(ctx context.Context, token, password string) error {
	user, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return err
	}
	if err := s.checkPassword(user, password); err != nil {
		return err
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Tokens().RevokeAllForUser(ctx, user.ID); err != nil {
			return err
		}
		user.Active = false
		return tx.Users().Update(ctx, user)
	})
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}

	s.logger.Info("user deactivated", slog.String("id", user.ID))
	return nil
}

func (s *UserService) checkPassword(user *model.User, password string) error {
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperror.WrongPassword()
		}
		return fmt.Errorf("checking password: %w", err)
	}
	return nil
}
