package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/shared-calendar/internal/apperror"
	"github.com/sakif/shared-calendar/internal/model"
	"github.com/sakif/shared-calendar/internal/repository"
)

// TokenStore persists sessions. Token IDs are assigned by the caller
// because the same ID is embedded in the signed value.
type TokenStore struct {
	q querier
}

var _ repository.TokenRepository = (*TokenStore)(nil)

func (s *TokenStore) Create(ctx context.Context, token *model.Token) error {
	if token.ID == "" {
		return fmt.Errorf("sqlite: creating token: id must be set")
	}
	token.CreatedAt = time.Now().UTC()

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO tokens (id, value, user_id, revoked, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		token.ID,
		token.Value,
		token.UserID,
		token.Revoked,
		token.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("token", token.ID)
		}
		return fmt.Errorf("sqlite: inserting token for user %s: %w", token.UserID, err)
	}
	return nil
}

// GetByValue returns the token record whose value matches exactly,
// revoked or not.
func (s *TokenStore) GetByValue(ctx context.Context, value string) (*model.Token, error) {
	var t model.Token
	err := s.q.QueryRowContext(ctx,
		`SELECT id, value, user_id, revoked, created_at FROM tokens WHERE value = ?`,
		value,
	).Scan(&t.ID, &t.Value, &t.UserID, &t.Revoked, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("token", "(value)")
		}
		return nil, fmt.Errorf("sqlite: getting token by value: %w", err)
	}
	return &t, nil
}

// Revoke marks one token revoked. Revoking twice is not an error.
func (s *TokenStore) Revoke(ctx context.Context, id string) error {
	result, err := s.q.ExecContext(ctx,
		`UPDATE tokens SET revoked = 1 WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: revoking token %s: %w", id, err)
	}
	return requireAffected(result, "token", id)
}

func (s *TokenStore) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	result, err := s.q.ExecContext(ctx,
		`UPDATE tokens SET revoked = 1 WHERE user_id = ? AND revoked = 0`, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: revoking tokens of user %s: %w", userID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting revoked tokens of user %s: %w", userID, err)
	}
	return n, nil
}
