package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/shared-calendar/internal/apperror"
	"github.com/sakif/shared-calendar/internal/model"
	"github.com/sakif/shared-calendar/internal/repository"
)

// ReactionStore persists per-user event scores.
type ReactionStore struct {
	q querier
}

var _ repository.ReactionRepository = (*ReactionStore)(nil)

func (s *ReactionStore) Get(ctx context.Context, userID, eventID string) (*model.Reaction, error) {
	var r model.Reaction
	err := s.q.QueryRowContext(ctx,
		`SELECT id, event_id, user_id, score, created_at, updated_at
		 FROM reactions WHERE user_id = ? AND event_id = ?`,
		userID, eventID,
	).Scan(&r.ID, &r.EventID, &r.UserID, &r.Score, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("reaction", userID+"/"+eventID)
		}
		return nil, fmt.Errorf("sqlite: getting reaction %s/%s: %w", userID, eventID, err)
	}
	return &r, nil
}

func (s *ReactionStore) Create(ctx context.Context, r *model.Reaction) error {
	now := time.Now().UTC()
	r.ID = xid.New().String()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO reactions (id, event_id, user_id, score, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.EventID, r.UserID, r.Score, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("reaction", r.UserID+"/"+r.EventID)
		}
		return fmt.Errorf("sqlite: inserting reaction on event %s: %w", r.EventID, err)
	}
	return nil
}

func (s *ReactionStore) Update(ctx context.Context, r *model.Reaction) error {
	r.UpdatedAt = time.Now().UTC()

	result, err := s.q.ExecContext(ctx,
		`UPDATE reactions SET score = ?, updated_at = ? WHERE id = ?`,
		r.Score, r.UpdatedAt, r.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating reaction %s: %w", r.ID, err)
	}
	return requireAffected(result, "reaction", r.ID)
}

// ListByEvent returns every reaction on the event, oldest first.
func (s *ReactionStore) ListByEvent(ctx context.Context, eventID string) ([]model.Reaction, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, event_id, user_id, score, created_at, updated_at
		 FROM reactions WHERE event_id = ?
		 ORDER BY created_at ASC, id ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reactions of event %s: %w", eventID, err)
	}
	defer rows.Close()

	var reactions []model.Reaction
	for rows.Next() {
		var r model.Reaction
		if err := rows.Scan(&r.ID, &r.EventID, &r.UserID, &r.Score, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning reaction row: %w", err)
		}
		reactions = append(reactions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating reactions: %w", err)
	}
	return reactions, nil
}
