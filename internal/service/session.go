// Package service holds the business rules. Handlers call services;
// services call repositories. Nothing in here knows about HTTP.
package service

import (
	"context"

	"github.com/sakif/shared-calendar/internal/model"
)

// Sessions resolves a presented token to the acting user.
// *auth.SessionResolver is the production implementation.
type Sessions interface {
	Resolve(ctx context.Context, token string) (*model.User, error)
}
