package model

import (
	"time"

	"github.com/sakif/shared-calendar/internal/access"
)

// Membership binds one user to one calendar with a role.
//
// (UserID, CalendarID) is unique. Removing someone sets Role to
// access.Deleted rather than deleting the row.
type Membership struct {
	ID         string      `json:"id"`
	UserID     string      `json:"userId"`
	CalendarID string      `json:"calendarId"`
	Role       access.Role `json:"role"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}
