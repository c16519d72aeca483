package model

import "time"

// Calendar is a shared container of events.
//
// Tag is the public, human-chosen identifier used in URLs. It is unique in
// every lifecycle state, so a deactivated calendar still reserves its tag.
type Calendar struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Tag         string    `json:"tag"`
	Description string    `json:"description"`
	Public      bool      `json:"public"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
