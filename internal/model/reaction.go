package model

import "time"

// Reaction is one user's score for one event. (UserID, EventID) is unique;
// resubmitting overwrites Score.
type Reaction struct {
	ID        string    `json:"id"`
	EventID   string    `json:"eventId"`
	UserID    string    `json:"userId"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
