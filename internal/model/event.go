package model

import "time"

// EventStatus is free-form but defaults to EventActive.
type EventStatus string

const (
	EventActive    EventStatus = "ACTIVE"
	EventCancelled EventStatus = "CANCELLED"
)

// Event belongs to a calendar and is owned by the user who created it.
// AverageRating is derived from the event's reactions and is never set by
// callers directly.
type Event struct {
	ID            string      `json:"id"`
	CalendarID    string      `json:"calendarId"`
	UserID        string      `json:"userId"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Address       string      `json:"address"`
	Start         time.Time   `json:"start"`
	End           time.Time   `json:"end"`
	Status        EventStatus `json:"status"`
	AverageRating float64     `json:"averageRating"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}
