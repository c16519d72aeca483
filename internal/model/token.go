package model

import "time"

// Token is a persisted session.
//
// Value is the signed JWT handed to the client. ID doubles as the JWT "jti"
// claim, so a value that verifies but whose jti has no row is rejected.
// Revoked tokens are kept so a replayed value reports "revoked" rather than
// "invalid".
type Token struct {
	ID        string    `json:"id"`
	Value     string    `json:"value"`
	UserID    string    `json:"userId"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"createdAt"`
}
