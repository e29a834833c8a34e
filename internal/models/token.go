package models

import "time"

// Status is the state captured by one transition record.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// Token is one row of the tokens table. Several rows share a TokenID, one per
// state the token has passed through.
//
// Amount keeps the decimal text exactly as the store returned it.
type Token struct {
	TokenID   string    `db:"token_id"`
	ReserveID string    `db:"reserve_id"`
	Amount    string    `db:"amount"`
	IssuedAt  time.Time `db:"issued_at"`
	ExpiresAt time.Time `db:"expires_at"`
	Status    Status    `db:"status"`
}

// Expired returns the transition record that closes t. Only the status differs.
func (t Token) Expired() Token {
	t.Status = StatusExpired
	return t
}

// Lapsed reports whether t has reached its expiry at the reference time now.
func (t Token) Lapsed(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
