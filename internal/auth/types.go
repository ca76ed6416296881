package auth

import "time"

// RefreshToken is a persisted refresh-token row. The raw token value never
// touches storage; only its SHA-256 digest does. A row is Active until it
// is revoked by rotation or logout; expiry is derived at read time from
// ExpiresAt, never stored as a state transition.
type RefreshToken struct {
	ID        string
	TokenHash string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// TokenPair carries freshly minted credentials back to the caller.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Result is the outcome of a login or refresh call. Failed attempts carry
// only the uniform message; internal faults surface as errors instead.
type Result struct {
	OK      bool       `json:"ok"`
	Pair    *TokenPair `json:"tokens,omitempty"`
	Message string     `json:"message"`
}
