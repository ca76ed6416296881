package auth

import "context"

// TokenStore persists refresh tokens. Implementations must keep the
// read-then-write paths consistent under concurrent use: Revoke is the
// serialization point for rotation.
type TokenStore interface {
	Insert(ctx context.Context, tok *RefreshToken) error

	// FindActiveByHash returns the non-revoked row matching the hash, or
	// ErrNotFound. Expiry is the caller's check.
	FindActiveByHash(ctx context.Context, hash string) (*RefreshToken, error)

	// FindByHash returns the row matching the hash regardless of state, or
	// ErrNotFound.
	FindByHash(ctx context.Context, hash string) (*RefreshToken, error)

	// Revoke flips the revoked flag as a compare-and-swap: it returns
	// ErrNotFound when the row is absent or already revoked, so of two
	// concurrent rotations exactly one wins.
	Revoke(ctx context.Context, id string) error
}
