package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/wingettech/directory-service/internal/ids"
)

var _ TokenStore = (*PGTokenStore)(nil)

// PGTokenStore implements TokenStore over PostgreSQL.
type PGTokenStore struct {
	db *sql.DB
}

func NewPGTokenStore(db *sql.DB) *PGTokenStore {
	return &PGTokenStore{db: db}
}

func (s *PGTokenStore) Insert(ctx context.Context, tok *RefreshToken) error {
	if tok.ID == "" {
		tok.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into refresh_tokens(id, token_hash, username, created_at, expires_at, revoked)
		 values($1,$2,$3,$4,$5,$6)`,
		tok.ID, tok.TokenHash, tok.Username, tok.CreatedAt, tok.ExpiresAt, tok.Revoked,
	)
	return err
}

func (s *PGTokenStore) FindActiveByHash(ctx context.Context, hash string) (*RefreshToken, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, token_hash, username, created_at, expires_at, revoked
		 from refresh_tokens where token_hash=$1 and not revoked`, hash)
	return scanToken(row)
}

func (s *PGTokenStore) FindByHash(ctx context.Context, hash string) (*RefreshToken, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, token_hash, username, created_at, expires_at, revoked
		 from refresh_tokens where token_hash=$1`, hash)
	return scanToken(row)
}

// Revoke flips the revoked flag only while it is still clear. The predicate
// makes rotation a compare-and-swap: a concurrent refresh that lost the
// race observes ErrNotFound.
func (s *PGTokenStore) Revoke(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`update refresh_tokens set revoked=true where id=$1 and not revoked`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired removes rows whose expiry passed before cutoff. Intended
// for the periodic sweep; revocation state is irrelevant once expired.
func (s *PGTokenStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`delete from refresh_tokens where expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanToken(row *sql.Row) (*RefreshToken, error) {
	var tok RefreshToken
	err := row.Scan(&tok.ID, &tok.TokenHash, &tok.Username, &tok.CreatedAt, &tok.ExpiresAt, &tok.Revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tok, nil
}
