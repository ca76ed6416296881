package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGTokenStoreInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	tok := &RefreshToken{
		TokenHash: HashToken("raw"),
		Username:  "jdoe",
		CreatedAt: now,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
	}

	mock.ExpectExec("insert into refresh_tokens").
		WithArgs(sqlmock.AnyArg(), tok.TokenHash, "jdoe", now, tok.ExpiresAt, false).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := NewPGTokenStore(db).Insert(context.Background(), tok); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if tok.ID == "" {
		t.Fatal("Insert did not assign an ID")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGTokenStoreFindActiveByHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	hash := HashToken("raw")
	rows := sqlmock.NewRows([]string{"id", "token_hash", "username", "created_at", "expires_at", "revoked"}).
		AddRow("row-1", hash, "jdoe", now, now.Add(time.Hour), false)
	mock.ExpectQuery("select id, token_hash, username, created_at, expires_at, revoked.*from refresh_tokens where token_hash=.* and not revoked").
		WithArgs(hash).
		WillReturnRows(rows)

	tok, err := NewPGTokenStore(db).FindActiveByHash(context.Background(), hash)
	if err != nil {
		t.Fatalf("FindActiveByHash: %v", err)
	}
	if tok.ID != "row-1" || tok.Username != "jdoe" || tok.Revoked {
		t.Fatalf("unexpected row: %+v", tok)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGTokenStoreFindActiveByHashMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select id, token_hash, username, created_at, expires_at, revoked.*from refresh_tokens").
		WithArgs("no-such-hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "token_hash", "username", "created_at", "expires_at", "revoked"}))

	_, err = NewPGTokenStore(db).FindActiveByHash(context.Background(), "no-such-hash")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGTokenStoreRevoke(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("update refresh_tokens set revoked=true where id=.* and not revoked").
		WithArgs("row-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewPGTokenStore(db).Revoke(context.Background(), "row-1"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// A revoke matching no live row reports ErrNotFound, which the service maps
// to the uniform refresh failure.
func TestPGTokenStoreRevokeAlreadyRevoked(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("update refresh_tokens set revoked=true").
		WithArgs("row-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := NewPGTokenStore(db).Revoke(context.Background(), "row-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGTokenStoreDeleteExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cutoff := time.Now().UTC()
	mock.ExpectExec("delete from refresh_tokens where expires_at").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := NewPGTokenStore(db).DeleteExpired(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 3 {
		t.Fatalf("deleted = %d, want 3", n)
	}
}
