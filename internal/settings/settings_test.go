package settings

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/wingettech/directory-service/internal/directory"
)

var settingsColumns = []string{
	"host", "port", "use_ssl", "domain", "base_dn", "bind_username", "bind_password", "updated_at",
}

func TestStoreGetNotConfigured(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select host, port, use_ssl, domain, base_dn, bind_username, bind_password, updated_at.*from directory_settings").
		WillReturnRows(sqlmock.NewRows(settingsColumns))

	_, err = NewStore(db, Plaintext{}).Get(context.Background())
	if !errors.Is(err, directory.ErrNotConfigured) {
		t.Fatalf("err = %v, want directory.ErrNotConfigured", err)
	}
}

func TestStoreGetDecryptsBindPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	key := make([]byte, 32)
	enc, err := NewSecretBox(key)
	if err != nil {
		t.Fatalf("NewSecretBox: %v", err)
	}
	cipher, err := enc.Encrypt("hunter2")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	now := time.Now().UTC()
	mock.ExpectQuery("select host, port, use_ssl, domain, base_dn, bind_username, bind_password, updated_at.*from directory_settings").
		WillReturnRows(sqlmock.NewRows(settingsColumns).
			AddRow("ad.corp.example.com", 636, true, "corp.example.com", "DC=corp,DC=example,DC=com", "svc-bind", cipher, now))

	set, err := NewStore(db, enc).Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if set.BindPassword != "hunter2" {
		t.Fatalf("BindPassword = %q, want decrypted value", set.BindPassword)
	}
	if set.Host != "ad.corp.example.com" || set.Port != 636 || !set.UseSSL {
		t.Fatalf("unexpected settings: %+v", set)
	}
}

func TestStoreSaveEncryptsBindPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	key := make([]byte, 32)
	enc, err := NewSecretBox(key)
	if err != nil {
		t.Fatalf("NewSecretBox: %v", err)
	}

	// The update touches no row, so Save falls through to the insert. Either
	// way the password argument must not be the plaintext.
	matchCipher := func(v driver.Value) bool {
		s, ok := v.(string)
		if !ok || s == "hunter2" {
			return false
		}
		got, err := enc.Decrypt(s)
		return err == nil && got == "hunter2"
	}
	mock.ExpectExec("update directory_settings").
		WithArgs("ad.corp.example.com", 389, false, "corp.example.com", "DC=corp,DC=example,DC=com",
			"svc-bind", cipherArg{matchCipher}, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("insert into directory_settings").
		WithArgs("ad.corp.example.com", 389, false, "corp.example.com", "DC=corp,DC=example,DC=com",
			"svc-bind", cipherArg{matchCipher}, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = NewStore(db, enc).Save(context.Background(), &directory.Settings{
		Host:         "ad.corp.example.com",
		Port:         389,
		Domain:       "corp.example.com",
		BaseDN:       "DC=corp,DC=example,DC=com",
		BindUsername: "svc-bind",
		BindPassword: "hunter2",
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStoreSaveBootstrapGate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select count\\(\\*\\) from directory_settings").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err = NewStore(db, Plaintext{}).SaveBootstrap(context.Background(), &directory.Settings{
		Host:         "ad.corp.example.com",
		Port:         389,
		BaseDN:       "DC=corp,DC=example,DC=com",
		BindUsername: "svc-bind",
		BindPassword: "hunter2",
	})
	if !errors.Is(err, ErrAlreadyConfigured) {
		t.Fatalf("err = %v, want ErrAlreadyConfigured", err)
	}
}

// cipherArg matches an encrypted password argument.
type cipherArg struct {
	match func(v driver.Value) bool
}

func (c cipherArg) Match(v driver.Value) bool { return c.match(v) }
