package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wingettech/directory-service/internal/directory"
)

// ErrAlreadyConfigured is returned by SaveBootstrap once a settings row
// exists; later changes must go through the authenticated Save path.
var ErrAlreadyConfigured = errors.New("settings: already configured")

var _ directory.SettingsProvider = (*Store)(nil)

// Store persists the singleton directory-settings row and implements
// directory.SettingsProvider. The bind password is encrypted before it
// touches the database and decrypted on the way out, so the rest of the
// service only ever sees plaintext.
type Store struct {
	db  *sql.DB
	enc Encryptor

	// bootstrapMu guards the first-run has-settings check plus write, so
	// racing unauthenticated bootstrap requests cannot both pass the gate.
	bootstrapMu sync.Mutex
}

func NewStore(db *sql.DB, enc Encryptor) *Store {
	return &Store{db: db, enc: enc}
}

// Get returns the persisted settings with the bind password decrypted, or
// directory.ErrNotConfigured when no row exists.
func (s *Store) Get(ctx context.Context) (*directory.Settings, error) {
	row := s.db.QueryRowContext(ctx,
		`select host, port, use_ssl, domain, base_dn, bind_username, bind_password, updated_at
		 from directory_settings limit 1`)

	var (
		set    directory.Settings
		cipher string
	)
	err := row.Scan(&set.Host, &set.Port, &set.UseSSL, &set.Domain, &set.BaseDN,
		&set.BindUsername, &cipher, &set.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, directory.ErrNotConfigured
	}
	if err != nil {
		return nil, err
	}
	password, err := s.enc.Decrypt(cipher)
	if err != nil {
		return nil, fmt.Errorf("decrypt bind password: %w", err)
	}
	set.BindPassword = password
	return &set, nil
}

// HasSettings reports whether a settings row exists.
func (s *Store) HasSettings(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `select count(*) from directory_settings`).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Save upserts the singleton row, encrypting the bind password at rest.
func (s *Store) Save(ctx context.Context, set *directory.Settings) error {
	cipher, err := s.enc.Encrypt(set.BindPassword)
	if err != nil {
		return fmt.Errorf("encrypt bind password: %w", err)
	}
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`update directory_settings
		 set host=$1, port=$2, use_ssl=$3, domain=$4, base_dn=$5,
		     bind_username=$6, bind_password=$7, updated_at=$8`,
		set.Host, set.Port, set.UseSSL, set.Domain, set.BaseDN,
		set.BindUsername, cipher, now,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = s.db.ExecContext(ctx,
		`insert into directory_settings(host, port, use_ssl, domain, base_dn, bind_username, bind_password, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		set.Host, set.Port, set.UseSSL, set.Domain, set.BaseDN,
		set.BindUsername, cipher, now,
	)
	return err
}

// SaveBootstrap stores the first settings row. The existence check and the
// write happen inside one critical section; it is the only unauthenticated
// write path in the service.
func (s *Store) SaveBootstrap(ctx context.Context, set *directory.Settings) error {
	s.bootstrapMu.Lock()
	defer s.bootstrapMu.Unlock()

	ok, err := s.HasSettings(ctx)
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyConfigured
	}
	return s.Save(ctx, set)
}
