package directory

import (
	"context"
	"time"
)

// User is a read-only projection of a directory person entry. It exists for
// the duration of a response and is never cached or persisted.
type User struct {
	ID                string            `json:"id"`
	Username          string            `json:"username"`
	DisplayName       string            `json:"display_name"`
	Email             string            `json:"email"`
	DistinguishedName string            `json:"distinguished_name"`
	Enabled           bool              `json:"enabled"`
	CreatedAt         *time.Time        `json:"created_at,omitempty"`
	ModifiedAt        *time.Time        `json:"modified_at,omitempty"`
	Attributes        map[string]string `json:"attributes,omitempty"`
}

// Group is a read-only projection of a directory group entry. Groups derived
// from a user's reverse-membership attribute carry only Name and
// DistinguishedName; ID, Description and Members stay empty.
type Group struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	DistinguishedName string   `json:"distinguished_name"`
	Description       string   `json:"description"`
	Members           []string `json:"members"`
}

// OrganizationalUnit is a read-only projection of a directory OU entry.
type OrganizationalUnit struct {
	Name              string `json:"name"`
	DistinguishedName string `json:"distinguished_name"`
	ParentDN          string `json:"parent_dn"`
}

// Settings holds directory connection and service-account bind parameters.
// BindPassword is a secret: it must never appear in a response, log line or
// error message.
type Settings struct {
	Host         string    `json:"host"`
	Port         int       `json:"port"`
	UseSSL       bool      `json:"use_ssl"`
	Domain       string    `json:"domain"`
	BaseDN       string    `json:"base_dn"`
	BindUsername string    `json:"bind_username"`
	BindPassword string    `json:"-"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Credentials is a caller-supplied username and password pair.
type Credentials struct {
	Username string
	Password string
}

// SettingsProvider supplies the persisted directory settings. Get returns
// ErrNotConfigured when no settings have been saved yet; the bind password
// arrives already decrypted.
type SettingsProvider interface {
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
	HasSettings(ctx context.Context) (bool, error)
}
