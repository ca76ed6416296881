package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// Probe performs bind-only connectivity and credential checks. It shares
// the adapter's connection handling but never searches for entries beyond
// a base-scope existence check.
type Probe struct {
	settings SettingsProvider
}

// NewProbe constructs a Probe backed by the given settings provider.
func NewProbe(settings SettingsProvider) *Probe {
	return &Probe{settings: settings}
}

// TestBind verifies directory connectivity. With nil credentials it binds
// with the service account and additionally runs a base-scope search
// against the configured base DN, since a bind can succeed even when the
// base DN is wrong. With caller credentials it validates an end-user login.
//
// All failures resolve to (false, message); the message never contains a
// password.
func (p *Probe) TestBind(ctx context.Context, creds *Credentials) (bool, string) {
	if err := ctx.Err(); err != nil {
		return false, "request cancelled"
	}
	set, err := p.settings.Get(ctx)
	if err != nil {
		return false, "directory settings are not configured"
	}
	conn, err := dial(set)
	if err != nil {
		return false, fmt.Sprintf("connection to %s:%d failed", set.Host, set.Port)
	}
	defer conn.Close()

	if creds != nil {
		if creds.Password == "" {
			// An empty password would be an anonymous bind, which some
			// servers accept. Never let it count as a credential check.
			return false, "bind failed: invalid credentials"
		}
		if err := conn.Bind(bindName(set, creds.Username), creds.Password); err != nil {
			return false, "bind failed: invalid credentials"
		}
		return true, ""
	}

	if err := conn.Bind(set.BindUsername, set.BindPassword); err != nil {
		return false, fmt.Sprintf("service account bind as %s failed", set.BindUsername)
	}
	req := ldap.NewSearchRequest(
		set.BaseDN, ldap.ScopeBaseObject, ldap.NeverDerefAliases, 1,
		int(dialTimeout.Seconds()), false, "(objectClass=*)",
		[]string{"distinguishedName"}, nil,
	)
	if _, err := conn.Search(req); err != nil {
		return false, fmt.Sprintf("base DN %q is not searchable", set.BaseDN)
	}
	return true, ""
}

// ValidateCredentials reports whether the username and password bind
// successfully. Every failure, including missing settings, reads as false.
func (p *Probe) ValidateCredentials(ctx context.Context, username, password string) bool {
	if username == "" || password == "" {
		return false
	}
	ok, _ := p.TestBind(ctx, &Credentials{Username: username, Password: password})
	return ok
}

// bindName qualifies a bare login name with the configured domain. Names
// already carrying a domain or DN shape are used as-is.
func bindName(set *Settings, username string) string {
	if set.Domain == "" || strings.ContainsAny(username, `@\=`) {
		return username
	}
	return username + "@" + set.Domain
}
