package directory

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// dialTimeout bounds the TCP dial and every LDAP operation on a connection.
const dialTimeout = 10 * time.Second

// dial opens an unauthenticated connection to the configured server. The
// caller owns the connection and must close it on every exit path.
func dial(s *Settings) (*ldap.Conn, error) {
	scheme := "ldap"
	opts := []ldap.DialOpt{
		ldap.DialWithDialer(&net.Dialer{Timeout: dialTimeout}),
	}
	if s.UseSSL {
		scheme = "ldaps"
		opts = append(opts, ldap.DialWithTLSConfig(&tls.Config{
			ServerName: s.Host,
			MinVersion: tls.VersionTLS12,
		}))
	}
	conn, err := ldap.DialURL(fmt.Sprintf("%s://%s:%d", scheme, s.Host, s.Port), opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", s.Host, err)
	}
	conn.SetTimeout(dialTimeout)
	return conn, nil
}

// connect opens a connection and binds with the service account. Bind
// errors never carry the password.
func connect(s *Settings) (*ldap.Conn, error) {
	conn, err := dial(s)
	if err != nil {
		return nil, err
	}
	if err := conn.Bind(s.BindUsername, s.BindPassword); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bind as %s: %w", s.BindUsername, err)
	}
	return conn, nil
}
