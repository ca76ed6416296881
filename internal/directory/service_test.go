package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// staticSettings is a SettingsProvider serving a fixed settings value or a
// fixed error.
type staticSettings struct {
	set *Settings
	err error
}

func (s staticSettings) Get(context.Context) (*Settings, error) { return s.set, s.err }
func (s staticSettings) Save(context.Context, *Settings) error  { return nil }
func (s staticSettings) HasSettings(context.Context) (bool, error) {
	return s.set != nil, s.err
}

func TestHealthCheckUnconfigured(t *testing.T) {
	svc := NewService(staticSettings{err: ErrNotConfigured})
	assert.False(t, svc.HealthCheck(context.Background()))
}

func TestHealthCheckProviderFailure(t *testing.T) {
	svc := NewService(staticSettings{err: errors.New("settings backend down")})
	assert.False(t, svc.HealthCheck(context.Background()))
}

func TestHealthCheckUnreachableServer(t *testing.T) {
	svc := NewService(staticSettings{set: &Settings{
		Host:         "127.0.0.1",
		Port:         1,
		BaseDN:       "DC=corp,DC=example,DC=com",
		BindUsername: "svc-bind",
		BindPassword: "hunter2",
	}})
	assert.False(t, svc.HealthCheck(context.Background()))
}

func TestLookupsSurfaceNotConfigured(t *testing.T) {
	svc := NewService(staticSettings{err: ErrNotConfigured})
	ctx := context.Background()

	_, err := svc.GetUserByUsername(ctx, "jdoe")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = svc.GetOrganizationalUnit(ctx, "OU=Staff,DC=corp")
	assert.ErrorIs(t, err, ErrNotConfigured)

	users, err := svc.SearchUsers(ctx, "doe")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Empty(t, users)
}
