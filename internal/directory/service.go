package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"

	"github.com/wingettech/directory-service/internal/obs"
)

// Service executes read-only lookups against the configured directory.
//
// Every operation opens a fresh connection, binds with the service account,
// runs a single search and releases the connection before returning. There
// is no shared mutable state, so operations may run concurrently.
//
// Failure mapping follows one rule: absent settings surface as
// ErrNotConfigured, everything else directory-side collapses into a miss
// (ErrNotFound for single lookups, an empty slice for searches). Protocol
// errors never escape to callers.
type Service struct {
	settings SettingsProvider
}

// NewService constructs a Service backed by the given settings provider.
func NewService(settings SettingsProvider) *Service {
	return &Service{settings: settings}
}

// GetUserByID looks up a single user by its canonical GUID. Input that does
// not parse as a GUID is a miss, not a query error.
func (s *Service) GetUserByID(ctx context.Context, id string) (*User, error) {
	op := "get_user_by_id"
	start := time.Now()
	guid, err := uuid.Parse(id)
	if err != nil {
		observe(op, outcomeMiss, start)
		return nil, ErrNotFound
	}
	filter := fmt.Sprintf("(&(objectClass=user)(objectCategory=person)(objectGUID=%s))",
		EncodeGUIDOctetFilter(guid))
	return s.findUser(ctx, op, filter, start)
}

// GetUserByUsername looks up a single user by its login name.
func (s *Service) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	filter := fmt.Sprintf("(&(objectClass=user)(objectCategory=person)(sAMAccountName=%s))",
		EscapeFilterValue(username))
	return s.findUser(ctx, "get_user_by_username", filter, time.Now())
}

// SearchUsers returns users whose login or display name contains the query
// text. Result size is unbounded; paging belongs to the caller.
func (s *Service) SearchUsers(ctx context.Context, query string) ([]User, error) {
	op := "search_users"
	start := time.Now()
	q := EscapeFilterValue(query)
	filter := fmt.Sprintf("(&(objectClass=user)(objectCategory=person)(|(sAMAccountName=*%s*)(displayName=*%s*)))", q, q)

	entries, err := s.search(ctx, filter, userAttributes, ldap.ScopeWholeSubtree, 0)
	if err != nil {
		return []User{}, s.searchFailure(op, err, start)
	}
	users := make([]User, 0, len(entries))
	for _, entry := range entries {
		if u := entryToUser(entry); u != nil {
			users = append(users, *u)
		}
	}
	observe(op, outcomeOK, start)
	return users, nil
}

// SearchGroups returns groups whose common or display name contains the
// query text.
func (s *Service) SearchGroups(ctx context.Context, query string) ([]Group, error) {
	op := "search_groups"
	start := time.Now()
	q := EscapeFilterValue(query)
	filter := fmt.Sprintf("(&(objectClass=group)(|(cn=*%s*)(displayName=*%s*)))", q, q)

	entries, err := s.search(ctx, filter, groupAttributes, ldap.ScopeWholeSubtree, 0)
	if err != nil {
		return []Group{}, s.searchFailure(op, err, start)
	}
	groups := make([]Group, 0, len(entries))
	for _, entry := range entries {
		if g := entryToGroup(entry); g != nil {
			groups = append(groups, *g)
		}
	}
	observe(op, outcomeOK, start)
	return groups, nil
}

// GetGroup looks up a single group. A parseable GUID matches the binary
// identifier; any other value is treated as a distinguished name.
func (s *Service) GetGroup(ctx context.Context, identifier string) (*Group, error) {
	op := "get_group"
	start := time.Now()
	var filter string
	if guid, err := uuid.Parse(identifier); err == nil {
		filter = fmt.Sprintf("(&(objectClass=group)(objectGUID=%s))", EncodeGUIDOctetFilter(guid))
	} else {
		filter = fmt.Sprintf("(&(objectClass=group)(distinguishedName=%s))", EscapeFilterValue(identifier))
	}

	entries, err := s.search(ctx, filter, groupAttributes, ldap.ScopeWholeSubtree, 1)
	if err != nil {
		return nil, s.lookupFailure(op, err, start)
	}
	for _, entry := range entries {
		if g := entryToGroup(entry); g != nil {
			observe(op, outcomeOK, start)
			return g, nil
		}
	}
	observe(op, outcomeMiss, start)
	return nil, ErrNotFound
}

// GetUserGroups returns the groups the user is a direct member of, derived
// from the user's reverse-membership attribute in a single query. The
// returned records are lightweight: name and DN only, no second round-trip
// per group.
func (s *Service) GetUserGroups(ctx context.Context, userID string) ([]Group, error) {
	op := "get_user_groups"
	start := time.Now()
	guid, err := uuid.Parse(userID)
	if err != nil {
		observe(op, outcomeMiss, start)
		return nil, ErrNotFound
	}
	filter := fmt.Sprintf("(&(objectClass=user)(objectCategory=person)(objectGUID=%s))",
		EncodeGUIDOctetFilter(guid))

	entries, err := s.search(ctx, filter, []string{"memberOf"}, ldap.ScopeWholeSubtree, 1)
	if err != nil {
		return nil, s.lookupFailure(op, err, start)
	}
	if len(entries) == 0 {
		observe(op, outcomeMiss, start)
		return nil, ErrNotFound
	}
	dns := entries[0].GetAttributeValues("memberOf")
	groups := make([]Group, 0, len(dns))
	for _, dn := range dns {
		groups = append(groups, Group{
			Name:              leadingCN(dn),
			DistinguishedName: dn,
			Members:           []string{},
		})
	}
	observe(op, outcomeOK, start)
	return groups, nil
}

// GetOrganizationalUnit looks up an OU by exact distinguished name.
func (s *Service) GetOrganizationalUnit(ctx context.Context, dn string) (*OrganizationalUnit, error) {
	op := "get_organizational_unit"
	start := time.Now()
	filter := fmt.Sprintf("(&(objectClass=organizationalUnit)(distinguishedName=%s))",
		EscapeFilterValue(dn))

	entries, err := s.search(ctx, filter, ouAttributes, ldap.ScopeWholeSubtree, 1)
	if err != nil {
		return nil, s.lookupFailure(op, err, start)
	}
	if len(entries) == 0 {
		observe(op, outcomeMiss, start)
		return nil, ErrNotFound
	}
	observe(op, outcomeOK, start)
	return entryToOU(entries[0]), nil
}

// HealthCheck reports whether the directory accepts a service-account bind.
// It never returns an error: missing settings, dial failures and bind
// failures all read as unhealthy.
func (s *Service) HealthCheck(ctx context.Context) bool {
	op := "health_check"
	start := time.Now()
	set, err := s.settings.Get(ctx)
	if err != nil || set == nil {
		observe(op, outcomeError, start)
		return false
	}
	conn, err := connect(set)
	if err != nil {
		observe(op, outcomeError, start)
		return false
	}
	defer conn.Close()
	observe(op, outcomeOK, start)
	return true
}

func (s *Service) findUser(ctx context.Context, op, filter string, start time.Time) (*User, error) {
	entries, err := s.search(ctx, filter, userAttributes, ldap.ScopeWholeSubtree, 1)
	if err != nil {
		return nil, s.lookupFailure(op, err, start)
	}
	for _, entry := range entries {
		if u := entryToUser(entry); u != nil {
			observe(op, outcomeOK, start)
			return u, nil
		}
	}
	observe(op, outcomeMiss, start)
	return nil, ErrNotFound
}

// search opens, binds, executes one search and closes the connection on
// every path. The caller's context is honored at the call boundary, not
// mid-search; the network timeout is the operative cancellation mechanism.
func (s *Service) search(ctx context.Context, filter string, attrs []string, scope, sizeLimit int) ([]*ldap.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	set, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	conn, err := connect(set)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	req := ldap.NewSearchRequest(
		set.BaseDN, scope, ldap.NeverDerefAliases, sizeLimit,
		int(dialTimeout.Seconds()), false, filter, attrs, nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		return nil, err
	}
	return res.Entries, nil
}

// lookupFailure maps a search error for single-result operations.
// ErrNotConfigured and context errors pass through; anything directory-side
// is logged and collapsed into ErrNotFound.
func (s *Service) lookupFailure(op string, err error, start time.Time) error {
	observe(op, outcomeError, start)
	if errors.Is(err, ErrNotConfigured) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	obs.LogEvent("warn", "directory operation failed", map[string]any{
		"operation": op,
		"error":     err.Error(),
	})
	return ErrNotFound
}

// searchFailure is lookupFailure's sibling for multi-result operations:
// directory-side failures read as an empty result.
func (s *Service) searchFailure(op string, err error, start time.Time) error {
	mapped := s.lookupFailure(op, err, start)
	if errors.Is(mapped, ErrNotFound) {
		return nil
	}
	return mapped
}

const (
	outcomeOK    = "ok"
	outcomeMiss  = "miss"
	outcomeError = "error"
)

func observe(op, outcome string, start time.Time) {
	obs.ObserveDirectoryOp(op, outcome, time.Since(start).Seconds())
}
