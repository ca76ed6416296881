package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/wingettech/directory-service/internal/audit"
	"github.com/wingettech/directory-service/internal/ids"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour

	// Uniform failure messages. A caller can never tell an unknown user from
	// a wrong password, or a revoked token from an expired one.
	msgLoginFailed   = "invalid username or password"
	msgRefreshFailed = "invalid or expired refresh token"
	msgLoginOK       = "login successful"
	msgRefreshOK     = "token refreshed"
)

// CredentialValidator validates end-user credentials against the directory.
type CredentialValidator interface {
	ValidateCredentials(ctx context.Context, username, password string) bool
}

// Config carries the immutable signing parameters supplied at construction.
type Config struct {
	Issuer     string
	Audience   string
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service owns the token lifecycle: it validates credentials through the
// directory probe, mints signed access tokens and manages rotating, hashed
// refresh tokens.
type Service struct {
	validator CredentialValidator
	store     TokenStore
	cfg       Config
	now       func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service. Zero TTLs in cfg fall back to 15 minutes
// for access tokens and 7 days for refresh tokens.
func NewService(validator CredentialValidator, store TokenStore, cfg Config, opts ...Option) (*Service, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	svc := &Service{
		validator: validator,
		store:     store,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Login validates the credentials against the directory and, on success,
// mints an access/refresh token pair. Failures are uniform regardless of
// whether the user exists.
func (s *Service) Login(ctx context.Context, username, password string) (Result, error) {
	if !s.validator.ValidateCredentials(ctx, username, password) {
		_ = audit.LogEvent(ctx, "auth.login.failed", map[string]any{"username": username})
		return Result{Message: msgLoginFailed}, nil
	}
	pair, err := s.mint(ctx, username)
	if err != nil {
		return Result{}, err
	}
	_ = audit.LogEvent(ctx, "auth.login.succeeded", map[string]any{"username": username})
	return Result{OK: true, Pair: pair, Message: msgLoginOK}, nil
}

// Refresh rotates a refresh token: the presented token is looked up by
// hash, must be non-revoked and non-expired, and is revoked in the same
// operation before a fresh pair is minted. A refresh token is single-use.
func (s *Service) Refresh(ctx context.Context, rawToken string) (Result, error) {
	row, err := s.store.FindActiveByHash(ctx, HashToken(rawToken))
	if errors.Is(err, ErrNotFound) {
		return Result{Message: msgRefreshFailed}, nil
	}
	if err != nil {
		return Result{}, err
	}
	if !s.now().UTC().Before(row.ExpiresAt) {
		return Result{Message: msgRefreshFailed}, nil
	}
	// The revoke is a compare-and-swap on the revoked flag: of two
	// concurrent calls presenting the same token, exactly one passes.
	if err := s.store.Revoke(ctx, row.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Result{Message: msgRefreshFailed}, nil
		}
		return Result{}, err
	}
	pair, err := s.mint(ctx, row.Username)
	if err != nil {
		return Result{}, err
	}
	_ = audit.LogEvent(ctx, "auth.token.refreshed", map[string]any{"username": row.Username})
	return Result{OK: true, Pair: pair, Message: msgRefreshOK}, nil
}

// Logout revokes the presented refresh token when it exists. Logging out an
// unknown or already-revoked token is not an error.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	row, err := s.store.FindByHash(ctx, HashToken(rawToken))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.store.Revoke(ctx, row.ID); err != nil {
		// Already revoked: nothing changed, so no revocation event.
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	_ = audit.LogEvent(ctx, "auth.token.revoked", map[string]any{"username": row.Username})
	return nil
}

// ParseAndValidate verifies an access token's signature, issuer, audience
// and expiry, returning its claims.
func (s *Service) ParseAndValidate(token string) (*jwt.RegisteredClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, ErrInvalidToken
			}
			return []byte(s.cfg.Secret), nil
		},
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now().UTC() }),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) mint(ctx context.Context, username string) (*TokenPair, error) {
	now := s.now().UTC()
	access, accessExp, err := s.signAccessToken(username, now)
	if err != nil {
		return nil, err
	}
	raw, row, err := s.newRefreshToken(username, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, row); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     raw,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: row.ExpiresAt,
	}, nil
}

func (s *Service) signAccessToken(username string, now time.Time) (string, time.Time, error) {
	exp := now.Add(s.cfg.AccessTTL)
	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   username,
		Audience:  jwt.ClaimStrings{s.cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

// newRefreshToken draws 64 random bytes (512 bits) for the opaque token and
// builds the row holding its hash.
func (s *Service) newRefreshToken(username string, now time.Time) (string, *RefreshToken, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, err
	}
	raw := base64.StdEncoding.EncodeToString(buf)
	row := &RefreshToken{
		ID:        ids.New(),
		TokenHash: HashToken(raw),
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.RefreshTTL),
	}
	return raw, row, nil
}

// HashToken returns the hex SHA-256 digest of a raw refresh token. Only
// digests are ever stored or compared.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
