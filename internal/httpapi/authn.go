package httpapi

import (
	"net/http"
	"strings"

	"github.com/wingettech/directory-service/internal/audit"
)

// publicPaths require no bearer token. Login and refresh mint tokens,
// health endpoints must answer before anyone can log in, and logout only
// revokes the refresh token it is handed.
var publicPaths = map[string]bool{
	"/healthz":         true,
	"/readyz":          true,
	"/metrics":         true,
	"/v1/auth/login":   true,
	"/v1/auth/refresh": true,
	"/v1/auth/logout":  true,
}

// withAuth enforces bearer-token authentication on every path that is not
// explicitly public, attaching the token subject to the request context.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		// The settings endpoint is open only until the first row exists;
		// the handler's bootstrap gate closes the race on first write.
		if r.URL.Path == "/v1/settings" && r.Method == http.MethodPost {
			if configured, err := a.settings.HasSettings(r.Context()); err == nil && !configured {
				next.ServeHTTP(w, r)
				return
			}
		}

		raw := bearerToken(r)
		claims, err := a.tokens.ParseAndValidate(raw)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="directory-service"`)
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		ctx := audit.WithSubject(r.Context(), claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
