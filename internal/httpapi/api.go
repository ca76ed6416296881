package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/wingettech/directory-service/internal/auth"
	"github.com/wingettech/directory-service/internal/directory"
	"github.com/wingettech/directory-service/internal/obs"
	"github.com/wingettech/directory-service/internal/settings"
)

// ReadyProbe checks service readiness (database ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer. It only decodes requests, calls the core services
// and maps their error classes onto status codes.
type API struct {
	mux        *http.ServeMux
	directory  *directory.Service
	probe      *directory.Probe
	tokens     *auth.Service
	settings   *settings.Store
	readyProbe ReadyProbe
	version    string
}

func New(dir *directory.Service, probe *directory.Probe, tokens *auth.Service, st *settings.Store, rp ReadyProbe, version string) *API {
	a := &API{
		mux:        http.NewServeMux(),
		directory:  dir,
		probe:      probe,
		tokens:     tokens,
		settings:   st,
		readyProbe: rp,
		version:    version,
	}

	a.mux.HandleFunc("/healthz", a.handleHealthz)
	a.mux.HandleFunc("/readyz", a.handleReady)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.Handle("/v1/auth/login", RateLimit(http.HandlerFunc(a.handleLogin), 5, 2))
	a.mux.HandleFunc("/v1/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)

	a.mux.HandleFunc("/v1/users", a.handleUsers)
	a.mux.HandleFunc("/v1/users/", a.handleUserByID)
	a.mux.HandleFunc("/v1/groups", a.handleGroups)
	a.mux.HandleFunc("/v1/groups/", a.handleGroupByID)
	a.mux.HandleFunc("/v1/ous", a.handleOrganizationalUnit)

	a.mux.HandleFunc("/v1/directory/health", a.handleDirectoryHealth)
	a.mux.HandleFunc("/v1/directory/test-bind", a.handleTestBind)
	a.mux.HandleFunc("/v1/settings", a.handleSettings)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	return obs.Instrument(Logging(a.withAuth(a.mux)))
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "directory-service",
		"version": a.version,
	})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
