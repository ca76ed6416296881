package httpapi

import (
	"net/http"
	"strings"

	"github.com/wingettech/directory-service/internal/directory"
)

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if username := strings.TrimSpace(r.URL.Query().Get("username")); username != "" {
		user, err := a.directory.GetUserByUsername(r.Context(), username)
		if err != nil {
			writeDirectoryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q or username query parameter is required")
		return
	}
	users, err := a.directory.SearchUsers(r.Context(), query)
	if err != nil {
		writeDirectoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (a *API) handleUserByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "user id is required")
		return
	}
	switch sub {
	case "":
		user, err := a.directory.GetUserByID(r.Context(), id)
		if err != nil {
			writeDirectoryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case "groups":
		groups, err := a.directory.GetUserGroups(r.Context(), id)
		if err != nil {
			writeDirectoryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
	default:
		http.NotFound(w, r)
	}
}

func (a *API) handleGroups(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q query parameter is required")
		return
	}
	groups, err := a.directory.SearchGroups(r.Context(), query)
	if err != nil {
		writeDirectoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

func (a *API) handleGroupByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	identifier := strings.TrimPrefix(r.URL.Path, "/v1/groups/")
	if identifier == "" {
		writeError(w, http.StatusBadRequest, "group identifier is required")
		return
	}
	group, err := a.directory.GetGroup(r.Context(), identifier)
	if err != nil {
		writeDirectoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (a *API) handleOrganizationalUnit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	dn := strings.TrimSpace(r.URL.Query().Get("dn"))
	if dn == "" {
		writeError(w, http.StatusBadRequest, "dn query parameter is required")
		return
	}
	ou, err := a.directory.GetOrganizationalUnit(r.Context(), dn)
	if err != nil {
		writeDirectoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ou)
}

func (a *API) handleDirectoryHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	healthy := a.directory.HealthCheck(r.Context())
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"healthy": healthy})
}

type testBindRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleTestBind exercises a bind against the configured directory. With a
// body it tests the supplied credentials, without one it tests the stored
// service account.
func (a *API) handleTestBind(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var creds *directory.Credentials
	if r.ContentLength != 0 {
		var req testBindRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Username != "" || req.Password != "" {
			creds = &directory.Credentials{Username: req.Username, Password: req.Password}
		}
	}
	ok, message := a.probe.TestBind(r.Context(), creds)
	writeJSON(w, http.StatusOK, map[string]any{"ok": ok, "message": message})
}
