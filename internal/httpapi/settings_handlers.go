package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/wingettech/directory-service/internal/audit"
	"github.com/wingettech/directory-service/internal/directory"
	"github.com/wingettech/directory-service/internal/settings"
)

type settingsRequest struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	UseSSL       bool   `json:"use_ssl"`
	Domain       string `json:"domain"`
	BaseDN       string `json:"base_dn"`
	BindUsername string `json:"bind_username"`
	BindPassword string `json:"bind_password"`
}

func (req *settingsRequest) validate() string {
	switch {
	case strings.TrimSpace(req.Host) == "":
		return "host is required"
	case req.Port <= 0 || req.Port > 65535:
		return "port must be between 1 and 65535"
	case strings.TrimSpace(req.BaseDN) == "":
		return "base_dn is required"
	case strings.TrimSpace(req.BindUsername) == "":
		return "bind_username is required"
	case req.BindPassword == "":
		return "bind_password is required"
	}
	return ""
}

func (a *API) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.handleGetSettings(w, r)
	case http.MethodPost:
		a.handleSaveSettings(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// handleGetSettings returns the stored settings. The bind password never
// leaves the service; the Settings type excludes it from serialization.
func (a *API) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	set, err := a.settings.Get(r.Context())
	if err != nil {
		writeDirectoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// handleSaveSettings stores the directory settings. The very first write is
// allowed without a token so a fresh deployment can be configured; every
// later write requires authentication, enforced by the middleware, and the
// store's bootstrap gate closes the first-write race.
func (a *API) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	set := &directory.Settings{
		Host:         req.Host,
		Port:         req.Port,
		UseSSL:       req.UseSSL,
		Domain:       req.Domain,
		BaseDN:       req.BaseDN,
		BindUsername: req.BindUsername,
		BindPassword: req.BindPassword,
	}

	_, authenticated := audit.SubjectFromContext(r.Context())
	var err error
	if authenticated {
		err = a.settings.Save(r.Context(), set)
	} else {
		err = a.settings.SaveBootstrap(r.Context(), set)
	}
	if errors.Is(err, settings.ErrAlreadyConfigured) {
		writeError(w, http.StatusConflict, "directory is already configured")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	_ = audit.LogEvent(r.Context(), "settings.saved", map[string]any{
		"host":   set.Host,
		"port":   set.Port,
		"domain": set.Domain,
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "saved"})
}
