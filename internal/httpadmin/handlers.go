package httpadmin

import (
	"net/http"

	"github.com/fulmenhq/fulmen-go/internal/fulmenerrors"
	"github.com/fulmenhq/fulmen-go/internal/fulmensignal"
)

// SignalTriggerHandler handles POST /_fulmen/signal/{name}: the
// programmatic/HTTP path used on platforms (Windows) or deployments
// where sending a real OS signal isn't possible (spec.md "Windows HTTP
// admin fallback").
func SignalTriggerHandler(m *fulmensignal.Manager, routeParam func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			WriteError(w, http.StatusMethodNotAllowed, fulmenerrors.New(fulmenerrors.CodeDataInvalid, "method not allowed"))
			return
		}
		name := routeParam(r)
		if name == "" {
			WriteError(w, http.StatusBadRequest, fulmenerrors.New(fulmenerrors.CodeDataInvalid, "missing signal name"))
			return
		}
		if err := m.TriggerSignal(r.Context(), name); err != nil {
			WriteError(w, 0, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, map[string]string{"signal": name, "status": "triggered"})
	}
}

// ReloadFunc performs an application's actual config reload and
// reports whether it succeeded.
type ReloadFunc func(r *http.Request) error

// ConfigReloadHandler handles POST /_fulmen/config/reload, delegating
// the actual reload work to reload.
func ConfigReloadHandler(reload ReloadFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			WriteError(w, http.StatusMethodNotAllowed, fulmenerrors.New(fulmenerrors.CodeDataInvalid, "method not allowed"))
			return
		}
		if err := reload(r); err != nil {
			WriteError(w, 0, fulmenerrors.Wrap(fulmenerrors.CodeConfigReloadError, "config reload failed", err))
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
	}
}

// Capabilities describes what this build/platform supports, for
// operators and automation probing before they try an action.
type Capabilities struct {
	Platform         string   `json:"platform"`
	SupportedSignals []string `json:"supported_signals"`
	Profile          string   `json:"logging_profile,omitempty"`
	Version          string   `json:"version,omitempty"`
}

// CapabilitiesHandler handles GET /_fulmen/capabilities.
func CapabilitiesHandler(m *fulmensignal.Manager, platform, profile, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := m.ListSupported()
		if err != nil {
			WriteError(w, 0, err)
			return
		}
		WriteJSON(w, http.StatusOK, Capabilities{
			Platform:         platform,
			SupportedSignals: names,
			Profile:          profile,
			Version:          version,
		})
	}
}
