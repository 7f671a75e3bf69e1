package httpadmin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/fulmenhq/fulmen-go/internal/fulmensignal"
)

// ChiSignalParam extracts the {name} route parameter from a chi router,
// for use as SignalTriggerHandler's routeParam argument.
func ChiSignalParam(r *http.Request) string {
	return chi.URLParam(r, "name")
}

// Mount wires the three admin handlers onto r under prefix (e.g.
// "/_fulmen"), with bearerTokens and limiter applied to all of them.
// An empty bearerTokens disables auth; a nil limiter disables rate
// limiting.
func Mount(r chi.Router, prefix string, m *fulmensignal.Manager, reload ReloadFunc, platform, profile, version string, bearerTokens []string, limiter *rate.Limiter) {
	wrap := func(h http.Handler) http.Handler {
		return BearerAuth(bearerTokens, RateLimit(limiter, h))
	}

	r.Method(http.MethodPost, prefix+"/signal/{name}", wrap(SignalTriggerHandler(m, ChiSignalParam)))
	r.Method(http.MethodPost, prefix+"/config/reload", wrap(ConfigReloadHandler(reload)))
	r.Method(http.MethodGet, prefix+"/capabilities", wrap(CapabilitiesHandler(m, platform, profile, version)))
}
