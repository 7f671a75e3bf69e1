package httpadmin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/fulmenhq/fulmen-go/internal/catalog"
	"github.com/fulmenhq/fulmen-go/internal/fulmensignal"
)

func testLoader() *catalog.Loader {
	return catalog.NewLoader(catalog.Paths{
		SignalsCatalog:        "../assets/catalogs/signals.yaml",
		SignalsSchema:         "../assets/schemas/signals.schema.json",
		MetricsTaxonomy:       "../assets/catalogs/metrics-taxonomy.yaml",
		MetricsTaxonomySchema: "../assets/schemas/metrics-taxonomy.schema.json",
		ExitCodes:             "../assets/catalogs/exit-codes.yaml",
		ExitCodesSchema:       "../assets/schemas/exit-codes.schema.json",
	})
}

func chiParam(name string) func(*http.Request) string {
	return func(*http.Request) string { return name }
}

func TestSignalTriggerHandler_Success(t *testing.T) {
	m := fulmensignal.NewManager(testLoader())
	require.NoError(t, m.RegisterHandler(fulmensignal.Handler{
		Name: "test", Signal: "SIGTERM",
		Fn: func(ctx context.Context) error { return nil },
	}))

	req := httptest.NewRequest(http.MethodPost, "/_fulmen/signal/SIGTERM", nil)
	rw := httptest.NewRecorder()
	SignalTriggerHandler(m, chiParam("SIGTERM")).ServeHTTP(rw, req)

	assert.Equal(t, http.StatusAccepted, rw.Code)
}

func TestSignalTriggerHandler_UnknownSignal(t *testing.T) {
	m := fulmensignal.NewManager(testLoader())
	req := httptest.NewRequest(http.MethodPost, "/_fulmen/signal/SIGBOGUS", nil)
	rw := httptest.NewRecorder()
	SignalTriggerHandler(m, chiParam("SIGBOGUS")).ServeHTTP(rw, req)

	assert.NotEqual(t, http.StatusAccepted, rw.Code)
}

func TestSignalTriggerHandler_WrongMethod(t *testing.T) {
	m := fulmensignal.NewManager(testLoader())
	req := httptest.NewRequest(http.MethodGet, "/_fulmen/signal/SIGTERM", nil)
	rw := httptest.NewRecorder()
	SignalTriggerHandler(m, chiParam("SIGTERM")).ServeHTTP(rw, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rw.Code)
}

func TestSignalTriggerHandler_MissingName(t *testing.T) {
	m := fulmensignal.NewManager(testLoader())
	req := httptest.NewRequest(http.MethodPost, "/_fulmen/signal/", nil)
	rw := httptest.NewRecorder()
	SignalTriggerHandler(m, chiParam("")).ServeHTTP(rw, req)

	assert.Equal(t, http.StatusBadRequest, rw.Code)
}

func TestConfigReloadHandler_Success(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/_fulmen/config/reload", nil)
	rw := httptest.NewRecorder()
	ConfigReloadHandler(func(*http.Request) error { return nil }).ServeHTTP(rw, req)

	assert.Equal(t, http.StatusOK, rw.Code)
}

func TestConfigReloadHandler_Failure(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/_fulmen/config/reload", nil)
	rw := httptest.NewRecorder()
	ConfigReloadHandler(func(*http.Request) error { return errors.New("boom") }).ServeHTTP(rw, req)

	assert.Equal(t, http.StatusInternalServerError, rw.Code)
}

func TestCapabilitiesHandler(t *testing.T) {
	m := fulmensignal.NewManager(testLoader())
	req := httptest.NewRequest(http.MethodGet, "/_fulmen/capabilities", nil)
	rw := httptest.NewRecorder()
	CapabilitiesHandler(m, "linux", "STRUCTURED", "v0.1.0").ServeHTTP(rw, req)

	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Contains(t, rw.Body.String(), "SIGTERM")
}

func TestBearerAuth_RejectsMissingAndWrongToken(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	protected := BearerAuth([]string{"secret"}, inner)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rw := httptest.NewRecorder()
	protected.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusUnauthorized, rw.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/x", nil)
	req2.Header.Set("Authorization", "Bearer wrong")
	rw2 := httptest.NewRecorder()
	protected.ServeHTTP(rw2, req2)
	assert.Equal(t, http.StatusUnauthorized, rw2.Code)
}

func TestBearerAuth_AcceptsValidToken(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	protected := BearerAuth([]string{"secret"}, inner)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rw := httptest.NewRecorder()
	protected.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusOK, rw.Code)
}

func TestBearerAuth_EmptyTokenListDisablesCheck(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	protected := BearerAuth(nil, inner)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rw := httptest.NewRecorder()
	protected.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusOK, rw.Code)
}

func TestRateLimit_AllowsThenRejects(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0), 1)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	limited := RateLimit(limiter, inner)

	rw1 := httptest.NewRecorder()
	limited.ServeHTTP(rw1, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rw1.Code)

	rw2 := httptest.NewRecorder()
	limited.ServeHTTP(rw2, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, rw2.Code)
}

func TestRetryReload_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	flaky := func(*http.Request) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}

	req := httptest.NewRequest(http.MethodPost, "/_fulmen/config/reload", nil)
	err := RetryReload(flaky, 5*time.Second)(req)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestMount_RegistersRoutes(t *testing.T) {
	m := fulmensignal.NewManager(testLoader())
	r := chi.NewRouter()
	Mount(r, "/_fulmen", m, func(*http.Request) error { return nil }, "linux", "STRUCTURED", "v0.1.0", nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/_fulmen/capabilities", nil)
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusOK, rw.Code)
}
