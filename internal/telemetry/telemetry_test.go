package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/fulmen-go/internal/catalog"
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

func TestEngine_CounterMonotonicity(t *testing.T) {
	e := NewEngine(testLoader(), prometheus.NewRegistry())
	for i := 0; i < 5; i++ {
		require.NoError(t, e.IncrCounter("fulmen_signal_received_total", map[string]string{"signal": "SIGTERM"}))
	}
	cv, err := e.counterFor("fulmen_signal_received_total", nil)
	require.NoError(t, err)
	assert.Equal(t, 5.0, testutil.ToFloat64(cv.With(map[string]string{"signal": "SIGTERM"})))
}

func TestEngine_RejectsUndeclaredMetric(t *testing.T) {
	e := NewEngine(testLoader(), prometheus.NewRegistry())
	_, err := e.counterFor("totally_unknown_metric", nil)
	require.Error(t, err)

	err = e.IncrCounter("totally_unknown_metric", nil)
	require.Error(t, err, "strict mode must surface the rejection to the caller, not swallow it")
}

func TestEngine_PermissiveTaxonomyWarnsAndEmits(t *testing.T) {
	var warned []string
	e := NewEngine(testLoader(), prometheus.NewRegistry(),
		WithPermissiveTaxonomy(),
		WithWarnHook(func(name, kind string, cause error) { warned = append(warned, name) }))

	require.NoError(t, e.IncrCounter("totally_unknown_metric", map[string]string{"tag": "x"}))
	require.NoError(t, e.IncrCounter("totally_unknown_metric", map[string]string{"tag": "x"}))
	assert.Equal(t, []string{"totally_unknown_metric"}, warned, "the warn hook fires once per unknown name, not per call")
}

func TestEngine_RejectsKindMismatch(t *testing.T) {
	e := NewEngine(testLoader(), prometheus.NewRegistry())
	_, err := e.gaugeFor("fulmen_signal_received_total", nil) // declared as a counter
	require.Error(t, err)
}

func TestEngine_HistogramCumulativeBuckets(t *testing.T) {
	e := NewEngine(testLoader(), prometheus.NewRegistry())
	labels := map[string]string{"route": "/x", "method": "GET", "service": "fulmentest"}
	require.NoError(t, e.ObserveHistogram("http_request_duration_seconds", 0.003, labels))
	require.NoError(t, e.ObserveHistogram("http_request_duration_seconds", 0.030, labels))
	require.NoError(t, e.ObserveHistogram("http_request_duration_seconds", 3.0, labels))

	snaps, err := e.ExportHistogram("http_request_duration_seconds")
	require.NoError(t, err)
	require.Len(t, snaps, 1)

	var prevCount uint64
	for _, b := range snaps[0].Buckets {
		assert.GreaterOrEqual(t, b.Count, prevCount, "cumulative buckets must be non-decreasing")
		prevCount = b.Count
	}
	assert.Equal(t, uint64(3), snaps[0].Count)
}

// TestRecordHTTPRequest_ConvertsMillisecondsToSeconds verifies spec.md
// §4.6 scenario C1: a 150ms request must observe 0.150 on the seconds
// histogram, not 150.
func TestRecordHTTPRequest_ConvertsMillisecondsToSeconds(t *testing.T) {
	e := NewEngine(testLoader(), prometheus.NewRegistry())
	require.NoError(t, e.RecordHTTPRequest(HTTPRequestInfo{
		Method:     "GET",
		Path:       "/users/123",
		StatusCode: 200,
		Duration:   150 * time.Millisecond,
		Service:    "fulmentest",
	}))

	snaps, err := e.ExportHistogram(metricHTTPDurationSeconds)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.InDelta(t, 0.150, snaps[0].Sum, 0.0001)
}

func TestNormalizeRoute(t *testing.T) {
	cases := map[string]string{
		"/users/123":                                   "/users/:userId",
		"/posts/my-article-title":                       "/posts/:slug",
		"/users/settings":                                "/users/settings",
		"/users/550e8400-e29b-41d4-a716-446655440000":   "/users/:id",
		"/orders/507f1f77bcf86cd799439011":              "/orders/:id",
		"/health":                                       "/health",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeRoute(in))
	}
}

func TestNormalizeRoute_Idempotent(t *testing.T) {
	in := "/users/550e8400-e29b-41d4-a716-446655440000/orders/123"
	once := NormalizeRoute(in)
	twice := NormalizeRoute(once)
	assert.Equal(t, once, twice)
}

func TestHasCardinalityRisk(t *testing.T) {
	assert.True(t, HasCardinalityRisk("/users/123"))
	assert.False(t, HasCardinalityRisk("/users/settings"))
	assert.False(t, HasCardinalityRisk("/health"))
}
