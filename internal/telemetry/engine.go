// Package telemetry implements the C6 telemetry engine: taxonomy-
// validated counters/gauges/histograms over prometheus/client_golang,
// HTTP instrumentation with cardinality-safe route normalization, and
// an OTLP-shaped cumulative histogram export.
package telemetry

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fulmenhq/fulmen-go/internal/catalog"
	"github.com/fulmenhq/fulmen-go/internal/fulmenerrors"
)

// Engine owns every metric it creates and validates each registration
// against the loader's metrics taxonomy: a counter/gauge/histogram
// must be declared in the taxonomy with a matching kind before it can
// be used (spec.md "taxonomy validation"). Unknown names are rejected
// with an error by default (strict mode); WithPermissiveTaxonomy
// relaxes this to "warn once, then emit" (spec.md §4.6, §6 user-
// visible behavior).
type Engine struct {
	loader     *catalog.Loader
	registerer prometheus.Registerer
	strict     bool
	onWarn     func(name, kind string, cause error)

	// ServiceName is the default "service" label value for
	// RecordHTTPRequest/TrackActiveRequest when a caller doesn't supply
	// one explicitly (spec.md §4.6 HTTP instrumentation's optional
	// `service` field).
	ServiceName string

	mu           sync.Mutex
	counters     map[string]*prometheus.CounterVec
	gauges       map[string]*prometheus.GaugeVec
	histograms   map[string]*prometheus.HistogramVec
	activeCounts map[string]float64
	warned       map[string]bool
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithPermissiveTaxonomy relaxes taxonomy enforcement: a name absent
// from the metrics taxonomy is registered ad hoc (labels taken from
// the first call's label keys) instead of being rejected, and a
// warning is surfaced via WithWarnHook (if set) the first time each
// unknown name is seen.
func WithPermissiveTaxonomy() Option { return func(e *Engine) { e.strict = false } }

// WithWarnHook installs a callback invoked the first time permissive
// mode emits an undeclared metric, so callers can log it. No-op in
// strict mode, where the rejection is instead returned as an error.
func WithWarnHook(fn func(name, kind string, cause error)) Option {
	return func(e *Engine) { e.onWarn = fn }
}

// WithServiceName sets the default "service" label value for HTTP
// instrumentation.
func WithServiceName(name string) Option {
	return func(e *Engine) { e.ServiceName = name }
}

// NewEngine constructs an Engine bound to loader's metrics taxonomy,
// registering collectors against registerer (prometheus.DefaultRegisterer
// if nil). Taxonomy enforcement is strict by default.
func NewEngine(loader *catalog.Loader, registerer prometheus.Registerer, opts ...Option) *Engine {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	e := &Engine{
		loader:     loader,
		registerer: registerer,
		strict:     true,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) definition(name, wantKind string) (catalog.MetricDefinition, error) {
	taxonomy, err := e.loader.MetricsTaxonomy()
	if err != nil {
		return catalog.MetricDefinition{}, err
	}
	def, ok := taxonomy.ByName()[name]
	if !ok {
		return catalog.MetricDefinition{}, fulmenerrors.New(fulmenerrors.CodeDataInvalid, "metric "+name+" is not declared in the metrics taxonomy").
			WithContext("metric", name)
	}
	if def.Kind != wantKind {
		return catalog.MetricDefinition{}, fulmenerrors.New(fulmenerrors.CodeDataInvalid, "metric "+name+" is declared as "+def.Kind+", not "+wantKind).
			WithContext("metric", name)
	}
	return def, nil
}

// prometheusName maps a taxonomy/event identifier to a name the
// prometheus client will accept: dotted event names like
// "fulmen.signal.handler_timeout" are valid taxonomy/export
// identifiers but not valid Prometheus metric names, so dots become
// underscores for the registered collector only. Lookups, exports,
// and labels still use the original dotted name.
func prometheusName(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

// warnUnknown invokes the warn hook at most once per name.
func (e *Engine) warnUnknown(name, kind string, cause error) {
	if e.warned == nil {
		e.warned = make(map[string]bool)
	}
	if e.warned[name] {
		return
	}
	e.warned[name] = true
	if e.onWarn != nil {
		e.onWarn(name, kind, cause)
	}
}

// counterFor lazily registers (or returns the cached) CounterVec for
// name, whose label set is the taxonomy's required_labels. labels is
// only consulted in permissive mode, to derive an ad hoc label set for
// an undeclared name on its first use.
func (e *Engine) counterFor(name string, labels map[string]string) (*prometheus.CounterVec, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cv, ok := e.counters[name]; ok {
		return cv, nil
	}
	def, err := e.definition(name, "counter")
	if err != nil {
		if e.strict {
			return nil, err
		}
		e.warnUnknown(name, "counter", err)
		def = catalog.MetricDefinition{Name: name, Kind: "counter", Description: "ad hoc metric (taxonomy permissive mode)", RequiredLabels: labelKeys(labels)}
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{Name: prometheusName(name), Help: def.Description}, def.RequiredLabels)
	if err := e.registerer.Register(cv); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			cv = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, fulmenerrors.Wrap(fulmenerrors.CodeOperationFailed, "failed to register counter "+name, err)
		}
	}
	e.counters[name] = cv
	return cv, nil
}

func (e *Engine) gaugeFor(name string, labels map[string]string) (*prometheus.GaugeVec, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gv, ok := e.gauges[name]; ok {
		return gv, nil
	}
	def, err := e.definition(name, "gauge")
	if err != nil {
		if e.strict {
			return nil, err
		}
		e.warnUnknown(name, "gauge", err)
		def = catalog.MetricDefinition{Name: name, Kind: "gauge", Description: "ad hoc metric (taxonomy permissive mode)", RequiredLabels: labelKeys(labels)}
	}
	gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: prometheusName(name), Help: def.Description}, def.RequiredLabels)
	if err := e.registerer.Register(gv); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			gv = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, fulmenerrors.Wrap(fulmenerrors.CodeOperationFailed, "failed to register gauge "+name, err)
		}
	}
	e.gauges[name] = gv
	return gv, nil
}

// defaultMsBuckets are the conventional millisecond buckets for any
// `_ms`-suffixed histogram the taxonomy doesn't pin its own
// default_buckets for (spec.md ADR-0007).
var defaultMsBuckets = []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000}

func (e *Engine) histogramFor(name string, labels map[string]string) (*prometheus.HistogramVec, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if hv, ok := e.histograms[name]; ok {
		return hv, nil
	}
	def, err := e.definition(name, "histogram")
	if err != nil {
		if e.strict {
			return nil, err
		}
		e.warnUnknown(name, "histogram", err)
		def = catalog.MetricDefinition{Name: name, Kind: "histogram", Description: "ad hoc metric (taxonomy permissive mode)", RequiredLabels: labelKeys(labels)}
	}
	buckets := def.DefaultBuckets
	if len(buckets) == 0 && strings.HasSuffix(name, "_ms") {
		buckets = defaultMsBuckets
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: prometheusName(name), Help: def.Description, Buckets: buckets}, def.RequiredLabels)
	if err := e.registerer.Register(hv); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			hv = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, fulmenerrors.Wrap(fulmenerrors.CodeOperationFailed, "failed to register histogram "+name, err)
		}
	}
	e.histograms[name] = hv
	return hv, nil
}

// labelKeys returns labels' keys, used as a permissive-mode ad hoc
// collector's label set. Order doesn't matter to prometheus.NewXVec.
func labelKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	return keys
}

// IncrCounter increments the counter named name, validating it against
// the taxonomy on first use. In strict mode (the default) an unknown
// name returns an error instead of silently dropping the observation
// (spec.md §4.6 "Unknown names are rejected (error) by default").
func (e *Engine) IncrCounter(name string, labels map[string]string) error {
	cv, err := e.counterFor(name, labels)
	if err != nil {
		return err
	}
	cv.With(labels).Inc()
	return nil
}

// SetGauge sets the gauge named name to value.
func (e *Engine) SetGauge(name string, value float64, labels map[string]string) error {
	gv, err := e.gaugeFor(name, labels)
	if err != nil {
		return err
	}
	gv.With(labels).Set(value)
	return nil
}

// ObserveHistogram records one observation for the histogram named
// name.
func (e *Engine) ObserveHistogram(name string, value float64, labels map[string]string) error {
	hv, err := e.histogramFor(name, labels)
	if err != nil {
		return err
	}
	hv.With(labels).Observe(value)
	return nil
}

// RegisterAll eagerly registers every metric declared in the taxonomy,
// instead of relying on lazy first-use registration; useful so
// /metrics shows every known series immediately even before it has
// any observations.
func (e *Engine) RegisterAll() error {
	taxonomy, err := e.loader.MetricsTaxonomy()
	if err != nil {
		return err
	}
	for _, def := range taxonomy.Metrics {
		switch def.Kind {
		case "counter":
			if _, err := e.counterFor(def.Name, nil); err != nil {
				return err
			}
		case "gauge":
			if _, err := e.gaugeFor(def.Name, nil); err != nil {
				return err
			}
		case "histogram":
			if _, err := e.histogramFor(def.Name, nil); err != nil {
				return err
			}
		}
	}
	return nil
}
