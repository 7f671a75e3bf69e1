// Package catalog loads and caches the YAML catalogs that parameterize
// the rest of fulmen-go: the signals catalog (C4), the metrics taxonomy
// (C6), and the exit-code catalog (C8/C4). Each catalog is schema
// validated once, on first use, via internal/schema; loading is lazy
// and coalesced so concurrent first-use callers share one load.
package catalog

import (
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/fulmen-go/internal/fulmenerrors"
	"github.com/fulmenhq/fulmen-go/internal/schema"
)

// Paths bundles the on-disk locations of the three catalogs and their
// schemas. DefaultLoader points at the bundled internal/assets
// fixtures; embedders can point at their own files instead.
type Paths struct {
	SignalsCatalog       string
	SignalsSchema        string
	MetricsTaxonomy      string
	MetricsTaxonomySchema string
	ExitCodes            string
	ExitCodesSchema       string
}

// Loader lazily loads, schema-validates, and caches the three catalogs.
// A zero-value Loader is not usable; use NewLoader.
type Loader struct {
	paths Paths

	signalsOnce  sync.Once
	signals      *SignalCatalog
	signalsErr   error

	metricsOnce sync.Once
	metrics     *MetricsTaxonomy
	metricsErr  error

	exitCodesOnce sync.Once
	exitCodes     *ExitCodeCatalog
	exitCodesErr  error
}

// NewLoader constructs a Loader against the given catalog/schema paths.
func NewLoader(paths Paths) *Loader {
	return &Loader{paths: paths}
}

var (
	defaultLoaderOnce sync.Once
	defaultLoaderInst *Loader
)

// DefaultLoader returns the process-wide loader bound to the bundled
// default catalogs under internal/assets (overridable via
// $FULMEN_CATALOG_DIR).
func DefaultLoader() *Loader {
	defaultLoaderOnce.Do(func() {
		dir := os.Getenv("FULMEN_CATALOG_DIR")
		if dir == "" {
			dir = "internal/assets/catalogs"
		}
		schemaDir := os.Getenv("FULMEN_SCHEMA_DIR")
		if schemaDir == "" {
			schemaDir = "internal/assets/schemas"
		}
		defaultLoaderInst = NewLoader(Paths{
			SignalsCatalog:        dir + "/signals.yaml",
			SignalsSchema:         schemaDir + "/signals.schema.json",
			MetricsTaxonomy:       dir + "/metrics-taxonomy.yaml",
			MetricsTaxonomySchema: schemaDir + "/metrics-taxonomy.schema.json",
			ExitCodes:             dir + "/exit-codes.yaml",
			ExitCodesSchema:       schemaDir + "/exit-codes.schema.json",
		})
	})
	return defaultLoaderInst
}

// loadValidated reads path, normalizes and decodes it into generic
// data, validates that data once against the schema at schemaPath, and
// only then decodes the raw document as YAML into out.
func loadValidated(name, path, schemaPath string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fulmenerrors.CatalogMissing(name).WithCause(err).WithContext("path", path)
	}

	validator, err := schema.CompileSchema(mustReadSchema(schemaPath))
	if err != nil {
		return fulmenerrors.CatalogInvalidSchema(name, "schema failed to compile", err)
	}

	var generic any
	normalized, err := schema.Normalize(raw, schema.NormalizeOptions{Compact: true})
	if err != nil {
		return fulmenerrors.CatalogInvalidSchema(name, "catalog is not valid YAML/JSON", err)
	}
	if err := yaml.Unmarshal(normalized, &generic); err != nil {
		return fulmenerrors.CatalogInvalidSchema(name, "catalog failed to decode", err)
	}
	result := schema.ValidateData(generic, validator)
	if !result.Valid {
		return fulmenerrors.CatalogInvalidSchema(name, schema.FormatDiagnostics(result.Diagnostics), nil)
	}

	if err := yaml.Unmarshal(raw, out); err != nil {
		return fulmenerrors.CatalogInvalidSchema(name, "catalog failed to decode into target type", err)
	}
	return nil
}

func mustReadSchema(path string) []byte {
	raw, err := os.ReadFile(path)
	if err != nil {
		return []byte(`{"type":"object"}`)
	}
	return raw
}

// Signals returns the signals catalog, loading and validating it on
// first call. Subsequent calls, including from concurrent goroutines,
// share the same result (sync.Once coalescing).
func (l *Loader) Signals() (*SignalCatalog, error) {
	l.signalsOnce.Do(func() {
		var c SignalCatalog
		if err := loadValidated("signals", l.paths.SignalsCatalog, l.paths.SignalsSchema, &c); err != nil {
			l.signalsErr = err
			return
		}
		l.signals = &c
	})
	return l.copySignals(), l.signalsErr
}

func (l *Loader) copySignals() *SignalCatalog {
	if l.signals == nil {
		return nil
	}
	cp := *l.signals
	cp.Signals = append([]SignalDescriptor(nil), l.signals.Signals...)
	return &cp
}

// MetricsTaxonomy returns the metrics taxonomy catalog, loading and
// validating it on first call.
func (l *Loader) MetricsTaxonomy() (*MetricsTaxonomy, error) {
	l.metricsOnce.Do(func() {
		var t MetricsTaxonomy
		if err := loadValidated("metrics-taxonomy", l.paths.MetricsTaxonomy, l.paths.MetricsTaxonomySchema, &t); err != nil {
			l.metricsErr = err
			return
		}
		l.metrics = &t
	})
	return l.copyMetrics(), l.metricsErr
}

func (l *Loader) copyMetrics() *MetricsTaxonomy {
	if l.metrics == nil {
		return nil
	}
	cp := *l.metrics
	cp.Metrics = append([]MetricDefinition(nil), l.metrics.Metrics...)
	return &cp
}

// ExitCodes returns the exit-code catalog, loading and validating it on
// first call.
func (l *Loader) ExitCodes() (*ExitCodeCatalog, error) {
	l.exitCodesOnce.Do(func() {
		var c ExitCodeCatalog
		if err := loadValidated("exit-codes", l.paths.ExitCodes, l.paths.ExitCodesSchema, &c); err != nil {
			l.exitCodesErr = err
			return
		}
		l.exitCodes = &c
	})
	return l.copyExitCodes(), l.exitCodesErr
}

func (l *Loader) copyExitCodes() *ExitCodeCatalog {
	if l.exitCodes == nil {
		return nil
	}
	cp := *l.exitCodes
	cp.ExitCodes = append([]ExitCodeEntry(nil), l.exitCodes.ExitCodes...)
	return &cp
}

// Version reports the signals catalog's declared version string, the
// convention fulmen-go uses as "the" catalog set version (spec.md §3
// supplement: catalogs are versioned together).
func (l *Loader) Version() (string, error) {
	c, err := l.Signals()
	if err != nil {
		return "", err
	}
	return c.Version, nil
}

// Reset clears all cached/loaded state. Test-only; production code
// must not call this, mirroring C2's Registry.Reset().
func (l *Loader) Reset() {
	*l = Loader{paths: l.paths}
}
