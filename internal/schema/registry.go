package schema

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fulmenhq/fulmen-go/internal/fulmenerrors"
)

// Entry describes one schema discovered under a registry's base
// directory.
type Entry struct {
	ID     string
	Path   string
	Format Format
}

// Registry is a file-addressed schema registry: it discovers
// **/*.schema.{json,yaml} under a base directory and keys each schema
// by a stable id derived from its relative path minus extension and
// the ".schema" suffix. Compiled schemas are cached by id; additional
// aliases may point at the same cache entry.
type Registry struct {
	baseDir string

	mu      sync.Mutex
	entries map[string]Entry
	cache   map[string]*CompiledValidator
	aliases map[string]string
	loaded  bool
}

// NewRegistry creates a registry rooted at baseDir. Discovery is lazy:
// the directory isn't walked until the first ListSchemas/GetSchema/
// CompileByID call.
func NewRegistry(baseDir string) *Registry {
	return &Registry{
		baseDir: baseDir,
		entries: make(map[string]Entry),
		cache:   make(map[string]*CompiledValidator),
		aliases: make(map[string]string),
	}
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistryInst *Registry
)

// DefaultRegistry returns the process-wide registry rooted at
// $FULMEN_SCHEMA_DIR, or "./schemas" when unset.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		dir := os.Getenv("FULMEN_SCHEMA_DIR")
		if dir == "" {
			dir = "schemas"
		}
		defaultRegistryInst = NewRegistry(dir)
	})
	return defaultRegistryInst
}

func (r *Registry) discover() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return nil
	}
	r.loaded = true

	matches, err := doublestar.Glob(os.DirFS(r.baseDir), "**/*.schema.{json,yaml}")
	if err != nil {
		return fulmenerrors.Wrap(fulmenerrors.CodeSchemaNotFound, "schema discovery failed", err)
	}
	for _, rel := range matches {
		id := idFromRelPath(rel)
		format := FormatJSON
		if strings.HasSuffix(rel, ".yaml") {
			format = FormatYAML
		}
		r.entries[id] = Entry{ID: id, Path: filepath.Join(r.baseDir, rel), Format: format}
	}
	return nil
}

func idFromRelPath(rel string) string {
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	rel = strings.TrimSuffix(rel, ".schema")
	return rel
}

// RegisterAlias points an additional id at an already-discovered entry.
func (r *Registry) RegisterAlias(alias, targetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = targetID
}

func (r *Registry) resolveID(id string) string {
	if target, ok := r.aliases[id]; ok {
		return target
	}
	return id
}

// ListSchemas enumerates discovered entries, optionally filtered to
// those whose id starts with prefix.
func (r *Registry) ListSchemas(prefix string) ([]Entry, error) {
	if err := r.discover(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.entries))
	for id, e := range r.entries {
		if prefix == "" || strings.HasPrefix(id, prefix) {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetSchema returns the entry for id, failing with a
// CodeSchemaNotFound-tagged error if it isn't registered.
func (r *Registry) GetSchema(id string) (Entry, error) {
	if err := r.discover(); err != nil {
		return Entry{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resolved := r.resolveID(id)
	e, ok := r.entries[resolved]
	if !ok {
		return Entry{}, fulmenerrors.SchemaNotFound(id)
	}
	return e, nil
}

// CompileByID compiles (or returns the cached compilation of) the
// schema registered under id.
func (r *Registry) CompileByID(id string) (*CompiledValidator, error) {
	entry, err := r.GetSchema(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if cached, ok := r.cache[entry.ID]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	content, err := os.ReadFile(entry.Path)
	if err != nil {
		return nil, fulmenerrors.Wrap(fulmenerrors.CodeFileNotFound, "failed to read schema "+entry.Path, err)
	}
	compiled, err := CompileSchema(content)
	if err != nil {
		return nil, fulmenerrors.SchemaCompileFailed(entry.ID, err)
	}
	compiled.ID = entry.ID
	compiled.SourcePath = entry.Path
	compiled.Format = entry.Format

	r.mu.Lock()
	r.cache[entry.ID] = compiled
	r.mu.Unlock()
	return compiled, nil
}

// CacheSize reports how many compiled schemas are currently cached,
// so tests can observe cache behavior (spec.md §4.2).
func (r *Registry) CacheSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

// Reset clears discovery and compilation state. Test-only, mirrors C3's
// _reset() hook; production code must not call this.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]Entry)
	r.cache = make(map[string]*CompiledValidator)
	r.aliases = make(map[string]string)
	r.loaded = false
}
