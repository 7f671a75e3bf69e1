// Package schema loads, normalizes, compiles, and caches JSON Schema
// documents (draft-04 through 2020-12) and validates data and files
// against them. The in-process engine is santhosh-tekuri/jsonschema/v5
// (grounded on the fulmenhq/gofulmen manifest in the examples pack);
// an optional external binary bridge (§4.2 "external validator
// bridge") can take over when configured and available.
package schema

import (
	"bytes"
	"encoding/json"
	"os"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/fulmenhq/fulmen-go/internal/fulmenerrors"
)

// Dialect identifies a JSON Schema draft.
type Dialect string

const (
	DialectDraft4    Dialect = "draft-04"
	DialectDraft6    Dialect = "draft-06"
	DialectDraft7    Dialect = "draft-07"
	Dialect2019_09   Dialect = "2019-09"
	Dialect2020_12   Dialect = "2020-12"

	// defaultDialect applies when $schema is absent (spec.md §4.2).
	defaultDialect = Dialect2020_12
)

var schemaURIToDialect = map[string]Dialect{
	"http://json-schema.org/draft-04/schema#":  DialectDraft4,
	"http://json-schema.org/draft-06/schema#":  DialectDraft6,
	"http://json-schema.org/draft-07/schema#":  DialectDraft7,
	"https://json-schema.org/draft/2019-09/schema": Dialect2019_09,
	"https://json-schema.org/draft/2020-12/schema": Dialect2020_12,
}

func draftFor(dialect Dialect) *jsonschema.Draft {
	switch dialect {
	case DialectDraft4:
		return jsonschema.Draft4
	case DialectDraft6:
		return jsonschema.Draft6
	case DialectDraft7:
		return jsonschema.Draft7
	case Dialect2019_09:
		return jsonschema.Draft2019
	default:
		return jsonschema.Draft2020
	}
}

// detectDialect inspects a parsed schema document's $schema keyword.
func detectDialect(doc any) Dialect {
	m, ok := doc.(map[string]any)
	if !ok {
		return defaultDialect
	}
	raw, ok := m["$schema"].(string)
	if !ok {
		return defaultDialect
	}
	if d, ok := schemaURIToDialect[raw]; ok {
		return d
	}
	return defaultDialect
}

// CompiledValidator is a ready-to-use, cached compiled schema.
type CompiledValidator struct {
	ID         string
	SourcePath string
	Format     Format
	Dialect    Dialect
	schema     *jsonschema.Schema
}

// CompileSchema compiles a schema from raw bytes (JSON or YAML,
// auto-detected), without registering it under an id.
func CompileSchema(content []byte) (*CompiledValidator, error) {
	normalized, err := Normalize(content, NormalizeOptions{Compact: true})
	if err != nil {
		return nil, fulmenerrors.SchemaCompileFailed("(anonymous)", err)
	}
	var doc any
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, fulmenerrors.SchemaCompileFailed("(anonymous)", err)
	}
	dialect := detectDialect(doc)

	compiler := jsonschema.NewCompiler()
	compiler.Draft = draftFor(dialect)
	const resourceName = "inline.json"
	if err := compiler.AddResource(resourceName, bytes.NewReader(normalized)); err != nil {
		return nil, fulmenerrors.SchemaCompileFailed("(anonymous)", err)
	}
	compiled, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fulmenerrors.SchemaCompileFailed("(anonymous)", err)
	}
	return &CompiledValidator{
		ID:      "(anonymous)",
		Format:  FormatJSON,
		Dialect: dialect,
		schema:  compiled,
	}, nil
}

// CompileSchemaByID resolves id through the global registry, compiling
// and caching the result.
func CompileSchemaByID(id string) (*CompiledValidator, error) {
	return DefaultRegistry().CompileByID(id)
}

// ValidateData validates data (already-decoded JSON-compatible value,
// e.g. map[string]any) against validator. It never panics or returns
// an error for invalid data; invalid data comes back as
// Result{Valid:false, Diagnostics:[...]}.
func ValidateData(data any, validator *CompiledValidator) Result {
	if err := validator.schema.Validate(data); err != nil {
		return Result{Valid: false, Diagnostics: diagnosticsFromError(err), Source: SourceAJV}
	}
	return Result{Valid: true, Source: SourceAJV}
}

// ValidateFile reads path, decodes it as JSON or YAML, and validates it
// against validator. Read/decode failures raise a SchemaValidationError
// (construction-time style failure per spec.md §4.2); data-shape
// failures surface as a non-valid Result instead.
func ValidateFile(path string, validator *CompiledValidator) (Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fulmenerrors.Wrap(fulmenerrors.CodeSchemaValidation, "failed to read "+path, err)
	}
	normalized, err := Normalize(raw, NormalizeOptions{Compact: true})
	if err != nil {
		return Result{}, fulmenerrors.Wrap(fulmenerrors.CodeSchemaValidation, "failed to parse "+path, err)
	}
	var data any
	if err := json.Unmarshal(normalized, &data); err != nil {
		return Result{}, fulmenerrors.Wrap(fulmenerrors.CodeSchemaValidation, "failed to decode "+path, err)
	}
	return ValidateData(data, validator), nil
}

// ValidateSchema meta-validates a schema document (i.e. checks that the
// schema is itself well-formed for its dialect), used by schema export
// (C7) before writing.
func ValidateSchema(content []byte) error {
	_, err := CompileSchema(content)
	return err
}

// diagnosticsFromError flattens a *jsonschema.ValidationError tree
// (with nested Causes) into the flat Diagnostic list the spec expects,
// preserving document order via a depth-first walk.
func diagnosticsFromError(err error) []Diagnostic {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []Diagnostic{{Message: err.Error(), Severity: SeverityError, Source: SourceAJV}}
	}
	var out []Diagnostic
	var walk func(*jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		out = append(out, Diagnostic{
			Pointer:  v.InstanceLocation,
			Message:  v.Message,
			Keyword:  keywordFromLocation(v.KeywordLocation),
			Severity: SeverityError,
			Source:   SourceAJV,
		})
		for _, cause := range v.Causes {
			walk(cause)
		}
	}
	walk(ve)
	return out
}

func keywordFromLocation(loc string) string {
	last := loc
	for i := len(loc) - 1; i >= 0; i-- {
		if loc[i] == '/' {
			last = loc[i+1:]
			break
		}
	}
	return last
}
