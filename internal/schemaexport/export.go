// Package schemaexport implements C7: writing a schema out to disk in
// a deterministic, provenance-stamped form, in either JSON or YAML,
// with a round-trip guarantee (export, then re-import, then export
// again, produces byte-identical output once provenance is stripped).
package schemaexport

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/fulmen-go/internal/fulmenerrors"
	"github.com/fulmenhq/fulmen-go/internal/schema"
)

// provenanceKey is the top-level field export writes and
// StripProvenance removes, so exported files carry a visible audit
// trail without compromising the round-trip law.
const provenanceKey = "x_fulmen_provenance"

// Provenance records where and when a schema was exported.
type Provenance struct {
	ExportedAt time.Time `json:"exported_at" yaml:"exported_at"`
	SchemaID   string    `json:"schema_id" yaml:"schema_id"`
	SourcePath string    `json:"source_path,omitempty" yaml:"source_path,omitempty"`
}

// Options controls ExportSchema.
type Options struct {
	Format    schema.Format
	Overwrite bool
	Now       func() time.Time // overridable for deterministic tests
}

// ExportSchema resolves id through reg, meta-validates it, stamps a
// provenance block, and writes it to destPath in opts.Format (detected
// from destPath's extension when unset). It refuses to overwrite an
// existing file unless opts.Overwrite is set, returning a
// CodeExportFileExists error (spec.md §8 "E1: FILE_EXISTS").
func ExportSchema(reg *schema.Registry, id, destPath string, opts Options) error {
	entry, err := reg.GetSchema(id)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(entry.Path)
	if err != nil {
		return fulmenerrors.Wrap(fulmenerrors.CodeFileNotFound, "failed to read schema "+entry.Path, err)
	}

	format := opts.Format
	if format == "" {
		var ok bool
		format, ok = schema.DetectFormat(destPath)
		if !ok {
			return fulmenerrors.ExportInvalidFormat(destPath)
		}
	}

	if !opts.Overwrite {
		if _, err := os.Stat(destPath); err == nil {
			return fulmenerrors.ExportFileExists(destPath)
		}
	}

	if err := schema.ValidateSchema(content); err != nil {
		return fulmenerrors.Wrap(fulmenerrors.CodeSchemaExport, "schema failed meta-validation before export", err)
	}

	normalized, err := schema.Normalize(content, schema.NormalizeOptions{})
	if err != nil {
		return fulmenerrors.Wrap(fulmenerrors.CodeSchemaExport, "failed to normalize schema for export", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return fulmenerrors.Wrap(fulmenerrors.CodeSchemaExport, "exported schema must be a JSON object", err)
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	doc[provenanceKey] = Provenance{
		ExportedAt: now().UTC(),
		SchemaID:   entry.ID,
		SourcePath: entry.Path,
	}

	out, err := serialize(doc, format)
	if err != nil {
		return fulmenerrors.Wrap(fulmenerrors.CodeSchemaExport, "failed to serialize exported schema", err)
	}

	if err := os.WriteFile(destPath, out, 0o644); err != nil {
		return fulmenerrors.Wrap(fulmenerrors.CodeFileWrite, "failed to write "+destPath, err)
	}
	return nil
}

func serialize(doc map[string]any, format schema.Format) ([]byte, error) {
	switch format {
	case schema.FormatYAML:
		return yaml.Marshal(doc)
	case schema.FormatJSON:
		normalized, err := schema.Normalize(mustMarshalJSON(doc), schema.NormalizeOptions{})
		if err != nil {
			return nil, err
		}
		return append(normalized, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func mustMarshalJSON(doc map[string]any) []byte {
	b, _ := json.Marshal(doc)
	return b
}

// StripProvenance returns a copy of an exported document's decoded
// form with the provenance block removed, so two exports taken at
// different times can still be compared for equality (spec.md §8 "E2:
// determinism").
func StripProvenance(decoded map[string]any) map[string]any {
	out := make(map[string]any, len(decoded))
	for k, v := range decoded {
		if k == provenanceKey {
			continue
		}
		out[k] = v
	}
	return out
}
