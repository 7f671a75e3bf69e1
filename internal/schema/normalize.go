package schema

import (
	"bytes"
	"encoding/json"
	"sort"

	"gopkg.in/yaml.v3"
)

// Format is the on-disk encoding of a schema document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// NormalizeOptions controls Normalize's output shape.
type NormalizeOptions struct {
	// Compact emits without indentation when true; otherwise two-space
	// indented JSON.
	Compact bool
}

// Normalize parses content as JSON or YAML (auto-detected, YAML
// comments stripped by the parser), recursively sorts object keys
// lexicographically while preserving array order, and re-emits
// canonical JSON.
//
// Normalize(Normalize(x)) == Normalize(x), and Normalize(yaml(x)) ==
// Normalize(json(x)) for documents representing the same value
// (spec.md §4.2, §8 invariant 3).
func Normalize(content []byte, opts NormalizeOptions) ([]byte, error) {
	value, err := decodeAny(content)
	if err != nil {
		return nil, err
	}
	sorted := sortKeys(value)

	if opts.Compact {
		return json.Marshal(sorted)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(sorted); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// decodeAny parses content as JSON if it looks like JSON (starts with
// '{' or '[' after whitespace), otherwise as YAML. Both paths collapse
// to the same plain Go value tree (map[string]any / []any / scalars).
func decodeAny(content []byte) (any, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		var v any
		if err := json.Unmarshal(trimmed, &v); err == nil {
			return v, nil
		}
	}
	var v any
	if err := yaml.Unmarshal(content, &v); err != nil {
		return nil, err
	}
	return yamlToJSONValue(v), nil
}

// yamlToJSONValue converts yaml.v3's decoded value tree (which may use
// map[string]interface{} already, but can surface map[any]any from
// nested merges) into a JSON-marshalable tree.
func yamlToJSONValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = yamlToJSONValue(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[toStringKey(k)] = yamlToJSONValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = yamlToJSONValue(val)
		}
		return out
	default:
		return t
	}
}

func toStringKey(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	b, _ := json.Marshal(k)
	return string(b)
}

// sortedObject marshals a map's entries via MarshalJSON in the order
// of its keys slice, which sortKeys fills in lexicographic order.
type sortedObject struct {
	keys   []string
	values map[string]any
}

func (s sortedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(s.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// sortKeys recursively rewrites map[string]any nodes into sortedObject
// so their keys marshal in lexicographic order; array order is left
// untouched.
func sortKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		values := make(map[string]any, len(t))
		for k, val := range t {
			keys = append(keys, k)
			values[k] = sortKeys(val)
		}
		sort.Strings(keys)
		return sortedObject{keys: keys, values: values}
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = sortKeys(val)
		}
		return out
	default:
		return t
	}
}

// DetectFormat guesses a schema document's format from its file
// extension; callers resolving from a path prefer this over content
// sniffing.
func DetectFormat(path string) (Format, bool) {
	switch {
	case hasSuffixFold(path, ".json"):
		return FormatJSON, true
	case hasSuffixFold(path, ".yaml"), hasSuffixFold(path, ".yml"):
		return FormatYAML, true
	default:
		return "", false
	}
}

func hasSuffixFold(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	tail := s[len(s)-len(suffix):]
	for i := range tail {
		c1, c2 := tail[i], suffix[i]
		if c1 >= 'A' && c1 <= 'Z' {
			c1 += 'a' - 'A'
		}
		if c1 != c2 {
			return false
		}
	}
	return true
}
