// Package sbomjson holds the schema-drift tolerant JSON helpers shared by the
// CycloneDX and SPDX parsers.
package sbomjson

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
)

// Decode parses raw bytes into a JSON object. Anything that is not valid JSON
// or whose root is not an object is malformed input.
func Decode(data []byte, sourceFile string) (map[string]any, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, &entities.MalformedInputError{SourceFile: sourceFile, Reason: "invalid JSON", Err: err}
	}
	doc, ok := root.(map[string]any)
	if !ok {
		return nil, &entities.MalformedInputError{SourceFile: sourceFile, Reason: "document root must be a JSON object"}
	}
	return doc, nil
}

// String reads a scalar field as text. Numbers and booleans are rendered so
// that a version written as 1.2 is not lost.
func String(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// FirstString returns the first non-empty text value among keys
func FirstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v := String(m, key); v != "" {
			return v
		}
	}
	return ""
}

// Object reads a nested object, or nil
func Object(m map[string]any, key string) map[string]any {
	obj, _ := m[key].(map[string]any)
	return obj
}

// Array reads a nested array, or nil
func Array(m map[string]any, key string) []any {
	arr, _ := m[key].([]any)
	return arr
}

// Objects returns the object entries of an array field, skipping entries of
// any other type
func Objects(m map[string]any, key string) []map[string]any {
	raw := Array(m, key)
	objects := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		if obj, ok := entry.(map[string]any); ok {
			objects = append(objects, obj)
		}
	}
	return objects
}

// Strings returns the string entries of an array field
func Strings(m map[string]any, key string) []string {
	raw := Array(m, key)
	values := make([]string, 0, len(raw))
	for _, entry := range raw {
		if s, ok := entry.(string); ok {
			values = append(values, s)
		}
	}
	return values
}

// ComponentEntries returns the entries of a component array. Every entry
// must be an object; the position of the first offending entry is reported.
func ComponentEntries(doc map[string]any, key, sourceFile string) ([]map[string]any, error) {
	raw, present := doc[key]
	if !present || raw == nil {
		return []map[string]any{}, nil
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, &entities.MalformedInputError{SourceFile: sourceFile, Reason: "\"" + key + "\" must be an array"}
	}
	entries := make([]map[string]any, len(arr))
	for i, entry := range arr {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, &entities.MalformedInputError{
				SourceFile: sourceFile,
				Reason:     key + "[" + strconv.Itoa(i) + "] must be an object",
			}
		}
		entries[i] = obj
	}
	return entries, nil
}
