package chatkit

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/google/jsonschema-go/jsonschema"
)

// extractor pairs a reflected JSON Schema for type T with a compiled
// validator. NewTool and GenerateObject both parse untrusted argument JSON
// through it.
type extractor[T any] struct {
	schemaMap map[string]any
	resolved  *jsonschema.Resolved
}

func newExtractor[T any](strict bool) (*extractor[T], error) {
	schemaMap, resolved, err := reflectSchema[T](strict)
	if err != nil {
		return nil, err
	}
	return &extractor[T]{schemaMap: schemaMap, resolved: resolved}, nil
}

// schema returns a shallow copy of the JSON Schema. Nested maps are shared;
// callers must not mutate them.
func (e *extractor[T]) schema() map[string]any {
	return maps.Clone(e.schemaMap)
}

// parseAndValidate deserializes raw JSON into T after checking it against
// the schema. Parse and validation failures are returned to the caller;
// nothing is retried.
func (e *extractor[T]) parseAndValidate(raw []byte) (T, error) {
	var zero T
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, fmt.Errorf("json parse error: %w", err)
	}
	if err := validateAgainstSchema(e.resolved, v); err != nil {
		return zero, err
	}
	var args T
	if err := json.Unmarshal(raw, &args); err != nil {
		return zero, fmt.Errorf("json parse error: %w", err)
	}
	return args, nil
}
