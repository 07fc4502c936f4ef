package chatkit

import (
	"encoding/json"
	"errors"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
)

var errNilSchema = errors.New("schema reflection returned nil")

// reflectSchema produces the JSON Schema map and a compiled validator for
// type T. strict sets additionalProperties: false and marks every property
// required on all objects, as OpenAI structured outputs require.
func reflectSchema[T any](strict bool) (map[string]any, *jsonschema.Resolved, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, nil, err
	}
	if schema == nil {
		return nil, nil, errNilSchema
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, nil, err
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(data, &schemaMap); err != nil {
		return nil, nil, err
	}
	if strict {
		applyStrictMode(schemaMap)
	}
	stripSchemaIDs(schemaMap)
	resolved, err := compileSchema(schemaMap)
	if err != nil {
		return nil, nil, err
	}
	return schemaMap, resolved, nil
}

// compileSchema compiles a raw JSON Schema map into a validator. The map is
// not mutated.
func compileSchema(schemaMap map[string]any) (*jsonschema.Resolved, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.Resolve(nil)
}

// validateAgainstSchema checks an already-parsed JSON value against a
// compiled schema. Violations wrap ErrValidation for errors.Is checks.
func validateAgainstSchema(resolved *jsonschema.Resolved, v any) error {
	if err := resolved.Validate(v); err != nil {
		return errors.Join(ErrValidation, err)
	}
	return nil
}

// walkSchema visits every map node in the schema tree, including $defs.
func walkSchema(schemaMap map[string]any, visit func(map[string]any)) {
	if schemaMap == nil {
		return
	}
	visit(schemaMap)
	for _, val := range schemaMap {
		switch v := val.(type) {
		case map[string]any:
			walkSchema(v, visit)
		case []any:
			for _, item := range v {
				if m, ok := item.(map[string]any); ok {
					walkSchema(m, visit)
				}
			}
		}
	}
}

// applyStrictMode sets additionalProperties: false and requires every
// property on each object node.
func applyStrictMode(schemaMap map[string]any) {
	walkSchema(schemaMap, func(n map[string]any) {
		props, isObj := n["properties"].(map[string]any)
		if !isObj {
			return
		}
		n["additionalProperties"] = false
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		if len(keys) > 0 {
			required := make([]any, len(keys))
			for i, k := range keys {
				required[i] = k
			}
			n["required"] = required
		}
	})
}

// stripSchemaIDs removes id and $id so resolution does not depend on them.
func stripSchemaIDs(schemaMap map[string]any) {
	walkSchema(schemaMap, func(n map[string]any) {
		delete(n, "id")
		delete(n, "$id")
	})
}
