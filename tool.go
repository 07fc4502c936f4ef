package chatkit

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
)

// Tool is a locally executable capability the model may call. Implementations
// built with NewTool or NewRawTool validate arguments against their schema
// before running; a validation failure surfaces as a ToolArgumentError and
// aborts the surrounding conversation loop.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON Schema advertised for the tool's arguments.
	Parameters() map[string]any
	// Call validates rawArgs and executes the tool, returning its text result.
	Call(ctx context.Context, rawArgs []byte) (string, error)
}

// tool is the implementation behind NewTool and NewRawTool.
type tool struct {
	name        string
	description string
	schemaMap   map[string]any
	call        func(ctx context.Context, rawArgs []byte) (string, error)
}

// NewTool builds a Tool from a typed function. The parameter schema is
// reflected from T and incoming arguments are validated against it before
// fn runs. fn blocks until done; long-running tools should honor ctx.
func NewTool[T any](name, description string, fn func(ctx context.Context, args T) (string, error)) (Tool, error) {
	if name == "" {
		return nil, &InvalidToolError{Reason: "tool name must not be empty"}
	}
	if fn == nil {
		return nil, &InvalidToolError{Reason: fmt.Sprintf("tool %q has no execute function", name)}
	}
	ext, err := newExtractor[T](false)
	if err != nil {
		return nil, fmt.Errorf("failed to reflect schema for tool %q: %w", name, err)
	}
	call := func(ctx context.Context, rawArgs []byte) (string, error) {
		args, err := ext.parseAndValidate(rawArgs)
		if err != nil {
			return "", &ToolArgumentError{Tool: name, Err: err}
		}
		return fn(ctx, args)
	}
	return &tool{
		name:        name,
		description: description,
		schemaMap:   ext.schema(),
		call:        call,
	}, nil
}

// NewRawTool builds a Tool from an explicit JSON Schema map and a function
// receiving the raw argument JSON. The schema is compiled once; the caller's
// map is deep-copied and never mutated.
func NewRawTool(name, description string, schemaMap map[string]any, fn func(ctx context.Context, rawArgs json.RawMessage) (string, error)) (Tool, error) {
	if name == "" {
		return nil, &InvalidToolError{Reason: "tool name must not be empty"}
	}
	if schemaMap == nil {
		return nil, &InvalidToolError{Reason: fmt.Sprintf("tool %q has no parameter schema", name)}
	}
	if fn == nil {
		return nil, &InvalidToolError{Reason: fmt.Sprintf("tool %q has no execute function", name)}
	}
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("failed to copy schema for tool %q: %w", name, err)
	}
	var schemaCopy map[string]any
	if err := json.Unmarshal(data, &schemaCopy); err != nil {
		return nil, fmt.Errorf("failed to copy schema for tool %q: %w", name, err)
	}
	stripSchemaIDs(schemaCopy)
	compiled, err := compileSchema(schemaCopy)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema for tool %q: %w", name, err)
	}
	call := func(ctx context.Context, rawArgs []byte) (string, error) {
		var v any
		if err := json.Unmarshal(rawArgs, &v); err != nil {
			return "", &ToolArgumentError{Tool: name, Err: fmt.Errorf("json parse error: %w", err)}
		}
		if err := validateAgainstSchema(compiled, v); err != nil {
			return "", &ToolArgumentError{Tool: name, Err: err}
		}
		return fn(ctx, rawArgs)
	}
	return &tool{
		name:        name,
		description: description,
		schemaMap:   schemaCopy,
		call:        call,
	}, nil
}

func (t *tool) Name() string        { return t.name }
func (t *tool) Description() string { return t.description }

// Parameters returns a shallow copy; nested maps are shared.
func (t *tool) Parameters() map[string]any { return maps.Clone(t.schemaMap) }

func (t *tool) Call(ctx context.Context, rawArgs []byte) (string, error) {
	return t.call(ctx, rawArgs)
}
