package chatkit

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to check.
var (
	// ErrValidation is wrapped by argument and structured-output failures
	// caused by a JSON Schema violation.
	ErrValidation = errors.New("schema validation failed")
)

// ConfigError reports invalid or missing client configuration, such as a
// missing API key. It is returned at construction time, never mid-call.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "chatkit: invalid configuration: " + e.Reason
}

// ProtocolError reports a malformed response from the chat endpoint: a
// non-success status, an undecodable body, or a body without a message.
type ProtocolError struct {
	Reason string
	Status int // HTTP status, 0 when the failure is not status-related
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("chatkit: protocol error (status %d): %s", e.Status, e.Reason)
	}
	return "chatkit: protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ToolNotFoundError reports that the model requested a tool that was not
// declared for the call. The conversation loop aborts without recovery.
type ToolNotFoundError struct {
	Name string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("chatkit: model requested unknown tool %q", e.Name)
}

// ToolArgumentError reports that a tool call's arguments were not valid
// JSON or failed schema validation. Err carries the underlying violation.
type ToolArgumentError struct {
	Tool string
	Err  error
}

func (e *ToolArgumentError) Error() string {
	return fmt.Sprintf("chatkit: invalid arguments for tool %q: %v", e.Tool, e.Err)
}

func (e *ToolArgumentError) Unwrap() error { return e.Err }

// InvalidToolError reports a malformed tool declaration, such as a ToolList
// entry without a name.
type InvalidToolError struct {
	Reason string
}

func (e *InvalidToolError) Error() string {
	return "chatkit: invalid tool declaration: " + e.Reason
}

// StructuredOutputError reports that GenerateObject could not obtain a
// payload conforming to the requested schema, either because the model
// returned none or because validation failed.
type StructuredOutputError struct {
	Reason string
	Err    error
}

func (e *StructuredOutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chatkit: structured output failed: %s: %v", e.Reason, e.Err)
	}
	return "chatkit: structured output failed: " + e.Reason
}

func (e *StructuredOutputError) Unwrap() error { return e.Err }

// StreamError reports a fatal streaming failure: a non-success HTTP status
// or a missing response body. Malformed individual frames are not fatal and
// are skipped with a logged warning instead.
type StreamError struct {
	Reason string
	Status int
	Err    error
}

func (e *StreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("chatkit: stream failed (status %d): %s", e.Status, e.Reason)
	}
	return "chatkit: stream failed: " + e.Reason
}

func (e *StreamError) Unwrap() error { return e.Err }
