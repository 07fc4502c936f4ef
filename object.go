package chatkit

import (
	"context"
	"fmt"
)

// SubmitObjectToolName is the synthetic tool GenerateObject advertises to
// capture the structured payload. Its execute never runs; the raw arguments
// are the result.
const SubmitObjectToolName = "submit_object"

const defaultObjectPreamble = "You are a structured data extractor. " +
	"Call the submit_object tool exactly once with a JSON object that answers the user's request. " +
	"Do not answer in plain text."

// ObjectOption configures a GenerateObject call.
type ObjectOption func(*objectOptions)

type objectOptions struct {
	system string
}

// WithSystem replaces the default system preamble.
func WithSystem(preamble string) ObjectOption {
	return func(o *objectOptions) { o.system = preamble }
}

// GenerateObject asks the model for a value conforming to T's reflected
// JSON Schema. It advertises a single synthetic submit_object tool whose
// parameters are the schema, issues one request (no multi-round loop), and
// validates the tool call's arguments. When the model skips the tool call,
// the assistant's content is parsed as JSON instead. Anything less yields a
// StructuredOutputError; nothing is retried.
func GenerateObject[T any](ctx context.Context, c *Client, prompt string, opts ...ObjectOption) (T, error) {
	var zero T
	o := &objectOptions{system: defaultObjectPreamble}
	for _, opt := range opts {
		opt(o)
	}

	ext, err := newExtractor[T](true)
	if err != nil {
		return zero, fmt.Errorf("failed to reflect output schema: %w", err)
	}

	history := []Message{
		SystemMessage(o.system),
		UserMessage(prompt),
	}
	descriptors := []ToolDescriptor{{
		Type: "function",
		Function: FunctionSchema{
			Name:        SubmitObjectToolName,
			Description: "Submit the final structured object.",
			Parameters:  ext.schema(),
		},
	}}

	assistant, err := c.complete(ctx, history, descriptors)
	if err != nil {
		return zero, err
	}

	for _, call := range assistant.ToolCalls {
		if call.Function.Name != SubmitObjectToolName {
			continue
		}
		v, err := ext.parseAndValidate([]byte(call.Function.Arguments))
		if err != nil {
			return zero, &StructuredOutputError{Reason: "submit_object arguments rejected", Err: err}
		}
		return v, nil
	}

	// No submit_object call; the content itself may be the JSON payload.
	if assistant.Content != "" {
		v, err := ext.parseAndValidate([]byte(assistant.Content))
		if err == nil {
			return v, nil
		}
		return zero, &StructuredOutputError{Reason: "model did not return a structured object", Err: err}
	}
	return zero, &StructuredOutputError{Reason: "model did not return a structured object"}
}
