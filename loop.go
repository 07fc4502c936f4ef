package chatkit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"slices"

	"go.uber.org/zap"

	"github.com/user/chatkit/internal/workerpool"
)

// CallOption configures a single GenerateText or Stream call.
type CallOption func(*callOptions)

type callOptions struct {
	tools       Toolbox
	observer    func(toolName string)
	parallel    bool
	maxParallel int
	history     []Message
}

// WithTools declares the tools available to the model for this call.
func WithTools(tb Toolbox) CallOption {
	return func(o *callOptions) { o.tools = tb }
}

// WithToolObserver registers a callback invoked with each requested tool's
// name, once per call in server order, before any tool in the batch runs.
func WithToolObserver(fn func(toolName string)) CallOption {
	return func(o *callOptions) { o.observer = fn }
}

// WithParallelTools opts in to concurrent execution of a tool-call batch.
// Result messages are still appended to history in the server's call order,
// so conversation transcripts stay deterministic. maxWorkers bounds
// concurrency; non-positive means one worker per CPU.
func WithParallelTools(maxWorkers int) CallOption {
	return func(o *callOptions) {
		o.parallel = true
		o.maxParallel = maxWorkers
	}
}

// WithHistory prepends prior conversation messages. Stream appends its
// prompt after these; GenerateText ignores this option since it already
// takes the full history.
func WithHistory(messages []Message) CallOption {
	return func(o *callOptions) { o.history = messages }
}

// GenerateText runs the conversation loop: it posts the history to the chat
// endpoint, executes any requested tools locally, appends their results, and
// repeats until the model answers with plain text. The caller's message
// slice is copied, never aliased.
//
// Every failure is fatal and aborts the call: an unknown tool is a
// ToolNotFoundError, invalid arguments a ToolArgumentError, a response
// without a message a ProtocolError. There is no iteration cap; a tool that
// always re-triggers itself loops until ctx is cancelled.
func (c *Client) GenerateText(ctx context.Context, messages []Message, opts ...CallOption) (string, error) {
	o := &callOptions{}
	for _, opt := range opts {
		opt(o)
	}
	reg, err := o.tools.normalize()
	if err != nil {
		return "", err
	}

	history := slices.Clone(messages)
	descriptors := reg.descriptors()

	for {
		assistant, err := c.complete(ctx, history, descriptors)
		if err != nil {
			return "", err
		}
		history = append(history, *assistant)

		if len(assistant.ToolCalls) == 0 {
			return assistant.Content, nil
		}

		c.logger.Debug("executing tool calls",
			zap.Int("count", len(assistant.ToolCalls)),
			zap.Bool("parallel", o.parallel),
		)

		// Notify for every call in the batch before any tool runs.
		if o.observer != nil {
			for _, call := range assistant.ToolCalls {
				o.observer(call.Function.Name)
			}
		}

		results, err := c.runToolCalls(ctx, reg, assistant.ToolCalls, o)
		if err != nil {
			return "", err
		}
		for i, call := range assistant.ToolCalls {
			history = append(history, ToolMessage(results[i], call.ID))
		}
	}
}

// complete issues one non-streaming request and returns choices[0].message.
func (c *Client) complete(ctx context.Context, history []Message, descriptors []ToolDescriptor) (*Message, error) {
	req := chatRequest{
		Model:    c.ref.Model,
		Messages: history,
		Tools:    descriptors,
	}

	resp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProtocolError{Reason: "failed to read response body", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProtocolError{Reason: decodeAPIError(body), Status: resp.StatusCode}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ProtocolError{Reason: "failed to decode response body", Err: err}
	}
	if parsed.Error != nil {
		return nil, &ProtocolError{Reason: parsed.Error.Message}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message == nil {
		return nil, &ProtocolError{Reason: "no message returned"}
	}
	return parsed.Choices[0].Message, nil
}

// runToolCalls executes a batch sequentially or, when opted in, concurrently.
// Results come back indexed by the server's call order either way. Any tool
// failure aborts the batch; sequential execution stops at the first failure
// without running later calls.
func (c *Client) runToolCalls(ctx context.Context, reg *registry, calls []ToolCallRequest, o *callOptions) ([]string, error) {
	// Resolve every tool up front so an unknown name fails before any
	// execution starts, regardless of its position in the batch.
	tools := make([]Tool, len(calls))
	for i, call := range calls {
		t, ok := reg.lookup(call.Function.Name)
		if !ok {
			return nil, &ToolNotFoundError{Name: call.Function.Name}
		}
		tools[i] = t
	}

	if o.parallel && len(calls) > 1 {
		tasks := make([]workerpool.Task, len(calls))
		for i := range calls {
			tasks[i] = func(ctx context.Context) (string, error) {
				return tools[i].Call(ctx, []byte(calls[i].Function.Arguments))
			}
		}
		results := workerpool.New(o.maxParallel).Run(ctx, tasks)
		out := make([]string, len(results))
		for i, res := range results {
			if res.Err != nil {
				return nil, res.Err
			}
			out[i] = res.Value
		}
		return out, nil
	}

	out := make([]string, len(calls))
	for i, call := range calls {
		result, err := tools[i].Call(ctx, []byte(call.Function.Arguments))
		if err != nil {
			return nil, err
		}
		out[i] = result
	}
	return out, nil
}
