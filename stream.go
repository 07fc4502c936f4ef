package chatkit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"

	"go.uber.org/zap"
)

// DeltaFunc receives incremental content. final is true exactly once, on the
// terminating call; its delta is empty unless the stream ended without a
// terminator and trailing buffered text remained.
type DeltaFunc func(delta string, final bool)

// Stream appends prompt as a user message to the history (see WithHistory),
// issues one request with streaming enabled, and invokes onDelta for each
// content fragment as it arrives. A non-success status or an empty response
// body is a fatal StreamError; malformed individual frames are logged and
// skipped. The response body is closed on every exit path, including a
// panicking onDelta.
func (c *Client) Stream(ctx context.Context, prompt string, onDelta DeltaFunc, opts ...CallOption) error {
	o := &callOptions{}
	for _, opt := range opts {
		opt(o)
	}

	history := slices.Clone(o.history)
	history = append(history, UserMessage(prompt))

	resp, err := c.post(ctx, chatRequest{
		Model:    c.ref.Model,
		Messages: history,
		Stream:   true,
	})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &StreamError{Status: resp.StatusCode, Reason: decodeAPIError(body)}
	}

	dec := newSSEDecoder(resp.Body)
	for {
		data, err := dec.next()
		if errors.Is(err, io.EOF) {
			if dec.empty() {
				return &StreamError{Reason: "empty response body"}
			}
			// Terminator never arrived; flush whatever text is still
			// buffered as the final delta.
			if left := dec.leftover(); left != "" {
				onDelta(left, true)
			}
			return nil
		}
		if err != nil {
			return &StreamError{Reason: "failed to read stream", Err: err}
		}

		if isSSEDone(data) {
			onDelta("", true)
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			c.logger.Warn("skipping malformed stream fragment",
				zap.Error(err),
				zap.ByteString("data", data),
			)
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			onDelta(content, false)
		}
	}
}
