// Package testutil provides mock chat-completion servers and wire-body
// builders for chatkit tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// SetSSEHeaders marks the response as an event stream.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
}

// WriteSSE writes one SSE frame.
func WriteSSE(w http.ResponseWriter, event, data string) {
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

// WriteSSEDone writes the [DONE] terminator frame.
func WriteSSEDone(w http.ResponseWriter) {
	fmt.Fprint(w, "data: [DONE]\n\n")
}

// DeltaChunk builds a streaming chunk with the given content delta.
func DeltaChunk(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{
			"delta": map[string]any{"content": content},
		}},
	})
	return string(b)
}

// AssistantBody builds a non-streaming response whose single choice is an
// assistant message with the given content.
func AssistantBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{
			"message": map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

// ToolCallSpec describes one tool call for ToolCallBody.
type ToolCallSpec struct {
	ID        string
	Name      string
	Arguments string
}

// ToolCallBody builds a non-streaming response whose assistant message
// carries the given tool calls in order.
func ToolCallBody(calls ...ToolCallSpec) string {
	wireCalls := make([]any, len(calls))
	for i, c := range calls {
		wireCalls[i] = map[string]any{
			"index": i,
			"id":    c.ID,
			"type":  "function",
			"function": map[string]any{
				"name":      c.Name,
				"arguments": c.Arguments,
			},
		}
	}
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{
			"message": map[string]any{
				"role":       "assistant",
				"content":    "",
				"tool_calls": wireCalls,
			},
		}},
	})
	return string(b)
}

// ScriptedServer serves a fixed sequence of response bodies, one per
// request, and records every request body for assertions. Requests beyond
// the script fail the test.
type ScriptedServer struct {
	*httptest.Server

	mu       sync.Mutex
	bodies   []string
	requests [][]byte
}

// NewScriptedServer starts a server that answers the nth request with the
// nth body. The server is closed via t.Cleanup.
func NewScriptedServer(t *testing.T, bodies ...string) *ScriptedServer {
	t.Helper()
	s := &ScriptedServer{bodies: bodies}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		s.mu.Lock()
		n := len(s.requests)
		s.requests = append(s.requests, body)
		s.mu.Unlock()

		if n >= len(s.bodies) {
			t.Errorf("unexpected request %d: script has %d responses", n+1, len(s.bodies))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, s.bodies[n])
	}))
	t.Cleanup(s.Server.Close)
	return s
}

// RequestCount returns how many requests the server has received.
func (s *ScriptedServer) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Request returns the recorded body of the nth request.
func (s *ScriptedServer) Request(n int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[n]
}
