package chatkit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/chatkit/internal/testutil"
)

type deltaEvent struct {
	delta string
	final bool
}

type deltaRecorder struct {
	mu     sync.Mutex
	events []deltaEvent
}

func (r *deltaRecorder) record(delta string, final bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, deltaEvent{delta: delta, final: final})
}

func (r *deltaRecorder) recorded() []deltaEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events
}

// newStreamServer answers every request with the given raw SSE body and
// records request bodies for assertions.
func newStreamServer(t *testing.T, raw string) (string, func(int) []byte) {
	t.Helper()
	var (
		mu       sync.Mutex
		requests [][]byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, body)
		mu.Unlock()

		testutil.SetSSEHeaders(w)
		fmt.Fprint(w, raw)
	}))
	t.Cleanup(server.Close)
	return server.URL, func(n int) []byte {
		mu.Lock()
		defer mu.Unlock()
		return requests[n]
	}
}

func TestStream_DeliversDeltasThenFinal(t *testing.T) {
	raw := "data: " + testutil.DeltaChunk("Hel") + "\n\n" +
		"data: " + testutil.DeltaChunk("lo") + "\n\n" +
		"data: [DONE]\n\n"
	url, _ := newStreamServer(t, raw)
	client := newTestClient(t, url)

	rec := &deltaRecorder{}
	err := client.Stream(context.Background(), "say hello", rec.record)
	require.NoError(t, err)

	assert.Equal(t, []deltaEvent{
		{delta: "Hel"},
		{delta: "lo"},
		{final: true},
	}, rec.recorded())
}

func TestStream_RequestShape(t *testing.T) {
	raw := "data: [DONE]\n\n"
	url, request := newStreamServer(t, raw)
	client := newTestClient(t, url)

	rec := &deltaRecorder{}
	history := []Message{
		SystemMessage("be terse"),
		UserMessage("earlier turn"),
		AssistantMessage("earlier answer"),
	}
	err := client.Stream(context.Background(), "and now?", rec.record, WithHistory(history))
	require.NoError(t, err)

	req := decodeRequest(t, request(0))
	assert.Equal(t, true, req["stream"])
	assert.Equal(t, "test-model", req["model"])

	messages := req["messages"].([]any)
	require.Len(t, messages, 4)
	last := messages[3].(map[string]any)
	assert.Equal(t, "user", last["role"])
	assert.Equal(t, "and now?", last["content"])
}

func TestStream_MalformedFragmentSkipped(t *testing.T) {
	raw := "data: " + testutil.DeltaChunk("good") + "\n\n" +
		"data: {not json\n\n" +
		"data: " + testutil.DeltaChunk("still good") + "\n\n" +
		"data: [DONE]\n\n"
	url, _ := newStreamServer(t, raw)
	client := newTestClient(t, url)

	rec := &deltaRecorder{}
	err := client.Stream(context.Background(), "go", rec.record)
	require.NoError(t, err)

	assert.Equal(t, []deltaEvent{
		{delta: "good"},
		{delta: "still good"},
		{final: true},
	}, rec.recorded())
}

func TestStream_EmptyDeltasNotForwarded(t *testing.T) {
	raw := "data: " + testutil.DeltaChunk("") + "\n\n" +
		"data: " + testutil.DeltaChunk("only this") + "\n\n" +
		"data: [DONE]\n\n"
	url, _ := newStreamServer(t, raw)
	client := newTestClient(t, url)

	rec := &deltaRecorder{}
	err := client.Stream(context.Background(), "go", rec.record)
	require.NoError(t, err)

	assert.Equal(t, []deltaEvent{
		{delta: "only this"},
		{final: true},
	}, rec.recorded())
}

func TestStream_HTTPError(t *testing.T) {
	errBody, _ := json.Marshal(map[string]any{
		"error": map[string]any{"message": "rate limited"},
	})
	url := newErrorServer(t, http.StatusTooManyRequests, string(errBody))
	client := newTestClient(t, url)

	rec := &deltaRecorder{}
	err := client.Stream(context.Background(), "go", rec.record)

	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.Equal(t, http.StatusTooManyRequests, streamErr.Status)
	assert.Contains(t, streamErr.Reason, "rate limited")
	assert.Empty(t, rec.recorded())
}

func TestStream_EmptyBody(t *testing.T) {
	url, _ := newStreamServer(t, "")
	client := newTestClient(t, url)

	rec := &deltaRecorder{}
	err := client.Stream(context.Background(), "go", rec.record)

	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.Contains(t, streamErr.Reason, "empty response body")
	assert.Empty(t, rec.recorded())
}

func TestStream_MissingTerminatorFlushesLeftover(t *testing.T) {
	raw := "data: " + testutil.DeltaChunk("sent") + "\n\n" +
		"data: trailing text"
	url, _ := newStreamServer(t, raw)
	client := newTestClient(t, url)

	rec := &deltaRecorder{}
	err := client.Stream(context.Background(), "go", rec.record)
	require.NoError(t, err)

	assert.Equal(t, []deltaEvent{
		{delta: "sent"},
		{delta: "trailing text", final: true},
	}, rec.recorded())
}
