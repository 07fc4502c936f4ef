package chatkit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/chatkit/internal/testutil"
)

type cityResult struct {
	City string `json:"city"`
}

func TestGenerateObject_RoundTrip(t *testing.T) {
	server := testutil.NewScriptedServer(t,
		testutil.ToolCallBody(
			testutil.ToolCallSpec{ID: "call_1", Name: SubmitObjectToolName, Arguments: `{"city":"Paris"}`},
		),
	)
	client := newTestClient(t, server.URL)

	result, err := GenerateObject[cityResult](context.Background(), client,
		"What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris", result.City)
	assert.Equal(t, 1, server.RequestCount())
}

func TestGenerateObject_AdvertisesSingleSyntheticTool(t *testing.T) {
	server := testutil.NewScriptedServer(t,
		testutil.ToolCallBody(
			testutil.ToolCallSpec{ID: "call_1", Name: SubmitObjectToolName, Arguments: `{"city":"Paris"}`},
		),
	)
	client := newTestClient(t, server.URL)

	_, err := GenerateObject[cityResult](context.Background(), client, "capital of France?")
	require.NoError(t, err)

	var req struct {
		Messages []Message        `json:"messages"`
		Tools    []ToolDescriptor `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(server.Request(0), &req))

	require.Len(t, req.Tools, 1)
	assert.Equal(t, SubmitObjectToolName, req.Tools[0].Function.Name)

	// Strict schema: no extra properties, city required.
	params := req.Tools[0].Function.Parameters
	assert.Equal(t, false, params["additionalProperties"])
	assert.Equal(t, []any{"city"}, params["required"])

	// History is system preamble then user prompt.
	require.Len(t, req.Messages, 2)
	assert.Equal(t, RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, SubmitObjectToolName)
	assert.Equal(t, RoleUser, req.Messages[1].Role)
	assert.Equal(t, "capital of France?", req.Messages[1].Content)
}

func TestGenerateObject_CustomSystemPreamble(t *testing.T) {
	server := testutil.NewScriptedServer(t,
		testutil.ToolCallBody(
			testutil.ToolCallSpec{ID: "call_1", Name: SubmitObjectToolName, Arguments: `{"city":"Paris"}`},
		),
	)
	client := newTestClient(t, server.URL)

	_, err := GenerateObject[cityResult](context.Background(), client, "capital?",
		WithSystem("custom preamble"))
	require.NoError(t, err)

	req := decodeRequest(t, server.Request(0))
	messages := req["messages"].([]any)
	assert.Equal(t, "custom preamble", messages[0].(map[string]any)["content"])
}

func TestGenerateObject_ValidationFailure(t *testing.T) {
	server := testutil.NewScriptedServer(t,
		testutil.ToolCallBody(
			testutil.ToolCallSpec{ID: "call_1", Name: SubmitObjectToolName, Arguments: `{"city":5}`},
		),
	)
	client := newTestClient(t, server.URL)

	_, err := GenerateObject[cityResult](context.Background(), client, "capital?")
	require.Error(t, err)

	var outErr *StructuredOutputError
	require.ErrorAs(t, err, &outErr)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGenerateObject_ContentFallback(t *testing.T) {
	server := testutil.NewScriptedServer(t,
		testutil.AssistantBody(`{"city":"Lisbon"}`),
	)
	client := newTestClient(t, server.URL)

	result, err := GenerateObject[cityResult](context.Background(), client, "capital of Portugal?")
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", result.City)
}

func TestGenerateObject_NoStructuredPayload(t *testing.T) {
	server := testutil.NewScriptedServer(t,
		testutil.AssistantBody("I would rather chat about the weather."),
	)
	client := newTestClient(t, server.URL)

	_, err := GenerateObject[cityResult](context.Background(), client, "capital?")
	var outErr *StructuredOutputError
	require.ErrorAs(t, err, &outErr)
	assert.Contains(t, outErr.Reason, "model did not return a structured object")
}

func TestGenerateObject_EmptyResponse(t *testing.T) {
	server := testutil.NewScriptedServer(t, testutil.AssistantBody(""))
	client := newTestClient(t, server.URL)

	_, err := GenerateObject[cityResult](context.Background(), client, "capital?")
	var outErr *StructuredOutputError
	require.ErrorAs(t, err, &outErr)
}

func TestGenerateObject_IgnoresUnrelatedToolCalls(t *testing.T) {
	server := testutil.NewScriptedServer(t,
		testutil.ToolCallBody(
			testutil.ToolCallSpec{ID: "call_1", Name: "some_other_tool", Arguments: `{}`},
		),
	)
	client := newTestClient(t, server.URL)

	_, err := GenerateObject[cityResult](context.Background(), client, "capital?")
	var outErr *StructuredOutputError
	require.ErrorAs(t, err, &outErr)
	assert.Equal(t, 1, server.RequestCount())
}
