package chatkit

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupArgs struct {
	Key string `json:"key"`
}

func TestNewTool_CallPath(t *testing.T) {
	tool, err := NewTool("lookup", "look a key up", func(ctx context.Context, args lookupArgs) (string, error) {
		return "value of " + args.Key, nil
	})
	require.NoError(t, err)

	assert.Equal(t, "lookup", tool.Name())
	assert.Equal(t, "look a key up", tool.Description())

	result, err := tool.Call(context.Background(), []byte(`{"key":"host"}`))
	require.NoError(t, err)
	assert.Equal(t, "value of host", result)
}

func TestNewTool_ValidatesArguments(t *testing.T) {
	tool, err := NewTool("lookup", "", func(ctx context.Context, args lookupArgs) (string, error) {
		t.Fatal("execute function must not run on invalid arguments")
		return "", nil
	})
	require.NoError(t, err)

	_, err = tool.Call(context.Background(), []byte(`{"key":42}`))
	var argErr *ToolArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "lookup", argErr.Tool)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewTool_PropagatesExecuteError(t *testing.T) {
	wantErr := fmt.Errorf("backend unavailable")
	tool, err := NewTool("lookup", "", func(ctx context.Context, args lookupArgs) (string, error) {
		return "", wantErr
	})
	require.NoError(t, err)

	_, err = tool.Call(context.Background(), []byte(`{"key":"x"}`))
	assert.ErrorIs(t, err, wantErr)
}

func TestNewTool_InvalidConstruction(t *testing.T) {
	var invalidErr *InvalidToolError

	_, err := NewTool("", "desc", func(ctx context.Context, args lookupArgs) (string, error) { return "", nil })
	require.ErrorAs(t, err, &invalidErr)

	_, err = NewTool[lookupArgs]("lookup", "desc", nil)
	require.ErrorAs(t, err, &invalidErr)
}

func TestNewTool_ParametersReflected(t *testing.T) {
	tool, err := NewTool("lookup", "", func(ctx context.Context, args lookupArgs) (string, error) {
		return "", nil
	})
	require.NoError(t, err)

	params := tool.Parameters()
	assert.Equal(t, "object", params["type"])
	props := params["properties"].(map[string]any)
	assert.Contains(t, props, "key")
}

func rawSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"city": map[string]any{"type": "string"},
		},
		"required":             []any{"city"},
		"additionalProperties": false,
	}
}

func TestNewRawTool_CallPath(t *testing.T) {
	tool, err := NewRawTool("weather", "current weather", rawSchema(), func(ctx context.Context, rawArgs json.RawMessage) (string, error) {
		var args struct {
			City string `json:"city"`
		}
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return "", err
		}
		return "sunny in " + args.City, nil
	})
	require.NoError(t, err)

	result, err := tool.Call(context.Background(), []byte(`{"city":"Oslo"}`))
	require.NoError(t, err)
	assert.Equal(t, "sunny in Oslo", result)
}

func TestNewRawTool_ValidatesAgainstSchema(t *testing.T) {
	tool, err := NewRawTool("weather", "", rawSchema(), func(ctx context.Context, rawArgs json.RawMessage) (string, error) {
		t.Fatal("execute function must not run on invalid arguments")
		return "", nil
	})
	require.NoError(t, err)

	_, err = tool.Call(context.Background(), []byte(`{"city":7}`))
	var argErr *ToolArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = tool.Call(context.Background(), []byte(`{`))
	require.ErrorAs(t, err, &argErr)
}

func TestNewRawTool_DoesNotAliasCallerSchema(t *testing.T) {
	schema := rawSchema()
	tool, err := NewRawTool("weather", "", schema, func(ctx context.Context, rawArgs json.RawMessage) (string, error) {
		return "", nil
	})
	require.NoError(t, err)

	schema["type"] = "mutated"
	schema["properties"].(map[string]any)["city"].(map[string]any)["type"] = "number"

	params := tool.Parameters()
	assert.Equal(t, "object", params["type"])
	city := params["properties"].(map[string]any)["city"].(map[string]any)
	assert.Equal(t, "string", city["type"])
}

func TestNewRawTool_InvalidConstruction(t *testing.T) {
	var invalidErr *InvalidToolError
	noop := func(ctx context.Context, rawArgs json.RawMessage) (string, error) { return "", nil }

	_, err := NewRawTool("", "", rawSchema(), noop)
	require.ErrorAs(t, err, &invalidErr)

	_, err = NewRawTool("weather", "", nil, noop)
	require.ErrorAs(t, err, &invalidErr)

	_, err = NewRawTool("weather", "", rawSchema(), nil)
	require.ErrorAs(t, err, &invalidErr)
}
