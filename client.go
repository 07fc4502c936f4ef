package chatkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "https://api.openai.com/v1"

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o"

// Environment fallbacks consulted by NewClient, in order.
const (
	EnvAPIKey         = "CHATKIT_API_KEY"
	EnvAPIKeyFallback = "OPENAI_API_KEY"
	EnvBaseURL        = "CHATKIT_BASE_URL"
	EnvModel          = "CHATKIT_MODEL"
)

// ModelRef is an immutable transport reference: everything needed to reach
// one model at one endpoint. Values are safe to share across goroutines.
type ModelRef struct {
	BaseURL string
	APIKey  string
	Model   string
}

// NewModelRef builds a transport reference from explicit values. It returns
// a ConfigError when the API key or model is empty.
func NewModelRef(baseURL, apiKey, model string) (ModelRef, error) {
	if apiKey == "" {
		return ModelRef{}, &ConfigError{Reason: "API key is required"}
	}
	if model == "" {
		return ModelRef{}, &ConfigError{Reason: "model is required"}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return ModelRef{BaseURL: baseURL, APIKey: apiKey, Model: model}, nil
}

// endpoint returns the fully qualified chat-completion URL. Trailing slashes
// on the base URL are normalized so both forms hit the same endpoint.
func (m ModelRef) endpoint() string {
	return strings.TrimRight(m.BaseURL, "/") + "/chat/completions"
}

// Client drives chat-completion calls against one transport reference. The
// reference is fixed at construction; concurrent calls on one Client are
// safe because nothing in it is mutated after NewClient returns.
type Client struct {
	ref        ModelRef
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// WithAPIKey sets the API key, overriding environment fallbacks.
func WithAPIKey(key string) Option {
	return func(o *clientOptions) { o.apiKey = key }
}

// WithBaseURL sets the endpoint base URL.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) { o.baseURL = url }
}

// WithModel sets the default model name.
func WithModel(model string) Option {
	return func(o *clientOptions) { o.model = model }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// NewClient builds a Client from options and environment fallbacks.
// The API key is taken from WithAPIKey, then CHATKIT_API_KEY, then
// OPENAI_API_KEY; a missing key is a ConfigError.
func NewClient(opts ...Option) (*Client, error) {
	o := applyOptions(opts)

	apiKey := o.apiKey
	if apiKey == "" {
		apiKey = envWithFallback(EnvAPIKey, EnvAPIKeyFallback)
	}
	baseURL := o.baseURL
	if baseURL == "" {
		baseURL = os.Getenv(EnvBaseURL)
	}
	model := o.model
	if model == "" {
		model = os.Getenv(EnvModel)
	}
	if model == "" {
		model = DefaultModel
	}

	ref, err := NewModelRef(baseURL, apiKey, model)
	if err != nil {
		return nil, err
	}
	return newClient(ref, o), nil
}

// NewClientFromRef builds a Client around an existing transport reference.
// This is the second calling convention: callers that already hold a
// ModelRef skip the environment resolution entirely.
func NewClientFromRef(ref ModelRef, opts ...Option) (*Client, error) {
	if ref.APIKey == "" {
		return nil, &ConfigError{Reason: "API key is required"}
	}
	if ref.Model == "" {
		return nil, &ConfigError{Reason: "model is required"}
	}
	if ref.BaseURL == "" {
		ref.BaseURL = DefaultBaseURL
	}
	return newClient(ref, applyOptions(opts)), nil
}

func applyOptions(opts []Option) *clientOptions {
	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func newClient(ref ModelRef, o *clientOptions) *Client {
	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 180 * time.Second}
	}
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{ref: ref, httpClient: httpClient, logger: logger}
}

// Ref returns the client's transport reference.
func (c *Client) Ref() ModelRef { return c.ref }

// post sends one chat-completion request and returns the raw HTTP response.
// The caller owns resp.Body.
func (c *Client) post(ctx context.Context, req chatRequest) (*http.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ref.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.ref.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// decodeAPIError extracts the server's error message from a failure body.
// It returns the embedded message when the body is an OpenAI-style error
// object, otherwise the raw body text.
func decodeAPIError(body []byte) string {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != nil && resp.Error.Message != "" {
		return resp.Error.Message
	}
	return string(body)
}

func envWithFallback(primary, fallback string) string {
	if v := os.Getenv(primary); v != "" {
		return v
	}
	return os.Getenv(fallback)
}
