// Package analyzer is the client for the remote text-generation service
// that performs the actual risk analysis. It speaks the OpenAI-compatible
// chat-completions protocol and returns the model's raw text; parsing the
// response into findings is the caller's concern.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// Client is a high-level client for the analysis service.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures the Client during construction.
type Option func(*clientConfig) error

type clientConfig struct {
	model      string
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration
}

// New creates a Client for the given service endpoint. The apiKey is sent
// as a bearer token on every request; an empty key is allowed here and
// rejected per-call with a ConfigurationError, so a scan can still run its
// failure path without credentials.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("analyzer: baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	cfg := &clientConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	} else if cfg.timeout > 0 {
		// Never mutate a caller-supplied client.
		cp := *httpClient
		httpClient = &cp
	}
	if cfg.timeout > 0 {
		httpClient.Timeout = cfg.timeout
	}

	model := cfg.model
	if model == "" {
		model = DefaultModel
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// WithModel overrides the default model name.
func WithModel(m string) Option {
	return func(cfg *clientConfig) error {
		cfg.model = m
		return nil
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) error {
		cfg.httpClient = c
		return nil
	}
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *clientConfig) error {
		cfg.logger = l
		return nil
	}
}

// WithTimeout sets a timeout on the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) error {
		cfg.timeout = d
		return nil
	}
}

// ReadAPIKey reads the first line of a key file and returns it trimmed.
// Falls back to the CODESCANNER_API_KEY environment variable when the file
// does not exist.
func ReadAPIKey(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if key := strings.TrimSpace(os.Getenv("CODESCANNER_API_KEY")); key != "" {
				return key, nil
			}
		}
		return "", err
	}
	line := strings.TrimSpace(strings.Split(string(data), "\n")[0])
	return line, nil
}

// --- chat completion wire types ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// AnalyzeDependencies sends the full dependency specifier list in one call
// and returns the raw response text.
func (c *Client) AnalyzeDependencies(ctx context.Context, specifiers []string) (string, error) {
	return c.complete(ctx, "analyze dependencies", dependenciesPrompt(specifiers))
}

// AnalyzeCode sends one source file's content and returns the raw response
// text. path is included in the prompt so the model can attribute findings.
func (c *Client) AnalyzeCode(ctx context.Context, content, path string) (string, error) {
	return c.complete(ctx, "analyze code", codePrompt(content, path))
}

func (c *Client) complete(ctx context.Context, operation, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", &ConfigurationError{Reason: "no access key configured"}
	}

	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("%s: encode request: %w", operation, err)
	}

	url := c.baseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: create request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.logger.InfoContext(ctx, "analyzer request", "operation", operation, "model", c.model)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Operation: operation, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "analyzer response", "operation", operation, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		var errRS errorResponse
		if json.Unmarshal(respBody, &errRS) == nil && errRS.Error.Message != "" {
			return "", &TransportError{Operation: operation, Status: resp.StatusCode, Message: errRS.Error.Message}
		}
		msg := string(respBody)
		if msg == "" {
			msg = resp.Status
		}
		return "", &TransportError{Operation: operation, Status: resp.StatusCode, Message: msg}
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", operation, err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("%s: response has no choices", operation)
	}
	return cr.Choices[0].Message.Content, nil
}
