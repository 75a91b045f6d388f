// Package discovery implements the JSON-RPC client for the remote
// node-capability catalog. Connection failures are typed so the orchestrator
// can degrade to its static capability table instead of failing the job.
package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNotConnected is returned by tool calls issued before Connect succeeds.
var ErrNotConnected = errors.New("discovery client is not connected")

// ConnectionError wraps connect/initialize failures. The orchestrator treats
// it as non-fatal.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to node catalog at %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsConnectionError reports whether err is a discovery connection failure.
func IsConnectionError(err error) bool {
	var connErr *ConnectionError

	return errors.As(err, &connErr)
}

const defaultTimeout = 30 * time.Second

// Config holds the catalog endpoint settings.
type Config struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
}

// Client is a JSON-RPC 2.0 client over HTTP with bearer authentication.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger

	mu        sync.Mutex
	connected bool
	sessionID string
	requestID atomic.Int64
}

func NewClient(config Config, logger *slog.Logger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      int64  `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      int64           `json:"id"`
}

// Connect establishes a catalog session.
func (c *Client) Connect(ctx context.Context) error {
	result, err := c.call(ctx, "initialize", map[string]any{
		"clientInfo": map[string]string{"name": "flowforge", "version": "1.0"},
	})
	if err != nil {
		return &ConnectionError{Endpoint: c.config.Endpoint, Err: err}
	}

	var session struct {
		SessionID string `json:"sessionId"`
	}

	if err := json.Unmarshal(result, &session); err != nil {
		return &ConnectionError{Endpoint: c.config.Endpoint, Err: err}
	}

	c.mu.Lock()
	c.connected = true
	c.sessionID = session.SessionID
	c.mu.Unlock()

	c.logger.Info("Connected to node catalog", "endpoint", c.config.Endpoint, "session_id", session.SessionID)

	return nil
}

// Disconnect tears the session down. Best effort; errors are logged, not
// returned.
func (c *Client) Disconnect(ctx context.Context) {
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.sessionID = ""
	c.mu.Unlock()

	if !wasConnected {
		return
	}

	if _, err := c.call(ctx, "shutdown", nil); err != nil {
		c.logger.Warn("Failed to close node catalog session", "error", err)
	}
}

// Connected reports whether a session is established.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connected
}

// CallTool invokes a named catalog tool. Remote errors surface as errors.
func (c *Client) CallTool(ctx context.Context, name string, params map[string]any) (json.RawMessage, error) {
	if !c.Connected() {
		return nil, ErrNotConnected
	}

	return c.call(ctx, "tools/call", map[string]any{
		"name":      name,
		"arguments": params,
	})
}

func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	request := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.requestID.Add(1),
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rpc request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	if c.config.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("rpc request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rpc response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rpc request failed with status %d: %s", resp.StatusCode, string(raw))
	}

	var response rpcResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, fmt.Errorf("failed to parse rpc response: %w", err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", response.Error.Code, response.Error.Message)
	}

	return response.Result, nil
}
