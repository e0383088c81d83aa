package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const (
	DefaultEndpointURL = "http://eventlogapp.com/api/log_message"

	apiKeyHeader    = "X_API_KEY"
	maxResponseSize = 1 << 20
)

// ErrInvalidResponse is returned when the service answers with something that is not a JSON object.
var ErrInvalidResponse = errors.New("invalid EventLog response")

// EventLogError is returned when the service reports a falsy status.
type EventLogError struct {
	Message string
}

func (e *EventLogError) Error() string {
	return "EventLog Error: " + e.Message
}

// Truthy decodes the loosely typed status field the service returns.
// true, non-zero numbers, non-empty arrays, objects and strings other than "" and "0" are truthy.
type Truthy bool

func (t *Truthy) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = Truthy(isTruthy(v))
	return nil
}

func isTruthy(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case float64:
		return value != 0
	case string:
		return value != "" && value != "0"
	case []any:
		return len(value) > 0
	default:
		return true
	}
}

type Response struct {
	Status  Truthy `json:"status"`
	Message string `json:"message"`
}

// Client performs the EventLog HTTP exchange. The underlying http.Client is reused for every call.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
	}
}

// Send posts form to endpoint and decodes the service response.
// A decoded response is returned even when its status is falsy; callers decide what that means.
func (c *Client) Send(ctx context.Context, endpoint, apiKey string, form url.Values) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// set directly: Header.Set would canonicalize the key to X_api_key
	req.Header[apiKeyHeader] = []string{apiKey}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result Response
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Debug("undecodable EventLog response",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("body", body))
		return nil, fmt.Errorf("%w (http status %d): %v", ErrInvalidResponse, resp.StatusCode, err)
	}

	return &result, nil
}

// CloseIdleConnections releases pooled connections held by the transport.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}
