package reststore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// RateLimitError is returned when the server responds with HTTP 429. It
// carries an optional RetryAfter duration parsed from the Retry-After header.
type RateLimitError struct {
	RetryAfter time.Duration
	Body       string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("reststore: rate limited (retry after %s): %s", e.RetryAfter, e.Body)
	}

	return fmt.Sprintf("reststore: rate limited: %s", e.Body)
}

// parseRetryAfter parses a Retry-After header value as either seconds or an
// HTTP-date. Returns zero if unparseable or in the past.
func parseRetryAfter(val string) time.Duration {
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(val); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}

	return 0
}

// apiError is the error payload tracking servers return for failed calls.
type apiError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"error_code"`
	Message    string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("reststore: %s: %s", e.Code, e.Message)
	}

	return fmt.Sprintf("reststore: status %d: %s", e.StatusCode, e.Message)
}

// api is the HTTP client shared by the tracking and registry halves of the
// REST store. Token, when set, is sent as a bearer Authorization header.
type api struct {
	BaseURL string            // Server base URL (no trailing slash).
	Token   string            // Bearer token, optional.
	Client  *http.Client      // HTTP client; falls back to a default with a timeout.
	Headers map[string]string // Extra headers applied to every request.

	clientOnce    sync.Once
	defaultClient *http.Client
}

func (a *api) httpClient() *http.Client {
	if a.Client != nil {
		return a.Client
	}

	a.clientOnce.Do(func() {
		a.defaultClient = &http.Client{Timeout: 2 * time.Minute}
	})

	return a.defaultClient
}

// newRequest builds an *http.Request with the base URL, auth, and custom
// headers already applied.
func (a *api) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, body)
	if err != nil {
		return nil, err
	}

	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}
	for k, v := range a.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// PostJSON marshals payload as JSON, sends a POST to the given path, checks
// for a 2xx status, and unmarshals the response body into dest. If dest is
// nil the response body is discarded after the status check.
func (a *api) PostJSON(ctx context.Context, path string, payload, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("reststore: marshal payload: %w", err)
	}

	req, err := a.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("reststore: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return a.do(req, dest)
}

// GetJSON sends a GET to the path with the given query values and unmarshals
// the response into dest.
func (a *api) GetJSON(ctx context.Context, path string, query url.Values, dest any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	req, err := a.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("reststore: build request: %w", err)
	}

	return a.do(req, dest)
}

func (a *api) do(req *http.Request, dest any) error {
	resp, err := a.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("reststore: do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		respBody, _ := io.ReadAll(resp.Body)
		return &RateLimitError{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Body:       string(respBody),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		apiErr := &apiError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("reststore: decode response: %w", err)
	}

	return nil
}

// wsURL converts the base URL to a WebSocket URL and appends the path.
func (a *api) wsURL(path string) string {
	u := a.BaseURL + path

	if strings.HasPrefix(u, "https://") {
		return "wss://" + u[len("https://"):]
	}
	if strings.HasPrefix(u, "http://") {
		return "ws://" + u[len("http://"):]
	}

	return u
}

func (a *api) wsHeaders() http.Header {
	h := make(http.Header)

	if a.Token != "" {
		h.Set("Authorization", "Bearer "+a.Token)
	}
	for k, v := range a.Headers {
		h.Set(k, v)
	}

	return h
}

// dialWS establishes a WebSocket connection to the given path with auth and
// custom headers applied.
func (a *api) dialWS(ctx context.Context, path string) (*websocket.Conn, *http.Response, error) {
	conn, resp, err := websocket.Dial(ctx, a.wsURL(path), &websocket.DialOptions{
		HTTPClient: a.httpClient(),
		HTTPHeader: a.wsHeaders(),
	})
	if err != nil {
		return nil, resp, fmt.Errorf("reststore: dial websocket: %w", err)
	}

	return conn, resp, nil
}
