package jules

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

// DefaultBaseURL is the production Jules API endpoint.
const DefaultBaseURL = "https://jules.googleapis.com/v1alpha"

const (
	defaultTimeout       = 10 * time.Second
	defaultCreateTimeout = 30 * time.Second
	defaultRetryAttempts = 3
	defaultRetryDelay    = 500 * time.Millisecond
)

// APIError is a non-2xx response from the Jules API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jules api: status %d: %s", e.StatusCode, e.Body)
}

// Client is a typed client for the Jules API. All calls authenticate via
// the X-Goog-Api-Key header and retry transient failures with backoff.
type Client struct {
	baseURL       string
	apiKey        string
	httpc         *http.Client
	createc       *http.Client
	debug         *DebugLog
	log           *zap.SugaredLogger
	retryAttempts uint
	retryDelay    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client for all calls.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpc = h
		c.createc = h
	}
}

// WithDebugLog attaches a raw-response debug log.
func WithDebugLog(d *DebugLog) Option {
	return func(c *Client) { c.debug = d }
}

// WithLogger attaches a logger for retry and error reporting.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) { c.log = l }
}

// WithRetry overrides the retry policy (attempts includes the first try).
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.retryAttempts = attempts
		c.retryDelay = delay
	}
}

// NewClient creates a Jules API client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:       DefaultBaseURL,
		apiKey:        apiKey,
		httpc:         &http.Client{Timeout: defaultTimeout},
		createc:       &http.Client{Timeout: defaultCreateTimeout},
		log:           zap.NewNop().Sugar(),
		retryAttempts: defaultRetryAttempts,
		retryDelay:    defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListSessions fetches up to pageSize recent sessions.
func (c *Client) ListSessions(ctx context.Context, pageSize int) ([]Session, error) {
	q := url.Values{"pageSize": []string{strconv.Itoa(pageSize)}}
	var out ListSessionsResponse
	if err := c.get(ctx, "/sessions", q, &out); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out.Sessions, nil
}

// GetSession fetches one session by ID. The ID may carry the "sessions/"
// resource prefix.
func (c *Client) GetSession(ctx context.Context, id string) (*Session, error) {
	var out Session
	if err := c.get(ctx, "/sessions/"+CleanID(id), nil, &out); err != nil {
		return nil, fmt.Errorf("get session %s: %w", CleanID(id), err)
	}
	return &out, nil
}

// ListActivities fetches up to pageSize recent activities for a session.
func (c *Client) ListActivities(ctx context.Context, id string, pageSize int) ([]Activity, error) {
	q := url.Values{"pageSize": []string{strconv.Itoa(pageSize)}}
	var out ListActivitiesResponse
	if err := c.get(ctx, "/sessions/"+CleanID(id)+"/activities", q, &out); err != nil {
		return nil, fmt.Errorf("list activities for %s: %w", CleanID(id), err)
	}
	return out.Activities, nil
}

// CreateSession starts a new session and returns it.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	var out Session
	if err := c.post(ctx, "/sessions", req, &out); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, c.httpc, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.do(ctx, c.createc, http.MethodPost, path, nil, payload, out)
}

// do performs one API call with bounded retry. Transport errors and 5xx
// responses are retried; 4xx responses are terminal.
func (c *Client) do(ctx context.Context, httpc *http.Client, method, path string, query url.Values, payload []byte, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	return retry.Do(func() error {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		req.Header.Set("X-Goog-Api-Key", c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := httpc.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 300 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
			if resp.StatusCode < 500 {
				return retry.Unrecoverable(apiErr)
			}
			return apiErr
		}

		c.debug.Record(method+" "+path, raw)

		if out != nil {
			if err := json.Unmarshal(raw, out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
			}
		}
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(c.retryAttempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warnw("jules api call failed, retrying", "endpoint", path, "attempt", n+1, "error", err)
		}),
	)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
