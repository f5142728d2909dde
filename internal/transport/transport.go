// Package transport issues JSON requests to the remote service.
//
// Every call attaches the session's bearer token when one exists, checks the
// response status and converts failures into *service.Failure values. A 401
// response clears the session before the failure is returned.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/api/googleapi"

	"taskboard/internal/service"
	"taskboard/internal/session"
)

// RequestIDHeader carries a per-request id for correlating server logs.
const RequestIDHeader = "X-Request-ID"

// Request describes a single call.
type Request struct {
	Method string
	// Path is appended to the base URL. Callers escape path segments.
	Path string
	// LogPath replaces Path in logs and error messages when Path carries
	// a credential.
	LogPath string
	// Body is encoded as JSON when non-nil.
	Body any
	// Envelope names a key whose value is decoded instead of the whole
	// payload when the response is an object containing it.
	Envelope string
	// Anonymous suppresses the bearer header (login, register).
	Anonymous bool
}

func (r Request) logPath() string {
	if r.LogPath != "" {
		return r.LogPath
	}
	return r.Path
}

// Client sends requests to one base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Store
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for baseURL using sess for bearer credentials.
func New(baseURL string, sess *session.Store, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, service.Fail(service.ValidationFailed, "invalid api url: %q", baseURL)
	}
	if sess == nil {
		return nil, errors.New("transport: nil session store")
	}

	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: http.DefaultClient,
		session:    sess,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Do performs req and decodes the payload into out (which may be nil).
// All failures are *service.Failure.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return err
	}
	requestID := httpReq.Header.Get(RequestIDHeader)
	logger := c.logger.With("method", req.Method, "path", req.logPath(), "request_id", requestID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Debug("request failed", "error", err)
		return &service.Failure{
			Kind:    service.Unreachable,
			Message: fmt.Sprintf("service unreachable: %v", unwrapURLError(err)),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	logger.Debug("response", "status", resp.StatusCode)

	if err := googleapi.CheckResponse(resp); err != nil {
		return c.failure(err, logger)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &service.Failure{
			Kind:    service.Unreachable,
			Message: fmt.Sprintf("failed to read response: %v", err),
			Status:  resp.StatusCode,
			Err:     err,
		}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(unwrapEnvelope(data, req.Envelope), out); err != nil {
		return &service.Failure{
			Kind:    service.RemoteRejected,
			Message: fmt.Sprintf("malformed response from %s %s: %v", req.Method, req.logPath(), err),
			Status:  resp.StatusCode,
			Err:     err,
		}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, &service.Failure{
				Kind:    service.ValidationFailed,
				Message: fmt.Sprintf("failed to encode request: %v", err),
				Err:     err,
			}
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, &service.Failure{
			Kind:    service.ValidationFailed,
			Message: fmt.Sprintf("invalid request: %v", err),
			Err:     err,
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set(RequestIDHeader, uuid.NewString())

	if !req.Anonymous {
		if tok := c.session.OAuth2Token(); tok != nil {
			tok.SetAuthHeader(httpReq)
		}
	}
	return httpReq, nil
}

// failure converts a status error into a Failure, clearing the session on 401.
func (c *Client) failure(err error, logger *slog.Logger) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return &service.Failure{Kind: service.RemoteRejected, Message: err.Error(), Err: err}
	}

	message := remoteMessage(apiErr.Body)

	if apiErr.Code == http.StatusUnauthorized {
		if clearErr := c.session.Clear(); clearErr != nil {
			logger.Warn("failed to clear session", "error", clearErr)
		}
		logger.Debug("session rejected, cleared")
		if message == "" {
			message = "session expired or invalid (run: taskboard login)"
		}
		return &service.Failure{Kind: service.Unauthorized, Message: message, Status: apiErr.Code, Err: err}
	}

	if message == "" {
		message = fmt.Sprintf("HTTP error: status %d", apiErr.Code)
	}
	return &service.Failure{Kind: service.RemoteRejected, Message: message, Status: apiErr.Code, Err: err}
}

// remoteMessage extracts the server-provided message from an error body.
func remoteMessage(body string) string {
	var reply struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal([]byte(body), &reply); err != nil {
		return ""
	}
	if reply.Message != "" {
		return reply.Message
	}
	var detail string
	if err := json.Unmarshal(reply.Detail, &detail); err == nil {
		return detail
	}
	return ""
}

// unwrapEnvelope returns the value stored under key when data is an object
// that contains it, and data unchanged otherwise.
func unwrapEnvelope(data []byte, key string) []byte {
	if key == "" {
		return data
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return data
	}
	if inner, ok := obj[key]; ok {
		return inner
	}
	return data
}

func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
