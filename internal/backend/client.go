package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/impresiones-magicas/storefront/pkg/errors"
	"github.com/impresiones-magicas/storefront/pkg/logger"
)

const responseBodyExcerptLimit int64 = 1024

var errBaseURLRequired = errors.New("backend base url is required")

// TokenSource yields the bearer token for the current request, or "" when anonymous.
type TokenSource func(ctx context.Context) string

// UnauthorizedHook is invoked once for every 401 the backend returns.
type UnauthorizedHook func(ctx context.Context)

// Client wraps the catalog REST backend the storefront mirrors. Every call is a
// single best-effort round trip: no retries, no caching.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	tokenSource    TokenSource
	onUnauthorized UnauthorizedHook
	logger         *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTokenSource installs the per-request bearer token provider.
func WithTokenSource(source TokenSource) Option {
	return func(c *Client) {
		if source != nil {
			c.tokenSource = source
		}
	}
}

// WithUnauthorizedHook registers the session-expired callback. The session
// store registers itself here at wiring time; the client never reaches into
// session state directly.
func WithUnauthorizedHook(hook UnauthorizedHook) Option {
	return func(c *Client) {
		if hook != nil {
			c.onUnauthorized = hook
		}
	}
}

// WithLogger enables request/response debug logging.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logger = logg
	}
}

// NewClient builds the backend client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}
	return client, nil
}

// MultipartFile is one file part inside a multipart upload.
type MultipartFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// MultipartBody describes a multipart/form-data payload. Field is the form
// field name every file is written under ("file" for category images, "files"
// for product images).
type MultipartBody struct {
	Field  string
	Files  []MultipartFile
	Fields map[string]string
}

// StatusError carries the upstream HTTP status for non-2xx responses.
type StatusError struct {
	Status     int
	StatusText string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d %s", e.Status, e.StatusText)
}

// StatusCode extracts the upstream status from an error chain, or 0.
func StatusCode(err error) int {
	var typed *StatusError
	if errors.As(err, &typed) {
		return typed.Status
	}
	return 0
}

// Get issues a GET and decodes the JSON response into dest.
func (c *Client) Get(ctx context.Context, path string, dest any) error {
	return c.do(ctx, http.MethodGet, path, nil, dest)
}

// Post issues a POST with a JSON or multipart body.
func (c *Client) Post(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, http.MethodPost, path, body, dest)
}

// Patch issues a PATCH with a JSON or multipart body.
func (c *Client) Patch(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, http.MethodPatch, path, body, dest)
}

// Delete issues a DELETE and decodes the JSON response into dest when present.
func (c *Client) Delete(ctx context.Context, path string, dest any) error {
	return c.do(ctx, http.MethodDelete, path, nil, dest)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "backend client not configured")
	}

	reader, contentType, err := encodeBody(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build backend request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if c.tokenSource != nil {
		if token := strings.TrimSpace(c.tokenSource(ctx)); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.log(ctx, "request", method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "execute backend request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, io.LimitReader(resp.Body, responseBodyExcerptLimit))
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyExcerptLimit))
		cause := &StatusError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       strings.TrimSpace(string(excerpt)),
		}
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, cause, fmt.Sprintf("%s %s failed", method, path)).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	c.log(ctx, "response", method, path)

	if dest == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, io.LimitReader(resp.Body, responseBodyExcerptLimit))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode backend response")
	}
	return nil
}

// encodeBody returns the request reader and Content-Type. Multipart bodies get
// the writer's boundary header; a manual application/json here would corrupt
// the form.
func encodeBody(body any) (io.Reader, string, error) {
	switch payload := body.(type) {
	case nil:
		return nil, "", nil
	case *MultipartBody:
		if payload == nil {
			return nil, "", nil
		}
		buf := &bytes.Buffer{}
		writer := multipart.NewWriter(buf)
		field := payload.Field
		if field == "" {
			field = "file"
		}
		for _, file := range payload.Files {
			part, err := writer.CreateFormFile(field, file.FileName)
			if err != nil {
				return nil, "", err
			}
			if _, err := part.Write(file.Content); err != nil {
				return nil, "", err
			}
		}
		for key, value := range payload.Fields {
			if err := writer.WriteField(key, value); err != nil {
				return nil, "", err
			}
		}
		if err := writer.Close(); err != nil {
			return nil, "", err
		}
		return buf, writer.FormDataContentType(), nil
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(encoded), "application/json", nil
	}
}

func (c *Client) buildURL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) log(ctx context.Context, phase, method, path string) {
	if c.logger == nil {
		return
	}
	ctx = c.logger.WithFields(ctx, map[string]any{
		"backend_method": method,
		"backend_path":   path,
	})
	c.logger.Debug(ctx, "backend."+phase)
}
