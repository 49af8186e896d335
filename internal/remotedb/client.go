// Package remotedb is a typed client for the document-style backend that
// stores the menu and receives placed orders. The backend is opaque beyond
// a get/push-by-path contract: a path holds either an object of keyed
// documents or nothing.
package remotedb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mealbox/storefront/pkg/logger"
)

// ErrNoData reports a read of a path that exists but holds nothing. It is
// distinct from a transport or status failure so callers can treat an empty
// collection as a normal condition.
var ErrNoData = errors.New("no data at path")

// RemoteError wraps any failure talking to the backend. Callers branch on it
// with errors.As and surface a retryable notice; it never escapes as a raw
// transport error.
type RemoteError struct {
	Op     string
	Path   string
	Status int
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remotedb %s %s: status %d", e.Op, e.Path, e.Status)
	}
	return fmt.Sprintf("remotedb %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Document is one keyed record read from a collection path.
type Document struct {
	ID  string
	Raw json.RawMessage
}

// Decode unmarshals the document body into dst.
func (d Document) Decode(dst any) error {
	return json.Unmarshal(d.Raw, dst)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	Log        *logger.Logger
}

// Client talks to the remote backend over HTTP with JSON bodies.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	apiKey     string
	maxRetries int
	log        *logger.Logger
}

// New builds a client. BaseURL is required.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("remotedb base URL required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse remotedb base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 2
	}
	log := cfg.Log
	if log == nil {
		log = logger.NewDefault("remotedb")
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    parsed,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		maxRetries: maxRetries,
		log:        log,
	}, nil
}

// validatePath rejects empty or relative paths before any request is built.
func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path required")
	}
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("path must start with /")
	}
	return nil
}

// GetMany reads the collection at path and returns its documents sorted by
// key. A path holding nothing yields ErrNoData.
func (c *Client) GetMany(ctx context.Context, path string) ([]Document, error) {
	if err := validatePath(path); err != nil {
		return nil, &RemoteError{Op: "get", Path: path, Err: err}
	}

	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	// The backend answers a literal null for an empty path.
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &RemoteError{Op: "get", Path: path, Err: ErrNoData}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, &RemoteError{Op: "get", Path: path, Err: fmt.Errorf("decode collection: %w", err)}
	}

	docs := make([]Document, 0, len(raw))
	for id, val := range raw {
		docs = append(docs, Document{ID: id, Raw: val})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// Push appends record under a new key at path and returns the key the
// backend assigned.
func (c *Client) Push(ctx context.Context, path string, record any) (string, error) {
	if err := validatePath(path); err != nil {
		return "", &RemoteError{Op: "push", Path: path, Err: err}
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return "", &RemoteError{Op: "push", Path: path, Err: fmt.Errorf("marshal record: %w", err)}
	}

	body, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return "", err
	}

	var created struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", &RemoteError{Op: "push", Path: path, Err: fmt.Errorf("decode create response: %w", err)}
	}
	if created.Name == "" {
		return "", &RemoteError{Op: "push", Path: path, Err: fmt.Errorf("backend returned no key")}
	}
	return created.Name, nil
}

// do issues one request with retries on transport errors and 5xx statuses.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	target := *c.baseURL
	target.Path = strings.TrimSuffix(target.Path, "/") + path + ".json"
	if c.apiKey != "" {
		q := target.Query()
		q.Set("auth", c.apiKey)
		target.RawQuery = q.Encode()
	}

	op := strings.ToLower(method)
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader *bytes.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		} else {
			bodyReader = bytes.NewReader(nil)
		}

		req, err := http.NewRequestWithContext(ctx, method, target.String(), bodyReader)
		if err != nil {
			return nil, &RemoteError{Op: op, Path: path, Err: err}
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = &RemoteError{Op: op, Path: path, Err: err}
			continue
		}

		data, readErr := readBody(resp)
		if readErr != nil {
			lastErr = &RemoteError{Op: op, Path: path, Err: readErr}
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = &RemoteError{Op: op, Path: path, Status: resp.StatusCode}
			c.log.Warnf("%s %s returned %d, retrying", method, path, resp.StatusCode)
			continue
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &RemoteError{Op: op, Path: path, Status: resp.StatusCode}
		}
		return data, nil
	}
	return nil, lastErr
}

func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
