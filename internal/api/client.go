package api

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
	"time"
)

// Error is a failed backend call: a non-2xx response or a transport failure.
// Message carries, in priority order, the "message" field of the response
// body, then FastAPI's "detail" field, then the HTTP status text.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// Client talks to the RAG backend over HTTP with JSON bodies.
type Client struct {
	baseURL string
	client  *http.Client
	retry   RetryPolicy
}

// Config configures the backend client. A zero Timeout leaves the
// underlying HTTP client's defaults in place; a nil Retry means no retries.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Retry   RetryPolicy
}

// NewClient creates a backend client using the provided configuration.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "http://localhost:8001"
	}
	retry := cfg.Retry
	if retry == nil {
		retry = NoRetry()
	}
	return &Client{
		baseURL: base,
		client:  &http.Client{Timeout: cfg.Timeout},
		retry:   retry,
	}
}

// Ask submits a question and returns the answer with the backend's
// reported processing time in seconds. The question is sent verbatim,
// including an empty string.
func (c *Client) Ask(ctx context.Context, question string) (AnswerResponse, error) {
	var out AnswerResponse
	err := c.call(ctx, http.MethodPost, "/ask", map[string]string{"question": question}, &out)
	return out, err
}

// InjectURLs asks the backend to fetch, chunk and index the given URLs.
// Deduplication and URL validation are the backend's job.
func (c *Client) InjectURLs(ctx context.Context, urls []string) (InjectResponse, error) {
	var out InjectResponse
	err := c.call(ctx, http.MethodPost, "/inject", map[string][]string{"urls": urls}, &out)
	return out, err
}

// DebugPoints returns the raw vector-store contents, at most limit points.
// The document is opaque to the client and passed through undecoded.
func (c *Client) DebugPoints(ctx context.Context, limit int) (json.RawMessage, error) {
	path := "/debug/points"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out json.RawMessage
	err := c.call(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// MetadataCounts returns the chunk count per indexed url, in the order the
// backend emitted the keys. Document order matters downstream: it is the
// tie-breaker when the counts are sorted for display.
func (c *Client) MetadataCounts(ctx context.Context) ([]CountEntry, error) {
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, "/metadata/counts", nil, &raw); err != nil {
		return nil, err
	}
	return decodeOrderedCounts(raw)
}

// DeleteByURL deletes every chunk indexed under the given url.
func (c *Client) DeleteByURL(ctx context.Context, target string) (DeleteResponse, error) {
	var out DeleteResponse
	err := c.call(ctx, http.MethodPost, "/delete_by_metadata", map[string]string{"url": target}, &out)
	return out, err
}

// FetchConfig reads the model configuration the backend is running with.
// Safe to call repeatedly; it is a pure read.
func (c *Client) FetchConfig(ctx context.Context) (ServiceConfig, error) {
	var out ServiceConfig
	err := c.call(ctx, http.MethodGet, "/api/config", nil, &out)
	return out, err
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}
	target := c.baseURL + path

	for attempt := 0; ; attempt++ {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			callErr := &Error{Message: transportMessage(err)}
			if delay, again := c.retry.Next(attempt, callErr); again {
				time.Sleep(delay)
				continue
			}
			return callErr
		}

		data, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			callErr := &Error{Status: resp.StatusCode, Message: err.Error()}
			if delay, again := c.retry.Next(attempt, callErr); again {
				time.Sleep(delay)
				continue
			}
			return callErr
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			callErr := &Error{Status: resp.StatusCode, Message: errorMessage(data, resp.Status)}
			if delay, again := c.retry.Next(attempt, callErr); again {
				time.Sleep(delay)
				continue
			}
			return callErr
		}

		if out == nil || len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return &Error{Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
		}
		return nil
	}
}

// errorMessage extracts a human-readable message from an error response
// body, preferring "message", then "detail", then the HTTP status line.
func errorMessage(body []byte, status string) string {
	var shape struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &shape); err == nil {
		if shape.Message != "" {
			return shape.Message
		}
		if shape.Detail != "" {
			return shape.Detail
		}
	}
	return status
}

// transportMessage unwraps the url.Error noise so logs carry the cause.
func transportMessage(err error) string {
	if ue, ok := err.(*url.Error); ok && ue.Err != nil {
		return ue.Err.Error()
	}
	return err.Error()
}

// decodeOrderedCounts walks the metadata_counts object token by token so
// the JSON document's key order survives; decoding into a map would
// scramble it.
func decodeOrderedCounts(raw json.RawMessage) ([]CountEntry, error) {
	var envelope struct {
		MetadataCounts json.RawMessage `json:"metadata_counts"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.MetadataCounts) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(envelope.MetadataCounts))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("metadata_counts: expected object, got %v", tok)
	}

	var entries []CountEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("metadata_counts: non-string key %v", keyTok)
		}
		var count int
		if err := dec.Decode(&count); err != nil {
			return nil, fmt.Errorf("metadata_counts[%s]: %w", key, err)
		}
		entries = append(entries, CountEntry{URL: key, Count: count})
	}
	return entries, nil
}
