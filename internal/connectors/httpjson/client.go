// Package httpjson is a small JSON-over-HTTP client shared by the token
// verifiers whose providers have no Go SDK in use here.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 15 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// Client sends JSON requests and returns the parsed response.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	headers http.Header
}

// New creates a client sending headers with every request, limited to
// rps requests per second.
func New(headers http.Header, rps float64) *Client {
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		headers: headers.Clone(),
	}
}

// Do sends a request with an optional JSON body and returns the response
// document. Non-2xx responses yield *StatusError with the message found
// at one of the usual error paths.
func (c *Client) Do(ctx context.Context, method, url string, body any) (gjson.Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return gjson.Result{}, fmt.Errorf("rate limit wait: %w", err)
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read response: %w", err)
	}
	doc := gjson.ParseBytes(raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := doc.Get("error.message").String()
		if msg == "" {
			msg = doc.Get("errors.0.message").String()
		}
		if msg == "" {
			msg = doc.Get("message").String()
		}
		return doc, &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}
	return doc, nil
}
