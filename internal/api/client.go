// Package api is the request gateway to the notes server. Every call goes
// through Client.Do, which attaches the bearer credential and performs at
// most one refresh-then-retry cycle when the server answers 401.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ainotes-dev/ainotes/internal/apperr"
	"github.com/ainotes-dev/ainotes/internal/log"
)

// maxErrorBody caps how much of an error response is read for its detail.
const maxErrorBody = 64 * 1024

// Session supplies credentials to the gateway.
type Session interface {
	AccessToken() string
	RefreshAccess(ctx context.Context, stale string) (string, error)
}

// Request is one logical call. Body is buffered so the call can be replayed.
type Request struct {
	Method      string
	Path        string
	Body        []byte
	ContentType string
	Anonymous   bool // never carries a bearer credential and never refreshes
}

func (r Request) op() string {
	return r.Method + " " + r.Path
}

// Attempt tracks one send of a Request. A retried attempt is final.
type Attempt struct {
	Retried    bool
	credential string
}

// Client talks to the notes API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger

	mu      sync.RWMutex
	session Session
}

// NewClient creates a Client for baseURL (for example http://localhost:8000/api).
// A zero timeout means requests are bounded only by their context.
func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// UseSession installs the credential source. Until then every call is anonymous.
func (c *Client) UseSession(s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// BaseURL returns the server root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) currentSession() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Do sends req and decodes a successful JSON response into out (if non-nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	return c.do(ctx, req, Attempt{}, out)
}

func (c *Client) do(ctx context.Context, req Request, attempt Attempt, out any) error {
	sess := c.currentSession()

	token := attempt.credential
	if token == "" && !req.Anonymous && sess != nil {
		token = sess.AccessToken()
	}
	if req.Anonymous {
		token = ""
	}

	resp, err := c.send(ctx, req, token)
	if err != nil {
		return apperr.Network(req.op(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && !req.Anonymous && !attempt.Retried && sess != nil {
		original := failure(req, resp)

		fresh, err := sess.RefreshAccess(ctx, token)
		if err != nil {
			// The session has been cleared; the caller sees the original 401.
			return original
		}

		_ = c.logger.Append(log.LogEvent{Event: log.EventRequestRetried, Method: req.Method, Path: req.Path})
		return c.do(ctx, req, Attempt{Retried: true, credential: fresh}, out)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failure(req, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &apperr.Error{Kind: apperr.ErrServer, Op: req.op(), Status: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

func (c *Client) send(ctx context.Context, req Request, token string) (*http.Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	return c.http.Do(httpReq)
}

// failure converts a non-2xx response into an apperr.Error.
func failure(req Request, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return apperr.FromStatus(req.op(), resp.StatusCode, errorDetail(data))
}

// errorDetail extracts FastAPI's "detail", which is either a string or a
// list of validation entries with a "msg".
func errorDetail(data []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || len(envelope.Detail) == 0 {
		return strings.TrimSpace(string(data))
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}

	var entries []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &entries); err == nil {
		msgs := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.Msg != "" {
				msgs = append(msgs, e.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return string(envelope.Detail)
}

func jsonRequest(method, path string, payload any) (Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Request{}, fmt.Errorf("encoding %s %s: %w", method, path, err)
	}
	return Request{Method: method, Path: path, Body: body, ContentType: "application/json"}, nil
}
