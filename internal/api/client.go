// Package api is the gateway to the food-court REST backend. Every call but
// login carries the session's bearer token; a 401 on such a call expires the
// session.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"foodcourt-dashboard/internal/session"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Client struct {
	baseURL        string
	http           *http.Client
	session        *session.Store
	log            *logrus.Entry
	timeout        time.Duration
	onUnauthorized func()
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *logrus.Entry) Option {
	return func(c *Client) { c.log = l }
}

// WithTimeout bounds each request; zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// OnUnauthorized registers a hook run after the session has been expired by
// a 401 response.
func OnUnauthorized(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func New(baseURL string, store *session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		session: store,
		log:     logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("component", "api")
	return c
}

func (c *Client) Session() *session.Store {
	return c.session
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
	Message string `json:"message"`
}

type call struct {
	method string
	path   string
	query  url.Values
	body   any
	out    any
	// Login is the only unauthenticated call.
	public bool
	// raw decodes the body into out without the {data} envelope.
	raw bool
}

func (c *Client) do(ctx context.Context, cl call) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("api: encode %s %s: %w", cl.method, cl.path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return fmt.Errorf("api: build %s %s: %w", cl.method, cl.path, err)
	}
	reqID, _ := ctx.Value(requestIDKey{}).(string)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !cl.public {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	log := c.log.WithFields(logrus.Fields{
		"request_id": reqID,
		"method":     cl.method,
		"path":       cl.path,
	})

	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("backend unreachable")
		return &TransportError{Method: cl.method, Path: cl.path, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: cl.method, Path: cl.path, Err: err}
	}
	log = log.WithFields(logrus.Fields{"status": resp.StatusCode, "latency": time.Since(start).String()})

	if resp.StatusCode == http.StatusUnauthorized && !cl.public {
		log.Warn("session rejected, clearing credentials")
		c.session.Expire()
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(payload, &eb) == nil {
			apiErr.Message = eb.Error
			if apiErr.Message == "" {
				apiErr.Message = eb.Message
			}
			apiErr.Details = eb.Details
		}
		log.WithField("error", apiErr.Message).Info("backend returned error")
		return apiErr
	}
	log.Debug("backend call ok")

	if cl.out == nil || len(payload) == 0 {
		return nil
	}
	if cl.raw {
		if err := json.Unmarshal(payload, cl.out); err != nil {
			return fmt.Errorf("api: decode %s %s: %w", cl.method, cl.path, err)
		}
		return nil
	}
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("api: decode %s %s: %w", cl.method, cl.path, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, cl.out); err != nil {
		return fmt.Errorf("api: decode %s %s data: %w", cl.method, cl.path, err)
	}
	return nil
}

type requestIDKey struct{}

// WithRequestID makes calls made with ctx carry id as X-Request-ID, so a
// dashboard request and the backend calls it causes share one id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// IsUnauthorized is shorthand for errors.Is(err, ErrUnauthorized).
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
