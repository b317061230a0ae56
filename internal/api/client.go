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

	"github.com/google/uuid"
	"github.com/nikolayk812/canteen-client/internal/domain"
	"go.uber.org/zap"
)

const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerRequestID     = "X-Request-ID"
)

type doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to the canteen backend. It holds no per-request state and is
// safe for concurrent use.
type Client struct {
	base    *url.URL
	doer    doer
	token   TokenSource
	headers http.Header
	log     *zap.Logger
}

func New(opts ...ClientOptFn) (*Client, error) {
	opt := clientOpt{
		headers: make(http.Header),
	}
	for _, o := range opts {
		if err := o(&opt); err != nil {
			return nil, err
		}
	}

	if opt.addr == "" {
		return nil, errors.New("api address is empty")
	}
	base, err := url.Parse(strings.TrimRight(opt.addr, "/"))
	if err != nil {
		return nil, fmt.Errorf("url.Parse[%s]: %w", opt.addr, err)
	}
	if opt.doer == nil {
		opt.doer = http.DefaultClient
	}
	if opt.token == nil {
		opt.token = func(context.Context) (string, error) { return "", nil }
	}
	if opt.log == nil {
		opt.log = zap.NewNop()
	}

	return &Client{
		base:    base,
		doer:    opt.doer,
		token:   opt.token,
		headers: opt.headers,
		log:     opt.log,
	}, nil
}

// Response is the normalised body of a successful call.
type Response struct {
	StatusCode int
	Data       json.RawMessage
	Message    string
	Raw        json.RawMessage
}

// Decode unmarshals the data field into out. A missing data field leaves out untouched.
func (r *Response) Decode(out any) error {
	if out == nil || len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.Data, out); err != nil {
		return fmt.Errorf("json.Unmarshal data: %w", err)
	}
	return nil
}

type envelope struct {
	Data    json.RawMessage   `json:"data"`
	Errors  []json.RawMessage `json:"errors"`
	Message string            `json:"message"`
	Error   json.RawMessage   `json:"error"`
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.call(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodDelete, path, nil, nil, out)
}

// PostForm sends a multipart form, used by the canteen and item forms that carry an image.
func (c *Client) PostForm(ctx context.Context, path string, form *Form, out any) error {
	body, contentType, err := form.encode()
	if err != nil {
		return fmt.Errorf("form.encode: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPost, path, nil, body, contentType)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("json.Marshal: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}

	resp, err := c.Do(ctx, method, path, query, body, contentType)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// Do issues one request and classifies the outcome: domain.ErrUnauthenticated
// for a missing token or 401/403, *domain.RejectedError for other 4xx and for
// 2xx bodies carrying errors, *domain.TransportError for everything else.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*Response, error) {
	op := method + " " + path

	token, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("token source: %w", err)
	}
	if token == "" {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrUnauthenticated)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), body)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	for k, vals := range c.headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if contentType == "" {
		contentType = "application/json"
	}
	requestID := uuid.NewString()
	req.Header.Set(headerContentType, contentType)
	req.Header.Set(headerAuthorization, token)
	req.Header.Set(headerRequestID, requestID)

	start := time.Now()
	httpResp, err := c.doer.Do(req)
	if err != nil {
		c.log.Warn("request failed",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, &domain.TransportError{Op: op, Err: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &domain.TransportError{Op: op, StatusCode: httpResp.StatusCode, Err: fmt.Errorf("io.ReadAll: %w", err)}
	}

	c.log.Debug("request done",
		zap.String("op", op),
		zap.String("request_id", requestID),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("took", time.Since(start)))

	return classify(op, httpResp.StatusCode, raw)
}

func (c *Client) url(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func classify(op string, status int, raw []byte) (*Response, error) {
	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	message := env.Message
	if message == "" && len(env.Error) > 0 {
		message, _ = firstError([]json.RawMessage{env.Error})
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if message == "" {
			message = http.StatusText(status)
		}
		return nil, fmt.Errorf("%s: %s: %w", op, message, domain.ErrUnauthenticated)
	case status >= 500:
		if message == "" {
			message = strings.TrimSpace(string(raw))
		}
		return nil, &domain.TransportError{Op: op, StatusCode: status, Err: errors.New(message)}
	case status >= 400:
		if message == "" {
			message, _ = firstError(env.Errors)
		}
		return nil, &domain.RejectedError{StatusCode: status, Reason: message}
	case status < 200 || status >= 300:
		return nil, &domain.TransportError{Op: op, StatusCode: status, Err: fmt.Errorf("unexpected status")}
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return &Response{StatusCode: status}, nil
	}
	if decodeErr != nil {
		return nil, &domain.TransportError{Op: op, StatusCode: status, Err: fmt.Errorf("json.Unmarshal envelope: %w", decodeErr)}
	}

	if reason, ok := firstError(env.Errors); ok {
		return nil, &domain.RejectedError{StatusCode: status, Reason: reason}
	}

	return &Response{
		StatusCode: status,
		Data:       env.Data,
		Message:    message,
		Raw:        raw,
	}, nil
}

// firstError extracts the first entry of an errors array, which the backend
// sends either as plain strings or as objects with a message field.
func firstError(errs []json.RawMessage) (string, bool) {
	for _, raw := range errs {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s != "" {
				return s, true
			}
			continue
		}

		var obj struct {
			Message string `json:"message"`
			Msg     string `json:"msg"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil {
			if obj.Message != "" {
				return obj.Message, true
			}
			if obj.Msg != "" {
				return obj.Msg, true
			}
		}

		if trimmed := strings.TrimSpace(string(raw)); trimmed != "" && trimmed != "null" && trimmed != "{}" {
			return trimmed, true
		}
	}
	return "", false
}
