package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// TokenSource returns the token to attach to the next request. An empty
// token fails the request with domain.ErrUnauthenticated.
type TokenSource func(ctx context.Context) (string, error)

// ClientOptFn are options to set different parameters on the Client.
type ClientOptFn func(*clientOpt) error

type clientOpt struct {
	addr    string
	doer    doer
	token   TokenSource
	headers http.Header
	log     *zap.Logger
}

// WithAddr sets the base URL of the backend, e.g. https://api.example.com/v1.
func WithAddr(addr string) ClientOptFn {
	return func(opt *clientOpt) error {
		if _, err := url.Parse(addr); err != nil {
			return fmt.Errorf("url.Parse[%s]: %w", addr, err)
		}
		opt.addr = addr
		return nil
	}
}

// WithTokenSource reads the token again for every request, the way the
// session token is looked up on each call.
func WithTokenSource(ts TokenSource) ClientOptFn {
	return func(opt *clientOpt) error {
		opt.token = ts
		return nil
	}
}

func WithStaticToken(token string) ClientOptFn {
	return WithTokenSource(func(context.Context) (string, error) {
		return token, nil
	})
}

// WithHeader sets a default header that will be applied to all requests created
// by the client.
func WithHeader(header, val string) ClientOptFn {
	return func(opt *clientOpt) error {
		if opt.headers == nil {
			opt.headers = make(http.Header)
		}
		opt.headers.Add(header, val)
		return nil
	}
}

// WithHTTPClient sets the raw http client on the Client.
func WithHTTPClient(c *http.Client) ClientOptFn {
	return func(opt *clientOpt) error {
		opt.doer = c
		return nil
	}
}

func withDoer(d doer) ClientOptFn {
	return func(opt *clientOpt) error {
		opt.doer = d
		return nil
	}
}

func WithLogger(log *zap.Logger) ClientOptFn {
	return func(opt *clientOpt) error {
		opt.log = log
		return nil
	}
}
