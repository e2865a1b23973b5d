// Package loader is the single fetch primitive every component goes through:
// a request with success and error continuations plus a completion
// continuation that runs exactly once after either, never before, and
// regardless of outcome. Navigation bookkeeping hangs off completion so it
// happens even when the fetch fails.
package loader

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bookdenapp/bookden-shell/internal/logger"
	"github.com/bookdenapp/bookden-shell/internal/ratelimit"
	"github.com/bookdenapp/bookden-shell/internal/uiloop"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRPS     = 10.0
	defaultBurst   = 5
)

// Request describes one fetch.
type Request struct {
	Method string
	// URL may be absolute or a path resolved against the loader's base.
	URL string
	// Body is JSON-encoded when set. A plain string is sent raw; the legacy
	// sign-out endpoint posts the bare session token, not a JSON object.
	Body any
	// Sync runs the whole request, callbacks included, in the caller's
	// frame: statements after Do can rely on DOM state the callbacks
	// produced. Async requests run their callbacks later on the UI loop and
	// callers must not assume DOM state after issuing them.
	Sync bool
}

// Callbacks receive the outcome. Any of the three may be nil.
type Callbacks struct {
	// OnSuccess receives the 2xx response body.
	OnSuccess func(body []byte)
	// OnError receives the status (0 on transport failure) and the error
	// body. For fragment loads the body is display-ready HTML meant to
	// replace the main region verbatim.
	OnError func(status int, body []byte)
	// OnComplete runs exactly once, after OnSuccess or OnError.
	OnComplete func()
}

// Loader issues HTTP requests against a backend origin.
type Loader struct {
	base    *url.URL
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	loop    *uiloop.Loop
	logger  *logger.Logger
}

// Config holds loader construction options.
type Config struct {
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// New creates a loader posting async completions to loop.
func New(cfg Config, loop *uiloop.Loop, log *logger.Logger) (*Loader, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL %q: %w", cfg.BaseURL, err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RPS <= 0 {
		cfg.RPS = defaultRPS
	}
	if cfg.Burst < 1 {
		cfg.Burst = defaultBurst
	}
	return &Loader{
		base:    base,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: ratelimit.New(cfg.RPS, cfg.Burst),
		loop:    loop,
		logger:  log,
	}, nil
}

// SetHTTPClient overrides the HTTP client. Test hook.
func (l *Loader) SetHTTPClient(c *http.Client) {
	l.http = c
}

type result struct {
	status int
	body   []byte
	err    error
}

// Do issues the request. Sync requests resolve before Do returns; async
// requests post their callbacks to the UI loop when the response arrives.
func (l *Loader) Do(ctx context.Context, req Request, cb Callbacks) {
	if req.Sync {
		res := l.perform(ctx, req)
		dispatch(cb, res)
		return
	}
	go func() {
		res := l.perform(ctx, req)
		l.loop.Post(func() {
			dispatch(cb, res)
		})
	}()
}

func dispatch(cb Callbacks, res result) {
	if res.err == nil && res.status < 400 {
		if cb.OnSuccess != nil {
			cb.OnSuccess(res.body)
		}
	} else {
		if cb.OnError != nil {
			cb.OnError(res.status, res.body)
		}
	}
	if cb.OnComplete != nil {
		cb.OnComplete()
	}
}

func (l *Loader) perform(ctx context.Context, req Request) result {
	target, err := l.resolve(req.URL)
	if err != nil {
		return result{err: err}
	}

	if err := l.limiter.Wait(ctx, target.Host); err != nil {
		return result{err: fmt.Errorf("rate limit wait: %w", err)}
	}

	var body io.Reader
	contentType := ""
	switch b := req.Body.(type) {
	case nil:
	case string:
		body = strings.NewReader(b)
		contentType = "text/plain; charset=utf-8"
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return result{err: fmt.Errorf("encode request body: %w", err)}
		}
		body = bytes.NewReader(data)
		contentType = "application/json; charset=utf-8"
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return result{err: fmt.Errorf("create request: %w", err)}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	l.logger.Debug("loader request", "method", method, "url", target.String())

	resp, err := l.http.Do(httpReq)
	if err != nil {
		l.logger.Warn("loader transport failure", "url", target.String(), "error", err)
		return result{err: fmt.Errorf("execute request: %w", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return result{status: resp.StatusCode, err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode >= 400 {
		l.logger.Warn("loader error response", "url", target.String(), "status", resp.StatusCode)
	}
	return result{status: resp.StatusCode, body: data}
}

func (l *Loader) resolve(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse request URL %q: %w", raw, err)
	}
	return l.base.ResolveReference(u), nil
}

// AddParam appends a percent-encoded key=value pair to a URL, choosing ? or &
// by inspecting the URL.
func AddParam(u, name, value string) string {
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + url.QueryEscape(name) + "=" + url.QueryEscape(value)
}
