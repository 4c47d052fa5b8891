package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	apperrors "github.com/Nachiket-Roy/LMS-sub000/internal/errors"
	"github.com/Nachiket-Roy/LMS-sub000/internal/observability/metrics"
	"github.com/Nachiket-Roy/LMS-sub000/internal/observability/statsd"
)

const (
	defaultTimeout        = 10 * time.Second
	defaultRefreshTimeout = 5 * time.Second
	maxResponseBytes      = 4 << 20
)

// SessionTerminatedFunc is notified once per failed session refresh.
// The client never navigates; subscribers own that decision.
type SessionTerminatedFunc func(ctx context.Context, err error)

// Options configures a Client.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	RefreshTimeout time.Duration
	UserAgent      string

	// HTTPClient is used as-is when set. It must carry a cookie jar for
	// sessions to work; New installs one when this is nil.
	HTTPClient *http.Client

	Logger  *slog.Logger
	Metrics statsd.Sink
}

// Client is the single point of egress to the library backend. It attaches
// the session cookie, bounds every call with a timeout, and on a 401 runs at
// most one session refresh at a time before replaying the failed call once.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	timeout        time.Duration
	refreshTimeout time.Duration
	userAgent      string
	logger         *slog.Logger
	metrics        statsd.Sink

	refresh refresher

	mu           sync.RWMutex
	onTerminated []SessionTerminatedFunc
}

// New builds a Client for the backend at opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		jar, jarErr := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if jarErr != nil {
			return nil, fmt.Errorf("create cookie jar: %w", jarErr)
		}
		hc = &http.Client{Jar: jar}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	refreshTimeout := opts.RefreshTimeout
	if refreshTimeout <= 0 {
		refreshTimeout = defaultRefreshTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := opts.Metrics
	if sink == nil {
		sink = statsd.Nop{}
	}

	return &Client{
		baseURL:        base,
		http:           hc,
		timeout:        timeout,
		refreshTimeout: refreshTimeout,
		userAgent:      opts.UserAgent,
		logger:         logger.With("component", "apiclient"),
		metrics:        sink,
	}, nil
}

// OnSessionTerminated registers fn to run after a session refresh fails and
// every queued caller has been rejected.
func (c *Client) OnSessionTerminated(fn SessionTerminatedFunc) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTerminated = append(c.onTerminated, fn)
}

// Do sends call and returns the 2xx response. Every error is an
// *apperrors.AppError carrying a user-facing message.
func (c *Client) Do(ctx context.Context, call Call) (*Response, error) {
	call = call.withID()

	resp, err := c.send(ctx, call)
	if err == nil || !apperrors.IsUnauthorized(err) || !call.refreshable() {
		return resp, err
	}

	if refreshErr := c.refreshSession(ctx); refreshErr != nil {
		return nil, refreshErr
	}
	return c.send(ctx, call.retry())
}

// Fetch sends call and decodes the envelope's data into T.
func Fetch[T any](ctx context.Context, c *Client, call Call) (T, error) {
	resp, err := c.Do(ctx, call)
	if err != nil {
		var zero T
		return zero, err
	}
	data, _, err := DecodeEnvelope[T](resp)
	return data, err
}

// Refresh renews the session through the same single-flight path a 401 takes.
func (c *Client) Refresh(ctx context.Context) error {
	return c.refreshSession(ctx)
}

func (c *Client) refreshSession(ctx context.Context) error {
	leader, abandoned, err := c.refresh.run(ctx, func() error {
		start := time.Now()
		c.logger.InfoContext(ctx, "refreshing session")

		// The refresh outlives the caller that started it: queued callers depend on its outcome.
		refreshCtx := context.WithoutCancel(ctx)
		_, err := c.send(refreshCtx, Call{
			Method:      http.MethodPost,
			Path:        PathRefreshToken,
			Timeout:     c.refreshTimeout,
			SkipRefresh: true,
		}.withID())

		metrics.EmitRefresh(c.metrics, time.Since(start), err)
		if err != nil {
			c.logger.InfoContext(ctx, "session refresh failed", "error", err)
		} else {
			c.logger.InfoContext(ctx, "session refreshed", "duration", time.Since(start))
		}
		return err
	})
	if err == nil {
		return nil
	}

	if abandoned {
		// This caller gave up waiting; the refresh itself may still succeed.
		return apperrors.FromTransport(err)
	}

	terminated := apperrors.SessionTerminated(err)
	if leader {
		c.emitTerminated(ctx, terminated)
	}
	return terminated
}

func (c *Client) emitTerminated(ctx context.Context, err error) {
	c.mu.RLock()
	subs := append([]SessionTerminatedFunc(nil), c.onTerminated...)
	c.mu.RUnlock()

	c.logger.WarnContext(ctx, "session terminated", "subscribers", len(subs))
	for _, fn := range subs {
		fn(ctx, err)
	}
}

func (c *Client) send(ctx context.Context, call Call) (*Response, error) {
	start := time.Now()
	resp, status, err := c.roundTrip(ctx, call)

	metrics.EmitRequest(c.metrics, metrics.RequestMetric{
		Method:   call.Method,
		Status:   status,
		Attempt:  call.attempt,
		Duration: time.Since(start),
		Err:      err,
	})
	c.logger.DebugContext(ctx, "api request",
		"method", call.Method,
		"path", call.Path,
		"status", status,
		"attempt", call.attempt,
		"request_id", call.ID,
		"duration", time.Since(start),
	)
	return resp, err
}

func (c *Client) roundTrip(ctx context.Context, call Call) (*Response, int, error) {
	timeout := call.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := c.newRequest(ctx, call)
	if err != nil {
		return nil, 0, err
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, apperrors.FromTransport(err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, httpResp.StatusCode, apperrors.FromTransport(err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, httpResp.StatusCode, apperrors.FromStatus(httpResp.StatusCode, serverMessage(body))
	}

	return &Response{
		Status:    httpResp.StatusCode,
		Header:    httpResp.Header,
		Body:      body,
		RequestID: call.ID,
	}, httpResp.StatusCode, nil
}

func (c *Client) newRequest(ctx context.Context, call Call) (*http.Request, error) {
	method := call.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if call.Body != nil {
		payload, err := json.Marshal(call.Body)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, apperrors.MsgInvalidRequest)
		}
		body = bytes.NewReader(payload)
	}

	target := c.baseURL.JoinPath(call.Path)
	if len(call.Query) > 0 {
		target.RawQuery = call.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, apperrors.MsgInvalidRequest)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", call.ID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}
