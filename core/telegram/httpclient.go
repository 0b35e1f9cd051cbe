package telegram

import (
	"log/slog"
	"net"
	"net/http"
	"path"
	"time"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/telegram/netutil"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPOptions tunes the client used for Bot API calls. Zero fields take
// defaults; a negative MaxRetries disables retries.
type HTTPOptions struct {
	Timeout      time.Duration
	DialTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

func (o HTTPOptions) withDefaults() HTTPOptions {
	if o.Timeout <= 0 {
		o.Timeout = defaultHTTPTimeout
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 5 * time.Second
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	} else if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	return o
}

// BuildHTTPClient returns a client whose transport retries transient network failures.
func BuildHTTPClient(opts HTTPOptions) *http.Client {
	opts = opts.withDefaults()
	dialer := &net.Dialer{Timeout: opts.DialTimeout, KeepAlive: 30 * time.Second}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   opts.DialTimeout,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &retryTransport{
			next:    base,
			retries: opts.MaxRetries,
			backoff: opts.RetryBackoff,
		},
	}
}

// retryTransport replays requests that failed before a response arrived.
// Requests with a body that cannot be rewound are sent once.
type retryTransport struct {
	next    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	resp, err := t.next.RoundTrip(req)
	for attempt := 1; err != nil && attempt <= t.retries; attempt++ {
		if !netutil.ShouldRetry(err) || (req.Body != nil && req.GetBody == nil) {
			return nil, err
		}
		logger.Debug(ctx, "tg.http", "retry",
			slog.String("status", "retry"),
			slog.String("op", path.Base(req.URL.Path)),
			slog.Int("attempts", attempt),
			slog.String("err", err.Error()),
		)
		if waitErr := netutil.Wait(ctx, netutil.Backoff(t.backoff, attempt)); waitErr != nil {
			return nil, waitErr
		}
		retry := req.Clone(ctx)
		if req.GetBody != nil {
			if retry.Body, err = req.GetBody(); err != nil {
				return nil, err
			}
		}
		resp, err = t.next.RoundTrip(retry)
	}
	return resp, err
}
