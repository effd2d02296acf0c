package urlreader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/backendkit/core"
	apperrors "github.com/kbukum/backendkit/errors"
	"github.com/kbukum/backendkit/logger"
	"github.com/kbukum/backendkit/observability"
	"github.com/kbukum/backendkit/resilience"
)

var _ core.URLReaderService = (*Reader)(nil)

// Reader fetches allowed URLs over HTTP. Each host gets its own circuit
// breaker; transient failures are retried inside it.
type Reader struct {
	cfg      Config
	client   *http.Client
	breakers *resilience.Breakers
	log      *logger.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithHTTPClient replaces the HTTP client. Its timeout is left untouched.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Reader) { r.client = c }
}

// New creates a reader for cfg.
func New(cfg Config, log *logger.Logger, opts ...Option) (*Reader, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("url reader config: %w", err)
	}
	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, fmt.Errorf("url reader config: %w", err)
	}
	client := &http.Client{Timeout: cfg.Timeout}
	if tlsCfg != nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = tlsCfg
		client.Transport = transport
	}

	r := &Reader{
		cfg:    cfg,
		client: client,
		log:    log.WithComponent("urlreader"),
	}
	for _, opt := range opts {
		opt(r)
	}

	breakerCfg := cfg.Breaker
	breakerCfg.IsFailure = countsAgainstHost
	breakerCfg.OnStateChange = func(host string, from, to resilience.State) {
		r.log.Warn("Host circuit changed state", map[string]interface{}{
			"host": host,
			"from": from.String(),
			"to":   to.String(),
		})
	}
	r.breakers = resilience.NewBreakers(breakerCfg)
	r.cfg.Retry.RetryIf = retryable
	return r, nil
}

// ReadURL fetches rawURL. When opts.ETag matches the current resource a
// NOT_MODIFIED app error is returned.
func (r *Reader) ReadURL(ctx context.Context, rawURL string, opts core.ReadURLOptions) (*core.ReadURLResponse, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperrors.InvalidInput("url", fmt.Sprintf("%q is not an absolute http(s) URL", rawURL))
	}
	if !r.cfg.Allowed(u) {
		return nil, apperrors.Forbidden(fmt.Sprintf("Reading from %s is not allowed.", u.Host))
	}

	ctx, span := observability.StartSpan(ctx, "urlreader.read", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("url.full", u.String())))
	defer span.End()

	var resp *core.ReadURLResponse
	err = r.breakers.Get(u.Host).Execute(func() error {
		var fetchErr error
		resp, fetchErr = resilience.Retry(ctx, r.cfg.Retry, func(ctx context.Context) (*core.ReadURLResponse, error) {
			return r.fetch(ctx, u, opts)
		})
		return fetchErr
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		err = apperrors.ServiceUnavailable(u.Host).WithCause(err)
	}
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); !ok || appErr.Code != apperrors.ErrCodeNotModified {
			span.SetStatus(codes.Error, err.Error())
			r.log.WithContext(ctx).Debug("URL read failed", map[string]interface{}{
				"url":             u.Redacted(),
				logger.FieldError: err.Error(),
			})
		}
		return nil, err
	}
	return resp, nil
}

func (r *Reader) fetch(ctx context.Context, u *url.URL, opts core.ReadURLOptions) (*core.ReadURLResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, resilience.Permanent(apperrors.InvalidInput("url", err.Error()))
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)
	if opts.ETag != "" {
		req.Header.Set("If-None-Match", opts.ETag)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	res, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, resilience.Permanent(apperrors.Timeout("read " + u.Host).WithCause(err))
		}
		return nil, apperrors.ExternalServiceError(u.Host, err)
	}
	defer func() { _ = res.Body.Close() }()

	if err := classify(res, u); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, r.cfg.MaxSize+1))
	if err != nil {
		return nil, apperrors.ExternalServiceError(u.Host, fmt.Errorf("read body: %w", err))
	}
	if int64(len(body)) > r.cfg.MaxSize {
		return nil, resilience.Permanent(apperrors.PayloadTooLarge(u.Host, r.cfg.MaxSize))
	}

	return &core.ReadURLResponse{
		Body:        body,
		ETag:        res.Header.Get("ETag"),
		ContentType: res.Header.Get("Content-Type"),
	}, nil
}

// classify maps a non-success status to an app error. Server errors and
// throttling stay retryable; everything else is permanent.
func classify(res *http.Response, u *url.URL) error {
	switch {
	case res.StatusCode == http.StatusNotModified:
		return resilience.Permanent(apperrors.NotModified(u.String()))
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return nil
	case res.StatusCode == http.StatusNotFound:
		return resilience.Permanent(apperrors.NotFound("url", u.String()))
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return resilience.Permanent(apperrors.Forbidden(fmt.Sprintf("%s denied access (HTTP %d).", u.Host, res.StatusCode)))
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500:
		return upstreamError(u.Host, res.StatusCode, true)
	default:
		return resilience.Permanent(upstreamError(u.Host, res.StatusCode, false))
	}
}

func upstreamError(host string, status int, retryable bool) *apperrors.AppError {
	e := apperrors.ExternalServiceError(host, fmt.Errorf("HTTP %d", status)).WithDetail("status", status)
	e.Retryable = retryable
	return e
}

func retryable(err error) bool {
	if !resilience.DefaultRetryIf(err) {
		return false
	}
	appErr, ok := apperrors.AsAppError(err)
	return !ok || appErr.Retryable
}

// countsAgainstHost keeps client-side outcomes such as NOT_MODIFIED or
// NOT_FOUND from opening the host circuit.
func countsAgainstHost(err error) bool {
	return !resilience.IsPermanent(err) && retryable(err)
}
