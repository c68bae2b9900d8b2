// Package gateway is the single HTTP chokepoint between client code and the
// portfolio API. It attaches bearer tokens, enforces a per-call timeout,
// normalizes response envelopes into Response and converts every failure
// into *Error.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultTimeout = 15 * time.Second
	instrumentName = "github.com/duynhne/portfolio-service/client/gateway"
)

// TokenSource yields the current bearer token, or "" when signed out.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Config configures a Client. Only BaseURL is required.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// StaticToken is sent when Tokens yields nothing. Meant for diagnostics.
	StaticToken string
	Tokens      TokenSource

	HTTPClient     *http.Client
	Logger         *zerolog.Logger
	Registerer     prometheus.Registerer
	TracerProvider trace.TracerProvider
}

// Client is safe for concurrent use.
type Client struct {
	base        *url.URL
	timeout     time.Duration
	staticToken string
	tokens      TokenSource
	http        *http.Client
	log         zerolog.Logger
	metrics     *clientMetrics
	tracer      trace.Tracer
	propagator  propagation.TextMapPropagator
}

// File is a binary asset sent as a multipart form field.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}

	c := &Client{
		base:        base,
		timeout:     cfg.Timeout,
		staticToken: cfg.StaticToken,
		tokens:      cfg.Tokens,
		http:        cfg.HTTPClient,
		log:         zerolog.Nop(),
		metrics:     newClientMetrics(cfg.Registerer),
		propagator:  propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}),
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if cfg.Logger != nil {
		c.log = cfg.Logger.With().Str("component", "gateway").Logger()
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	c.tracer = tp.Tracer(instrumentName)
	return c, nil
}

// Timeout returns the per-call timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	field  string
	file   *File
}

// Do issues an arbitrary request against the API. body, when non-nil, is
// sent as JSON.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	return c.do(ctx, call{op: "custom", method: method, path: path, query: query, body: body})
}

func (c *Client) do(ctx context.Context, cl call) (*Response, error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "gateway."+cl.op, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(
		attribute.String("http.request.method", cl.method),
		attribute.String("url.path", cl.path),
	))
	defer span.End()

	resp, err := c.roundTrip(ctx, cl, span)

	outcome := "ok"
	if err != nil {
		gerr := AsError(err)
		outcome = string(gerr.Kind)
		span.RecordError(gerr)
		span.SetStatus(codes.Error, gerr.Message)
		span.SetAttributes(attribute.Int("http.response.status_code", gerr.StatusCode))
		c.log.Warn().
			Str("op", cl.op).
			Str("path", cl.path).
			Int("status", gerr.StatusCode).
			Str("kind", string(gerr.Kind)).
			Err(gerr.Cause).
			Msg(gerr.Message)
	} else {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		c.log.Debug().
			Str("op", cl.op).
			Str("path", cl.path).
			Int("status", resp.StatusCode).
			Type("shape", resp.Shape).
			Dur("duration", time.Since(start)).
			Msg("inbound response")
	}
	c.metrics.observe(cl.op, outcome, time.Since(start))
	return resp, err
}

func (c *Client) roundTrip(ctx context.Context, cl call, span trace.Span) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.base.JoinPath(cl.path)
	if len(cl.query) > 0 {
		u.RawQuery = cl.query.Encode()
	}

	var (
		reqBody     io.Reader
		contentType = "application/json"
	)
	switch {
	case cl.file != nil:
		buf, ct, err := multipartBody(cl.field, cl.file)
		if err != nil {
			return nil, &Error{Kind: KindValidation, StatusCode: http.StatusBadRequest, Message: err.Error(), Cause: err}
		}
		reqBody, contentType = buf, ct
	case cl.body != nil:
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(cl.body); err != nil {
			return nil, &Error{Kind: KindValidation, StatusCode: http.StatusBadRequest, Message: "encode request body: " + err.Error(), Cause: err}
		}
		reqBody = buf
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), reqBody)
	if err != nil {
		return nil, &Error{Kind: KindServer, StatusCode: http.StatusInternalServerError, Message: MsgGeneric, Cause: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	token := ""
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	if token == "" {
		token = c.staticToken
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else if IsProtected(cl.method, cl.path) {
		c.log.Warn().Str("method", cl.method).Str("path", cl.path).Msg("Calling a protected endpoint without a token")
	}
	span.SetAttributes(attribute.Bool("auth.token_attached", token != ""))
	c.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	c.log.Debug().
		Str("op", cl.op).
		Str("method", cl.method).
		Str("url", u.String()).
		Bool("token_attached", token != "").
		Msg("outbound request")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer res.Body.Close() //nolint:errcheck

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, transportError(err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var body struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(payload, &body)
		return nil, statusError(res.StatusCode, body.Message, payload)
	}

	shape := Normalize(cl.path, payload)
	return &Response{StatusCode: res.StatusCode, Shape: shape, Data: shape.payload()}, nil
}

func transportError(err error) *Error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &Error{Kind: KindTimeout, StatusCode: http.StatusInternalServerError, Message: MsgTimeout, Cause: err}
	}
	return &Error{Kind: KindNetwork, StatusCode: http.StatusInternalServerError, Message: MsgNetwork, Cause: err}
}

func multipartBody(field string, f *File) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	name := f.Name
	if name == "" {
		name = field
	}
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	ct := f.ContentType
	if ct == "" {
		ct = http.DetectContentType(f.Data)
	}
	hdr.Set("Content-Type", ct)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, "", fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, "", fmt.Errorf("write multipart part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf, mw.FormDataContentType(), nil
}

type clientMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) *clientMetrics {
	m := &clientMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_client_requests_total",
			Help: "Portfolio API calls made by the client gateway, by operation and outcome.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portfolio_client_request_duration_seconds",
			Help:    "Latency of portfolio API calls made by the client gateway.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
	if reg != nil {
		m.requests = register(reg, m.requests)
		m.duration = register(reg, m.duration)
	}
	return m
}

// register returns the already registered collector when an identical one exists.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

func (m *clientMetrics) observe(op, outcome string, d time.Duration) {
	m.requests.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
