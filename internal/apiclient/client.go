package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/2beens/gymclient/internal/apperrors"
	"github.com/2beens/gymclient/internal/telemetry/metrics"
	"github.com/2beens/gymclient/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "gymclient/1.0"

	maxResponseBytes = 10 << 20

	connectionErrorMessage = "No se pudo conectar con el servidor"
	timeoutErrorMessage    = "El servidor tardó demasiado en responder"
)

var idSegmentRegex = regexp.MustCompile(`/\d+(/|$)`)

type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	metrics    *metrics.Manager
	limiter    Limiter
}

type Params struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	UserAgent  string
	Metrics    *metrics.Manager
	// Limiter is optional
	Limiter Limiter
}

func NewClient(params Params) *Client {
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = NewTracedHTTPClient()
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := params.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	metricsManager := params.Metrics
	if metricsManager == nil {
		metricsManager = metrics.NewTestManager()
	}

	return &Client{
		baseURL:    params.BaseURL,
		httpClient: httpClient,
		timeout:    timeout,
		userAgent:  userAgent,
		metrics:    metricsManager,
		limiter:    params.Limiter,
	}
}

func NewTracedHTTPClient() *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Upload is a single file sent as multipart/form-data.
type Upload struct {
	FieldName   string
	FileName    string
	ContentType string
	Content     io.Reader
}

type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Token, when set, is sent as a bearer Authorization header.
	Token string
	// Body is JSON encoded. Mutually exclusive with Upload.
	Body   any
	Upload *Upload
	// NoCache asks every cache on the way to skip the stored response.
	NoCache bool
	// ErrorMessage replaces an empty backend message on failure.
	ErrorMessage string
}

// Do sends the request and normalizes the answer. Every error returned is an
// *apperrors.Error.
func (c *Client) Do(ctx context.Context, req Request) (_ *Result, err error) {
	route := routeOf(req.Path)
	ctx, span := tracing.GlobalTracer.Start(ctx, "apiclient."+req.Method+" "+route)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if c.limiter != nil {
		if err := c.limiter.Allow(ctx); err != nil {
			c.metrics.CounterRateLimited.Inc()
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, &apperrors.Error{
			Kind:    apperrors.ErrValidation,
			Message: "No se pudo preparar la solicitud",
			Cause:   err,
		}
	}
	requestID := httpReq.Header.Get("X-Request-ID")
	span.SetAttributes(
		attribute.String("http.route", route),
		attribute.String("request.id", requestID),
	)

	log.Debugf("gym api -> %s %s [%s]", req.Method, httpReq.URL.Path, requestID)

	c.metrics.GaugeInFlightRequests.Inc()
	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	c.metrics.GaugeInFlightRequests.Dec()
	if err != nil {
		c.metrics.CounterRequests.WithLabelValues(req.Method, "error").Inc()
		log.Debugf("gym api <- %s %s: %s", req.Method, httpReq.URL.Path, err)
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	statusCode := strconv.Itoa(resp.StatusCode)
	c.metrics.CounterRequests.WithLabelValues(req.Method, statusCode).Inc()
	c.metrics.HistogramRequestDuration.
		WithLabelValues(route, req.Method, statusCode).
		Observe(time.Since(start).Seconds())

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(fmt.Errorf("read response body: %w", err))
	}

	log.Debugf("gym api <- %s %s: %d (%d bytes)", req.Method, httpReq.URL.Path, resp.StatusCode, len(respBytes))

	res, err := Normalize(resp.StatusCode, respBytes)
	if err != nil {
		return nil, apperrors.WithFallbackMessage(err, req.ErrorMessage)
	}
	return res, nil
}

// DoJSON sends the request and decodes the payload into out. A nil out
// discards the payload.
func (c *Client) DoJSON(ctx context.Context, req Request, out any) error {
	res, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := res.Decode(out); err != nil {
		return apperrors.WithFallbackMessage(err, req.ErrorMessage)
	}
	return nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	endpoint := c.baseURL + req.Path
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.Upload != nil:
		buf, ct, err := multipartBody(req.Upload)
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case req.Body != nil:
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body, contentType = bytes.NewReader(payload), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	if req.NoCache {
		httpReq.Header.Set("Cache-Control", "no-cache")
		httpReq.Header.Set("Pragma", "no-cache")
	}

	return httpReq, nil
}

// multipartBody builds the form in memory; the returned content type carries
// the boundary chosen by the multipart writer.
func multipartBody(upload *Upload) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	fieldName := upload.FieldName
	if fieldName == "" {
		fieldName = "file"
	}
	partContentType := upload.ContentType
	if partContentType == "" {
		partContentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(fieldName), escapeQuotes(upload.FileName)))
	header.Set("Content-Type", partContentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := io.Copy(part, upload.Content); err != nil {
		return nil, "", fmt.Errorf("copy upload content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return buf, writer.FormDataContentType(), nil
}

func transportError(err error) *apperrors.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Transport(err, timeoutErrorMessage)
	}
	return apperrors.Transport(err, connectionErrorMessage)
}

// routeOf collapses numeric path segments so metrics labels stay bounded.
func routeOf(path string) string {
	for idSegmentRegex.MatchString(path) {
		path = idSegmentRegex.ReplaceAllString(path, "/:id$1")
	}
	return path
}

func escapeQuotes(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '"' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
