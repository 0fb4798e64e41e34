// Package proxy implements the authenticated pass-through tunnel to the
// analysis backend. The forwarder relays status and body bytes unmodified;
// it never interprets, validates or filters backend content.
package proxy

import (
	"io"
	"net/http"
	"time"

	"SigBoard/pkg/logger"
	"SigBoard/pkg/metrics"

	"github.com/labstack/echo/v4"
)

const userAgent = "SigBoard-Dashboard/1.0"

// Forwarder tunnels requests to the backend API under a configured base URL.
type Forwarder struct {
	baseURL string
	client  *http.Client
	logger  *logger.Logger
	metrics *metrics.Recorder
}

// NewForwarder creates a forwarder with an explicit timeout so a dead backend
// surfaces as an error instead of a hung request.
func NewForwarder(baseURL string, timeout time.Duration, l *logger.Logger, m *metrics.Recorder) *Forwarder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Forwarder{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  l,
		metrics: m,
	}
}

type proxyError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Forward relays the inbound request to {base}/api/{path}. The body is
// forwarded for every method that carries one, not just POST; JSON, multipart
// uploads and binary exports all take this same path.
func (f *Forwarder) Forward(c echo.Context) error {
	inbound := c.Request()
	start := time.Now()

	target := f.baseURL + "/api/" + c.Param("*")
	if q := inbound.URL.RawQuery; q != "" {
		target += "?" + q
	}

	var body io.Reader
	if inbound.Body != nil && inbound.ContentLength != 0 {
		body = inbound.Body
	}

	req, err := http.NewRequestWithContext(inbound.Context(), inbound.Method, target, body)
	if err != nil {
		f.metrics.RecordProxyRequest("failed")
		return c.JSON(http.StatusInternalServerError, proxyError{
			Error:   "Backend connection failed",
			Details: err.Error(),
		})
	}

	if ct := inbound.Header.Get(echo.HeaderContentType); ct != "" {
		req.Header.Set(echo.HeaderContentType, ct)
	} else if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("ngrok-skip-browser-warning", "true")

	resp, err := f.client.Do(req)
	if err != nil {
		f.metrics.RecordProxyRequest("failed")
		f.logger.Error("proxy request failed",
			logger.String("method", inbound.Method),
			logger.String("target", target),
			logger.Error(err),
		)
		return c.JSON(http.StatusInternalServerError, proxyError{
			Error:   "Backend connection failed",
			Details: err.Error(),
		})
	}
	defer resp.Body.Close()

	f.metrics.RecordProxyRequest("relayed")
	f.metrics.RecordProxyLatency(time.Since(start).Seconds())

	// Relay status and body bytes as-is.
	contentType := resp.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = echo.MIMEApplicationJSON
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		c.Response().Header().Set("Content-Disposition", cd)
	}
	return c.Stream(resp.StatusCode, contentType, resp.Body)
}
