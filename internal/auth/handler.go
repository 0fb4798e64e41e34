package auth

import (
	"net/http"
	"time"

	"SigBoard/internal/domain/models"
	xhttp "SigBoard/pkg/http"
	"SigBoard/pkg/logger"
	"SigBoard/pkg/metrics"

	"github.com/labstack/echo/v4"
)

// Handler serves the login and session-check endpoints.
type Handler struct {
	guard        *Guard
	password     string
	cookieMaxAge time.Duration
	logger       *logger.Logger
	metrics      *metrics.Recorder
}

// NewHandler creates the auth handler. The password comes from configuration,
// never from code.
func NewHandler(guard *Guard, password string, cookieMaxAge time.Duration, l *logger.Logger, m *metrics.Recorder) *Handler {
	return &Handler{
		guard:        guard,
		password:     password,
		cookieMaxAge: cookieMaxAge,
		logger:       l,
		metrics:      m,
	}
}

type loginResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type checkResult struct {
	Authenticated bool `json:"authenticated"`
}

// Login handles POST /api/auth. Exact string equality against the configured
// secret; a match issues the session cookie. Registered for every method so
// non-POST calls get a JSON 405 instead of the router default.
func (h *Handler) Login(c echo.Context) error {
	xhttp.NoStore(c)

	if c.Request().Method != http.MethodPost {
		return c.JSON(http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	}

	req := new(models.LoginRequest)
	if err := c.Bind(req); err != nil {
		h.metrics.RecordAuthAttempt("rejected")
		return c.JSON(http.StatusUnauthorized, loginResult{
			Success:   false,
			Message:   "Invalid password",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}

	if req.Password != h.password {
		h.metrics.RecordAuthAttempt("rejected")
		h.logger.Warn("login rejected", logger.String("remote", c.RealIP()))
		return c.JSON(http.StatusUnauthorized, loginResult{
			Success:   false,
			Message:   "Invalid password",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}

	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    CookieValue,
		Path:     "/",
		MaxAge:   int(h.cookieMaxAge.Seconds()),
		HttpOnly: true,
	})

	h.metrics.RecordAuthAttempt("success")
	h.logger.Info("login accepted", logger.String("remote", c.RealIP()))
	return c.JSON(http.StatusOK, loginResult{
		Success:   true,
		Message:   "Authenticated",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Check handles GET /api/auth/check. Reports session state so the client can
// skip re-login on page load. Callers treat any failure as unauthenticated.
func (h *Handler) Check(c echo.Context) error {
	xhttp.NoStore(c)

	if h.guard.Authenticated(c.Request().Header.Get(echo.HeaderCookie)) {
		return c.JSON(http.StatusOK, checkResult{Authenticated: true})
	}
	return c.JSON(http.StatusUnauthorized, checkResult{Authenticated: false})
}
