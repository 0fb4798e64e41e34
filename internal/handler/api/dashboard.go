package api

import (
	"io"
	"net/http"
	"time"

	"SigBoard/internal/auth"
	"SigBoard/internal/domain/models"
	"SigBoard/internal/proxy"
	"SigBoard/internal/stream"
	"SigBoard/internal/usecase"
	"SigBoard/internal/view"
	xhttp "SigBoard/pkg/http"
	xlogger "SigBoard/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DashboardHandler registers every HTTP route of the dashboard service.
type DashboardHandler struct {
	logger    *xlogger.Logger
	guard     *auth.Guard
	auth      *auth.Handler
	forwarder *proxy.Forwarder
	poller    *usecase.SnapshotPoller
	hub       *stream.Hub
}

func NewDashboardHandler(
	l *xlogger.Logger,
	guard *auth.Guard,
	authHandler *auth.Handler,
	forwarder *proxy.Forwarder,
	poller *usecase.SnapshotPoller,
	hub *stream.Hub,
) *DashboardHandler {
	return &DashboardHandler{
		logger:    l,
		guard:     guard,
		auth:      authHandler,
		forwarder: forwarder,
		poller:    poller,
		hub:       hub,
	}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	// Login endpoints are the only public API surface.
	e.Any("/api/auth", h.auth.Login)
	e.GET("/api/auth/check", h.auth.Check)

	gated := e.Group("/api", auth.RequireSession(h.guard))
	gated.Any("/proxy/*", h.forwarder.Forward)
	gated.GET("/view", h.View)
	gated.POST("/pairs/add", h.AddSymbol)
	gated.POST("/pairs/remove", h.RemoveSymbols)
	gated.POST("/pairs/upload", h.UploadPairs)
	gated.GET("/pairs/export", h.ExportPairs)
	gated.GET("/stream", h.hub.ServeWS)
}

func (h *DashboardHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type viewResponse struct {
	view.Page
	Status     string `json:"status"`
	LastUpdate string `json:"last_update,omitempty"`
}

// View serves a filtered, sorted, paginated slice of the latest snapshot.
func (h *DashboardHandler) View(c echo.Context) error {
	req := &models.ViewRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	snap, connected := h.poller.Snapshot()
	page := view.Apply(snap, view.State{
		Filter: req.Filter,
		Sort:   req.Sort,
		Page:   req.Page,
		Size:   req.Size,
	})

	res := viewResponse{Page: page, Status: "connected"}
	if !connected {
		res.Status = "error"
	}
	if !snap.FetchedAt.IsZero() {
		res.LastUpdate = snap.FetchedAt.Format(time.RFC3339)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) AddSymbol(c echo.Context) error {
	req := &models.AddSymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.poller.AddSymbol(c.Request().Context(), req.Symbol); err != nil {
		h.logger.Error("add symbol failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"symbol": req.Symbol})
}

func (h *DashboardHandler) RemoveSymbols(c echo.Context) error {
	req := &models.RemoveSymbolsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.poller.RemoveSymbols(c.Request().Context(), req.Symbols); err != nil {
		h.logger.Error("remove symbols failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]int{"removed": len(req.Symbols)})
}

func (h *DashboardHandler) UploadPairs(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return xhttp.BadRequestResponse(c, "no file selected")
	}

	f, err := fh.Open()
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalError("failed to read upload").WithError(err))
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalError("failed to read upload").WithError(err))
	}

	if err := h.poller.UploadPairs(c.Request().Context(), fh.Filename, content); err != nil {
		h.logger.Error("upload pairs failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"uploaded": fh.Filename})
}

func (h *DashboardHandler) ExportPairs(c echo.Context) error {
	b, err := h.poller.ExportPairs(c.Request().Context())
	if err != nil {
		h.logger.Error("export pairs failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	c.Response().Header().Set("Content-Disposition", `attachment; filename="trading_pairs.csv"`)
	return c.Blob(http.StatusOK, "text/csv", b)
}
