// Package browse exposes the bibliography store and route dispatch over
// HTTP.
package browse

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"zweigbib/internal/bibliography"
	"zweigbib/internal/export"
	"zweigbib/internal/render"
	"zweigbib/internal/router"
)

const (
	PageTitle      = "Stefan Zweig Bibliography"
	exportBaseName = "zweig_bibliography"
)

// ReloadFunc re-runs the store load.
type ReloadFunc func(ctx context.Context) error

type Handler struct {
	Store  *bibliography.Store
	Reload ReloadFunc
	Logger *slog.Logger
}

func NewHandler(store *bibliography.Store, reload ReloadFunc, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Store: store, Reload: reload, Logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/entries", h.list)        // GET /api/entries
	rg.GET("/entries/:id", h.getByID) // GET /api/entries/:id
	rg.GET("/facets", h.facets)
	rg.GET("/summary", h.summary)
	rg.GET("/status", h.status)
	rg.GET("/route", h.route)
	rg.GET("/view", h.view)
	rg.GET("/export", h.export)
	rg.POST("/reload", h.reload)
}

// Index serves the page shell of the browser client.
func (h *Handler) Index(c *gin.Context) {
	var buf bytes.Buffer
	if err := render.WriteIndex(&buf, PageTitle); err != nil {
		h.Logger.Error("render index", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *Handler) requireLoaded(c *gin.Context) bool {
	if h.Store.IsLoaded() {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "bibliography not loaded"})
	return false
}

func (h *Handler) list(c *gin.Context) {
	if !h.requireLoaded(c) {
		return
	}
	filters := bibliography.Filters{}
	for _, key := range []string{
		bibliography.FilterCategory,
		bibliography.FilterYear,
		bibliography.FilterLanguage,
		bibliography.FilterTimePeriod,
	} {
		if v := c.Query(key); v != "" {
			filters[key] = v
		}
	}

	items := h.Store.SearchEntries(c.Query("q"), filters)
	total := len(items)
	limit := parseInt(c.Query("limit"), 0)
	offset := parseInt(c.Query("offset"), 0)
	if offset > total {
		offset = total
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"items":  items,
	})
}

func (h *Handler) getByID(c *gin.Context) {
	if !h.requireLoaded(c) {
		return
	}
	id := c.Param("id")
	e, ok := h.Store.GetEntryByID(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": (&bibliography.NotFoundError{ID: id}).Error()})
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) facets(c *gin.Context) {
	if !h.requireLoaded(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories":   h.Store.GetCategories(),
		"languages":    h.Store.GetLanguages(),
		"time_periods": h.Store.GetTimePeriods(),
		"years":        h.Store.GetYears(),
	})
}

func (h *Handler) summary(c *gin.Context) {
	if !h.requireLoaded(c) {
		return
	}
	c.JSON(http.StatusOK, h.Store.Summary())
}

func (h *Handler) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.Status())
}

func (h *Handler) route(c *gin.Context) {
	c.JSON(http.StatusOK, router.ParseToken(c.Query("token")).Describe())
}

// ViewResponse carries a dispatched directive with its rendered fragment.
type ViewResponse struct {
	Kind     router.Kind `json:"kind"`
	HTML     string      `json:"html,omitempty"`
	Message  string      `json:"message,omitempty"`
	Redirect string      `json:"redirect,omitempty"`
}

func (h *Handler) view(c *gin.Context) {
	token := c.Query("token")
	d := router.Dispatch(router.ParseToken(token), h.Store)
	if d.Kind == router.KindError {
		h.Logger.Error("route failed", "token", token, "message", d.Message)
	}

	html, err := render.Fragment(d)
	if err != nil {
		h.Logger.Error("render failed", "token", token, "kind", d.Kind, "error", err)
		d = router.Directive{Kind: router.KindError, Message: router.FailureMessage(d.Kind), Redirect: d.Redirect}
		html, _ = render.Fragment(d)
	}

	c.JSON(http.StatusOK, ViewResponse{
		Kind:     d.Kind,
		HTML:     html,
		Message:  d.Message,
		Redirect: d.Redirect,
	})
}

func (h *Handler) export(c *gin.Context) {
	format, err := export.ParseFormat(c.DefaultQuery("format", string(export.CSV)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.requireLoaded(c) {
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, h.Store.GetAllEntries()); err != nil {
		h.Logger.Error("export failed", "format", format, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+exportBaseName+"."+string(format)+`"`)
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (h *Handler) reload(c *gin.Context) {
	if h.Reload == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "reload not configured"})
		return
	}
	err := h.Reload(c.Request.Context())
	switch {
	case errors.Is(err, bibliography.ErrLoadInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Store.Status())
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
