package router

import (
	"fmt"
	"log/slog"
	"sync"

	"zweigbib/internal/bibliography"
	"zweigbib/pkg/models"
)

// Store is the part of the bibliography store the controller reads.
type Store interface {
	IsLoaded() bool
	GetEntryByID(id string) (models.Entry, bool)
	SearchEntries(query string, filters bibliography.Filters) []models.Entry
	Summary() bibliography.Summary
}

// EventSource delivers store load events.
type EventSource interface {
	AddEventListener(kind bibliography.EventKind, fn bibliography.Listener) bibliography.ListenerID
}

// Kind names a rendering directive.
type Kind string

const (
	KindNone      Kind = "none"
	KindDashboard Kind = "dashboard"
	KindList      Kind = "list"
	KindDetail    Kind = "detail"
	KindError     Kind = "error"
	KindLoading   Kind = "loading"
)

// Messages shown when a renderer fails.
const (
	MsgListFailed    = "Failed to display bibliography entries"
	MsgDetailFailed  = "Failed to display entry details"
	MsgContentFailed = "Failed to display content"
)

// Directive tells a renderer what to show. Redirect, when set, is the
// token to navigate to once the directive has been rendered.
type Directive struct {
	Kind     Kind                  `json:"kind"`
	Summary  *bibliography.Summary `json:"summary,omitempty"`
	Entries  []models.Entry        `json:"entries,omitempty"`
	Entry    *models.Entry         `json:"entry,omitempty"`
	Message  string                `json:"message,omitempty"`
	Loading  bool                  `json:"loading,omitempty"`
	Redirect string                `json:"redirect,omitempty"`
}

// Renderer presents directives.
type Renderer interface {
	Render(d Directive) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(d Directive) error

func (f RendererFunc) Render(d Directive) error { return f(d) }

// Dispatch maps a route to a directive. It never modifies the store.
//
// Dashboard and list routes yield KindNone until the store is loaded;
// the caller dispatches again on the loaded event. Lookups of unknown ids
// yield an error directive that redirects to the dashboard.
func Dispatch(r Route, store Store) Directive {
	switch r.View {
	case ViewDashboard:
		if !store.IsLoaded() {
			return Directive{Kind: KindNone}
		}
		sum := store.Summary()
		return Directive{Kind: KindDashboard, Summary: &sum}
	case ViewList:
		if !store.IsLoaded() {
			return Directive{Kind: KindNone}
		}
		return Directive{Kind: KindList, Entries: store.SearchEntries(r.Query, r.Filters())}
	case ViewDetail:
		if r.ID == "" {
			return Directive{Kind: KindNone, Redirect: DashboardToken}
		}
		return lookup(r.ID, store)
	case "":
		return Directive{Kind: KindNone, Redirect: DashboardToken}
	default:
		return lookup(string(r.View), store)
	}
}

func lookup(id string, store Store) Directive {
	if !store.IsLoaded() {
		return Directive{Kind: KindNone}
	}
	e, ok := store.GetEntryByID(id)
	if !ok {
		err := &bibliography.NotFoundError{ID: id}
		return Directive{Kind: KindError, Message: err.Error(), Redirect: DashboardToken}
	}
	return Directive{Kind: KindDetail, Entry: &e}
}

// maxRedirects bounds the redirects followed for one navigation.
const maxRedirects = 8

// Controller turns navigation tokens into rendered directives.
//
// Navigations requested while a token is being handled, whether by a
// redirect, a renderer or a listener, are queued and handled after the
// current one returns. Only the latest queued token is kept.
type Controller struct {
	store    Store
	renderer Renderer
	nav      Navigator
	logger   *slog.Logger

	mu         sync.Mutex
	current    Route
	parsed     bool
	handling   bool
	pending    string
	hasPending bool
}

// NewController wires a controller. The navigator is expected to call
// HandleToken when its token changes; for History use OnChange.
func NewController(store Store, renderer Renderer, nav Navigator, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{store: store, renderer: renderer, nav: nav, logger: logger}
}

// Attach subscribes the controller to store load events.
func (c *Controller) Attach(src EventSource) {
	src.AddEventListener(bibliography.EventLoaded, func(bibliography.Event) { c.OnLoaded() })
	src.AddEventListener(bibliography.EventError, func(ev bibliography.Event) {
		if e, ok := ev.(bibliography.ErrorEvent); ok {
			c.OnLoadError(e.Message)
		}
	})
}

// Current returns the last parsed route and whether any token has been
// handled yet.
func (c *Controller) Current() (Route, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.parsed
}

// HandleToken parses token, dispatches it and renders the result,
// following redirects.
func (c *Controller) HandleToken(token string) {
	c.mu.Lock()
	if c.handling {
		c.pending, c.hasPending = token, true
		c.mu.Unlock()
		return
	}
	c.handling = true
	c.mu.Unlock()

	for hops := 0; ; hops++ {
		if redirect := c.handle(token); redirect != "" {
			c.redirect(redirect)
		}

		c.mu.Lock()
		if !c.hasPending {
			c.handling = false
			c.mu.Unlock()
			return
		}
		if hops >= maxRedirects {
			c.hasPending, c.handling = false, false
			c.mu.Unlock()
			c.logger.Warn("too many redirects, navigation stopped", "token", token)
			return
		}
		token, c.hasPending = c.pending, false
		c.mu.Unlock()
	}
}

func (c *Controller) handle(token string) string {
	r := ParseToken(token)
	c.mu.Lock()
	c.current, c.parsed = r, true
	c.mu.Unlock()

	c.logger.Debug("route changed", "token", token, "view", r.View, "id", r.ID, "filter", r.FilterKind, "query", r.Query)

	d := Dispatch(r, c.store)
	if d.Kind == KindError {
		c.logger.Error(d.Message, "token", token)
	}
	if d.Kind != KindNone {
		c.render(d)
	}
	return d.Redirect
}

// redirect asks the navigator to move, or queues the token directly when
// there is no navigator.
func (c *Controller) redirect(token string) {
	if c.nav != nil {
		c.nav.Navigate(token)
		return
	}
	c.mu.Lock()
	c.pending, c.hasPending = token, true
	c.mu.Unlock()
}

// OnLoaded re-dispatches the current token once data is available. With
// no token yet the controller moves to the dashboard.
func (c *Controller) OnLoaded() {
	c.render(Directive{Kind: KindLoading, Loading: false})
	token := ""
	if c.nav != nil {
		token = c.nav.Token()
	}
	if token == "" && c.nav != nil {
		c.nav.Navigate(DashboardToken)
		return
	}
	c.HandleToken(token)
}

// OnLoadError reports a failed load.
func (c *Controller) OnLoadError(message string) {
	c.render(Directive{Kind: KindLoading, Loading: false})
	c.render(Directive{Kind: KindError, Message: "Failed to load bibliography data: " + message})
}

// ShowLoading renders the loading flag.
func (c *Controller) ShowLoading(on bool) {
	c.render(Directive{Kind: KindLoading, Loading: on})
}

// Navigate moves to r through the navigator.
func (c *Controller) Navigate(r Route) {
	token := r.Token()
	if c.nav == nil {
		c.HandleToken(token)
		return
	}
	c.nav.Navigate(token)
}

func (c *Controller) NavigateToDashboard() { c.Navigate(DashboardRoute()) }
func (c *Controller) NavigateToCategory(cat string) { c.Navigate(CategoryRoute(cat)) }
func (c *Controller) NavigateToLanguage(lang string) { c.Navigate(LanguageRoute(lang)) }
func (c *Controller) NavigateToYear(year int) { c.Navigate(YearRoute(year)) }
func (c *Controller) NavigateToTimePeriod(p string) { c.Navigate(TimePeriodRoute(p)) }
func (c *Controller) NavigateToDetail(id string) { c.Navigate(DetailRoute(id)) }
func (c *Controller) NavigateToSearch(query string) { c.Navigate(SearchRoute(query)) }

// render is the display boundary. Renderer errors and panics are logged
// and replaced by a generic error message.
func (c *Controller) render(d Directive) {
	if c.renderer == nil {
		return
	}
	err := safeRender(c.renderer, d)
	if err == nil {
		return
	}
	c.logger.Error("render failed", "kind", d.Kind, "error", err)
	if d.Kind == KindError || d.Kind == KindLoading {
		return
	}
	if err := safeRender(c.renderer, Directive{Kind: KindError, Message: FailureMessage(d.Kind)}); err != nil {
		c.logger.Error("render failed", "kind", KindError, "error", err)
	}
}

func safeRender(r Renderer, d Directive) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("render panic: %v", p)
		}
	}()
	return r.Render(d)
}

// FailureMessage is the message shown when rendering a directive of kind k
// fails.
func FailureMessage(k Kind) string {
	switch k {
	case KindList:
		return MsgListFailed
	case KindDetail:
		return MsgDetailFailed
	default:
		return MsgContentFailed
	}
}
