package browse

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"zweigbib/internal/bibliography"
	"zweigbib/internal/router"
)

const fixture = `page_id,title,year,main_category,language,time_period
1,Amok,1922,Novellas,German,During Lifetime (1881-1942)
2,Schachnovelle,1942,Novellas,German,During Lifetime (1881-1942)
3,Erasmus,1934,Biographies,German,During Lifetime (1881-1942)
4,The Royal Game,1944,Translations,English,Post-WWII (1943-1980)
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, load bool) (*gin.Engine, *bibliography.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := bibliography.NewStore(bibliography.FetcherFunc(func(ctx context.Context, source string) (string, error) {
		return fixture, nil
	}), discardLogger())
	if load {
		if err := store.Load(context.Background(), "fixture.csv"); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	reload := func(ctx context.Context) error { return store.Load(ctx, "fixture.csv") }
	h := NewHandler(store, reload, discardLogger())

	r := gin.New()
	r.GET("/", h.Index)
	h.RegisterRoutes(r.Group("/api"))
	return r, store
}

func do(t *testing.T, r http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func TestListEntries(t *testing.T) {
	r, _ := newTestRouter(t, true)

	cases := []struct {
		target string
		total  int
		first  string
	}{
		{"/api/entries", 4, "1"},
		{"/api/entries?category=Novellas", 2, "1"},
		{"/api/entries?language=English", 1, "4"},
		{"/api/entries?year=1934", 1, "3"},
		{"/api/entries?q=royal", 1, "4"},
		{"/api/entries?timePeriod=Post-WWII%20(1943-1980)", 1, "4"},
		{"/api/entries?offset=1&limit=2", 4, "2"},
	}
	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			w := do(t, r, http.MethodGet, tc.target)
			if w.Code != http.StatusOK {
				t.Fatalf("status %d: %s", w.Code, w.Body.String())
			}
			var body struct {
				Total int `json:"total"`
				Items []struct {
					PageID string `json:"page_id"`
				} `json:"items"`
			}
			decode(t, w, &body)
			if body.Total != tc.total || len(body.Items) == 0 || body.Items[0].PageID != tc.first {
				t.Fatalf("unexpected body %s", w.Body.String())
			}
		})
	}
}

func TestEntriesBeforeLoad(t *testing.T) {
	r, _ := newTestRouter(t, false)
	for _, target := range []string{"/api/entries", "/api/entries/1", "/api/facets", "/api/summary", "/api/export"} {
		if w := do(t, r, http.MethodGet, target); w.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", target, w.Code)
		}
	}
	w := do(t, r, http.MethodGet, "/api/status")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"state":"not_loaded"`) {
		t.Fatalf("unexpected status body %s", w.Body.String())
	}
}

func TestGetEntry(t *testing.T) {
	r, _ := newTestRouter(t, true)

	w := do(t, r, http.MethodGet, "/api/entries/2")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"title":"Schachnovelle"`) {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/api/entries/999")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["error"] != "Entry with ID 999 not found" {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestFacetsAndSummary(t *testing.T) {
	r, _ := newTestRouter(t, true)

	var facets struct {
		Categories []string `json:"categories"`
		Years      []int    `json:"years"`
	}
	decode(t, do(t, r, http.MethodGet, "/api/facets"), &facets)
	if len(facets.Categories) != 3 || len(facets.Years) != 4 || facets.Years[0] != 1922 {
		t.Fatalf("unexpected facets %+v", facets)
	}

	var sum bibliography.Summary
	decode(t, do(t, r, http.MethodGet, "/api/summary"), &sum)
	if sum.TotalEntries != 4 || sum.TopCategories[0].Name != "Novellas" {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestRouteEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, true)
	var rv router.Descriptor
	decode(t, do(t, r, http.MethodGet, "/api/route?token=%23view%3Dlist%26filter%3Dlanguage%26id%3DGerman"), &rv)
	if rv.View != "list" || rv.Filter != "language" || rv.ID != "German" || rv.Legacy {
		t.Fatalf("unexpected route %+v", rv)
	}
	if rv.Token != "view=list&filter=language&id=German" {
		t.Fatalf("unexpected token %q", rv.Token)
	}

	decode(t, do(t, r, http.MethodGet, "/api/route?token=view%3D17"), &rv)
	if !rv.Legacy || rv.View != "17" {
		t.Fatalf("expected legacy route, got %+v", rv)
	}
}

func TestViewEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, true)

	var v ViewResponse
	decode(t, do(t, r, http.MethodGet, "/api/view?token=view%3Ddetail%26id%3D3"), &v)
	if v.Kind != "detail" || !strings.Contains(v.HTML, "Erasmus") || v.Redirect != "" {
		t.Fatalf("unexpected view %+v", v)
	}

	v = ViewResponse{}
	decode(t, do(t, r, http.MethodGet, "/api/view?token=view%3Ddetail%26id%3D999"), &v)
	if v.Kind != "error" || v.Message != "Entry with ID 999 not found" || v.Redirect != "dashboard" {
		t.Fatalf("unexpected view %+v", v)
	}

	v = ViewResponse{}
	decode(t, do(t, r, http.MethodGet, "/api/view?token="), &v)
	if v.Kind != "dashboard" || !strings.Contains(v.HTML, "total-entries") {
		t.Fatalf("unexpected dashboard view %+v", v)
	}
}

func TestViewBeforeLoad(t *testing.T) {
	r, _ := newTestRouter(t, false)
	var v ViewResponse
	decode(t, do(t, r, http.MethodGet, "/api/view?token=view%3Dlist"), &v)
	if v.Kind != "none" || v.HTML != "" || v.Redirect != "" {
		t.Fatalf("expected an empty view before load, got %+v", v)
	}
}

func TestReload(t *testing.T) {
	r, store := newTestRouter(t, false)
	w := do(t, r, http.MethodPost, "/api/reload")
	if w.Code != http.StatusOK || !store.IsLoaded() {
		t.Fatalf("reload failed: %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"count":4`) {
		t.Fatalf("unexpected status body %s", w.Body.String())
	}
}

func TestReloadConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := bibliography.NewStore(nil, discardLogger())
	h := NewHandler(store, func(ctx context.Context) error { return bibliography.ErrLoadInProgress }, discardLogger())
	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))

	if w := do(t, r, http.MethodPost, "/api/reload"); w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestExport(t *testing.T) {
	r, _ := newTestRouter(t, true)

	w := do(t, r, http.MethodGet, "/api/export")
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("unexpected csv export %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	entries, err := bibliography.Parse(w.Body.String())
	if err != nil || len(entries) != 4 {
		t.Fatalf("export does not reload: %d entries, %v", len(entries), err)
	}

	w = do(t, r, http.MethodGet, "/api/export?format=xlsx")
	if w.Code != http.StatusOK || !strings.Contains(w.Header().Get("Content-Disposition"), "zweig_bibliography.xlsx") {
		t.Fatalf("unexpected xlsx export %d %v", w.Code, w.Header())
	}

	if w := do(t, r, http.MethodGet, "/api/export?format=pdf"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestIndex(t *testing.T) {
	r, _ := newTestRouter(t, false)
	w := do(t, r, http.MethodGet, "/")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<title>"+PageTitle+"</title>") {
		t.Fatalf("unexpected index %d %s", w.Code, w.Body.String())
	}
}
