package router

import (
	"net/url"
	"strconv"
	"strings"

	"zweigbib/internal/bibliography"
)

// View selects what a route shows.
type View string

const (
	ViewDashboard View = "dashboard"
	ViewList      View = "list"
	ViewDetail    View = "detail"
)

const (
	// DashboardToken is the shortcut token for the dashboard.
	DashboardToken = "dashboard"
	// FilterAll is the filter kind that imposes no constraint.
	FilterAll = "all"
)

// Token keys.
const (
	keyView   = "view"
	keyID     = "id"
	keyFilter = "filter"
	keyQuery  = "query"
)

// Route is the structured form of a navigation token.
//
// Any View other than dashboard, list or detail is a legacy deep link:
// the view value itself is the page id to show.
type Route struct {
	View       View
	ID         string
	FilterKind string
	Query      string
	Params     map[string]string // every decoded pair, known keys included
}

// ParseToken decodes a navigation token. A leading '#' is ignored.
//
// Pairs are joined by '&'; values are percent-decoded and a key without
// '=' is a flag with value "true". Pairs with an empty value are dropped.
func ParseToken(token string) Route {
	token = strings.TrimPrefix(token, "#")
	if token == "" || token == DashboardToken {
		return DashboardRoute()
	}

	params := make(map[string]string)
	for _, pair := range strings.Split(token, "&") {
		key, value, hasValue := strings.Cut(pair, "=")
		key = unescape(key)
		if key == "" {
			continue
		}
		if !hasValue {
			params[key] = "true"
			continue
		}
		if value = unescape(value); value != "" {
			params[key] = value
		}
	}

	r := Route{
		View:       View(params[keyView]),
		ID:         params[keyID],
		FilterKind: params[keyFilter],
		Query:      params[keyQuery],
		Params:     params,
	}
	if r.View == "" {
		r.View = ViewDashboard
	}
	return r
}

// Token encodes the route. Detail routes without an id encode to the
// empty token, which reads back as the dashboard.
func (r Route) Token() string {
	switch r.View {
	case ViewDashboard:
		return DashboardToken
	case ViewList:
		var b strings.Builder
		b.WriteString(keyView + "=" + string(ViewList))
		if r.FilterKind != "" && r.FilterKind != FilterAll {
			b.WriteString("&" + keyFilter + "=" + escape(r.FilterKind))
			if r.ID != "" {
				b.WriteString("&" + keyID + "=" + escape(r.ID))
			}
		}
		if r.Query != "" {
			b.WriteString("&" + keyQuery + "=" + escape(r.Query))
		}
		return b.String()
	case ViewDetail:
		if r.ID == "" {
			return ""
		}
		return keyView + "=" + string(ViewDetail) + "&" + keyID + "=" + escape(r.ID)
	case "":
		return ""
	default:
		return keyView + "=" + escape(string(r.View))
	}
}

// Equal compares the fields that drive dispatch. Params are ignored.
func (r Route) Equal(o Route) bool {
	return r.View == o.View && r.ID == o.ID && r.FilterKind == o.FilterKind && r.Query == o.Query
}

// Filters returns the store filters a list route asks for.
func (r Route) Filters() bibliography.Filters {
	filters := bibliography.Filters{}
	if r.FilterKind != "" && r.FilterKind != FilterAll {
		filters[r.FilterKind] = r.ID
	}
	return filters
}

// IsLegacy reports whether the route is a bare page-id deep link.
func (r Route) IsLegacy() bool {
	switch r.View {
	case ViewDashboard, ViewList, ViewDetail, "":
		return false
	}
	return true
}

// Descriptor is the JSON form of a route.
type Descriptor struct {
	View   string            `json:"view"`
	ID     string            `json:"id,omitempty"`
	Filter string            `json:"filter,omitempty"`
	Query  string            `json:"query,omitempty"`
	Params map[string]string `json:"params,omitempty"`
	Legacy bool              `json:"legacy"`
	Token  string            `json:"token"`
}

func (r Route) Describe() Descriptor {
	return Descriptor{
		View:   string(r.View),
		ID:     r.ID,
		Filter: r.FilterKind,
		Query:  r.Query,
		Params: r.Params,
		Legacy: r.IsLegacy(),
		Token:  r.Token(),
	}
}

func DashboardRoute() Route { return Route{View: ViewDashboard} }

// ListRoute lists every entry.
func ListRoute() Route { return Route{View: ViewList} }

func CategoryRoute(category string) Route {
	return Route{View: ViewList, FilterKind: bibliography.FilterCategory, ID: category}
}

func LanguageRoute(language string) Route {
	return Route{View: ViewList, FilterKind: bibliography.FilterLanguage, ID: language}
}

func YearRoute(year int) Route {
	return Route{View: ViewList, FilterKind: bibliography.FilterYear, ID: strconv.Itoa(year)}
}

func TimePeriodRoute(period string) Route {
	return Route{View: ViewList, FilterKind: bibliography.FilterTimePeriod, ID: period}
}

func SearchRoute(query string) Route {
	return Route{View: ViewList, Query: query}
}

func DetailRoute(id string) Route {
	return Route{View: ViewDetail, ID: id}
}

// LegacyRoute is the old item link form, view=<page id>.
func LegacyRoute(id string) Route {
	return Route{View: View(id)}
}

// escape percent-encodes like encodeURIComponent: spaces become %20.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// unescape decodes percent escapes, keeping '+' literal. Malformed
// escapes leave the value as it was.
func unescape(s string) string {
	v, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return v
}
