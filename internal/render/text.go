// Package render turns route directives into output: plain text for the
// terminal client and HTML fragments for the browser client.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"zweigbib/internal/bibliography"
	"zweigbib/internal/router"
	"zweigbib/pkg/models"
)

// Text renders directives for a terminal.
type Text struct {
	w io.Writer
}

func NewText(w io.Writer) *Text {
	return &Text{w: w}
}

func (t *Text) Render(d router.Directive) error {
	bw := bufio.NewWriter(t.w)
	switch d.Kind {
	case router.KindDashboard:
		if d.Summary == nil {
			return nil
		}
		writeSummary(bw, *d.Summary)
	case router.KindList:
		writeList(bw, d.Entries)
	case router.KindDetail:
		if d.Entry == nil {
			return nil
		}
		writeDetail(bw, *d.Entry)
	case router.KindError:
		fmt.Fprintf(bw, "error: %s\n", d.Message)
	case router.KindLoading:
		if d.Loading {
			fmt.Fprintln(bw, "Loading bibliography data...")
		}
	default:
		return nil
	}
	return bw.Flush()
}

func writeSummary(w io.Writer, s bibliography.Summary) {
	fmt.Fprintf(w, "Entries: %d  Categories: %d  Languages: %d", s.TotalEntries, s.CategoryCount, s.LanguageCount)
	if s.Years.Valid {
		fmt.Fprintf(w, "  Years: %d - %d", s.Years.Min, s.Years.Max)
	}
	fmt.Fprintln(w)
	writeFacets(w, "Top categories", s.TopCategories, router.CategoryRoute)
	writeFacets(w, "Popular languages", s.TopLanguages, router.LanguageRoute)
	writeFacets(w, "Time periods", s.TimePeriods, router.TimePeriodRoute)
}

func writeFacets(w io.Writer, heading string, facets []bibliography.Facet, route func(string) router.Route) {
	if len(facets) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", heading)
	for _, f := range facets {
		fmt.Fprintf(w, "  %-40s %5d  [%s]\n", f.Name, f.Count, route(f.Name).Token())
	}
}

func writeList(w io.Writer, entries []models.Entry) {
	fmt.Fprintf(w, "Found %d %s\n", len(entries), plural(len(entries)))
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries found matching your criteria.")
		return
	}
	for _, e := range entries {
		meta := make([]string, 0, 3)
		if !e.Year.IsZero() {
			meta = append(meta, e.Year.String())
		}
		if e.MainCategory != "" {
			meta = append(meta, e.MainCategory)
		}
		if e.Language != "" {
			meta = append(meta, e.Language)
		}
		fmt.Fprintf(w, "  %-8s %s", e.PageID, e.DisplayTitle())
		if len(meta) > 0 {
			fmt.Fprintf(w, " (%s)", strings.Join(meta, ", "))
		}
		fmt.Fprintln(w)
	}
}

func writeDetail(w io.Writer, e models.Entry) {
	fmt.Fprintln(w, e.DisplayTitle())
	fmt.Fprintln(w, strings.Repeat("=", len([]rune(e.DisplayTitle()))))
	year := "-"
	if !e.Year.IsZero() {
		year = e.Year.String()
	}
	rows := []struct{ label, value string }{
		{"Original title", e.OriginalTitle},
		{"Year", year},
		{"Publisher", e.Publisher},
		{"Location", e.Location},
		{"Language", e.Language},
		{"Category", e.MainCategory},
		{"Time period", e.TimePeriod},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-15s %s\n", r.label+":", orDash(r.value))
	}
	fmt.Fprintln(w)
	if e.FullBibliographicEntry == "" {
		fmt.Fprintln(w, "No bibliographic entry available")
	} else {
		fmt.Fprintln(w, e.FullBibliographicEntry)
	}
	fmt.Fprintf(w, "\n[%s]\n", router.DetailRoute(e.PageID).Token())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
