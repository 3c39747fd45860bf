package bibliography

import (
	"sort"
	"strings"

	"zweigbib/pkg/models"
)

// Header returns Columns followed by the sorted extra column names found
// in entries.
func Header(entries []models.Entry) []string {
	seen := make(map[string]bool)
	var extra []string
	for _, e := range entries {
		for k := range e.Extra {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	return append(append([]string(nil), Columns...), extra...)
}

// Value returns the stored text of column col.
func Value(e models.Entry, col string) string {
	switch col {
	case ColPageID:
		return e.PageID
	case ColTitle:
		return e.Title
	case ColOriginalTitle:
		return e.OriginalTitle
	case ColYear:
		return e.Year.Raw
	case ColMainCategory:
		return e.MainCategory
	case ColLanguage:
		return e.Language
	case ColTimePeriod:
		return e.TimePeriod
	case ColPublisher:
		return e.Publisher
	case ColLocation:
		return e.Location
	case ColFullBibliographicEntry:
		return e.FullBibliographicEntry
	case ColCleanContent:
		return e.CleanContent
	}
	return e.Extra[col]
}

var lineBreaks = strings.NewReplacer("\r", " ", "\n", " ")

// Format writes entries in the dialect Parse reads. Values are written as
// stored, so Parse(Format(entries)) reproduces entries that came from
// Parse. A value holding a bare separator is wrapped in quotes to keep
// the columns aligned. A value the splitter would break apart, or one
// with an open quote before the last column, yields a *FormatError.
func Format(entries []models.Entry) (string, error) {
	header := Header(entries)
	last := len(header) - 1
	var b strings.Builder
	b.WriteString(strings.Join(header, string(separator)))
	b.WriteByte('\n')
	for _, e := range entries {
		for i, col := range header {
			if i > 0 {
				b.WriteRune(separator)
			}
			v := lineBreaks.Replace(Value(e, col))
			switch {
			case !strings.ContainsRune(v, '"'):
				if strings.ContainsRune(v, separator) {
					v = `"` + v + `"`
				}
			case len(splitFields(v)) != 1 || (i < last && strings.Count(v, `"`)%2 == 1):
				return "", &FormatError{PageID: e.PageID, Column: col}
			}
			b.WriteString(v)
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}
