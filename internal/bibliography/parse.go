package bibliography

import (
	"strings"

	"zweigbib/pkg/models"
)

// Column names understood by Parse. Other columns land in Entry.Extra.
const (
	ColPageID                 = "page_id"
	ColTitle                  = "title"
	ColOriginalTitle          = "original_title"
	ColYear                   = "year"
	ColMainCategory           = "main_category"
	ColLanguage               = "language"
	ColTimePeriod             = "time_period"
	ColPublisher              = "publisher"
	ColLocation               = "location"
	ColFullBibliographicEntry = "full_bibliographic_entry"
	ColCleanContent           = "clean_content"
)

// Columns is the canonical column order used when writing datasets.
var Columns = []string{
	ColPageID, ColTitle, ColOriginalTitle, ColYear, ColMainCategory, ColLanguage,
	ColTimePeriod, ColPublisher, ColLocation, ColFullBibliographicEntry, ColCleanContent,
}

const separator = ','

// Parse reads a header-led comma separated dataset.
//
// Fields may be wrapped in double quotes to embed the separator; the quote
// characters stay in the field value. Blank lines are skipped, short lines
// are padded with empty fields and entries come back in file order without
// deduplication.
func Parse(text string) ([]models.Entry, error) {
	lines := strings.Split(text, "\n")

	header := splitFields(strings.TrimPrefix(trimCR(lines[0]), "\ufeff"))
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if missing := missingColumns(header, ColTitle, ColPageID); len(missing) > 0 {
		return nil, &ParseError{Missing: missing}
	}

	out := make([]models.Entry, 0, len(lines)-1)
	for _, line := range lines[1:] {
		line = trimCR(line)
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, buildEntry(header, splitFields(line)))
	}
	return out, nil
}

// splitFields splits one line on the separator. A quote toggles the
// quoted region; separators inside it belong to the field.
func splitFields(line string) []string {
	var (
		fields  []string
		current strings.Builder
		inQuote bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			current.WriteRune(r)
		case r == separator && !inQuote:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(fields, current.String())
}

func buildEntry(header, values []string) models.Entry {
	var e models.Entry
	for i, name := range header {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		switch name {
		case ColPageID:
			e.PageID = v
		case ColTitle:
			e.Title = v
		case ColOriginalTitle:
			e.OriginalTitle = v
		case ColYear:
			e.Year = models.ParseYear(v)
		case ColMainCategory:
			e.MainCategory = v
		case ColLanguage:
			e.Language = v
		case ColTimePeriod:
			e.TimePeriod = v
		case ColPublisher:
			e.Publisher = v
		case ColLocation:
			e.Location = v
		case ColFullBibliographicEntry:
			e.FullBibliographicEntry = v
		case ColCleanContent:
			e.CleanContent = v
		case "":
		default:
			if e.Extra == nil {
				e.Extra = make(map[string]string)
			}
			e.Extra[name] = v
		}
	}
	return e
}

func missingColumns(header []string, required ...string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, r := range required {
		if !present[r] {
			missing = append(missing, r)
		}
	}
	return missing
}

func trimCR(s string) string {
	return strings.TrimSuffix(s, "\r")
}
