package models

// Entry is one bibliographic record as read from the dataset.
//
// PageID is the stable identifier used by lookups and detail links.
// Free-text fields are kept exactly as they appear in the source file,
// quote characters included.
type Entry struct {
	PageID                 string            `json:"page_id"`
	Title                  string            `json:"title"`
	OriginalTitle          string            `json:"original_title,omitempty"`
	Year                   Year              `json:"year"`
	MainCategory           string            `json:"main_category,omitempty"`
	Language               string            `json:"language,omitempty"`
	TimePeriod             string            `json:"time_period,omitempty"`
	Publisher              string            `json:"publisher,omitempty"`
	Location               string            `json:"location,omitempty"`
	FullBibliographicEntry string            `json:"full_bibliographic_entry,omitempty"`
	CleanContent           string            `json:"clean_content,omitempty"`
	Extra                  map[string]string `json:"extra,omitempty"` // columns without a dedicated field
}

// DisplayTitle returns the title or a placeholder for untitled entries.
func (e Entry) DisplayTitle() string {
	if e.Title == "" {
		return "Untitled"
	}
	return e.Title
}
