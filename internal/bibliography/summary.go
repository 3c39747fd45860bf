package bibliography

import (
	"sort"

	"zweigbib/pkg/models"
)

// Dashboard limits.
const (
	TopCategoryLimit = 12
	TopLanguageLimit = 10
)

// Facet is a distinct field value with the number of entries carrying it.
type Facet struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// YearRange spans the distinct integer years. Valid is false when the
// dataset has no usable year.
type YearRange struct {
	Min   int  `json:"min"`
	Max   int  `json:"max"`
	Valid bool `json:"valid"`
}

// Summary is what the dashboard shows.
type Summary struct {
	TotalEntries  int       `json:"total_entries"`
	CategoryCount int       `json:"category_count"`
	LanguageCount int       `json:"language_count"`
	Years         YearRange `json:"years"`
	TopCategories []Facet   `json:"top_categories"`
	TopLanguages  []Facet   `json:"top_languages"`
	TimePeriods   []Facet   `json:"time_periods"`
}

// Summarize builds the dashboard summary for entries.
func Summarize(entries []models.Entry) Summary {
	categories := rank(entries, func(e models.Entry) string { return e.MainCategory })
	languages := rank(entries, func(e models.Entry) string { return e.Language })
	periods := rank(entries, func(e models.Entry) string { return e.TimePeriod })

	sum := Summary{
		TotalEntries:  len(entries),
		CategoryCount: len(categories),
		LanguageCount: len(languages),
		TopCategories: limit(categories, TopCategoryLimit),
		TopLanguages:  limit(languages, TopLanguageLimit),
		TimePeriods:   periods,
	}
	if years := distinctYears(entries); len(years) > 0 {
		sum.Years = YearRange{Min: years[0], Max: years[len(years)-1], Valid: true}
	}
	return sum
}

// rank counts the non-empty values of field, most frequent first. Equal
// counts keep the order in which values first appear in entries.
func rank(entries []models.Entry, field func(models.Entry) string) []Facet {
	index := make(map[string]int)
	facets := make([]Facet, 0)
	for _, e := range entries {
		v := field(e)
		if v == "" {
			continue
		}
		i, ok := index[v]
		if !ok {
			i = len(facets)
			index[v] = i
			facets = append(facets, Facet{Name: v})
		}
		facets[i].Count++
	}
	sort.SliceStable(facets, func(a, b int) bool {
		return facets[a].Count > facets[b].Count
	})
	return facets
}

func limit(facets []Facet, n int) []Facet {
	if len(facets) > n {
		return facets[:n]
	}
	return facets
}
