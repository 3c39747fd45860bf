package bibliography

import (
	"strings"

	"zweigbib/pkg/models"
)

// Time period labels, bounded by Stefan Zweig's lifetime.
const (
	PeriodPreZweig     = "Pre-Zweig (before 1881)"
	PeriodLifetime     = "During Lifetime (1881-1942)"
	PeriodPostWar      = "Post-WWII (1943-1980)"
	PeriodLateCentury  = "Late 20th Century (1981-2000)"
	PeriodContemporary = "Contemporary (after 2000)"
)

// TimePeriodForYear classifies a publication year.
func TimePeriodForYear(year float64) string {
	switch {
	case year < 1881:
		return PeriodPreZweig
	case year <= 1942:
		return PeriodLifetime
	case year <= 1980:
		return PeriodPostWar
	case year <= 2000:
		return PeriodLateCentury
	default:
		return PeriodContemporary
	}
}

// DerivePeriods fills a blank time period from a numeric year and
// returns how many entries it changed.
func DerivePeriods(entries []models.Entry) int {
	n := 0
	for i := range entries {
		e := &entries[i]
		if strings.TrimSpace(e.TimePeriod) != "" {
			continue
		}
		if _, ok := e.Year.Int(); !ok {
			continue
		}
		e.TimePeriod = TimePeriodForYear(e.Year.Value)
		n++
	}
	return n
}
