package bibliography

import (
	"errors"
	"reflect"
	"testing"

	"zweigbib/pkg/models"
)

func TestParseFileOrder(t *testing.T) {
	entries, err := Parse("title,page_id\nA,1\nB,2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].PageID != "1" || entries[1].PageID != "2" {
		t.Fatalf("unexpected order: %q, %q", entries[0].PageID, entries[1].PageID)
	}
	if entries[0].Title != "A" || entries[1].Title != "B" {
		t.Fatalf("unexpected titles: %q, %q", entries[0].Title, entries[1].Title)
	}
}

func TestParseQuotedSeparator(t *testing.T) {
	entries, err := Parse("title,page_id\n\"Smith, J.\",3\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Title != `"Smith, J."` {
		t.Fatalf("quotes should be kept, got %q", e.Title)
	}
	if e.PageID != "3" {
		t.Fatalf("expected page id 3, got %q", e.PageID)
	}
	if len(e.Extra) != 0 {
		t.Fatalf("unexpected extra columns: %v", e.Extra)
	}
}

func TestParseMissingHeader(t *testing.T) {
	cases := map[string]string{
		"no title":   "page_id,year\n1,1902",
		"no page_id": "title,year\nA,1902",
		"empty":      "",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(text)
			if !errors.Is(err, ErrMissingRequiredHeader) {
				t.Fatalf("expected missing header error, got %v", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) || len(pe.Missing) == 0 {
				t.Fatalf("expected ParseError with missing columns, got %#v", err)
			}
		})
	}
}

func TestParseLenientLines(t *testing.T) {
	text := "\ufeffpage_id, title ,year,language,notes\r\n" +
		"1,Amok,1922,German,first\r\n" +
		"\r\n" +
		"   \n" +
		"2,Schachnovelle\n" +
		"3,Ungeduld des Herzens,ca. 1939\n"
	entries, err := Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("blank lines should be skipped, got %d entries", len(entries))
	}

	first := entries[0]
	if first.Title != "Amok" || first.Language != "German" {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if !first.Year.Numeric || first.Year.Value != 1922 {
		t.Fatalf("expected numeric year 1922, got %+v", first.Year)
	}
	if first.Extra["notes"] != "first" {
		t.Fatalf("unknown column should land in extra, got %v", first.Extra)
	}

	short := entries[1]
	if short.Language != "" || !short.Year.IsZero() {
		t.Fatalf("missing trailing fields should be empty, got %+v", short)
	}
	if v, ok := short.Extra["notes"]; !ok || v != "" {
		t.Fatalf("missing extra column should be empty, got %v", short.Extra)
	}

	if entries[2].Year.Numeric || entries[2].Year.Raw != "ca. 1939" {
		t.Fatalf("unparseable year should stay a string, got %+v", entries[2].Year)
	}
}

func TestParseKeepsDuplicates(t *testing.T) {
	entries, err := Parse("title,page_id\nA,1\nA again,1\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("duplicates should be kept, got %d", len(entries))
	}
}

func TestTimePeriodForYear(t *testing.T) {
	cases := []struct {
		year float64
		want string
	}{
		{1880, PeriodPreZweig},
		{1881, PeriodLifetime},
		{1942, PeriodLifetime},
		{1942.5, PeriodPostWar},
		{1980, PeriodPostWar},
		{1981, PeriodLateCentury},
		{2000, PeriodLateCentury},
		{2001, PeriodContemporary},
	}
	for _, tc := range cases {
		if got := TimePeriodForYear(tc.year); got != tc.want {
			t.Errorf("%v: expected %q, got %q", tc.year, tc.want, got)
		}
	}
}

func TestDerivePeriods(t *testing.T) {
	entries := []models.Entry{
		{PageID: "1", Year: models.ParseYear("1922")},
		{PageID: "2", Year: models.ParseYear("1955"), TimePeriod: "Custom"},
		{PageID: "3", Year: models.ParseYear("ca. 1930")},
		{PageID: "4"},
		{PageID: "5", Year: models.ParseYear("2004.0")},
	}
	if n := DerivePeriods(entries); n != 2 {
		t.Fatalf("expected 2 filled periods, got %d", n)
	}
	want := []string{PeriodLifetime, "Custom", "", "", PeriodContemporary}
	for i, e := range entries {
		if e.TimePeriod != want[i] {
			t.Errorf("entry %s: expected %q, got %q", e.PageID, want[i], e.TimePeriod)
		}
	}
}

func TestFormatRoundTrip(t *testing.T) {
	text := "page_id,title,year,language,notes\n" +
		"1,\"Smith, J.\",1902.0,German,a\n" +
		"2,Amok,ca. 1922,,\n" +
		"3,Untitled \"draft\",,English,b\n" +
		"4,Ungeduld,1939,,12\" record, side a\n"
	entries, err := Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if entries[3].Extra["notes"] != `12" record, side a` {
		t.Fatalf("open quote in the last column should keep the rest of the line, got %q", entries[3].Extra["notes"])
	}
	out, err := Format(entries)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	again, err := Parse(out)
	if err != nil {
		t.Fatalf("parse formatted: %v", err)
	}
	if !reflect.DeepEqual(entries, again) {
		t.Fatalf("round trip changed entries:\n%+v\n%+v", entries, again)
	}

	// an open quote kept from the last input column lands mid-row on output
	entries, err = Parse("page_id,title,year\n1,12\" record,1902\n2,Amok,1922\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if entries[0].Title != `12" record,1902` {
		t.Fatalf("unexpected title %q", entries[0].Title)
	}
	out, err = Format(entries)
	var ferr *FormatError
	if !errors.As(err, &ferr) || !errors.Is(err, ErrUnrepresentable) {
		t.Fatalf("expected format error, got %v with output %q", err, out)
	}
	if ferr.PageID != "1" || ferr.Column != ColTitle {
		t.Fatalf("unexpected error %+v", ferr)
	}
}

func TestFormatRejectsSplittingValues(t *testing.T) {
	cases := []models.Entry{
		{PageID: "1", Title: `"a",b`},
		{PageID: "2", Extra: map[string]string{"notes": `"a",b`}},
		{PageID: "3", Extra: map[string]string{"notes": `a,b"c`}},
	}
	for _, e := range cases {
		if _, err := Format([]models.Entry{e}); !errors.Is(err, ErrUnrepresentable) {
			t.Errorf("entry %s: expected ErrUnrepresentable, got %v", e.PageID, err)
		}
	}
}

func TestFormatQuotesBareSeparator(t *testing.T) {
	out, err := Format([]models.Entry{{PageID: "1", Title: "Briefe, 1897-1914"}})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	entries, err := Parse(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != `"Briefe, 1897-1914"` || entries[0].PageID != "1" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}
