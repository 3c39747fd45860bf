package bibliography

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"zweigbib/pkg/models"
)

const fixture = `page_id,title,original_title,year,main_category,language,time_period,publisher,location,full_bibliographic_entry,clean_content
1,Amok,,1922,Novellas,German,During Lifetime (1881-1942),Insel,Leipzig,"Zweig, S.: Amok. Leipzig 1922",A doctor in the tropics
2,Schachnovelle,,1942,Novellas,German,During Lifetime (1881-1942),Pigmalión,Buenos Aires,Schachnovelle 1942,Chess on a ship
3,The Royal Game,Schachnovelle,1944.0,Translations,English,Post-WWII (1943-1980),Viking,New York,The Royal Game 1944,
4,Erasmus,,ca. 1934,Biographies,German,During Lifetime (1881-1942),Reichner,Wien,Triumph und Tragik des Erasmus,
5,Marie Antoinette,,1932,Biographies,French,During Lifetime (1881-1942),Grasset,Paris,Marie Antoinette 1932,Portrait of a queen
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func textFetcher(text string) Fetcher {
	return FetcherFunc(func(ctx context.Context, source string) (string, error) {
		return text, nil
	})
}

func loadedStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(textFetcher(fixture), discardLogger())
	if err := s.Load(context.Background(), "fixture.csv"); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func TestLoadSuccess(t *testing.T) {
	s := NewStore(textFetcher(fixture), discardLogger())
	if s.IsLoaded() {
		t.Fatal("new store should not be loaded")
	}
	if st := s.Status(); st.State != NotLoaded {
		t.Fatalf("expected not_loaded, got %s", st.State)
	}

	var got []Event
	s.AddEventListener(EventLoaded, func(ev Event) { got = append(got, ev) })
	s.AddEventListener(EventError, func(ev Event) { t.Fatalf("unexpected error event: %+v", ev) })

	if err := s.Load(context.Background(), "fixture.csv"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !s.IsLoaded() {
		t.Fatal("store should be loaded")
	}
	st := s.Status()
	if st.State != Loaded || st.Count != 5 || st.Error != "" || st.LoadID == "" {
		t.Fatalf("unexpected status: %+v", st)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 loaded event, got %d", len(got))
	}
	ev, ok := got[0].(LoadedEvent)
	if !ok || ev.Count != 5 || ev.LoadID != st.LoadID || ev.Source != "fixture.csv" {
		t.Fatalf("unexpected event: %#v", got[0])
	}
}

func TestLoadFailures(t *testing.T) {
	cases := []struct {
		name    string
		fetcher Fetcher
		target  error
	}{
		{
			name: "transport",
			fetcher: FetcherFunc(func(ctx context.Context, source string) (string, error) {
				return "", errors.New("HTTP error: 404")
			}),
		},
		{
			name:    "parse",
			fetcher: textFetcher("name,year\nfoo,1902\n"),
			target:  ErrMissingRequiredHeader,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore(tc.fetcher, discardLogger())
			var messages []string
			s.AddEventListener(EventError, func(ev Event) {
				messages = append(messages, ev.(ErrorEvent).Message)
			})
			s.AddEventListener(EventLoaded, func(ev Event) { t.Fatal("unexpected loaded event") })

			err := s.Load(context.Background(), "broken.csv")
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.target != nil && !errors.Is(err, tc.target) {
				t.Fatalf("expected %v, got %v", tc.target, err)
			}
			if tc.name == "transport" {
				var te *TransportError
				if !errors.As(err, &te) || te.Source != "broken.csv" {
					t.Fatalf("expected transport error, got %#v", err)
				}
			}
			st := s.Status()
			if st.State != NotLoaded || st.Error != err.Error() {
				t.Fatalf("unexpected status: %+v", st)
			}
			if len(messages) != 1 || messages[0] != err.Error() {
				t.Fatalf("unexpected error events: %v", messages)
			}
		})
	}
}

type entrySource struct {
	entries []models.Entry
	handled bool
	err     error
	text    string
}

func (f entrySource) Fetch(ctx context.Context, source string) (string, error) {
	return f.text, nil
}

func (f entrySource) FetchEntries(ctx context.Context, source string) ([]models.Entry, bool, error) {
	return f.entries, f.handled, f.err
}

func TestLoadEntryFetcher(t *testing.T) {
	want := []models.Entry{{PageID: "1", Title: `12" record,1902`}, {PageID: "2", Title: "Amok"}}
	s := NewStore(entrySource{entries: want, handled: true, text: "broken"}, discardLogger())
	if err := s.Load(context.Background(), "sqlite:z.db"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := s.GetAllEntries(); !reflect.DeepEqual(got, want) {
		t.Fatalf("entries should be kept as fetched, got %+v", got)
	}
	if st := s.Status(); st.State != Loaded || st.Count != 2 {
		t.Fatalf("unexpected status: %+v", st)
	}

	s = NewStore(entrySource{text: fixture}, discardLogger())
	if err := s.Load(context.Background(), "fixture.csv"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Status().Count != 5 {
		t.Fatalf("unhandled source should fall back to text, got %+v", s.Status())
	}

	s = NewStore(entrySource{handled: true, err: errors.New("disk I/O error")}, discardLogger())
	err := s.Load(context.Background(), "sqlite:z.db")
	var te *TransportError
	if !errors.As(err, &te) || te.Source != "sqlite:z.db" {
		t.Fatalf("expected transport error, got %#v", err)
	}
}

func TestFailedReloadKeepsDataset(t *testing.T) {
	text := fixture
	s := NewStore(FetcherFunc(func(ctx context.Context, source string) (string, error) {
		return text, nil
	}), discardLogger())
	if err := s.Load(context.Background(), "fixture.csv"); err != nil {
		t.Fatalf("load: %v", err)
	}

	text = "broken"
	if err := s.Load(context.Background(), "fixture.csv"); err == nil {
		t.Fatal("expected reload to fail")
	}
	if !s.IsLoaded() {
		t.Fatal("previous dataset should survive a failed reload")
	}
	st := s.Status()
	if st.State != Loaded || st.Count != 5 || st.Error == "" {
		t.Fatalf("unexpected status: %+v", st)
	}
	if len(s.GetAllEntries()) != 5 {
		t.Fatal("entries changed after failed reload")
	}
}

func TestConcurrentLoad(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	s := NewStore(FetcherFunc(func(ctx context.Context, source string) (string, error) {
		close(started)
		<-release
		return fixture, nil
	}), discardLogger())

	loaded := 0
	s.AddEventListener(EventLoaded, func(Event) { loaded++ })

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background(), "fixture.csv") }()
	<-started

	if st := s.Status(); st.State != Loading {
		t.Fatalf("expected loading, got %s", st.State)
	}
	if err := s.Load(context.Background(), "fixture.csv"); !errors.Is(err, ErrLoadInProgress) {
		t.Fatalf("expected ErrLoadInProgress, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first load: %v", err)
	}
	if loaded != 1 {
		t.Fatalf("expected exactly 1 loaded event, got %d", loaded)
	}
}

func TestLoadFromListenerRejected(t *testing.T) {
	s := NewStore(textFetcher(fixture), discardLogger())
	var nested error
	s.AddEventListener(EventLoaded, func(Event) {
		nested = s.Load(context.Background(), "again.csv")
	})
	if err := s.Load(context.Background(), "fixture.csv"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !errors.Is(nested, ErrLoadInProgress) {
		t.Fatalf("expected nested load to be rejected, got %v", nested)
	}
	if src := s.Status().Source; src != "fixture.csv" {
		t.Fatalf("nested load should not run, source is %q", src)
	}
}

func TestListeners(t *testing.T) {
	s := NewStore(textFetcher(fixture), discardLogger())
	if id := s.AddEventListener("progress", func(Event) {}); id != 0 {
		t.Fatalf("unknown kind should be rejected, got id %d", id)
	}

	var order []string
	first := s.AddEventListener(EventLoaded, func(Event) { order = append(order, "first") })
	s.AddEventListener(EventLoaded, func(Event) { order = append(order, "second") })
	if first == 0 {
		t.Fatal("expected a listener id")
	}

	if err := s.Load(context.Background(), "a.csv"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"first", "second"}) {
		t.Fatalf("unexpected order: %v", order)
	}

	s.RemoveEventListener(EventLoaded, first)
	order = nil
	if err := s.Load(context.Background(), "b.csv"); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"second"}) {
		t.Fatalf("removed listener still called: %v", order)
	}
}

func TestGetAllEntriesReturnsCopy(t *testing.T) {
	s := loadedStore(t)
	all := s.GetAllEntries()
	all[0].Title = "changed"
	if got := s.GetAllEntries()[0].Title; got != "Amok" {
		t.Fatalf("store mutated through copy: %q", got)
	}
}

func TestGetEntryByID(t *testing.T) {
	s := loadedStore(t)
	e, ok := s.GetEntryByID("3")
	if !ok || e.Title != "The Royal Game" {
		t.Fatalf("unexpected lookup: %+v, %v", e, ok)
	}
	if _, ok := s.GetEntryByID("999"); ok {
		t.Fatal("missing id should be absent")
	}
}

func TestDistinctValues(t *testing.T) {
	s := loadedStore(t)
	if got := s.GetCategories(); !reflect.DeepEqual(got, []string{"Biographies", "Novellas", "Translations"}) {
		t.Fatalf("categories: %v", got)
	}
	if got := s.GetLanguages(); !reflect.DeepEqual(got, []string{"English", "French", "German"}) {
		t.Fatalf("languages: %v", got)
	}
	if got := s.GetTimePeriods(); len(got) != 2 {
		t.Fatalf("time periods: %v", got)
	}

	years := s.GetYears()
	if !reflect.DeepEqual(years, []int{1922, 1932, 1942, 1944}) {
		t.Fatalf("years: %v", years)
	}
	for i := 1; i < len(years); i++ {
		if years[i] <= years[i-1] {
			t.Fatalf("years not strictly ascending: %v", years)
		}
	}
}

func TestSearchEntries(t *testing.T) {
	s := loadedStore(t)

	if got := s.SearchEntries("", nil); !reflect.DeepEqual(got, s.GetAllEntries()) {
		t.Fatal("empty search should equal all entries")
	}
	if got := s.SearchEntries("", Filters{}); !reflect.DeepEqual(got, s.GetAllEntries()) {
		t.Fatal("empty filters should equal all entries")
	}

	cases := []struct {
		name    string
		query   string
		filters Filters
		want    []string
	}{
		{"title", "amok", nil, []string{"1"}},
		{"original title", "SCHACHNOVELLE", nil, []string{"2", "3"}},
		{"clean content", "queen", nil, []string{"5"}},
		{"location", "buenos", nil, []string{"2"}},
		{"category", "", Filters{FilterCategory: "Biographies"}, []string{"4", "5"}},
		{"language and query", "schach", Filters{FilterLanguage: "German"}, []string{"2"}},
		{"numeric year", "", Filters{FilterYear: "1944"}, []string{"3"}},
		{"numeric year float form", "", Filters{FilterYear: "1922.0"}, []string{"1"}},
		{"string year", "", Filters{FilterYear: "ca. 1934"}, []string{"4"}},
		{"string year not numeric", "", Filters{FilterYear: "1934"}, nil},
		{"time period", "", Filters{FilterTimePeriod: "Post-WWII (1943-1980)"}, []string{"3"}},
		{"empty filter value", "", Filters{FilterCategory: ""}, []string{"1", "2", "3", "4", "5"}},
		{"unknown key", "", Filters{"publisher": "Insel"}, []string{"1", "2", "3", "4", "5"}},
		{"no match", "nothing here", nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.SearchEntries(tc.query, tc.filters)
			ids := make([]string, 0, len(got))
			for _, e := range got {
				ids = append(ids, e.PageID)
			}
			if len(ids) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, ids)
			}
			for i := range ids {
				if ids[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, ids)
				}
			}
		})
	}
}

func TestSearchEntriesIdempotent(t *testing.T) {
	s := loadedStore(t)
	f := Filters{FilterLanguage: "German"}
	first := s.SearchEntries("a", f)
	second := s.SearchEntries("a", f)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("repeated search returned different results")
	}
	if len(s.GetAllEntries()) != 5 {
		t.Fatal("search mutated the dataset")
	}
}
