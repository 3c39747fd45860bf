package bibliography

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"zweigbib/pkg/models"
)

// Fetcher returns the raw dataset text for a source identifier.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, source string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, source string) (string, error) {
	return f(ctx, source)
}

// EntryFetcher is implemented by fetchers that can hand over decoded
// entries for some sources. ok reports whether source was handled; when
// it is false the store falls back to Fetch and Parse.
type EntryFetcher interface {
	FetchEntries(ctx context.Context, source string) (entries []models.Entry, ok bool, err error)
}

// State is the load state of a Store.
type State int

const (
	NotLoaded State = iota
	Loading
	Loaded
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "not_loaded"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "loading":
		*s = Loading
	case "loaded":
		*s = Loaded
	case "not_loaded":
		*s = NotLoaded
	default:
		return fmt.Errorf("unknown load state %q", text)
	}
	return nil
}

// Status is a snapshot of the load state.
type Status struct {
	State    State     `json:"state"`
	Error    string    `json:"error,omitempty"`
	Count    int       `json:"count"`
	LoadID   string    `json:"load_id,omitempty"`
	Source   string    `json:"source,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitzero"`
}

// Filter keys accepted by SearchEntries.
const (
	FilterCategory   = "category"
	FilterYear       = "year"
	FilterLanguage   = "language"
	FilterTimePeriod = "timePeriod"
)

// Filters maps filter keys to exact values. Unknown keys and empty values
// impose no constraint.
type Filters map[string]string

// Store holds one loaded dataset and answers queries over it.
//
// The entries slice is assigned once per successful load and never
// modified afterwards, so readers work on the slice they grabbed without
// holding the lock.
type Store struct {
	fetcher Fetcher
	logger  *slog.Logger
	events  *emitter

	mu        sync.RWMutex
	entries   []models.Entry
	loaded    bool
	status    Status
	notifying int
}

// NewStore creates an empty store that loads through fetcher.
func NewStore(fetcher Fetcher, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		fetcher: fetcher,
		logger:  logger,
		events:  newEmitter(),
	}
}

// Load fetches and parses source, replacing the dataset on success.
//
// A call made while another load is running, or from inside an event
// listener, returns ErrLoadInProgress without doing anything. Failures are
// recorded in Status, announced to error listeners and returned; the
// previous dataset, if any, is kept.
func (s *Store) Load(ctx context.Context, source string) error {
	s.mu.Lock()
	if s.status.State == Loading || s.notifying > 0 {
		s.mu.Unlock()
		s.logger.Warn("data is already being loaded", "source", source)
		return ErrLoadInProgress
	}
	prev := s.status
	loadID := uuid.NewString()
	s.status = Status{State: Loading, Count: prev.Count, LoadID: loadID, Source: source}
	s.mu.Unlock()

	s.logger.Info("loading bibliography data", "source", source, "load_id", loadID)

	entries, err := s.fetch(ctx, source, loadID)
	if err != nil {
		return s.fail(prev, loadID, source, err)
	}

	s.mu.Lock()
	s.entries = entries
	s.loaded = true
	s.status = Status{
		State:    Loaded,
		Count:    len(entries),
		LoadID:   loadID,
		Source:   source,
		LoadedAt: time.Now().UTC(),
	}
	s.mu.Unlock()

	s.logger.Info("parsed bibliography entries", "count", len(entries), "load_id", loadID)
	s.emit(LoadedEvent{Count: len(entries), LoadID: loadID, Source: source})
	return nil
}

func (s *Store) fetch(ctx context.Context, source, loadID string) ([]models.Entry, error) {
	if ef, ok := s.fetcher.(EntryFetcher); ok {
		entries, handled, err := ef.FetchEntries(ctx, source)
		if handled {
			if err != nil {
				return nil, transportError(source, err)
			}
			s.logger.Info("received bibliography entries", "count", len(entries), "load_id", loadID)
			return entries, nil
		}
	}

	text, err := s.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, transportError(source, err)
	}
	s.logger.Info("received bibliography data", "bytes", len(text), "load_id", loadID)
	return Parse(text)
}

func transportError(source string, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Source: source, Err: err}
}

func (s *Store) fail(prev Status, loadID, source string, err error) error {
	s.mu.Lock()
	next := Status{State: NotLoaded, Error: err.Error(), LoadID: loadID, Source: source}
	if s.loaded {
		next.State = Loaded
		next.Count = prev.Count
		next.LoadedAt = prev.LoadedAt
	}
	s.status = next
	s.mu.Unlock()

	s.logger.Error("failed to load bibliography data", "source", source, "load_id", loadID, "error", err)
	s.emit(ErrorEvent{Message: err.Error(), LoadID: loadID, Source: source})
	return err
}

func (s *Store) emit(ev Event) {
	s.mu.Lock()
	s.notifying++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.notifying--
		s.mu.Unlock()
	}()
	s.events.emit(ev)
}

// AddEventListener registers fn for kind. Unknown kinds are ignored and
// yield a zero ListenerID.
func (s *Store) AddEventListener(kind EventKind, fn Listener) ListenerID {
	return s.events.add(kind, fn)
}

// RemoveEventListener drops a registration made by AddEventListener.
func (s *Store) RemoveEventListener(kind EventKind, id ListenerID) {
	s.events.remove(kind, id)
}

// Status returns the current load state.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// IsLoaded reports whether a dataset is available. It stays true while a
// reload is running.
func (s *Store) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Store) snapshot() []models.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries
}

// GetAllEntries returns a copy of the dataset in file order.
func (s *Store) GetAllEntries() []models.Entry {
	entries := s.snapshot()
	out := make([]models.Entry, len(entries))
	copy(out, entries)
	return out
}

// GetEntryByID returns the first entry whose page id equals id.
func (s *Store) GetEntryByID(id string) (models.Entry, bool) {
	for _, e := range s.snapshot() {
		if e.PageID == id {
			return e, true
		}
	}
	return models.Entry{}, false
}

// GetCategories returns the distinct non-empty main categories, sorted.
func (s *Store) GetCategories() []string {
	return distinct(s.snapshot(), func(e models.Entry) string { return e.MainCategory })
}

// GetLanguages returns the distinct non-empty languages, sorted.
func (s *Store) GetLanguages() []string {
	return distinct(s.snapshot(), func(e models.Entry) string { return e.Language })
}

// GetTimePeriods returns the distinct non-empty time periods, sorted.
func (s *Store) GetTimePeriods() []string {
	return distinct(s.snapshot(), func(e models.Entry) string { return e.TimePeriod })
}

// GetYears returns the distinct integer years in ascending order. Years
// that do not coerce to an integer are left out.
func (s *Store) GetYears() []int {
	return distinctYears(s.snapshot())
}

// SearchEntries returns the entries matching query and every present
// filter, in dataset order. With no query and no filters it returns the
// whole dataset.
func (s *Store) SearchEntries(query string, filters Filters) []models.Entry {
	if query == "" && len(filters) == 0 {
		return s.GetAllEntries()
	}

	lowerQuery := strings.ToLower(query)
	var yearFilter models.Year
	if y := filters[FilterYear]; y != "" {
		yearFilter = models.ParseYear(y)
	}

	out := make([]models.Entry, 0)
	for _, e := range s.snapshot() {
		if query != "" && !matchesQuery(e, lowerQuery) {
			continue
		}
		if v := filters[FilterCategory]; v != "" && e.MainCategory != v {
			continue
		}
		if filters[FilterYear] != "" && !e.Year.Equal(yearFilter) {
			continue
		}
		if v := filters[FilterLanguage]; v != "" && e.Language != v {
			continue
		}
		if v := filters[FilterTimePeriod]; v != "" && e.TimePeriod != v {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Summary computes the dashboard summary of the current dataset.
func (s *Store) Summary() Summary {
	return Summarize(s.snapshot())
}

func matchesQuery(e models.Entry, lowerQuery string) bool {
	for _, field := range []string{
		e.Title,
		e.OriginalTitle,
		e.FullBibliographicEntry,
		e.Publisher,
		e.Location,
		e.CleanContent,
	} {
		if field != "" && strings.Contains(strings.ToLower(field), lowerQuery) {
			return true
		}
	}
	return false
}

func distinct(entries []models.Entry, field func(models.Entry) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, e := range entries {
		v := field(e)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func distinctYears(entries []models.Entry) []int {
	seen := make(map[int]struct{})
	out := make([]int, 0)
	for _, e := range entries {
		y, ok := e.Year.Int()
		if !ok {
			continue
		}
		if _, dup := seen[y]; dup {
			continue
		}
		seen[y] = struct{}{}
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}
