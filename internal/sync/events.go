package sync

import (
	"fmt"
	"time"

	"zweigbib/internal/bibliography"
)

// Event types sent to subscribers.
const (
	TypeWelcome = "welcome"
	TypeLoaded  = "loaded"
	TypeError   = "error"
)

// LoadEvent announces the outcome of a store load.
type LoadEvent struct {
	Type    string    `json:"type"` // "loaded" or "error"
	Count   int       `json:"count,omitempty"`
	Message string    `json:"message,omitempty"`
	LoadID  string    `json:"load_id"`
	Source  string    `json:"source,omitempty"`
	At      time.Time `json:"at"`
}

// FromStoreEvent converts a store notification. ok is false for event
// kinds it does not know.
func FromStoreEvent(ev bibliography.Event) (LoadEvent, bool) {
	now := time.Now().UTC()
	switch e := ev.(type) {
	case bibliography.LoadedEvent:
		return LoadEvent{Type: TypeLoaded, Count: e.Count, LoadID: e.LoadID, Source: e.Source, At: now}, true
	case bibliography.ErrorEvent:
		return LoadEvent{Type: TypeError, Message: e.Message, LoadID: e.LoadID, Source: e.Source, At: now}, true
	}
	return LoadEvent{}, false
}

// EventSource delivers store load events.
type EventSource interface {
	AddEventListener(kind bibliography.EventKind, fn bibliography.Listener) bibliography.ListenerID
}

// Attach forwards every load outcome of src to the hub's subscribers.
func Attach(hub *Hub, src EventSource) {
	forward := func(ev bibliography.Event) {
		if le, ok := FromStoreEvent(ev); ok {
			hub.BroadcastJSON(le)
		}
	}
	src.AddEventListener(bibliography.EventLoaded, forward)
	src.AddEventListener(bibliography.EventError, forward)
}

// Line is a one-line human description of e.
func (e LoadEvent) Line() string {
	switch e.Type {
	case TypeLoaded:
		return fmt.Sprintf("loaded %d entries from %s (load %s)", e.Count, e.Source, e.LoadID)
	case TypeError:
		return fmt.Sprintf("load of %s failed: %s (load %s)", e.Source, e.Message, e.LoadID)
	case TypeWelcome:
		return "subscribed"
	}
	return e.Type
}
