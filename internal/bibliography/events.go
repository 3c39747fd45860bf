package bibliography

import "sync"

// EventKind names the notifications a Store emits.
type EventKind string

const (
	EventLoaded EventKind = "loaded"
	EventError  EventKind = "error"
)

// Event is either a LoadedEvent or an ErrorEvent.
type Event interface {
	Kind() EventKind
}

// LoadedEvent follows a successful load.
type LoadedEvent struct {
	Count  int
	LoadID string
	Source string
}

func (LoadedEvent) Kind() EventKind { return EventLoaded }

// ErrorEvent follows a failed load.
type ErrorEvent struct {
	Message string
	LoadID  string
	Source  string
}

func (ErrorEvent) Kind() EventKind { return EventError }

// Listener receives events synchronously, in registration order.
type Listener func(Event)

// ListenerID identifies a registration. Zero means the registration was
// rejected.
type ListenerID uint64

type listenerEntry struct {
	id ListenerID
	fn Listener
}

type emitter struct {
	mu        sync.Mutex
	nextID    ListenerID
	listeners map[EventKind][]listenerEntry
}

func newEmitter() *emitter {
	return &emitter{
		listeners: map[EventKind][]listenerEntry{
			EventLoaded: nil,
			EventError:  nil,
		},
	}
}

func (em *emitter) add(kind EventKind, fn Listener) ListenerID {
	if fn == nil {
		return 0
	}
	em.mu.Lock()
	defer em.mu.Unlock()
	list, ok := em.listeners[kind]
	if !ok {
		return 0
	}
	em.nextID++
	em.listeners[kind] = append(list, listenerEntry{id: em.nextID, fn: fn})
	return em.nextID
}

func (em *emitter) remove(kind EventKind, id ListenerID) {
	em.mu.Lock()
	defer em.mu.Unlock()
	list, ok := em.listeners[kind]
	if !ok {
		return
	}
	for i, l := range list {
		if l.id == id {
			em.listeners[kind] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

func (em *emitter) emit(ev Event) {
	em.mu.Lock()
	list := append([]listenerEntry(nil), em.listeners[ev.Kind()]...)
	em.mu.Unlock()

	for _, l := range list {
		l.fn(ev)
	}
}
