package router

import "sync"

// Navigator owns the current navigation token.
type Navigator interface {
	Navigate(token string)
	Token() string
}

// History is an in-memory Navigator with a back stack, the way a browser
// treats the location hash. Setting the current token again is a no-op
// and does not notify.
type History struct {
	mu       sync.Mutex
	stack    []string
	onChange func(token string)
}

func NewHistory(initial string) *History {
	return &History{stack: []string{initial}}
}

// OnChange sets the function called after every token change.
func (h *History) OnChange(fn func(token string)) {
	h.mu.Lock()
	h.onChange = fn
	h.mu.Unlock()
}

func (h *History) Navigate(token string) {
	h.mu.Lock()
	if h.stack[len(h.stack)-1] == token {
		h.mu.Unlock()
		return
	}
	h.stack = append(h.stack, token)
	fn := h.onChange
	h.mu.Unlock()

	if fn != nil {
		fn(token)
	}
}

// Back returns to the previous token. It reports false at the start of
// the history.
func (h *History) Back() bool {
	h.mu.Lock()
	if len(h.stack) < 2 {
		h.mu.Unlock()
		return false
	}
	h.stack = h.stack[:len(h.stack)-1]
	token := h.stack[len(h.stack)-1]
	fn := h.onChange
	h.mu.Unlock()

	if fn != nil {
		fn(token)
	}
	return true
}

func (h *History) Token() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stack[len(h.stack)-1]
}

// Len is the number of tokens on the stack.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stack)
}
