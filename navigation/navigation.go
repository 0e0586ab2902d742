// Package navigation abstracts the navigable location (a browser's history,
// or an in-memory stack) behind a small capability interface.
package navigation

import "sync"

// EntryState is the state attached to a history entry.
type EntryState struct {
	Theme string `json:"theme"`
}

// Location is one history entry: a path plus optional entry state.
type Location struct {
	Path  string
	State *EntryState
}

// Navigator is the capability the router consumes.
//
// Subscribers are notified only for transitions the host triggers (back and
// forward). Push and Replace never notify.
type Navigator interface {
	Read() Location
	Push(loc Location)
	Replace(loc Location)
	Subscribe(fn func(Location)) (cancel func())
}

// History is an in-memory Navigator with a browser-like entry stack.
type History struct {
	mu      sync.Mutex
	entries []Location
	index   int
	subs    Subscribers
}

// NewHistory returns a history holding a single initial entry.
func NewHistory(initial Location) *History {
	return &History{entries: []Location{initial}}
}

func (h *History) Read() Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index]
}

// Push drops any forward entries and appends loc.
func (h *History) Push(loc Location) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], loc)
	h.index++
}

func (h *History) Replace(loc Location) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.index] = loc
}

func (h *History) Subscribe(fn func(Location)) func() {
	return h.subs.Add(fn)
}

// Back moves one entry back and notifies subscribers. It reports false at
// the start of the stack.
func (h *History) Back() bool {
	return h.move(-1)
}

// Forward moves one entry forward and notifies subscribers. It reports false
// at the end of the stack.
func (h *History) Forward() bool {
	return h.move(1)
}

func (h *History) move(delta int) bool {
	h.mu.Lock()
	next := h.index + delta
	if next < 0 || next >= len(h.entries) {
		h.mu.Unlock()
		return false
	}
	h.index = next
	loc := h.entries[next]
	h.mu.Unlock()

	h.subs.Notify(loc)
	return true
}

// Len is the number of entries on the stack.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Index is the position of the current entry.
func (h *History) Index() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index
}

// Entries returns a copy of the stack.
func (h *History) Entries() []Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Location, len(h.entries))
	copy(out, h.entries)
	return out
}
