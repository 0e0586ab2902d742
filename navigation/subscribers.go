package navigation

import (
	"sort"
	"sync"
)

// Subscribers is a registry of back/forward listeners shared by Navigator
// implementations. The zero value is ready to use.
type Subscribers struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(Location)
}

// Add registers fn and returns a function that removes it.
func (s *Subscribers) Add(fn func(Location)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(Location))
	}
	id := s.nextID
	s.nextID++
	s.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.fns, id)
			s.mu.Unlock()
		})
	}
}

// Notify calls every listener with loc, outside the registry lock, in
// registration order.
func (s *Subscribers) Notify(loc Location) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.fns))
	for id := range s.fns {
		ids = append(ids, id)
	}
	fns := make([]func(Location), 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, s.fns[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(loc)
	}
}

// Len is the number of registered listeners.
func (s *Subscribers) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fns)
}
