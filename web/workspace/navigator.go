package workspace

import (
	"sync"

	"themerec/navigation"
)

// OpKind is a location write the browser still has to perform.
type OpKind int

const (
	OpNone OpKind = iota
	OpPush
	OpReplace
)

// Op is a recorded Push or Replace.
type Op struct {
	Kind     OpKind
	Location navigation.Location
}

// BrowserNavigator is the Navigator of one mounted page. The server cannot
// write the browser's history directly, so Push and Replace are recorded and
// flushed into the next response; back/forward arrive as history-restore
// requests and are fed in through Restore.
type BrowserNavigator struct {
	mu      sync.Mutex
	current navigation.Location
	pending Op
	subs    navigation.Subscribers
}

func NewBrowserNavigator(initial navigation.Location) *BrowserNavigator {
	return &BrowserNavigator{current: initial}
}

func (n *BrowserNavigator) Read() navigation.Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *BrowserNavigator) Push(loc navigation.Location) {
	n.record(OpPush, loc)
}

func (n *BrowserNavigator) Replace(loc navigation.Location) {
	n.record(OpReplace, loc)
}

// record keeps only the latest write: a push followed by a replace in the
// same request is still one new entry.
func (n *BrowserNavigator) record(kind OpKind, loc navigation.Location) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = loc
	if kind == OpReplace && n.pending.Kind == OpPush {
		kind = OpPush
	}
	n.pending = Op{Kind: kind, Location: loc}
}

func (n *BrowserNavigator) Subscribe(fn func(navigation.Location)) func() {
	return n.subs.Add(fn)
}

// Restore reports a back/forward transition to loc.
func (n *BrowserNavigator) Restore(loc navigation.Location) {
	n.mu.Lock()
	n.current = loc
	n.mu.Unlock()
	n.subs.Notify(loc)
}

// TakePending returns and clears the write recorded since the last call.
func (n *BrowserNavigator) TakePending() Op {
	n.mu.Lock()
	defer n.mu.Unlock()
	op := n.pending
	n.pending = Op{}
	return op
}
