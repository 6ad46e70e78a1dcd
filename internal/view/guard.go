// Package view holds the state behind each screen: which request's result
// is current, and which controls a viewer may use.
package view

import "sync"

// Ticket identifies one issued request.
type Ticket uint64

// Guard orders responses by when their requests were issued. Only the
// result of the most recently begun request may be committed.
type Guard struct {
	mu  sync.Mutex
	gen uint64
}

// Begin starts a request and invalidates every earlier ticket.
func (g *Guard) Begin() Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	return Ticket(g.gen)
}

// Commit runs fn if t is still the latest ticket and reports whether it did.
func (g *Guard) Commit(t Ticket, fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if uint64(t) != g.gen {
		return false
	}
	fn()
	return true
}
