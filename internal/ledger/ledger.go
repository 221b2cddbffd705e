package ledger

import (
	"sync"

	"checkoutsim/internal/domain"
)

// Ledger is an append-only record of completed checkouts, safe for
// concurrent appenders. A customer appears at most once.
type Ledger struct {
	mu      sync.Mutex
	entries []domain.Result
	seen    map[int]struct{}
}

func New() *Ledger {
	return &Ledger{seen: make(map[int]struct{})}
}

// Append records a completed checkout. A second append for the same customer
// id is dropped; completion is a single-assignment state.
func (l *Ledger) Append(r domain.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.seen[r.Customer.ID]; dup {
		return
	}
	l.seen[r.Customer.ID] = struct{}{}
	l.entries = append(l.entries, r)
}

// Entries returns a copy of the recorded completions in append order.
func (l *Ledger) Entries() []domain.Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Result, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded completions.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
