package contribution

import "github.com/xraph/granary/id"

// Ledger holds the active contributions of one pool: a map from member
// identity to entry, a dense order slice that fixes iteration order, and the
// running aggregate quantity.
//
// Removal swaps the removed slot with the last slot, so order is insertion
// order only until the first removal. Iteration order decides which members
// a distribution walk visits first; it never changes payout amounts.
//
// Ledger is not safe for concurrent use; the engine serializes access.
type Ledger struct {
	entries   map[string]*Contribution
	order     []id.MemberID
	index     map[string]int // member ID string → slot in order
	aggregate int64
}

// NewLedger returns an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{
		entries: make(map[string]*Contribution),
		index:   make(map[string]int),
	}
}

// Add inserts a contribution at the end of the order sequence and grows the
// aggregate. Returns false, changing nothing, if the member already holds an
// active entry. The caller checks quantity validity and aggregate overflow
// before calling.
func (l *Ledger) Add(c *Contribution) bool {
	key := c.Member.String()
	if _, exists := l.entries[key]; exists {
		return false
	}

	c.Position = len(l.order)
	l.entries[key] = c
	l.index[key] = c.Position
	l.order = append(l.order, c.Member)
	l.aggregate += c.QuantityKg

	return true
}

// Remove deletes the member's entry, shrinks the aggregate by the stored
// quantity, and fills the freed slot with the last entry (swap-with-last).
// Returns the removed quantity and true, or 0 and false if the member holds
// no active entry — absence is not an error.
func (l *Ledger) Remove(member id.MemberID) (int64, bool) {
	key := member.String()
	c, exists := l.entries[key]
	if !exists {
		return 0, false
	}

	slot := l.index[key]
	last := len(l.order) - 1
	if slot != last {
		moved := l.order[last]
		movedKey := moved.String()
		l.order[slot] = moved
		l.index[movedKey] = slot
		l.entries[movedKey].Position = slot
	}
	l.order = l.order[:last]

	delete(l.entries, key)
	delete(l.index, key)
	l.aggregate -= c.QuantityKg

	return c.QuantityKg, true
}

// Get returns the member's entry, or nil and false if absent.
func (l *Ledger) Get(member id.MemberID) (*Contribution, bool) {
	c, ok := l.entries[member.String()]
	return c, ok
}

// At returns the entry at slot i in the current order, or nil and false if i
// is out of range.
func (l *Ledger) At(i int) (*Contribution, bool) {
	if i < 0 || i >= len(l.order) {
		return nil, false
	}
	return l.entries[l.order[i].String()], true
}

// Contains reports whether the member holds an active entry.
func (l *Ledger) Contains(member id.MemberID) bool {
	_, ok := l.entries[member.String()]
	return ok
}

// Len returns the number of active entries.
func (l *Ledger) Len() int { return len(l.order) }

// AggregateKg returns the sum of all active quantities.
func (l *Ledger) AggregateKg() int64 { return l.aggregate }

// Members returns a copy of the order sequence.
func (l *Ledger) Members() []id.MemberID {
	out := make([]id.MemberID, len(l.order))
	copy(out, l.order)
	return out
}

// All returns the entries in order-sequence order. The pointers alias the
// live entries; callers that hand them out must copy first.
func (l *Ledger) All() []*Contribution {
	out := make([]*Contribution, 0, len(l.order))
	for _, m := range l.order {
		out = append(out, l.entries[m.String()])
	}
	return out
}
