package usecase

import "sort"

// Ledger is the set of identifiers that already have a durable result.
// It is not safe for concurrent use; the run loop is its only writer.
type Ledger struct {
	ids map[string]struct{}
}

func NewLedger(ids ...string) *Ledger {
	l := &Ledger{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		l.Add(id)
	}
	return l
}

func (l *Ledger) Has(id string) bool {
	if l == nil {
		return false
	}
	_, ok := l.ids[id]
	return ok
}

func (l *Ledger) Add(id string) {
	l.ids[id] = struct{}{}
}

func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.ids)
}

// IDs returns the identifiers in sorted order.
func (l *Ledger) IDs() []string {
	if l == nil {
		return nil
	}
	out := make([]string, 0, len(l.ids))
	for id := range l.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
