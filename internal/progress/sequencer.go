package progress

import "sync"

// Sequencer implements last-request-wins for views that are recomputed on
// every request. Backend reads cannot be cancelled, so a slow older request
// may finish after a newer one for the same view; its result must be dropped.
type Sequencer struct {
	mu        sync.Mutex
	issued    map[string]uint64
	committed map[string]uint64
}

func NewSequencer() *Sequencer {
	return &Sequencer{
		issued:    make(map[string]uint64),
		committed: make(map[string]uint64),
	}
}

// Ticket identifies one fetch-then-aggregate cycle for a view key.
type Ticket struct {
	seq *Sequencer
	key string
	n   uint64
}

// Begin issues a ticket newer than every earlier ticket for key.
func (s *Sequencer) Begin(key string) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[key]++
	return Ticket{seq: s, key: key, n: s.issued[key]}
}

// Commit records a resolved result for the ticket's view. It fails when a
// newer ticket for the same key has already committed; an issued but
// unresolved newer ticket does not block it. Failed cycles never commit.
func (t Ticket) Commit() bool {
	t.seq.mu.Lock()
	defer t.seq.mu.Unlock()
	if t.n <= t.seq.committed[t.key] {
		return false
	}
	t.seq.committed[t.key] = t.n
	return true
}
