// Package btutil collects small helpers shared across the sdp, l2cap,
// discover, and avdtp packages that don't belong to any one of them.
package btutil

import "sync"

// Seq is a per-instance cycling counter. Grounded on
// nmxact/nmxutil.NextSeq, but deliberately kept as a struct a caller
// embeds or owns one of per socket — never a package-level global — per
// the design note against promoting per-connection counters to
// process-wide state.
type Seq struct {
	mu   sync.Mutex
	next uint32
	low  uint32
	high uint32
}

// NewSeq returns a counter cycling over [low, high), starting at low.
// high must be greater than low.
func NewSeq(low, high uint32) *Seq {
	return &Seq{next: low, low: low, high: high}
}

// Next returns the next value in the cycle.
func (s *Seq) Next() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.next
	s.next++
	if s.next >= s.high {
		s.next = s.low
	}
	return v
}
