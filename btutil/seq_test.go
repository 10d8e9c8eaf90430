package btutil

import "testing"

func TestSeqCyclesWithinRange(t *testing.T) {
	s := NewSeq(2, 5)
	want := []uint32{2, 3, 4, 2, 3, 4}
	for i, w := range want {
		if got := s.Next(); got != w {
			t.Errorf("Next() call %d: got %d want %d", i, got, w)
		}
	}
}

func TestSeqSingleValueRange(t *testing.T) {
	s := NewSeq(7, 8)
	for i := 0; i < 3; i++ {
		if got := s.Next(); got != 7 {
			t.Errorf("Next() call %d: got %d want 7", i, got)
		}
	}
}

func TestSeqConcurrentNextNeverRepeatsWithinOneCycle(t *testing.T) {
	s := NewSeq(0, 100)
	seen := make(map[uint32]bool)
	done := make(chan uint32, 100)
	for i := 0; i < 100; i++ {
		go func() { done <- s.Next() }()
	}
	for i := 0; i < 100; i++ {
		v := <-done
		if seen[v] {
			t.Errorf("value %d returned more than once across 100 concurrent Next calls", v)
		}
		seen[v] = true
	}
}
