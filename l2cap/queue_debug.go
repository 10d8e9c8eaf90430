//go:build debug

package l2cap

// assertHead panics when a completion targets an entry other than the
// current head — a programming error per §4.5. Only compiled into
// debug builds (-tags debug), matching the teacher's own debug-only
// assertion builds.
func assertHead(q *Queue, e *entry) {
	if len(q.entries) == 0 || q.entries[0] != e {
		panic("l2cap: completion for non-head queue entry")
	}
}
