//go:build debug

package discover

// assertMutable panics on mutation of a frozen Service, matching the
// debug-only assertion style in l2cap's queue head check. Only compiled
// into debug builds (-tags debug).
func assertMutable(s *Service) {
	if s.frozen {
		panic("discover: mutation of a frozen Service")
	}
}
