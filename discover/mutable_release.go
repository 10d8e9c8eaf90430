//go:build !debug

package discover

import log "github.com/sirupsen/logrus"

// assertMutable logs instead of panicking outside debug builds.
func assertMutable(s *Service) {
	if s.frozen {
		log.Errorf("discover: mutation of a frozen Service")
	}
}
