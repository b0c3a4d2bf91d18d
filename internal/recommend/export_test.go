package recommend

import "time"

// SetClock pins the timestamp and generation id sources.
func SetClock(s *Service, now func() time.Time, newID func() string) {
	s.now = now
	s.newID = newID
}
