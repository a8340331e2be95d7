package deadline

import "time"

// SetNow overrides the monitor clock for tests.
func (m *Monitor) SetNow(now func() time.Time) {
	m.now = now
}
