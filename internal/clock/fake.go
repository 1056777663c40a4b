package clock

import "time"

// FakeClock is a Clock pinned to a fixed instant for tests. It only moves
// when Advance is called.
type FakeClock struct {
	now time.Time
}

func NewFakeClock(at time.Time) *FakeClock {
	return &FakeClock{now: at.UTC()}
}

func (c *FakeClock) Now() time.Time { return c.now }

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
