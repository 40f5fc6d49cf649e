package std

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Clock donates wall clock capabilities over a mockable time source.
type Clock struct {
	clock clock.Clock
}

func NewClock() *Clock { return NewClockOver(clock.New()) }

func NewClockOver(c clock.Clock) *Clock { return &Clock{clock: c} }

// Now returns the current time.
func (c *Clock) Now() time.Time { return c.clock.Now() }

// Since returns the time elapsed since t.
func (c *Clock) Since(t time.Time) time.Duration { return c.clock.Now().Sub(t) }
