package game

import (
	"time"

	"memory-match-server/clock"
)

// countdown is the repeating one-second clock of the active round. Every
// start or stop bumps gen so ticks already in the action queue are dropped.
type countdown struct {
	clock   clock.Clock
	post    func(Action) bool
	timer   clock.Timer
	gen     uint64
	running bool
}

func (c *countdown) start() {
	c.stop()
	c.running = true
	c.schedule()
}

func (c *countdown) schedule() {
	gen := c.gen
	c.timer = c.clock.AfterFunc(time.Second, func() {
		c.post(Action{Type: actionTick, tickGen: gen})
	})
}

func (c *countdown) stop() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	c.running = false
}

// current reports whether a tick belongs to the running countdown.
func (c *countdown) current(gen uint64) bool {
	return c.running && gen == c.gen
}
