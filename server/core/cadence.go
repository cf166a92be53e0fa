package core

import "time"

// CadenceState is the fire-intent state of one character.
type CadenceState int

const (
	CadenceIdle CadenceState = iota
	CadenceFiring
)

func (s CadenceState) String() string {
	if s == CadenceFiring {
		return "firing"
	}
	return "idle"
}

// ShootCadenceController turns a held fire intent into a steady stream of
// fire events: one on the Idle->Firing edge and one every period after that.
// It runs on the host's simulation clock, so events carry their exact
// scheduled time rather than the tick they were noticed on.
type ShootCadenceController struct {
	period time.Duration
	state  CadenceState
	next   time.Duration
	fire   func(at time.Duration)
}

// NewShootCadenceController creates an idle controller. fire is called for
// every emitted event.
func NewShootCadenceController(period time.Duration, fire func(at time.Duration)) *ShootCadenceController {
	return &ShootCadenceController{
		period: period,
		fire:   fire,
	}
}

// SetFiring applies a fire-intent boolean at simulation time now. Repeating
// the current intent does nothing.
func (c *ShootCadenceController) SetFiring(active bool, now time.Duration) {
	switch {
	case active && c.state == CadenceIdle:
		c.state = CadenceFiring
		c.next = now + c.period
		c.fire(now)
	case !active && c.state == CadenceFiring:
		c.Stop()
	}
}

// Stop cancels the repeating timer without a trailing event.
func (c *ShootCadenceController) Stop() {
	c.state = CadenceIdle
	c.next = 0
}

// Advance emits every event scheduled at or before now, in order, and
// returns how many were emitted.
func (c *ShootCadenceController) Advance(now time.Duration) int {
	n := 0
	for c.state == CadenceFiring && c.period > 0 && c.next <= now {
		at := c.next
		c.next += c.period
		c.fire(at)
		n++
	}
	return n
}

func (c *ShootCadenceController) State() CadenceState {
	return c.state
}

// Next returns when the next periodic event is due; meaningful only while firing.
func (c *ShootCadenceController) Next() time.Duration {
	return c.next
}
