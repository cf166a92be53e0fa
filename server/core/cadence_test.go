package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fireLog struct {
	at []time.Duration
}

func (f *fireLog) fire(at time.Duration) { f.at = append(f.at, at) }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestCadenceFiresOnEdgeAndPeriodically(t *testing.T) {
	log := &fireLog{}
	c := NewShootCadenceController(ms(100), log.fire)

	c.SetFiring(true, 0)
	assert.Equal(t, CadenceFiring, c.State())
	assert.Equal(t, []time.Duration{0}, log.at)
	assert.Equal(t, ms(100), c.Next())

	assert.Equal(t, 3, c.Advance(ms(350)))
	assert.Equal(t, []time.Duration{0, ms(100), ms(200), ms(300)}, log.at)
	assert.Equal(t, ms(400), c.Next())
}

func TestCadenceReleaseAndRepress(t *testing.T) {
	log := &fireLog{}
	c := NewShootCadenceController(ms(100), log.fire)

	c.SetFiring(true, 0)
	c.SetFiring(true, ms(25))
	c.SetFiring(false, ms(50))
	assert.Equal(t, CadenceIdle, c.State())
	assert.Zero(t, c.Advance(ms(100)), "released trigger must not fire at the old schedule")

	c.SetFiring(true, ms(150))
	assert.Equal(t, []time.Duration{0, ms(150)}, log.at)
	assert.Equal(t, ms(250), c.Next())

	assert.Zero(t, c.Advance(ms(249)))
	assert.Equal(t, 1, c.Advance(ms(250)))
	assert.Equal(t, ms(250), log.at[len(log.at)-1])
}

func TestCadenceRepeatedIntentIsNoop(t *testing.T) {
	log := &fireLog{}
	c := NewShootCadenceController(ms(100), log.fire)

	c.SetFiring(false, 0)
	assert.Empty(t, log.at, "release while idle")

	c.SetFiring(true, 0)
	c.SetFiring(true, ms(40))
	assert.Len(t, log.at, 1, "second press while firing")
	assert.Equal(t, ms(100), c.Next(), "schedule untouched by a repeated press")
}

func TestCadenceStopHasNoTrailingEvent(t *testing.T) {
	log := &fireLog{}
	c := NewShootCadenceController(ms(100), log.fire)

	c.SetFiring(true, 0)
	c.Stop()
	assert.Zero(t, c.Advance(time.Second))
	assert.Len(t, log.at, 1)
	assert.Equal(t, "idle", c.State().String())
}
