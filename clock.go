// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package steelsim

// Clock is the virtual simulation clock. It produces a 50% duty cycle clock
// signal that toggles every half period ticks, starting at time 0.
//
type Clock struct {
	time   uint64
	half   uint64
	next   uint64
	cycles uint64
	level  bool
}

// NewClock returns a new clock with the given half period. A half period of
// 0 is treated as 1.
//
func NewClock(halfPeriod uint64) *Clock {
	if halfPeriod == 0 {
		halfPeriod = 1
	}
	return &Clock{half: halfPeriod}
}

// Edge reports whether the clock toggles at the current time. If it does, the
// clock level is flipped and a rising edge increments the cycle counter.
//
func (c *Clock) Edge() bool {
	if c.time < c.next {
		return false
	}
	c.level = !c.level
	c.next = c.time + c.half
	if c.level {
		c.cycles++
	}
	return true
}

// Advance moves the virtual time one tick forward.
//
func (c *Clock) Advance() { c.time++ }

// Time returns the current virtual time in ticks.
//
func (c *Clock) Time() uint64 { return c.time }

// Cycles returns the number of rising edges seen so far.
//
func (c *Clock) Cycles() uint64 { return c.cycles }

// Level returns the current level of the clock signal.
//
func (c *Clock) Level() bool { return c.level }

// HalfPeriod returns the number of ticks between two clock edges.
//
func (c *Clock) HalfPeriod() uint64 { return c.half }
