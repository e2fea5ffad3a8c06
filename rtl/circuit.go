// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package rtl is a naive register-transfer level simulation engine.
//
// A Circuit is a set of numbered signals, up to 32 bits wide, and a list of
// components. Components are closures that read the current state of the
// signals and compute their next state. Each call to Step runs all components
// once and then makes the next state current. Models of a device under test
// are built by mounting components into a circuit (see MountFn).
//
package rtl

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// A Component is a component in a circuit that can Get and Set signals.
//
type Component func(c *Circuit)

// A MountFn mounts a model's components into the circuit. MountFn's should
// query the socket for signal numbers and return closures around these
// numbers.
//
// For example, a register that latches its input on every step can be
// defined like this:
//
//	reg := func(s *rtl.Socket) []rtl.Component {
//		in, out := s.Signal("d", 8), s.Signal("q", 8)
//		return []rtl.Component{
//			func(c *rtl.Circuit) { c.Set(out, c.Get(in)) },
//		}
//	}
//
type MountFn func(s *Socket) []Component

// SignalInfo describes a signal allocated in a circuit.
//
type SignalInfo struct {
	Name  string
	Width int
	Index int
}

// Circuit is a runnable circuit simulation.
//
type Circuit struct {
	s0   []uint32 // signal states frame #0 (current)
	s1   []uint32 // signal states frame #1 (next)
	mask []uint32
	info []SignalInfo
	cs   []Component
	step uint64

	wc []chan struct{}
	wg sync.WaitGroup
}

// NewCircuit builds a new circuit from the given mount functions. All mount
// functions share the same signal namespace.
//
// workers is the number of goroutines used to update the state of the Circuit
// each step of the simulation. If less or equal to 0, the value of GOMAXPROCS
// will be used. Components running on different workers must not drive the
// same signal.
//
// Callers must make sure to call Dispose() once the circuit is no longer needed
// in order to release allocated resources.
//
func NewCircuit(workers int, mounts ...MountFn) (*Circuit, error) {
	if len(mounts) == 0 {
		return nil, errors.New("empty mount list")
	}

	c := &Circuit{}
	s := newSocket(c)
	for _, m := range mounts {
		c.cs = append(c.cs, m(s)...)
	}
	c.s0 = make([]uint32, len(c.info))
	c.s1 = make([]uint32, len(c.info))

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers <= 0 {
		workers = 1
	}
	ups := c.cs
	for len(ups) > 0 {
		size := len(ups) / workers
		if size*workers < len(ups) {
			size++
		}
		wc := make(chan struct{}, 1)
		c.wc = append(c.wc, wc)
		go worker(c, ups[:size], wc)
		ups = ups[size:]
	}

	return c, nil
}

// Dispose releases all resources allocated for a circuit and stops
// worker goroutines. Calling Dispose more than once is a no-op.
//
func (c *Circuit) Dispose() {
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		close(wc)
	}
	c.wg.Wait()
	c.wc = nil
}

func worker(c *Circuit, cs []Component, wc <-chan struct{}) {
	for {
		_, ok := <-wc
		if !ok {
			c.wg.Done()
			return
		}
		for _, f := range cs {
			f(c)
		}
		c.wg.Done()
	}
}

// alloc allocates a signal of the given width and returns its number.
//
func (c *Circuit) alloc(name string, width int) int {
	n := len(c.info)
	c.info = append(c.info, SignalInfo{Name: name, Width: width, Index: n})
	if width >= 32 {
		c.mask = append(c.mask, ^uint32(0))
	} else {
		c.mask = append(c.mask, 1<<uint(width)-1)
	}
	return n
}

// Steps returns the value of the step counter.
//
func (c *Circuit) Steps() uint64 {
	return c.step
}

// Size returns the component count in the circuit.
//
func (c *Circuit) Size() int { return len(c.cs) }

// Signals returns the list of signals in allocation order.
//
func (c *Circuit) Signals() []SignalInfo {
	return append([]SignalInfo(nil), c.info...)
}

// Get returns the current state of signal n. The value of n should be obtained
// in a MountFn by a call to one of the Socket methods.
//
func (c *Circuit) Get(n int) uint32 {
	return c.s0[n]
}

// Bool returns true if the current state of signal n is non-zero.
//
func (c *Circuit) Bool(n int) bool {
	return c.s0[n] != 0
}

// Set sets the next state of signal n. The value is truncated to the signal
// width.
//
func (c *Circuit) Set(n int, v uint32) {
	c.s1[n] = v & c.mask[n]
}

// SetBool sets the next state of the 1 bit signal n.
//
func (c *Circuit) SetBool(n int, b bool) {
	if b {
		c.s1[n] = 1
	} else {
		c.s1[n] = 0
	}
}

// Force sets both the current and next state of signal n. It must only be
// called between steps, typically to drive the inputs of a circuit.
//
func (c *Circuit) Force(n int, v uint32) {
	v &= c.mask[n]
	c.s0[n], c.s1[n] = v, v
}

// Step advances the simulation by one step. Signals that no component drives
// during the step keep their current value.
//
func (c *Circuit) Step() {
	copy(c.s1, c.s0)
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		wc <- struct{}{}
	}
	c.wg.Wait()
	c.step++
	c.s0, c.s1 = c.s1, c.s0
}
