// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package bfm implements a bus functional model of a small SoC that can stand
// in for a real device under test.
//
// The SoC is made of a RAM and a sequencer acting as bus master. The
// sequencer executes a write script stored in RAM, starting at word 0. The
// script is a list of (address, data) word pairs, terminated by the address
// HaltAddr. Each pair takes two clock cycles:
//
//	issue: write_request is asserted with rw_address and write_data set from
//	       the pair. If the address falls inside RAM the word is stored.
//	gap:   write_request is released.
//
// Scripts are easily built with a Program.
//
package bfm

import (
	"github.com/db47h/steelsim"
	"github.com/db47h/steelsim/rtl"
	"github.com/db47h/steelsim/wave"
	"github.com/pkg/errors"
)

// HaltAddr marks the end of a write script.
//
const HaltAddr = 0xFFFFFFFF

// DefaultRAMSize is the default RAM size in bytes.
//
const DefaultRAMSize = 8192

// sequencer states
const (
	stIssue = iota
	stGap
	stHalted
)

type ram []uint32

func (m ram) Words() int              { return len(m) }
func (m ram) Word(i int) uint32       { return m[i] }
func (m ram) SetWord(i int, v uint32) { m[i] = v }

// SoC is the bus functional model. It implements steelsim.Model and
// steelsim.Traceable.
//
type SoC struct {
	c   *rtl.Circuit
	ram ram

	clock, reset, halt int
	wreq, rreq         int
	wresp, rresp       int
	addr, wdata, rdata int
	pc, state          int
}

type config struct {
	ramSize int
	workers int
}

// An Option configures a SoC.
//
type Option func(*config)

// RAMSize sets the RAM size in bytes. It is rounded down to a whole number of
// words.
//
func RAMSize(bytes int) Option {
	return func(c *config) { c.ramSize = bytes }
}

// Workers sets the number of goroutines used to update the circuit. The
// default is 1.
//
func Workers(n int) Option {
	return func(c *config) { c.workers = n }
}

// New returns a new SoC. The halt line is asserted until released by the
// harness.
//
// Callers must call Dispose once the SoC is no longer needed.
//
func New(opts ...Option) (*SoC, error) {
	cfg := config{ramSize: DefaultRAMSize, workers: 1}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.ramSize < 8 {
		return nil, errors.Errorf("RAM size too small: %d bytes", cfg.ramSize)
	}
	s := &SoC{ram: make(ram, cfg.ramSize/4)}
	c, err := rtl.NewCircuit(cfg.workers, s.mountPorts, s.mountSequencer, s.mountResponder)
	if err != nil {
		return nil, errors.Wrap(err, "build SoC")
	}
	s.c = c
	c.Force(s.halt, 1)
	return s, nil
}

func (s *SoC) mountPorts(so *rtl.Socket) []rtl.Component {
	s.clock = so.Bit("clock")
	s.reset = so.Bit("reset")
	s.halt = so.Bit("halt")
	s.wreq = so.Bit("write_request")
	s.rreq = so.Bit("read_request")
	s.wresp = so.Bit("write_response")
	s.rresp = so.Bit("read_response")
	s.addr = so.Signal("rw_address", 32)
	s.wdata = so.Signal("write_data", 32)
	s.rdata = so.Signal("read_data", 32)
	return nil
}

func (s *SoC) mountSequencer(so *rtl.Socket) []rtl.Component {
	clock, reset, halt := so.Pin("clock"), so.Pin("reset"), so.Pin("halt")
	wreq, addr, wdata := so.Pin("write_request"), so.Pin("rw_address"), so.Pin("write_data")
	s.pc = so.Signal("pc", 32)
	s.state = so.Signal("state", 2)
	pc, state := s.pc, s.state
	mem := s.ram

	var prev bool
	return []rtl.Component{
		func(c *rtl.Circuit) {
			rising := c.Bool(clock) && !prev
			prev = c.Bool(clock)

			if c.Bool(reset) {
				c.Set(pc, 0)
				c.Set(state, stIssue)
				c.SetBool(wreq, false)
				c.Set(addr, 0)
				c.Set(wdata, 0)
				return
			}
			if !rising || c.Bool(halt) {
				return
			}
			switch c.Get(state) {
			case stIssue:
				p := int(c.Get(pc))
				if p+1 >= len(mem) || mem[p] == HaltAddr {
					c.Set(state, stHalted)
					c.SetBool(wreq, false)
					return
				}
				a, d := mem[p], mem[p+1]
				c.SetBool(wreq, true)
				c.Set(addr, a)
				c.Set(wdata, d)
				if i := int(a / 4); i < len(mem) {
					mem[i] = d
				}
				c.Set(state, stGap)
			case stGap:
				c.SetBool(wreq, false)
				c.Set(pc, c.Get(pc)+2)
				c.Set(state, stIssue)
			}
		},
	}
}

// mountResponder acknowledges bus requests one step after they are seen.
//
func (s *SoC) mountResponder(so *rtl.Socket) []rtl.Component {
	wreq, rreq := so.Pin("write_request"), so.Pin("read_request")
	wresp, rresp := so.Pin("write_response"), so.Pin("read_response")
	return []rtl.Component{
		func(c *rtl.Circuit) {
			c.SetBool(wresp, c.Bool(wreq))
			c.SetBool(rresp, c.Bool(rreq))
		},
	}
}

// Dispose releases the resources used by the SoC.
//
func (s *SoC) Dispose() { s.c.Dispose() }

// SetClock implements steelsim.Model.
//
func (s *SoC) SetClock(level bool) { s.force(s.clock, level) }

// SetReset implements steelsim.Model.
//
func (s *SoC) SetReset(level bool) { s.force(s.reset, level) }

// SetHalt implements steelsim.Model.
//
func (s *SoC) SetHalt(level bool) { s.force(s.halt, level) }

func (s *SoC) force(n int, level bool) {
	var v uint32
	if level {
		v = 1
	}
	s.c.Force(n, v)
}

// Eval implements steelsim.Model. It runs a single circuit step.
//
func (s *SoC) Eval() { s.c.Step() }

// Bus implements steelsim.Model.
//
func (s *SoC) Bus() steelsim.Bus {
	c := s.c
	return steelsim.Bus{
		WriteRequest:  c.Bool(s.wreq),
		ReadRequest:   c.Bool(s.rreq),
		WriteResponse: c.Bool(s.wresp),
		ReadResponse:  c.Bool(s.rresp),
		Address:       c.Get(s.addr),
		WriteData:     c.Get(s.wdata),
		ReadData:      c.Get(s.rdata),
	}
}

// Memory implements steelsim.Model.
//
func (s *SoC) Memory() steelsim.Memory { return s.ram }

// Halted returns true once the sequencer reached the end of its script.
//
func (s *SoC) Halted() bool { return s.c.Get(s.state) == stHalted }

// Trace implements steelsim.Traceable. All circuit signals are declared in a
// "soc" scope.
//
func (s *SoC) Trace(w *wave.Writer, depth int) {
	if depth < 1 {
		return
	}
	w.Scope("soc")
	for _, si := range s.c.Signals() {
		n := si.Index
		w.Var(si.Name, si.Width, func() uint64 { return uint64(s.c.Get(n)) })
	}
	w.Upscope()
}
