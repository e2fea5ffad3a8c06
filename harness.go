// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package steelsim

import (
	"context"
	"io"
	"log/slog"

	"github.com/db47h/steelsim/meminit"
	"github.com/db47h/steelsim/wave"
	"github.com/pkg/errors"
)

// ExitReason tells why a run ended.
//
type ExitReason int

// Exit reasons.
//
const (
	ExitNone      ExitReason = iota
	ExitCycles               // cycle limit reached
	ExitFinished             // test program wrote 1 to the finish address
	ExitInterrupt            // run cancelled by the caller
)

func (r ExitReason) String() string {
	switch r {
	case ExitCycles:
		return "end cycles"
	case ExitFinished:
		return "wr-addr"
	case ExitInterrupt:
		return "interrupted"
	}
	return "none"
}

// Harness drives a Model. It owns the model for its whole lifetime and is
// not safe for concurrent use.
//
type Harness struct {
	cfg     Config
	model   Model
	clock   *Clock
	hostOut HostOut
	out     io.Writer
	log     *slog.Logger
	trace   *wave.Writer

	reset, halt bool
	closed      bool
}

// An Option configures a Harness.
//
type Option func(h *Harness)

// Logger sets the harness logger. By default nothing is logged.
//
func Logger(l *slog.Logger) Option {
	return func(h *Harness) { h.log = l }
}

// HostOutput sets the destination of host-out bytes. By default they are
// discarded. If w has a Flush() error method, it is called on Shutdown.
//
func HostOutput(w io.Writer) Option {
	return func(h *Harness) { h.out = w }
}

// New returns a new harness for the given model.
//
func New(m Model, cfg Config, opts ...Option) (*Harness, error) {
	if m == nil {
		return nil, errors.New("nil model")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	h := &Harness{
		cfg:     cfg,
		model:   m,
		clock:   NewClock(cfg.HalfPeriod),
		hostOut: HostOut{Addr: cfg.HostOutAddr},
		out:     io.Discard,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(h)
	}
	return h, nil
}

// Clock returns the harness clock.
//
func (h *Harness) Clock() *Clock { return h.clock }

// Model returns the DUT model.
//
func (h *Harness) Model() Model { return h.model }

// Eval advances the simulation by n ticks. Each tick toggles the DUT clock if
// an edge is due, evaluates the DUT and records the tick in the trace.
//
func (h *Harness) Eval(n uint64) {
	for ; n > 0; n-- {
		if h.clock.Edge() {
			h.model.SetClock(h.clock.Level())
		}
		h.model.Eval()
		if h.trace != nil {
			h.trace.Dump(h.clock.Time())
		}
		h.clock.Advance()
	}
}

func (h *Harness) setReset(b bool) {
	h.reset = b
	h.model.SetReset(b)
}

func (h *Harness) setHalt(b bool) {
	h.halt = b
	h.model.SetHalt(b)
}

// Reset runs the DUT reset sequence: reset is held for ResetTicks ticks,
// then reset and halt are released.
//
func (h *Harness) Reset() {
	h.setReset(true)
	h.Eval(ResetTicks)
	h.setReset(false)
	h.setHalt(false)
}

// LoadImage loads the configured program image into DUT memory. It does
// nothing if no image is configured.
//
func (h *Harness) LoadImage() error {
	if h.cfg.ImagePath == "" {
		return nil
	}
	mem := h.model.Memory()
	h.log.Info("ram words", "words", mem.Words())
	err := meminit.LoadFile(h.cfg.ImagePath, h.cfg.ImageFormat, mem.Words(), mem.SetWord)
	if err != nil {
		return errors.Wrap(err, "ram init")
	}
	h.log.Info("ram initialized", "format", h.cfg.ImageFormat, "path", h.cfg.ImagePath)
	return nil
}

// Run steps the DUT one tick at a time until the cycle limit is reached, the
// test program signals completion, or ctx is done. ctx is only checked
// between ticks.
//
func (h *Harness) Run(ctx context.Context) (ExitReason, error) {
	done := ctx.Done()
	for {
		select {
		case <-done:
			h.log.Info("exit: " + ExitInterrupt.String())
			return ExitInterrupt, nil
		default:
		}

		h.Eval(1)

		if h.cfg.MaxCycles != 0 && h.clock.Cycles() >= h.cfg.MaxCycles {
			h.log.Info("exit: "+ExitCycles.String(), "cycles", h.clock.Cycles())
			return ExitCycles, nil
		}

		bus := h.model.Bus()
		if Finished(bus, h.cfg.FinishAddr) {
			h.log.Info("exit: "+ExitFinished.String(), "cycles", h.clock.Cycles(), "time", h.clock.Time())
			return ExitFinished, h.extractSignature()
		}

		if c, ok := h.hostOut.Observe(bus); ok {
			if _, err := h.out.Write([]byte{c}); err != nil {
				return ExitNone, errors.Wrap(err, "host out")
			}
		}
	}
}

func (h *Harness) extractSignature() error {
	mem := h.model.Memory()
	sig, err := ReadSignature(mem)
	if err != nil {
		if h.cfg.DumpPath == "" {
			h.log.Warn("no signature", "error", err)
			return nil
		}
		return err
	}
	h.log.Info("signature size", "size", sig.Size(), "start", sig.Start, "stop", sig.Stop)
	if h.cfg.DumpPath == "" {
		return nil
	}
	ok, err := sig.WriteFile(h.cfg.DumpPath, mem)
	if err != nil {
		return errors.Wrap(err, "ram dump")
	}
	if ok {
		h.log.Info("ram dumped", "path", h.cfg.DumpPath)
	}
	return nil
}

// Simulate runs the whole harness sequence: open the trace if configured,
// reset the DUT, load the program image, run, and shut down. Shutdown happens
// on every return path.
//
func (h *Harness) Simulate(ctx context.Context) (r ExitReason, err error) {
	defer func() {
		if serr := h.Shutdown(); err == nil {
			err = serr
		}
	}()
	if h.cfg.WavePath != "" {
		if err = h.OpenTrace(h.cfg.WavePath); err != nil {
			return ExitNone, err
		}
	}
	h.Reset()
	if err = h.LoadImage(); err != nil {
		return ExitNone, err
	}
	return h.Run(ctx)
}

// Shutdown closes the trace after dumping the final time and flushes host
// output. Only the first call has any effect.
//
func (h *Harness) Shutdown() error {
	if h.closed {
		return nil
	}
	h.closed = true
	var err error
	if err = h.closeTrace(); err != nil {
		h.log.Error("close trace", "error", err)
	}
	if f, ok := h.out.(interface{ Flush() error }); ok {
		if ferr := f.Flush(); ferr != nil && err == nil {
			err = errors.Wrap(ferr, "flush host out")
		}
	}
	h.log.Info("exit", "cycles", h.clock.Cycles(), "time", h.clock.Time())
	return err
}
