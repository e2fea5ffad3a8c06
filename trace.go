// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package steelsim

import (
	"github.com/db47h/steelsim/wave"
	"github.com/pkg/errors"
)

func bit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// OpenTrace creates a VCD trace file and attaches it with AttachTrace.
//
func (h *Harness) OpenTrace(path string) error {
	w, err := wave.Create(path)
	if err != nil {
		return err
	}
	if err = h.AttachTrace(w); err != nil {
		w.Close()
		return err
	}
	h.log.Info("wave out", "path", path)
	return nil
}

// AttachTrace records the simulation into w. It must be called before the
// first call to Eval. The harness lines are declared in a "TOP" scope
// together with the model signals if the model implements Traceable.
//
func (h *Harness) AttachTrace(w *wave.Writer) error {
	if h.trace != nil {
		return errors.New("trace already attached")
	}
	if h.clock.Time() != 0 {
		return errors.New("trace attached after simulation start")
	}
	if err := w.SetTimescale("1ns"); err != nil {
		return err
	}
	w.Scope("TOP")
	w.Var("clock", 1, func() uint64 { return bit(h.clock.Level()) })
	w.Var("reset", 1, func() uint64 { return bit(h.reset) })
	w.Var("halt", 1, func() uint64 { return bit(h.halt) })
	w.Var("cycles", 64, func() uint64 { return h.clock.Cycles() })
	if t, ok := h.model.(Traceable); ok {
		t.Trace(w, TraceDepth)
	} else {
		h.log.Warn("model does not support tracing")
	}
	w.Upscope()
	if err := w.Err(); err != nil {
		return errors.Wrap(err, "attach trace")
	}
	h.trace = w
	return nil
}

func (h *Harness) closeTrace() error {
	if h.trace == nil || !h.trace.IsOpen() {
		return nil
	}
	h.trace.Dump(h.clock.Time())
	return h.trace.Close()
}
