// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package wave writes simulation traces in the Value Change Dump (VCD) format.
//
// Variables are declared up front together with a sampling function. Each call
// to Dump samples every variable and records the ones whose value changed
// since the previous dump:
//
//	w, err := wave.Create("out.vcd")
//	if err != nil {
//		// handle error
//	}
//	w.Scope("top")
//	w.Var("clock", 1, func() uint64 { return clk })
//	w.Upscope()
//	for t := uint64(0); t < 100; t++ {
//		// update clk
//		w.Dump(t)
//	}
//	w.Close()
//
package wave

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DefaultTimescale is the timescale used when none is set.
//
const DefaultTimescale = "1ns"

type variable struct {
	id     string
	width  int
	sample func() uint64
	val    uint64
}

// Writer is a VCD trace writer.
//
type Writer struct {
	w         *bufio.Writer
	c         io.Closer
	timescale string
	decl      []string
	depth     int
	vars      []*variable
	header    bool
	last      uint64 // last dump time
	stamp     uint64 // last time written to the trace
	flush     bool
	open      bool
	err       error
}

// NewWriter returns a new Writer writing to w. Closing the Writer does not
// close w.
//
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:         bufio.NewWriter(w),
		timescale: DefaultTimescale,
		open:      true,
	}
}

// Create creates or truncates the named file and returns a Writer for it.
//
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "create trace")
	}
	w := NewWriter(f)
	w.c = f
	return w, nil
}

func (w *Writer) declare(s string) {
	if w.header {
		if w.err == nil {
			w.err = errors.New("declaration after first dump: " + s)
		}
		return
	}
	w.decl = append(w.decl, s)
}

// SetTimescale sets the time unit of dump timestamps, like "1ns" or "10ps".
//
func (w *Writer) SetTimescale(ts string) error {
	i := strings.IndexFunc(ts, func(r rune) bool { return r < '0' || r > '9' })
	if i <= 0 {
		return errors.Errorf("invalid timescale %q", ts)
	}
	switch ts[:i] {
	case "1", "10", "100":
	default:
		return errors.Errorf("invalid timescale magnitude in %q", ts)
	}
	switch ts[i:] {
	case "s", "ms", "us", "ns", "ps", "fs":
	default:
		return errors.Errorf("invalid timescale unit in %q", ts)
	}
	if w.header {
		return errors.New("timescale set after first dump")
	}
	w.timescale = ts
	return nil
}

// Scope opens a new module scope. Variables declared until the matching
// Upscope belong to it.
//
func (w *Writer) Scope(name string) {
	w.declare("$scope module " + name + " $end")
	w.depth++
}

// Upscope closes the current scope.
//
func (w *Writer) Upscope() {
	if w.depth == 0 {
		if w.err == nil {
			w.err = errors.New("upscope without matching scope")
		}
		return
	}
	w.depth--
	w.declare("$upscope $end")
}

// Var declares a variable of the given bit width in the current scope. sample
// is called on every Dump to get the variable value.
//
func (w *Writer) Var(name string, width int, sample func() uint64) {
	if width < 1 || width > 64 {
		if w.err == nil {
			w.err = errors.Errorf("invalid width %d for variable %s", width, name)
		}
		return
	}
	v := &variable{id: identifier(len(w.vars)), width: width, sample: sample}
	kind := "wire"
	if width > 1 {
		kind = "reg"
	}
	w.declare("$var " + kind + " " + strconv.Itoa(width) + " " + v.id + " " + name + " $end")
	if !w.header {
		w.vars = append(w.vars, v)
	}
}

// identifier returns the VCD identifier code for the n-th variable.
//
func identifier(n int) string {
	const first, base = '!', '~' - '!' + 1
	var b []byte
	for {
		b = append(b, byte(first+n%base))
		n /= base
		if n == 0 {
			break
		}
		n--
	}
	return string(b)
}

func (w *Writer) write(parts ...string) {
	if w.err != nil {
		return
	}
	for _, p := range parts {
		if _, err := w.w.WriteString(p); err != nil {
			w.err = errors.Wrap(err, "write trace")
			return
		}
	}
}

func (w *Writer) value(v *variable) {
	if v.width == 1 {
		w.write(strconv.FormatUint(v.val&1, 10), v.id, "\n")
		return
	}
	if v.width < 64 {
		v.val &= 1<<uint(v.width) - 1
	}
	w.write("b", strconv.FormatUint(v.val, 2), " ", v.id, "\n")
}

func (w *Writer) writeHeader(t uint64) {
	for w.depth > 0 {
		w.Upscope()
	}
	w.write("$version steelsim $end\n")
	w.write("$timescale ", w.timescale, " $end\n")
	for _, d := range w.decl {
		w.write(d, "\n")
	}
	w.write("$enddefinitions $end\n")
	w.write("#", strconv.FormatUint(t, 10), "\n$dumpvars\n")
	for _, v := range w.vars {
		v.val = v.sample()
		w.value(v)
	}
	w.write("$end\n")
	w.header = true
	w.decl = nil
	w.last, w.stamp = t, t
	w.autoFlush()
}

// SetAutoFlush makes every Dump flush the trace to the underlying writer. By
// default the trace is buffered and only flushed by Flush and Close, which
// still records every dumped time.
//
func (w *Writer) SetAutoFlush(on bool) { w.flush = on }

func (w *Writer) autoFlush() {
	if w.flush && w.err == nil {
		if err := w.w.Flush(); err != nil {
			w.err = errors.Wrap(err, "flush trace")
		}
	}
}

// Dump samples all variables and records the values that changed at time t.
// Times must be increasing, dumps at or before the last recorded time are
// ignored. The output is buffered unless auto flush is on.
//
func (w *Writer) Dump(t uint64) {
	if !w.open {
		return
	}
	if !w.header {
		w.writeHeader(t)
		return
	}
	if t <= w.last {
		return
	}
	w.last = t
	stamped := false
	for _, v := range w.vars {
		nv := v.sample()
		if v.width < 64 {
			nv &= 1<<uint(v.width) - 1
		}
		if nv == v.val {
			continue
		}
		if !stamped {
			w.write("#", strconv.FormatUint(t, 10), "\n")
			w.stamp = t
			stamped = true
		}
		v.val = nv
		w.value(v)
	}
	w.autoFlush()
}

// Flush writes any buffered data to the underlying writer.
//
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return errors.Wrap(w.w.Flush(), "flush trace")
}

// IsOpen returns true until the Writer is closed.
//
func (w *Writer) IsOpen() bool { return w.open }

// Err returns the first error encountered by the Writer.
//
func (w *Writer) Err() error { return w.err }

// Close flushes the trace and closes the underlying file if the Writer was
// created with Create. If the last dumped time saw no change, it is written
// so that the trace ends at that time. Calling Close on a closed Writer is a
// no-op.
//
func (w *Writer) Close() error {
	if !w.open {
		return nil
	}
	w.open = false
	if w.header && w.last > w.stamp {
		w.write("#", strconv.FormatUint(w.last, 10), "\n")
	}
	err := w.Flush()
	if w.c != nil {
		if cerr := w.c.Close(); err == nil {
			err = errors.Wrap(cerr, "close trace")
		}
	}
	return err
}
