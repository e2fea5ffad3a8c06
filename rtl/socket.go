// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package rtl

import "strconv"

// A Socket maps signal names to signal numbers in a circuit.
//
type Socket struct {
	m map[string]int
	c *Circuit
}

func newSocket(c *Circuit) *Socket {
	return &Socket{
		m: make(map[string]int),
		c: c,
	}
}

// Pin returns the signal number allocated to the given name.
// This function panics if the signal does not exist.
//
func (s *Socket) Pin(name string) int {
	n, ok := s.m[name]
	if !ok {
		panic("signal " + name + " does not exist")
	}
	return n
}

// Signal returns the number of the signal with the given name. If no such
// signal exists a new one with the given width is allocated. It panics if
// width is out of the [1, 32] range or if an existing signal has a
// different width.
//
func (s *Socket) Signal(name string, width int) int {
	if width < 1 || width > 32 {
		panic("invalid width " + strconv.Itoa(width) + " for signal " + name)
	}
	n, ok := s.m[name]
	if !ok {
		n = s.c.alloc(name, width)
		s.m[name] = n
		return n
	}
	if w := s.c.info[n].Width; w != width {
		panic("signal " + name + " redeclared with width " + strconv.Itoa(width) + ", was " + strconv.Itoa(w))
	}
	return n
}

// Bit is a shorthand for Signal(name, 1).
//
func (s *Socket) Bit(name string) int {
	return s.Signal(name, 1)
}
