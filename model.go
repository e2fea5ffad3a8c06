// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package steelsim

import "github.com/db47h/steelsim/wave"

// Bus is a snapshot of the memory mapped bus signals of a DUT.
//
type Bus struct {
	WriteRequest  bool
	ReadRequest   bool
	WriteResponse bool
	ReadResponse  bool
	Address       uint32
	WriteData     uint32
	ReadData      uint32
}

// Memory is the word addressed memory array of a DUT.
//
type Memory interface {
	// Words returns the memory size in 32 bit words.
	Words() int
	// Word returns the value of the i-th word.
	Word(i int) uint32
	// SetWord sets the value of the i-th word.
	SetWord(i int, v uint32)
}

// Model is the interface implemented by synchronous DUT models.
//
// The harness sets the input lines then calls Eval once per simulation tick.
// Bus must reflect the state of the DUT after the last call to Eval.
//
type Model interface {
	SetClock(level bool)
	SetReset(level bool)
	SetHalt(level bool)
	Eval()
	Bus() Bus
	Memory() Memory
}

// Traceable is implemented by models that can record their internal signals
// in a waveform trace. Trace should declare scopes and variables no deeper
// than depth levels below the current scope.
//
type Traceable interface {
	Trace(w *wave.Writer, depth int)
}
