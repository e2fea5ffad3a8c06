// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package meminit loads program images into the word-addressed memory of a
// device under test and dumps memory regions back to text.
//
// Two image formats are supported:
//
//	H32: ASCII hex words separated by blanks or newlines, with an optional
//	     0x prefix. A token of the form @<hex> sets the word address of the
//	     next word.
//	Bin: raw little endian 32 bit words. A trailing partial word is zero
//	     extended.
//
// Before an image is loaded, every word of memory is set to Poison so that
// reads of uninitialized memory stand out.
//
package meminit

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Poison is the value of memory words not initialized by an image.
//
const Poison uint32 = 0xDEADBEEF

// ErrRange is the cause of errors returned when an image word falls outside
// of memory.
//
var ErrRange = errors.New("load address out of range")

// A WriteFn writes the value v to the memory word at index i.
//
type WriteFn func(i int, v uint32)

// A ReadFn returns the value of the memory word at index i.
//
type ReadFn func(i int) uint32

// Format identifies an image file format.
//
type Format int

// Supported image formats.
//
const (
	H32 Format = iota
	Bin
)

func (f Format) String() string {
	switch f {
	case H32:
		return "h32"
	case Bin:
		return "bin"
	}
	return "Format(" + strconv.Itoa(int(f)) + ")"
}

// ParseFormat returns the Format for the given name ("h32" or "bin").
//
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "h32", "hex", "hex32":
		return H32, nil
	case "bin", "binary":
		return Bin, nil
	}
	return 0, errors.Errorf("unknown image format %q", name)
}

// Fill sets the words memory words to Poison.
//
func Fill(words int, write WriteFn) {
	for i := 0; i < words; i++ {
		write(i, Poison)
	}
}

func rangeError(addr uint64) error {
	return errors.Wrapf(ErrRange, "address %#x", addr)
}

// LoadH32 fills words memory words with Poison then loads the H32 image read
// from r.
//
func LoadH32(r io.Reader, words int, write WriteFn) error {
	Fill(words, write)

	var addr uint64
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), 1<<20)
	for line := 1; s.Scan(); line++ {
		for _, tok := range strings.Fields(s.Text()) {
			if tok[0] == '@' {
				a, err := strconv.ParseUint(tok[1:], 16, 64)
				if err != nil {
					return errors.Errorf("line %d: invalid load address %q", line, tok)
				}
				addr = a
				continue
			}
			if len(tok) > 2 && tok[0] == '0' && (tok[1] == 'x' || tok[1] == 'X') {
				tok = tok[2:]
			}
			v, err := strconv.ParseUint(tok, 16, 32)
			if err != nil {
				return errors.Errorf("line %d: invalid word %q", line, tok)
			}
			if addr >= uint64(words) {
				return errors.Wrapf(rangeError(addr), "line %d", line)
			}
			write(int(addr), uint32(v))
			addr++
		}
	}
	return errors.Wrap(s.Err(), "read h32 image")
}

// LoadBin fills words memory words with Poison then loads the binary image
// read from r, starting at word 0.
//
func LoadBin(r io.Reader, words int, write WriteFn) error {
	Fill(words, write)

	br := bufio.NewReader(r)
	var buf [4]byte
	for addr := 0; ; addr++ {
		n, err := io.ReadFull(br, buf[:])
		if n == 0 {
			if err == io.EOF {
				return nil
			}
			return errors.Wrap(err, "read bin image")
		}
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		if addr >= words {
			return rangeError(uint64(addr))
		}
		write(addr, binary.LittleEndian.Uint32(buf[:]))
		switch err {
		case nil:
		case io.ErrUnexpectedEOF:
			return nil
		default:
			return errors.Wrap(err, "read bin image")
		}
	}
}

// Load loads an image in the given format.
//
func Load(r io.Reader, f Format, words int, write WriteFn) error {
	switch f {
	case H32:
		return LoadH32(r, words, write)
	case Bin:
		return LoadBin(r, words, write)
	}
	return errors.Errorf("unsupported image format %v", f)
}

// LoadFile loads the image file at path.
//
func LoadFile(path string, f Format, words int, write WriteFn) error {
	fd, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open image")
	}
	defer fd.Close()
	return errors.Wrap(Load(fd, f, words, write), path)
}
