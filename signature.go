// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package steelsim

import (
	"io"

	"github.com/db47h/steelsim/meminit"
	"github.com/pkg/errors"
)

// Memory words holding the signature bounds.
//
const (
	SignatureStartWord = 2047
	SignatureStopWord  = 2046
)

// ErrSignature is the cause of errors returned for invalid signature bounds.
//
var ErrSignature = errors.New("invalid signature")

// Signature is the byte address span [Start, Stop) of the result buffer of a
// test program.
//
type Signature struct {
	Start uint32
	Stop  uint32
}

// ReadSignature reads the signature bounds from memory.
//
func ReadSignature(m Memory) (Signature, error) {
	if m.Words() <= SignatureStartWord {
		return Signature{}, errors.Wrapf(ErrSignature, "memory too small: %d words", m.Words())
	}
	return Signature{
		Start: m.Word(SignatureStartWord),
		Stop:  m.Word(SignatureStopWord),
	}, nil
}

// Size returns the signature size in bytes. The subtraction is unsigned: Size
// wraps around when Stop < Start. Use Check to catch this.
//
func (s Signature) Size() uint32 {
	return s.Stop - s.Start
}

// Check checks that the signature bounds are ordered and within memory.
//
func (s Signature) Check(m Memory) error {
	if s.Stop < s.Start {
		return errors.Wrapf(ErrSignature, "stop address %#x before start address %#x", s.Stop, s.Start)
	}
	if end := uint64(s.Start/4) + uint64(s.Size()/4); end > uint64(m.Words()) {
		return errors.Wrapf(ErrSignature, "span %#x-%#x out of memory", s.Start, s.Stop)
	}
	return nil
}

// Dump writes the signature words to w in H32 format.
//
func (s Signature) Dump(w io.Writer, m Memory) error {
	if err := s.Check(m); err != nil {
		return err
	}
	return meminit.DumpH32(w, m.Word, int(s.Start/4), int(s.Size()/4))
}

// WriteFile dumps the signature to the named file. Signatures smaller than a
// word are not written and WriteFile returns false.
//
func (s Signature) WriteFile(path string, m Memory) (bool, error) {
	if s.Size() < 4 {
		return false, nil
	}
	if err := s.Check(m); err != nil {
		return false, err
	}
	if err := meminit.DumpFile(path, m.Word, int(s.Start/4), int(s.Size()/4)); err != nil {
		return false, err
	}
	return true, nil
}

// Diff is the result of a signature comparison.
//
type Diff struct {
	Got, Want int   // word counts
	Words     []int // indices of mismatching words
}

// Equal returns true if both signatures are identical.
//
func (d *Diff) Equal() bool {
	return d.Got == d.Want && len(d.Words) == 0
}

// CompareSignature compares two H32 signature dumps.
//
func CompareSignature(got, want io.Reader) (*Diff, error) {
	g, err := meminit.ReadH32(got)
	if err != nil {
		return nil, errors.Wrap(err, "read signature")
	}
	w, err := meminit.ReadH32(want)
	if err != nil {
		return nil, errors.Wrap(err, "read reference")
	}
	d := &Diff{Got: len(g), Want: len(w)}
	for i := 0; i < len(g) && i < len(w); i++ {
		if g[i] != w[i] {
			d.Words = append(d.Words, i)
		}
	}
	return d, nil
}
