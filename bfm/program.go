// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package bfm

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/db47h/steelsim"
)

// Program builds SoC write scripts.
//
//	var p bfm.Program
//	p.Print(0x4, "hello\n").
//		Signature(0x1800, 0xcafe, 0xbabe).
//		Finish(steelsim.DefaultFinishAddr)
//	img := p.H32()
//
type Program struct {
	words []uint32
}

// Write appends a write of data to the byte address addr.
//
func (p *Program) Write(addr, data uint32) *Program {
	p.words = append(p.words, addr, data)
	return p
}

// Print appends one write per byte of s to addr.
//
func (p *Program) Print(addr uint32, s string) *Program {
	for i := 0; i < len(s); i++ {
		p.Write(addr, uint32(s[i]))
	}
	return p
}

// Signature appends writes that store words at the byte address start and
// then record the signature bounds in the signature start and stop words.
//
func (p *Program) Signature(start uint32, words ...uint32) *Program {
	for i, w := range words {
		p.Write(start+uint32(i)*4, w)
	}
	p.Write(steelsim.SignatureStopWord*4, start+uint32(len(words))*4)
	p.Write(steelsim.SignatureStartWord*4, start)
	return p
}

// Finish appends a write of 1 to addr followed by the end of the script.
//
func (p *Program) Finish(addr uint32) *Program {
	return p.Write(addr, 1).Halt()
}

// Halt appends the end of script marker.
//
func (p *Program) Halt() *Program {
	return p.Write(HaltAddr, 0)
}

// Words returns the script words.
//
func (p *Program) Words() []uint32 {
	return append([]uint32(nil), p.words...)
}

// H32 returns the script as an H32 image loaded at address 0.
//
func (p *Program) H32() string {
	var b strings.Builder
	b.WriteString("@00000000\n")
	for i, w := range p.words {
		fmt.Fprintf(&b, "%08X", w)
		if i&3 == 3 || i == len(p.words)-1 {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// Bin returns the script as a little endian binary image.
//
func (p *Program) Bin() []byte {
	b := make([]byte, len(p.words)*4)
	for i, w := range p.words {
		binary.LittleEndian.PutUint32(b[i*4:], w)
	}
	return b
}
