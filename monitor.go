// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package steelsim

// Finished returns true if the bus shows a write of the value 1 to addr. This
// is how test programs signal completion. Detection is level based: programs
// hold the write for a single cycle.
//
func Finished(b Bus, addr uint32) bool {
	return b.WriteRequest && b.Address == addr && b.WriteData == 1
}

// HostOut turns writes to a fixed address into a byte stream.
//
// The write request line is level sensitive and stays asserted for several
// ticks. HostOut remembers its previous level and only reports a byte on a
// rising edge of the line. The remembered level tracks every write, whatever
// its address.
//
type HostOut struct {
	// Addr is the host-out address. 0 disables the channel.
	Addr   uint32
	primed bool
}

// Observe samples the bus. It returns the byte on the write data lines and
// true if it was just written to the host-out address.
//
func (h *HostOut) Observe(b Bus) (byte, bool) {
	ok := h.Addr != 0 && !h.primed && b.WriteRequest && b.Address == h.Addr
	h.primed = b.WriteRequest
	return byte(b.WriteData), ok
}
