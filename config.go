// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package steelsim

import (
	"github.com/db47h/steelsim/meminit"
	"github.com/pkg/errors"
)

// Harness defaults.
//
const (
	DefaultMaxCycles  = 500000
	DefaultFinishAddr = 0x00001000
	DefaultHalfPeriod = 2

	// ResetTicks is the number of ticks reset is held asserted.
	ResetTicks = 100
	// TraceDepth is the signal depth used when attaching a model to a trace.
	TraceDepth = 99
)

// Config holds the harness configuration.
//
type Config struct {
	// MaxCycles is the number of rising clock edges after which the run
	// ends. 0 means no limit.
	MaxCycles uint64
	// FinishAddr is the address test programs write 1 to in order to signal
	// completion.
	FinishAddr uint32
	// HostOutAddr is the host-out address. 0 disables host output.
	HostOutAddr uint32
	// HalfPeriod is the number of ticks between two clock edges.
	HalfPeriod uint64

	// ImagePath is the program image to load after reset. Empty means none.
	ImagePath   string
	ImageFormat meminit.Format
	// DumpPath is the file the signature is written to. Empty means no dump.
	DumpPath string
	// WavePath is the VCD trace file. Empty disables tracing.
	WavePath string
}

// DefaultConfig returns a Config with default values.
//
func DefaultConfig() Config {
	return Config{
		MaxCycles:  DefaultMaxCycles,
		FinishAddr: DefaultFinishAddr,
		HalfPeriod: DefaultHalfPeriod,
	}
}

// SetFrequencyNS sets the clock half period from a clock period in ns (one
// tick per ns). The half period is never less than one tick.
//
func (c *Config) SetFrequencyNS(ns uint64) {
	c.HalfPeriod = ns / 2
	if c.HalfPeriod == 0 {
		c.HalfPeriod = 1
	}
}

// Validate checks the configuration.
//
func (c *Config) Validate() error {
	if c.HalfPeriod == 0 {
		return errors.New("clock half period must be at least 1 tick")
	}
	switch c.ImageFormat {
	case meminit.H32, meminit.Bin:
	default:
		return errors.Errorf("unsupported image format %v", c.ImageFormat)
	}
	return nil
}
