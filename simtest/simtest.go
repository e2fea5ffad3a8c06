// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package simtest provides utility functions for testing programs and models
// with the harness.
//
package simtest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/db47h/steelsim"
	"github.com/db47h/steelsim/bfm"
	"github.com/db47h/steelsim/meminit"
)

// Result holds the outcome of a simulated run.
//
type Result struct {
	Reason steelsim.ExitReason
	Err    error
	// Output is the host-out byte stream.
	Output string
	// Dump is the signature dump, nil if none was written.
	Dump []uint32
	// Cycles and Time are the final clock counters.
	Cycles, Time uint64
	// Memory is a copy of DUT memory after the run.
	Memory []uint32
}

// Run writes p to a temporary image file in the format selected by
// cfg.ImageFormat and runs it on a bfm.SoC. A signature dump path is set
// unless cfg.DumpPath is already set.
//
func Run(ctx context.Context, t testing.TB, p *bfm.Program, cfg steelsim.Config, opts ...bfm.Option) *Result {
	t.Helper()

	dir := t.TempDir()
	cfg.ImagePath = filepath.Join(dir, "image")
	img := []byte(p.H32())
	if cfg.ImageFormat == meminit.Bin {
		img = p.Bin()
	}
	if err := os.WriteFile(cfg.ImagePath, img, 0644); err != nil {
		t.Fatal(err)
	}
	if cfg.DumpPath == "" {
		cfg.DumpPath = filepath.Join(dir, "dump.hex")
	}

	soc, err := bfm.New(opts...)
	if err != nil {
		t.Fatal(err)
	}
	defer soc.Dispose()

	var out bytes.Buffer
	h, err := steelsim.New(soc, cfg, steelsim.HostOutput(&out))
	if err != nil {
		t.Fatal(err)
	}
	r := &Result{}
	r.Reason, r.Err = h.Simulate(ctx)
	r.Output = out.String()
	r.Cycles, r.Time = h.Clock().Cycles(), h.Clock().Time()

	mem := soc.Memory()
	r.Memory = make([]uint32, mem.Words())
	for i := range r.Memory {
		r.Memory[i] = mem.Word(i)
	}

	f, err := os.Open(cfg.DumpPath)
	if os.IsNotExist(err) {
		return r
	}
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if r.Dump, err = meminit.ReadH32(f); err != nil {
		t.Fatal(err)
	}
	if r.Dump == nil {
		r.Dump = []uint32{}
	}
	return r
}
