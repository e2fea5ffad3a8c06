// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command steelsim runs a test program on the built-in SoC model and reports
// the program output and signature.
//
//	steelsim --ram-init-h32=prog.hex --ram-dump-h32=prog.sig --host-out=0x8 --out-wave=prog.vcd
//	steelsim compare prog.sig prog.reference.hex
//
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/db47h/steelsim"
	"github.com/db47h/steelsim/bfm"
	"github.com/db47h/steelsim/meminit"
	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// levelCritical sits above slog.LevelError.
//
const levelCritical = slog.LevelError + 4

// levelQuiet disables all logging.
const levelQuiet = slog.Level(1 << 10)

var levels = map[string]slog.Level{
	"DEBUG":    slog.LevelDebug,
	"INFO":     slog.LevelInfo,
	"WARNING":  slog.LevelWarn,
	"ERROR":    slog.LevelError,
	"CRITICAL": levelCritical,
	"QUIET":    levelQuiet,
}

func parseLevel(name string) (slog.Level, error) {
	l, ok := levels[strings.ToUpper(name)]
	if !ok {
		return 0, errors.Errorf("unknown log level %q", name)
	}
	return l, nil
}

type options struct {
	cfg      steelsim.Config
	initH32  string
	initBin  string
	freqNS   uint64
	ramSize  int
	workers  int
	quiet    bool
	logLevel string
	logOut   string
	profile  string
}

// newLogger returns the command logger and a function that closes the log
// file, if any.
//
func (o *options) newLogger(stderr io.Writer) (*slog.Logger, func() error, error) {
	lvl, err := parseLevel(o.logLevel)
	if err != nil {
		return nil, nil, err
	}
	if o.quiet {
		lvl = levelQuiet
	}
	w, closer := stderr, func() error { return nil }
	if o.logOut != "" {
		f, err := os.Create(o.logOut)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open log file")
		}
		w, closer = f, f.Close
	}
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && a.Value.Any() == levelCritical {
				a.Value = slog.StringValue("CRITICAL")
			}
			return a
		},
	}))
	return l, closer, nil
}

// config builds the harness configuration from the command line.
//
func (o *options) config(cmd *cobra.Command) (steelsim.Config, error) {
	cfg := o.cfg
	switch {
	case o.initH32 != "":
		cfg.ImagePath, cfg.ImageFormat = o.initH32, meminit.H32
	case o.initBin != "":
		cfg.ImagePath, cfg.ImageFormat = o.initBin, meminit.Bin
	}
	if cmd.Flags().Changed("freq-ns") {
		cfg.SetFrequencyNS(o.freqNS)
	}
	return cfg, cfg.Validate()
}

// hostOutput returns stdout directly when it is a terminal, a buffered writer
// otherwise.
//
func hostOutput(f *os.File) io.Writer {
	if term.IsTerminal(int(f.Fd())) {
		return f
	}
	return bufio.NewWriter(f)
}

func (o *options) startProfile() (interface{ Stop() }, error) {
	switch o.profile {
	case "":
		return nil, nil
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet), nil
	case "mem":
		return profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet), nil
	}
	return nil, errors.Errorf("unknown profile mode %q", o.profile)
}

func (o *options) run(cmd *cobra.Command, args []string) (err error) {
	cfg, err := o.config(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := o.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			log.Log(cmd.Context(), levelCritical, "simulation failed", "error", err)
		}
		closeLog()
	}()

	p, err := o.startProfile()
	if err != nil {
		return err
	}
	if p != nil {
		defer p.Stop()
	}

	soc, err := bfm.New(bfm.RAMSize(o.ramSize), bfm.Workers(o.workers))
	if err != nil {
		return err
	}
	defer soc.Dispose()

	h, err := steelsim.New(soc, cfg, steelsim.Logger(log), steelsim.HostOutput(hostOutput(os.Stdout)))
	if err != nil {
		return err
	}
	r, err := h.Simulate(cmd.Context())
	if err != nil {
		return err
	}
	log.Debug("run complete", "reason", r.String())
	return nil
}

// errMismatch is returned by the compare command when signatures differ.
var errMismatch = errors.New("signature mismatch")

func compare(cmd *cobra.Command, args []string) error {
	got, err := os.Open(args[0])
	if err != nil {
		return errors.Wrap(err, "open dump")
	}
	defer got.Close()
	want, err := os.Open(args[1])
	if err != nil {
		return errors.Wrap(err, "open reference")
	}
	defer want.Close()

	d, err := steelsim.CompareSignature(got, want)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if d.Equal() {
		fmt.Fprintf(out, "%s: OK (%d words)\n", args[0], d.Got)
		return nil
	}
	if d.Got != d.Want {
		fmt.Fprintf(out, "%s: %d words, reference has %d\n", args[0], d.Got, d.Want)
	}
	for _, i := range d.Words {
		fmt.Fprintf(out, "%s: word %d differs\n", args[0], i)
	}
	return errMismatch
}

func newRootCmd() *cobra.Command {
	o := &options{cfg: steelsim.DefaultConfig()}
	root := &cobra.Command{
		Use:   "steelsim",
		Short: "Simulation harness for RISC-V Steel test programs",
		Long: `steelsim loads a program image into the memory of a simulated SoC,
resets it and runs it until the program writes 1 to the finish address or the
cycle limit is reached. Bytes written to the host-out address are copied to
stdout and the signature region is dumped for comparison with a reference.
`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          o.run,
	}

	f := root.Flags()
	f.StringVar(&o.cfg.WavePath, "out-wave", "", "write a VCD trace to `file`")
	f.StringVar(&o.initH32, "ram-init-h32", "", "load an H32 image `file` into RAM")
	f.StringVar(&o.initBin, "ram-init-bin", "", "load a binary image `file` into RAM")
	f.StringVar(&o.cfg.DumpPath, "ram-dump-h32", "", "dump the signature to `file` in H32 format")
	f.Uint64Var(&o.cfg.MaxCycles, "cycles", steelsim.DefaultMaxCycles, "stop after `n` clock cycles, 0 for no limit")
	f.Uint32Var(&o.cfg.FinishAddr, "wr-addr", steelsim.DefaultFinishAddr, "finish when 1 is written to `address`")
	f.Uint32Var(&o.cfg.HostOutAddr, "host-out", 0, "copy bytes written to `address` to stdout, 0 disables")
	f.Uint64Var(&o.freqNS, "freq-ns", steelsim.DefaultHalfPeriod*2, "clock period in `ns`")
	f.IntVar(&o.ramSize, "ram-size", bfm.DefaultRAMSize, "RAM size in `bytes`")
	f.IntVar(&o.workers, "workers", 1, "number of goroutines evaluating the SoC, 0 for one per CPU")
	f.BoolVarP(&o.quiet, "quiet", "q", false, "disable logging")
	f.StringVar(&o.logLevel, "log-level", "INFO", "log `level`: DEBUG, INFO, WARNING, ERROR, CRITICAL or QUIET")
	f.StringVar(&o.logOut, "log-out", "", "write log messages to `file`")
	f.StringVar(&o.profile, "profile", "", "write a cpu or mem profile to the current directory")
	root.MarkFlagsMutuallyExclusive("ram-init-h32", "ram-init-bin")

	root.AddCommand(&cobra.Command{
		Use:   "compare <dump> <reference>",
		Short: "Compare a signature dump with a reference file",
		Args:  cobra.ExactArgs(2),
		RunE:  compare,
	})
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if err != errMismatch {
			fmt.Fprintln(os.Stderr, "steelsim:", err)
		}
		os.Exit(1)
	}
}
