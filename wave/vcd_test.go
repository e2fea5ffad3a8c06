package wave_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/db47h/steelsim/wave"
)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	var clk, data uint64

	w := wave.NewWriter(&buf)
	if err := w.SetTimescale("1ns"); err != nil {
		t.Fatal(err)
	}
	w.Scope("top")
	w.Var("clock", 1, func() uint64 { return clk })
	w.Scope("bus")
	w.Var("data", 8, func() uint64 { return data })
	w.Upscope()
	w.Upscope()

	w.Dump(0)
	clk = 1
	w.Dump(1)
	w.Dump(1) // ignored
	w.Dump(2) // no change
	data = 0x1a5
	clk = 0
	w.Dump(3)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	w.Dump(4) // closed

	exp := `$version steelsim $end
$timescale 1ns $end
$scope module top $end
$var wire 1 ! clock $end
$scope module bus $end
$var reg 8 " data $end
$upscope $end
$upscope $end
$enddefinitions $end
#0
$dumpvars
0!
b0 "
$end
#1
1!
#3
0!
b10100101 "
`
	if got := buf.String(); got != exp {
		t.Fatalf("unexpected output:\n%s\nexpected:\n%s", got, exp)
	}
	if w.IsOpen() {
		t.Fatal("writer still open after Close")
	}
}

func TestWriter_finalTime(t *testing.T) {
	var buf bytes.Buffer
	var clk uint64
	w := wave.NewWriter(&buf)
	w.Var("clock", 1, func() uint64 { return clk })
	w.Dump(0)
	clk = 1
	w.Dump(4)
	w.Dump(9) // no change
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), "$end\n#4\n1!\n#9\n") {
		t.Fatalf("unexpected trace tail:\n%s", buf.String())
	}
}

func TestWriter_SetAutoFlush(t *testing.T) {
	var buf bytes.Buffer
	var clk uint64
	w := wave.NewWriter(&buf)
	w.Var("clock", 1, func() uint64 { return clk })
	w.Dump(0)
	if buf.Len() != 0 {
		t.Fatal("trace flushed without auto flush")
	}
	w.SetAutoFlush(true)
	clk = 1
	w.Dump(1)
	if !strings.HasSuffix(buf.String(), "#1\n1!\n") {
		t.Fatalf("trace not flushed after dump:\n%s", buf.String())
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestWriter_errors(t *testing.T) {
	w := wave.NewWriter(io.Discard)
	for _, ts := range []string{"", "ns", "2ns", "1xs"} {
		if err := w.SetTimescale(ts); err == nil {
			t.Errorf("expected error for timescale %q", ts)
		}
	}
	w.Upscope()
	if w.Err() == nil {
		t.Fatal("expected error for unbalanced upscope")
	}

	w = wave.NewWriter(io.Discard)
	w.Var("x", 1, func() uint64 { return 0 })
	w.Dump(0)
	w.Var("late", 1, func() uint64 { return 0 })
	if w.Err() == nil {
		t.Fatal("expected error for late declaration")
	}
	if err := w.Close(); err == nil {
		t.Fatal("expected sticky error on Close")
	}
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()

	name := filepath.Join(dir, "out.vcd")
	w, err := wave.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	// unclosed scopes are closed when the header is written.
	w.Scope("top")
	for i := 0; i < 100; i++ {
		v := uint64(i)
		w.Var("v"+string(rune('a'+i%26)), 1, func() uint64 { return v & 1 })
	}
	w.Dump(0)
	if err = w.Close(); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if !strings.Contains(s, "$upscope $end\n$enddefinitions") {
		t.Fatalf("missing upscope:\n%s", s)
	}
	// identifiers get a second character past the 94th variable
	if !strings.Contains(s, " \"! ") {
		t.Fatalf("missing two character identifier:\n%s", s)
	}

	if _, err = wave.Create(filepath.Join(dir, "nodir", "out.vcd")); err == nil {
		t.Fatal("expected error")
	}
}
