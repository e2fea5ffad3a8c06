package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/db47h/steelsim/bfm"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	var p bfm.Program
	p.Signature(0x1800, 0xcafe, 0xbabe).Finish(0x1000)
	img := filepath.Join(dir, "prog.hex")
	if err := os.WriteFile(img, []byte(p.H32()), 0644); err != nil {
		t.Fatal(err)
	}
	dump := filepath.Join(dir, "prog.sig")
	wave := filepath.Join(dir, "prog.vcd")
	logf := filepath.Join(dir, "log.txt")

	if _, err := execute(t, "--ram-init-h32="+img, "--ram-dump-h32="+dump, "--out-wave="+wave,
		"--wr-addr=0x1000", "--cycles=0x10000", "--freq-ns=10", "--log-out="+logf); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(dump)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "0000cafe\n0000babe\n" {
		t.Fatalf("unexpected dump %q", b)
	}
	if _, err = os.Stat(wave); err != nil {
		t.Fatal(err)
	}
	b, err = os.ReadFile(logf)
	if err != nil {
		t.Fatal(err)
	}
	for _, msg := range []string{"ram initialized", "exit: wr-addr", "ram dumped"} {
		if !strings.Contains(string(b), msg) {
			t.Errorf("log message %q not found", msg)
		}
	}

	ref := filepath.Join(dir, "prog.reference.hex")
	if err = os.WriteFile(ref, []byte("0000CAFE\n0000BABE\n"), 0644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "compare", dump, ref)
	if err != nil || !strings.Contains(out, "OK (2 words)") {
		t.Fatalf("compare: %v, %q", err, out)
	}
	if err = os.WriteFile(ref, []byte("0000CAFE\n0000BEEF\n"), 0644); err != nil {
		t.Fatal(err)
	}
	out, err = execute(t, "compare", dump, ref)
	if err != errMismatch || !strings.Contains(out, "word 1 differs") {
		t.Fatalf("compare: %v, %q", err, out)
	}
}

func TestRun_errors(t *testing.T) {
	dir := t.TempDir()
	td := []struct {
		name string
		args []string
	}{
		{"both-images", []string{"--ram-init-h32=a", "--ram-init-bin=b"}},
		{"missing-image", []string{"-q", "--ram-init-bin=" + filepath.Join(dir, "none.bin")}},
		{"log-level", []string{"--log-level=LOUD"}},
		{"profile", []string{"-q", "--profile=gpu"}},
		{"ram-size", []string{"-q", "--ram-size=4"}},
		{"args", []string{"extra"}},
		{"compare-args", []string{"compare", "a"}},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			if _, err := execute(t, d.args...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	for name, l := range levels {
		got, err := parseLevel(strings.ToLower(name))
		if err != nil || got != l {
			t.Errorf("parseLevel(%q) = %v, %v", name, got, err)
		}
	}
}
