package meminit_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/quick"

	"github.com/db47h/steelsim/meminit"
	"github.com/pkg/errors"
)

type ram []uint32

func (m ram) write(i int, v uint32) { m[i] = v }
func (m ram) read(i int) uint32     { return m[i] }

func TestLoadH32(t *testing.T) {
	m := make(ram, 1024)
	if err := meminit.LoadH32(strings.NewReader("@00000000 00000001 0000002A"), len(m), m.write); err != nil {
		t.Fatal(err)
	}
	if m[0] != 1 || m[1] != 0x2A {
		t.Fatalf("expected word0=1, word1=0x2a, got %#x, %#x", m[0], m[1])
	}
	for i := 2; i < len(m); i++ {
		if m[i] != meminit.Poison {
			t.Fatalf("word %d = %#x, expected poison", i, m[i])
		}
	}
}

func TestLoadH32_addresses(t *testing.T) {
	img := `@00000010
deadc0de 0000ffff
@4 12345678

   9abcdef0
@20`
	m := make(ram, 32)
	if err := meminit.LoadH32(strings.NewReader(img), len(m), m.write); err != nil {
		t.Fatal(err)
	}
	exp := map[int]uint32{0x10: 0xdeadc0de, 0x11: 0xffff, 4: 0x12345678, 5: 0x9abcdef0}
	for i, v := range m {
		e, ok := exp[i]
		if !ok {
			e = meminit.Poison
		}
		if v != e {
			t.Errorf("word %d = %#x, expected %#x", i, v, e)
		}
	}
}

func TestLoadH32_prefix(t *testing.T) {
	m := make(ram, 4)
	if err := meminit.LoadH32(strings.NewReader("0x00000001 0X2a ff"), len(m), m.write); err != nil {
		t.Fatal(err)
	}
	if m[0] != 1 || m[1] != 0x2a || m[2] != 0xff || m[3] != meminit.Poison {
		t.Fatalf("unexpected memory %x", m)
	}
}

func TestLoadH32_errors(t *testing.T) {
	td := []struct {
		name  string
		img   string
		words int
		rng   bool
	}{
		{"range", "@10 00000001", 16, true},
		{"range-increment", "@f 00000001 00000002", 16, true},
		{"bad-word", "0000000g", 16, false},
		{"overflow", "100000000", 16, false},
		{"bad-address", "@zz 00000000", 16, false},
		{"bare-prefix", "0x", 16, false},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			m := make(ram, d.words)
			err := meminit.LoadH32(strings.NewReader(d.img), d.words, m.write)
			if err == nil {
				t.Fatal("expected error")
			}
			if isRange := errors.Cause(err) == meminit.ErrRange; isRange != d.rng {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestLoadBin(t *testing.T) {
	td := []struct {
		name string
		in   []byte
		exp  []uint32
	}{
		{"empty", nil, nil},
		{"words", []byte{0x78, 0x56, 0x34, 0x12, 0xef, 0xbe, 0xad, 0xde}, []uint32{0x12345678, 0xdeadbeef}},
		{"partial1", []byte{1, 2, 3, 4, 0xaa}, []uint32{0x04030201, 0xaa}},
		{"partial2", []byte{0xaa, 0xbb}, []uint32{0xbbaa}},
		{"partial3", []byte{0xaa, 0xbb, 0xcc}, []uint32{0xccbbaa}},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			m := make(ram, 8)
			if err := meminit.LoadBin(bytes.NewReader(d.in), len(m), m.write); err != nil {
				t.Fatal(err)
			}
			for i, v := range m {
				e := meminit.Poison
				if i < len(d.exp) {
					e = d.exp[i]
				}
				if v != e {
					t.Errorf("word %d = %#x, expected %#x", i, v, e)
				}
			}
		})
	}
}

func TestLoadBin_range(t *testing.T) {
	m := make(ram, 2)
	err := meminit.LoadBin(bytes.NewReader(make([]byte, 9)), len(m), m.write)
	if errors.Cause(err) != meminit.ErrRange {
		t.Fatalf("expected range error, got %v", err)
	}
	// exactly full is fine
	if err = meminit.LoadBin(bytes.NewReader(make([]byte, 8)), len(m), m.write); err != nil {
		t.Fatal(err)
	}
}

func TestRoundTrip(t *testing.T) {
	f := func(offset uint8, words []uint32) bool {
		m := make(ram, 256+len(words))
		var img strings.Builder
		img.WriteString("@")
		img.WriteString(hex8(uint32(offset)))
		for _, w := range words {
			img.WriteByte('\n')
			img.WriteString(hex8(w))
		}
		if err := meminit.LoadH32(strings.NewReader(img.String()), len(m), m.write); err != nil {
			t.Log(err)
			return false
		}
		var out bytes.Buffer
		if err := meminit.DumpH32(&out, m.read, int(offset), len(words)); err != nil {
			t.Log(err)
			return false
		}
		var exp strings.Builder
		for _, w := range words {
			exp.WriteString(hex8(w))
			exp.WriteByte('\n')
		}
		return out.String() == exp.String()
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func hex8(v uint32) string {
	const digits = "0123456789abcdef"
	var b [8]byte
	for i := 7; i >= 0; i-- {
		b[i] = digits[v&0xf]
		v >>= 4
	}
	return string(b[:])
}

func TestReadH32(t *testing.T) {
	words, err := meminit.ReadH32(strings.NewReader("00000001\n0000002a\n\nffffffff\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(words) != 3 || words[0] != 1 || words[1] != 0x2a || words[2] != 0xffffffff {
		t.Fatalf("unexpected words %x", words)
	}
	if _, err = meminit.ReadH32(strings.NewReader("@10 00000000")); err == nil {
		t.Fatal("expected error on address directive")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	m := make(ram, 4)
	if err := meminit.LoadFile(filepath.Join(dir, "missing.hex"), meminit.H32, len(m), m.write); err == nil {
		t.Fatal("expected error for missing file")
	}

	bin := filepath.Join(dir, "prog.bin")
	if err := os.WriteFile(bin, []byte{0x2a, 0, 0, 0}, 0644); err != nil {
		t.Fatal(err)
	}
	if err := meminit.LoadFile(bin, meminit.Bin, len(m), m.write); err != nil {
		t.Fatal(err)
	}
	if m[0] != 0x2a || m[1] != meminit.Poison {
		t.Fatalf("unexpected memory %x", m)
	}

	dump := filepath.Join(dir, "dump.hex")
	if err := meminit.DumpFile(dump, m.read, 0, 2); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(dump)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "0000002a\ndeadbeef\n" {
		t.Fatalf("unexpected dump %q", b)
	}
}

func TestParseFormat(t *testing.T) {
	for _, d := range []struct {
		in  string
		exp meminit.Format
	}{{"h32", meminit.H32}, {"BIN", meminit.Bin}, {"hex", meminit.H32}} {
		f, err := meminit.ParseFormat(d.in)
		if err != nil || f != d.exp {
			t.Errorf("ParseFormat(%q) = %v, %v", d.in, f, err)
		}
	}
	if _, err := meminit.ParseFormat("elf"); err == nil {
		t.Error("expected error")
	}
	if meminit.Bin.String() != "bin" {
		t.Errorf("unexpected name %q", meminit.Bin.String())
	}
}
