// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package meminit

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DumpH32 writes count memory words starting at word index offset to w, one
// 8 digit hex word per line.
//
func DumpH32(w io.Writer, read ReadFn, offset, count int) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < count; i++ {
		if _, err := fmt.Fprintf(bw, "%08x\n", read(offset+i)); err != nil {
			return errors.Wrap(err, "dump h32")
		}
	}
	return errors.Wrap(bw.Flush(), "dump h32")
}

// DumpFile creates or truncates the file at path and dumps memory to it with
// DumpH32.
//
func DumpFile(path string, read ReadFn, offset, count int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create dump")
	}
	if err = DumpH32(f, read, offset, count); err != nil {
		f.Close()
		return errors.Wrap(err, path)
	}
	return errors.Wrap(f.Close(), path)
}

// ReadH32 reads a flat H32 dump, as written by DumpH32, and returns its
// words in order. Address directives are rejected.
//
func ReadH32(r io.Reader) ([]uint32, error) {
	var out []uint32
	s := bufio.NewScanner(r)
	for line := 1; s.Scan(); line++ {
		for _, tok := range strings.Fields(s.Text()) {
			if tok[0] == '@' {
				return nil, errors.Errorf("line %d: unexpected address directive %q in dump", line, tok)
			}
			v, err := strconv.ParseUint(tok, 16, 32)
			if err != nil {
				return nil, errors.Errorf("line %d: invalid word %q", line, tok)
			}
			out = append(out, uint32(v))
		}
	}
	return out, errors.Wrap(s.Err(), "read h32 dump")
}
