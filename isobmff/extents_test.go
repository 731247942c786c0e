// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package isobmff

import (
	"bytes"
	"io"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestExtentsReaderConcatenatesInOrder(t *testing.T) {
	c := qt.New(t)

	src := make([]byte, 112)
	copy(src[100:103], []byte("ABC"))
	copy(src[110:112], []byte("DE"))

	extents := []Extent{
		{Index: 0, Offset: 0, Length: 3},
		{Index: 1, Offset: 10, Length: 2},
	}

	er, err := NewExtentsReader(bytes.NewReader(src), 100, extents)
	c.Assert(err, qt.IsNil)

	got := make([]byte, 5)
	n, err := io.ReadFull(er, got)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 5)
	c.Assert(string(got), qt.Equals, "ABCDE")

	buf := make([]byte, 1)
	_, err = er.Read(buf)
	c.Assert(err, qt.Equals, io.EOF)
}
