// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package isobmff

import (
	"bytes"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestParseIlocVersion0ForcesZeroIndexSize(t *testing.T) {
	c := qt.New(t)

	var buf bytes.Buffer
	buf.WriteByte(0)          // version
	buf.Write([]byte{0, 0, 0}) // flags
	buf.WriteByte(0x44)       // offset_size=4, length_size=4
	buf.WriteByte(0x03)       // base_offset_size=0, index_size=3 (ignored at version 0)
	buf.Write([]byte{0, 1})   // item_count = 1
	buf.Write([]byte{0, 7})   // item id = 7
	buf.Write([]byte{0, 1})   // data_reference_index
	// base_offset width 0: nothing
	buf.Write([]byte{0, 1}) // extent_count = 1
	buf.Write([]byte{0, 0, 0, 5})  // offset = 5 (width 4)
	buf.Write([]byte{0, 0, 0, 9})  // length = 9 (width 4)

	locs, err := parseIloc(&buf, uint64(buf.Len()))
	c.Assert(err, qt.IsNil)
	c.Assert(locs, qt.HasLen, 1)
	c.Assert(locs[0].ID, qt.Equals, uint32(7))
	c.Assert(locs[0].Extents, qt.HasLen, 1)
	c.Assert(locs[0].Extents[0].Index, qt.Equals, uint64(0))
	c.Assert(locs[0].Extents[0].Offset, qt.Equals, uint64(5))
	c.Assert(locs[0].Extents[0].Length, qt.Equals, uint64(9))
}
