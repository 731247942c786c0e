// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package isobmff

import (
	"bytes"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestReadBoxHeaderCompactSize(t *testing.T) {
	c := qt.New(t)

	buf := []byte{0, 0, 0, 16, 'f', 't', 'y', 'p', 1, 2, 3, 4, 5, 6, 7, 8}
	hdr, err := ReadBoxHeader(bytes.NewReader(buf))
	c.Assert(err, qt.IsNil)
	c.Assert(hdr.Type, qt.Equals, TypeFtyp)
	c.Assert(hdr.TotalSize, qt.Equals, uint64(16))
	c.Assert(hdr.HeaderSize, qt.Equals, uint8(8))
	c.Assert(hdr.DataSize(), qt.Equals, uint64(8))
}

func TestReadBoxHeaderExtendedSize(t *testing.T) {
	c := qt.New(t)

	buf := []byte{0, 0, 0, 1, 'm', 'e', 't', 'a', 0, 0, 0, 0, 0, 0, 0, 24}
	hdr, err := ReadBoxHeader(bytes.NewReader(buf))
	c.Assert(err, qt.IsNil)
	c.Assert(hdr.TotalSize, qt.Equals, uint64(24))
	c.Assert(hdr.HeaderSize, qt.Equals, uint8(16))
}

func TestReadBoxHeaderRejectsUnsupportedLengths(t *testing.T) {
	c := qt.New(t)

	for _, size := range []uint32{0, 2, 3, 7} {
		buf := make([]byte, 8)
		buf[3] = byte(size)
		buf[4], buf[5], buf[6], buf[7] = 'f', 't', 'y', 'p'
		_, err := ReadBoxHeader(bytes.NewReader(buf))
		c.Assert(err, qt.IsNotNil, qt.Commentf("size %d", size))
	}
}

func TestLimitedSectionDoneDetectsUnderConsumption(t *testing.T) {
	c := qt.New(t)

	section := NewLimitedSection(bytes.NewReader([]byte{1, 2, 3, 4}), 4)
	buf := make([]byte, 2)
	_, err := section.Read(buf)
	c.Assert(err, qt.IsNil)
	c.Assert(section.Done("test"), qt.IsNotNil)

	_, err = section.Read(buf)
	c.Assert(err, qt.IsNil)
	c.Assert(section.Done("test"), qt.IsNil)
}
