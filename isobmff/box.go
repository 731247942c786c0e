// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package isobmff

import (
	"encoding/binary"
	"io"

	"github.com/go-heif/heif/herr"
)

// BoxHeader is the size/type prefix of every ISOBMFF box.
type BoxHeader struct {
	Type       FourCC
	TotalSize  uint64
	HeaderSize uint8 // 8 or 16
}

// DataSize returns the number of payload bytes following the header.
func (h BoxHeader) DataSize() uint64 {
	return h.TotalSize - uint64(h.HeaderSize)
}

// ReadBoxHeader reads a box's size/type prefix, widening to the 64-bit
// extended-size form when the initial 32-bit size equals 1.
func ReadBoxHeader(r io.Reader) (BoxHeader, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return BoxHeader{}, herr.Wrap("box header", err)
	}
	sizeLow := binary.BigEndian.Uint32(buf[:4])
	typ := NewFourCC(buf[4:8])

	switch {
	case sizeLow == 1:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return BoxHeader{}, herr.Wrap("box header", err)
		}
		sizeHigh := binary.BigEndian.Uint64(ext[:])
		if sizeHigh < 16 {
			return BoxHeader{}, herr.Structural(typ.String(), "extended box size %d below minimum 16", sizeHigh)
		}
		return BoxHeader{Type: typ, TotalSize: sizeHigh, HeaderSize: 16}, nil
	case sizeLow == 0 || (sizeLow >= 2 && sizeLow <= 7):
		return BoxHeader{}, herr.Structural(typ.String(), "unsupported box length %d", sizeLow)
	default:
		return BoxHeader{Type: typ, TotalSize: uint64(sizeLow), HeaderSize: 8}, nil
	}
}

// FullBoxHeader is the version+flags prefix found inside most ISOBMFF
// "full boxes".
type FullBoxHeader struct {
	Version uint8
	Flags   uint32 // low 24 bits significant
}

// ReadFullBoxHeader reads the 32-bit version+flags word.
func ReadFullBoxHeader(r io.Reader) (FullBoxHeader, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return FullBoxHeader{}, herr.Wrap("full box header", err)
	}
	v := binary.BigEndian.Uint32(buf[:])
	return FullBoxHeader{
		Version: uint8(v >> 24),
		Flags:   v & 0x00FF_FFFF,
	}, nil
}

// SkipBox discards n bytes of box payload.
func SkipBox(r io.Reader, n int64) error {
	_, err := io.CopyN(io.Discard, r, n)
	if err != nil {
		return herr.Wrap("skip box", err)
	}
	return nil
}

// LimitedSection is a length-bounded sub-stream: every box and full-box
// payload is parsed through one, and after a known child is consumed
// the section's Remaining must be exactly zero.
type LimitedSection struct {
	r  io.Reader
	lr *io.LimitedReader
}

// NewLimitedSection wraps r so that reads past n bytes fail.
func NewLimitedSection(r io.Reader, n int64) *LimitedSection {
	lr := &io.LimitedReader{R: r, N: n}
	return &LimitedSection{r: lr, lr: lr}
}

func (s *LimitedSection) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

// Remaining reports how many bytes are left before the section's limit.
func (s *LimitedSection) Remaining() int64 {
	return s.lr.N
}

// Done asserts the section has been consumed exactly to its limit.
func (s *LimitedSection) Done(tag string) error {
	if s.lr.N != 0 {
		return herr.Structural(tag, "parser failed to consume declared size, %d bytes left over", s.lr.N)
	}
	return nil
}

// Skip discards whatever remains of the section.
func (s *LimitedSection) Skip() error {
	_, err := io.Copy(io.Discard, s)
	if err != nil {
		return herr.Wrap("skip section", err)
	}
	return nil
}
