// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package isobmff

import (
	"encoding/binary"
	"io"

	"github.com/go-heif/heif/herr"
)

// readU4Pair reads one byte and splits it into its high and low
// nibbles.
func readU4Pair(r io.Reader) (hi, lo uint8, err error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, 0, herr.Wrap("u4 pair", err)
	}
	return b[0] >> 4, b[0] & 0x0F, nil
}

// readSizedUint reads a big-endian unsigned integer of size bytes,
// where size must be 0, 4, or 8. A size of 0 yields 0 without reading.
func readSizedUint(r io.Reader, size uint8, tag string) (uint64, error) {
	switch size {
	case 0:
		return 0, nil
	case 4:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, herr.Wrap(tag, err)
		}
		return uint64(binary.BigEndian.Uint32(b[:])), nil
	case 8:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, herr.Wrap(tag, err)
		}
		return binary.BigEndian.Uint64(b[:]), nil
	default:
		return 0, herr.Structural(tag, "unsupported field width %d", size)
	}
}

func parseIloc(r io.Reader, dataSize uint64) ([]ItemLocation, error) {
	fb, err := ReadFullBoxHeader(r)
	if err != nil {
		return nil, err
	}
	if fb.Version > 2 {
		return nil, herr.Version("iloc", fb.Version)
	}

	offsetSize, lengthSize, err := readU4Pair(r)
	if err != nil {
		return nil, err
	}
	baseOffsetSize, indexSize, err := readU4Pair(r)
	if err != nil {
		return nil, err
	}
	if fb.Version == 0 {
		indexSize = 0
	}

	var itemCount uint32
	if fb.Version < 2 {
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, herr.Wrap("iloc", err)
		}
		itemCount = uint32(binary.BigEndian.Uint16(b[:]))
	} else {
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, herr.Wrap("iloc", err)
		}
		itemCount = binary.BigEndian.Uint32(b[:])
	}

	locs := make([]ItemLocation, 0, itemCount)
	for i := uint32(0); i < itemCount; i++ {
		var loc ItemLocation

		if fb.Version < 2 {
			var b [2]byte
			if _, err := io.ReadFull(r, b[:]); err != nil {
				return nil, herr.Wrap("iloc", err)
			}
			loc.ID = uint32(binary.BigEndian.Uint16(b[:]))
		} else {
			var b [4]byte
			if _, err := io.ReadFull(r, b[:]); err != nil {
				return nil, herr.Wrap("iloc", err)
			}
			loc.ID = binary.BigEndian.Uint32(b[:])
		}

		if fb.Version > 0 {
			var reserved [1]byte
			if _, err := io.ReadFull(r, reserved[:]); err != nil {
				return nil, herr.Wrap("iloc", err)
			}
			_, method, err := readU4Pair(r)
			if err != nil {
				return nil, err
			}
			loc.ConstructionMethod = method
		}

		var refIdx [2]byte
		if _, err := io.ReadFull(r, refIdx[:]); err != nil {
			return nil, herr.Wrap("iloc", err)
		}
		loc.DataReferenceIndex = binary.BigEndian.Uint16(refIdx[:])

		baseOffset, err := readSizedUint(r, baseOffsetSize, "iloc.base_offset")
		if err != nil {
			return nil, err
		}
		loc.BaseOffset = baseOffset

		var extentCountBuf [2]byte
		if _, err := io.ReadFull(r, extentCountBuf[:]); err != nil {
			return nil, herr.Wrap("iloc", err)
		}
		extentCount := binary.BigEndian.Uint16(extentCountBuf[:])

		for e := uint16(0); e < extentCount; e++ {
			var ext Extent
			ext.Index = uint64(e)
			if indexSize > 0 {
				idx, err := readSizedUint(r, indexSize, "iloc.extent_index")
				if err != nil {
					return nil, err
				}
				ext.Index = idx
			}
			offset, err := readSizedUint(r, offsetSize, "iloc.extent_offset")
			if err != nil {
				return nil, err
			}
			ext.Offset = offset
			length, err := readSizedUint(r, lengthSize, "iloc.extent_length")
			if err != nil {
				return nil, err
			}
			ext.Length = length
			loc.Extents = append(loc.Extents, ext)
		}

		locs = append(locs, loc)
	}

	return locs, nil
}
