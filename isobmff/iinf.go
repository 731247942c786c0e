// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package isobmff

import (
	"encoding/binary"
	"io"

	"github.com/go-heif/heif/herr"
)

func parseIinf(r io.Reader, dataSize uint64) ([]ItemInfo, error) {
	section := NewLimitedSection(r, int64(dataSize))

	fb, err := ReadFullBoxHeader(section)
	if err != nil {
		return nil, err
	}
	if fb.Version != 0 {
		return nil, herr.Version("iinf", fb.Version)
	}

	var cb [2]byte
	if _, err := io.ReadFull(section, cb[:]); err != nil {
		return nil, herr.Wrap("iinf", err)
	}
	entryCount := binary.BigEndian.Uint16(cb[:])

	infos := make([]ItemInfo, 0, entryCount)
	for i := uint16(0); i < entryCount; i++ {
		hdr, err := ReadBoxHeader(section)
		if err != nil {
			return nil, err
		}
		if hdr.Type != TypeInfe {
			return nil, herr.Structural("iinf", "unexpected child %s, expected infe", hdr.Type)
		}
		child := NewLimitedSection(section, int64(hdr.DataSize()))
		info, err := parseInfe(child)
		if err != nil {
			return nil, err
		}
		if err := child.Done("infe"); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}

	return infos, nil
}

func parseInfe(r io.Reader) (ItemInfo, error) {
	fb, err := ReadFullBoxHeader(r)
	if err != nil {
		return ItemInfo{}, err
	}
	if fb.Version != 2 {
		return ItemInfo{}, herr.Version("infe", fb.Version)
	}

	var fixed [8]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return ItemInfo{}, herr.Wrap("infe", err)
	}

	info := ItemInfo{
		ID:              uint32(binary.BigEndian.Uint16(fixed[0:2])),
		ProtectionIndex: binary.BigEndian.Uint16(fixed[2:4]),
		ItemType:        NewFourCC(fixed[4:8]),
	}

	name, err := readNulTerminated(r)
	if err != nil {
		return ItemInfo{}, err
	}
	info.ItemName = name

	return info, nil
}

// readNulTerminated reads bytes until (and including) a NUL byte,
// returning the string without the terminator.
func readNulTerminated(r io.Reader) (string, error) {
	var buf []byte
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return "", herr.Wrap("nul-terminated string", err)
		}
		if b[0] == 0 {
			return string(buf), nil
		}
		buf = append(buf, b[0])
	}
}
