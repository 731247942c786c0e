// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package isobmff

import (
	"encoding/binary"
	"io"

	"github.com/go-heif/heif/herr"
)

// FileType is the parsed ftyp box: the brand that gates whether this
// file is accepted as HEIF.
type FileType struct {
	MajorBrand       FourCC
	MinorVersion     uint32
	CompatibleBrands []FourCC
}

// IsHEIC reports whether this file type accepts the HEIC still-image
// brand, per the rule that the major brand or any compatible brand
// must equal "heic".
func (ft FileType) IsHEIC() bool {
	if ft.MajorBrand == BrandHeic {
		return true
	}
	for _, b := range ft.CompatibleBrands {
		if b == BrandHeic {
			return true
		}
	}
	return false
}

// ParseFileType reads an already-identified ftyp box's payload of
// dataSize bytes from r.
func ParseFileType(r io.Reader, dataSize uint64) (FileType, error) {
	if dataSize < 8 {
		return FileType{}, herr.Structural("ftyp", "data size %d below minimum 8", dataSize)
	}
	if (dataSize-8)%4 != 0 {
		return FileType{}, herr.Structural("ftyp", "remaining %d bytes after fixed fields is not a multiple of 4", dataSize-8)
	}

	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return FileType{}, herr.Wrap("ftyp", err)
	}

	ft := FileType{
		MajorBrand:   NewFourCC(buf[:4]),
		MinorVersion: binary.BigEndian.Uint32(buf[4:8]),
	}

	n := int((dataSize - 8) / 4)
	for i := 0; i < n; i++ {
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return FileType{}, herr.Wrap("ftyp", err)
		}
		ft.CompatibleBrands = append(ft.CompatibleBrands, NewFourCC(b[:]))
	}

	return ft, nil
}
