// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package isobmff

import (
	"bytes"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestParseFileTypeAcceptsHeic(t *testing.T) {
	c := qt.New(t)

	buf := []byte("heic")
	buf = append(buf, 0, 0, 0, 1) // minor_version
	buf = append(buf, []byte("mif1")...)
	ft, err := ParseFileType(bytes.NewReader(buf), uint64(len(buf)))
	c.Assert(err, qt.IsNil)
	c.Assert(ft.MajorBrand, qt.Equals, BrandHeic)
	c.Assert(ft.IsHEIC(), qt.IsTrue)
}

func TestParseFileTypeAcceptsCompatibleHeic(t *testing.T) {
	c := qt.New(t)

	buf := []byte("mif1")
	buf = append(buf, 0, 0, 0, 0)
	buf = append(buf, []byte("heic")...)
	ft, err := ParseFileType(bytes.NewReader(buf), uint64(len(buf)))
	c.Assert(err, qt.IsNil)
	c.Assert(ft.IsHEIC(), qt.IsTrue)
}

func TestParseFileTypeRejectsNonMultipleOf4(t *testing.T) {
	c := qt.New(t)

	buf := make([]byte, 11)
	_, err := ParseFileType(bytes.NewReader(buf), uint64(len(buf)))
	c.Assert(err, qt.IsNotNil)
}
