// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package herr

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestErrorIsMatchesOnKind(t *testing.T) {
	c := qt.New(t)

	err := Structural("iloc", "duplicate item id %d", 7)
	c.Assert(errors.Is(err, New(KindStructural, "", "")), qt.IsTrue)
	c.Assert(errors.Is(err, New(KindVersion, "", "")), qt.IsFalse)
}

func TestErrorMessageIncludesTag(t *testing.T) {
	c := qt.New(t)

	err := Version("pitm", 3)
	c.Assert(err.Error(), qt.Equals, "version: pitm: unsupported version 3")
}

func TestWrapPreservesCause(t *testing.T) {
	c := qt.New(t)

	cause := errors.New("seek failed")
	err := Wrap("extents", cause)
	c.Assert(err.Kind, qt.Equals, KindIO)
	c.Assert(errors.Unwrap(err), qt.IsNotNil)
}
