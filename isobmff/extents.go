// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package isobmff

import (
	"io"

	"github.com/go-heif/heif/herr"
)

// ExtentsReader sequentially reads the concatenation of an item's
// extents, seeking the backing byte source as it crosses extent
// boundaries.
type ExtentsReader struct {
	src        io.ReadSeeker
	baseOffset uint64
	extents    []Extent
	cur        int
	posInCur   uint64
}

// NewExtentsReader creates a reader over loc's extents, positioning
// src at the start of the first extent.
func NewExtentsReader(src io.ReadSeeker, baseOffset uint64, extents []Extent) (*ExtentsReader, error) {
	er := &ExtentsReader{
		src:        src,
		baseOffset: baseOffset,
		extents:    extents,
	}
	if len(extents) > 0 {
		if _, err := src.Seek(int64(baseOffset+extents[0].Offset), io.SeekStart); err != nil {
			return nil, herr.Wrap("extents", err)
		}
	}
	return er, nil
}

// Read implements io.Reader, bounding each read to the remaining bytes
// of the current extent and advancing to the next extent on exact
// exhaustion.
func (er *ExtentsReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if er.cur >= len(er.extents) {
		return 0, io.EOF
	}

	cur := er.extents[er.cur]
	remaining := cur.Length - er.posInCur
	if remaining == 0 {
		// Zero-length extent: advance immediately.
		if err := er.advance(); err != nil {
			return 0, err
		}
		return er.Read(p)
	}

	want := uint64(len(p))
	if want > remaining {
		want = remaining
	}

	n, err := er.src.Read(p[:want])
	er.posInCur += uint64(n)
	if err != nil && err != io.EOF {
		return n, herr.Wrap("extents", err)
	}

	if er.posInCur == cur.Length {
		if advErr := er.advance(); advErr != nil {
			return n, advErr
		}
	}

	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (er *ExtentsReader) advance() error {
	er.cur++
	er.posInCur = 0
	if er.cur >= len(er.extents) {
		return nil
	}
	next := er.extents[er.cur]
	if next.Index != uint64(er.cur) {
		return herr.Structural("iloc", "extent %d has out-of-sequence index %d", er.cur, next.Index)
	}
	if _, err := er.src.Seek(int64(er.baseOffset+next.Offset), io.SeekStart); err != nil {
		return herr.Wrap("extents", err)
	}
	return nil
}
