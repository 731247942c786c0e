// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package herr defines the single error type shared by the isobmff and
// hevc packages, split out to avoid an import cycle between them and
// the top-level heif package that re-exports it.
package herr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why a parse failed. It is not itself an error type;
// *Error carries one.
type Kind int

const (
	// KindStructural covers box-size and tree-shape violations: bad
	// box lengths, duplicate item ids, missing locators, a primary
	// item that doesn't exist, an unexpected child box, a box that
	// did not consume its declared length.
	KindStructural Kind = iota
	// KindVersion covers an unsupported full-box version for hdlr,
	// pitm, iloc, iinf or infe.
	KindVersion
	// KindRange covers a value that decoded fine but falls outside
	// the grammar's legal range: Exp-Golomb overflow, POC width,
	// ref-pic counts, entry-point offset width.
	KindRange
	// KindUnsupported covers grammar branches this reader declines to
	// decode: scaling-list data, PPS/SPS extensions, an inline
	// short_term_ref_pic_set or an lt_idx_sps entry in a slice header,
	// weighted prediction, HRD parameters.
	KindUnsupported
	// KindIO covers EOF mid-field and seek failures on the
	// underlying byte source.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindVersion:
		return "version"
	case KindRange:
		return "range"
	case KindUnsupported:
		return "unsupported"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is the single error value every fallible operation in this
// module returns. It carries a Kind, the box type or field name that
// was being decoded, a message, and an optional wrapped cause.
type Error struct {
	Kind  Kind
	Tag   string // offending box type or field name, e.g. "iloc" or "slice_qp_delta"
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Tag, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind, enabling
// errors.Is(err, herr.New(herr.KindUnsupported, "", "")) style checks
// against a sentinel built purely to carry a Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an *Error with no wrapped cause.
func New(kind Kind, tag, msg string) *Error {
	return &Error{Kind: kind, Tag: tag, Msg: msg}
}

// Newf builds an *Error with a formatted message.
func Newf(kind Kind, tag, format string, args ...any) *Error {
	return &Error{Kind: kind, Tag: tag, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds a KindIO *Error around an underlying I/O failure.
func Wrap(tag string, cause error) *Error {
	return &Error{Kind: KindIO, Tag: tag, Msg: "i/o failure", Cause: errors.Wrap(cause, tag)}
}

// Structural is a convenience constructor for KindStructural.
func Structural(tag, format string, args ...any) *Error {
	return Newf(KindStructural, tag, format, args...)
}

// Version is a convenience constructor for KindVersion.
func Version(tag string, got uint8) *Error {
	return Newf(KindVersion, tag, "unsupported version %d", got)
}

// Range is a convenience constructor for KindRange.
func Range(tag, format string, args ...any) *Error {
	return Newf(KindRange, tag, format, args...)
}

// Unsupported is a convenience constructor for KindUnsupported.
func Unsupported(tag, format string, args ...any) *Error {
	return Newf(KindUnsupported, tag, format, args...)
}
