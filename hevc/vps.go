// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package hevc

import (
	"github.com/go-heif/heif/bitstream"
	"github.com/go-heif/heif/herr"
)

// VPS is the decoded Video Parameter Set.
type VPS struct {
	ID                    uint8
	MaxLayersMinus1       uint8
	TemporalIDNesting     bool
	ProfileTierLevel      ProfileTierLevel
}

// ParseVPS decodes a Video Parameter Set from an already-unescaped
// payload.
func ParseVPS(payload []byte) (*VPS, error) {
	br := bitstream.New(payload)

	id, err := br.ReadU8(4)
	if err != nil {
		return nil, herr.Structural("vps", "%v", err)
	}
	if _, err := br.ReadBits(2); err != nil { // reserved
		return nil, herr.Structural("vps", "%v", err)
	}
	maxLayersMinus1, err := br.ReadU8(6)
	if err != nil {
		return nil, herr.Structural("vps", "%v", err)
	}
	nesting, err := br.ReadBool()
	if err != nil {
		return nil, herr.Structural("vps", "%v", err)
	}
	if _, err := br.ReadBits(16); err != nil { // reserved
		return nil, herr.Structural("vps", "%v", err)
	}

	ptl, err := parseProfileTierLevel(br, maxLayersMinus1)
	if err != nil {
		return nil, err
	}

	return &VPS{
		ID:                id,
		MaxLayersMinus1:   maxLayersMinus1,
		TemporalIDNesting: nesting,
		ProfileTierLevel:  ptl,
	}, nil
}
