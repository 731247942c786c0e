// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package hevc

import (
	"github.com/go-heif/heif/bitstream"
	"github.com/go-heif/heif/herr"
)

// SubLayerProfileTierLevel is the optional extended profile/level
// block decoded per sub-layer in profile_tier_level.
type SubLayerProfileTierLevel struct {
	ProfilePresent bool
	LevelPresent   bool

	ProfileSpace              uint8
	TierFlag                  bool
	ProfileIDC                uint8
	ProfileCompatibilityFlags uint32
	ConstraintIndicatorFlags  uint64 // low 48 bits significant
	LevelIDC                  uint8
}

// ProfileTierLevel is the general profile/tier/level block shared by
// VPS and SPS, followed by one entry per sub-layer.
type ProfileTierLevel struct {
	GeneralProfileSpace              uint8
	GeneralTierFlag                  bool
	GeneralProfileIDC                uint8
	GeneralProfileCompatibilityFlags uint32
	GeneralConstraintIndicatorFlags  uint64
	GeneralLevelIDC                  uint8

	SubLayers []SubLayerProfileTierLevel
}

// parseProfileTierLevel decodes profile_tier_level(maxSubLayersMinus1)
// per Rec. ITU-T H.265 §7.3.3: a fixed 12-byte general block, then a
// per-sub-layer presence-flag table padded to byte alignment, then a
// per-sub-layer extended block for each sub-layer that declared itself
// present.
func parseProfileTierLevel(br *bitstream.BitReader, maxSubLayersMinus1 uint8) (ProfileTierLevel, error) {
	var ptl ProfileTierLevel
	var err error

	u := func(n int) uint64 {
		if err != nil {
			return 0
		}
		var v uint64
		v, err = br.ReadBits(n)
		return v
	}
	boolOf := func(n int) bool { return u(n) != 0 }

	ptl.GeneralProfileSpace = uint8(u(2))
	ptl.GeneralTierFlag = boolOf(1)
	ptl.GeneralProfileIDC = uint8(u(5))
	ptl.GeneralProfileCompatibilityFlags = uint32(u(32))
	ptl.GeneralConstraintIndicatorFlags = u(48)
	ptl.GeneralLevelIDC = uint8(u(8))
	if err != nil {
		return ProfileTierLevel{}, herr.Structural("profile_tier_level", "%v", err)
	}

	n := int(maxSubLayersMinus1)
	profilePresent := make([]bool, n)
	levelPresent := make([]bool, n)
	for i := 0; i < n; i++ {
		profilePresent[i] = boolOf(1)
		levelPresent[i] = boolOf(1)
	}
	if err != nil {
		return ProfileTierLevel{}, herr.Structural("profile_tier_level", "%v", err)
	}

	if n > 0 {
		// reserved_zero_2bits padding for each of the remaining
		// sub-layers up to 8, per the standard's byte-alignment rule.
		for i := n; i < 8; i++ {
			u(2)
		}
		if err != nil {
			return ProfileTierLevel{}, herr.Structural("profile_tier_level", "%v", err)
		}
	}

	ptl.SubLayers = make([]SubLayerProfileTierLevel, n)
	for i := 0; i < n; i++ {
		sl := SubLayerProfileTierLevel{ProfilePresent: profilePresent[i], LevelPresent: levelPresent[i]}
		if profilePresent[i] {
			sl.ProfileSpace = uint8(u(2))
			sl.TierFlag = boolOf(1)
			sl.ProfileIDC = uint8(u(5))
			sl.ProfileCompatibilityFlags = uint32(u(32))
			sl.ConstraintIndicatorFlags = u(48)
		}
		if levelPresent[i] {
			sl.LevelIDC = uint8(u(8))
		}
		ptl.SubLayers[i] = sl
	}
	if err != nil {
		return ProfileTierLevel{}, herr.Structural("profile_tier_level", "%v", err)
	}

	return ptl, nil
}
